package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"matisse/internal/ai/component"
	"matisse/internal/config"
	"matisse/internal/handler"
	drawHandler "matisse/internal/handler/draw"
	"matisse/internal/pkg/cache"
	"matisse/internal/pkg/gateway"
	"matisse/internal/pkg/imagegen"
	"matisse/internal/pkg/jwt"
	"matisse/internal/pkg/mongodb"
	"matisse/internal/pkg/promptfilter"
	"matisse/internal/pkg/storage"
	"matisse/internal/pkg/storagefactory"
	"matisse/internal/pkg/vision"
	drawRepo "matisse/internal/repository/draw"
	"matisse/internal/server/middleware"
	"matisse/internal/service"
)

// Server HTTP 服务器
type Server struct {
	cfg     *config.Config
	engine  *gin.Engine
	mongo   *mongodb.Client
	redis   *cache.RedisCache
	drawSvc service.DrawService
	gateway *gateway.Client
}

// New 创建服务器实例
func New(cfg *config.Config) (*Server, error) {
	// 设置 Gin 模式
	switch cfg.Server.Mode {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建 Gin 引擎
	engine := gin.New()

	// 初始化 MongoDB (可选，用于生成记录)
	var mongoClient *mongodb.Client
	if cfg.Mongo.URI != "" {
		client, err := mongodb.New(&cfg.Mongo)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to MongoDB, continuing without it")
		} else {
			mongoClient = client
			log.Info().Str("database", cfg.Mongo.Database).Msg("connected to MongoDB")
		}
	}

	// 初始化 Redis (可选，用于结果缓存)
	var redisCache *cache.RedisCache
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisCache(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, continuing without it")
		} else {
			redisCache = rc
			log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")
		}
	}

	// 初始化本地风格化流水线（可选，缺少模型配置时只能走远程委托）
	drawSvc, err := buildDrawService(cfg, mongoClient, redisCache)
	if err != nil {
		log.Warn().Err(err).Msg("local stylize pipeline disabled")
	}

	// 初始化远程函数委托客户端（可选）
	gatewayClient := gateway.New(&cfg.Gateway)
	if gatewayClient != nil {
		log.Info().Str("url", cfg.Gateway.URL).Msg("gateway delegation enabled")
	}

	if drawSvc == nil && gatewayClient == nil {
		log.Warn().Msg("neither local pipeline nor gateway is configured, stylize endpoints will return 503")
	}

	srv := &Server{
		cfg:     cfg,
		engine:  engine,
		mongo:   mongoClient,
		redis:   redisCache,
		drawSvc: drawSvc,
		gateway: gatewayClient,
	}

	// 设置路由
	srv.setupRoutes()

	return srv, nil
}

// buildDrawService 组装本地风格化流水线
// 描述模型和图片生成后端是硬依赖，存储/缓存/落库为可选能力
func buildDrawService(cfg *config.Config, mongoClient *mongodb.Client, redisCache *cache.RedisCache) (service.DrawService, error) {
	if cfg.Vision.APIKey == "" {
		return nil, errors.New("vision.api_key is not configured")
	}

	ctx := context.Background()

	chatModel, err := component.NewChatModel(ctx, &cfg.Vision)
	if err != nil {
		return nil, err
	}
	describer := vision.NewModelDescriber(chatModel)

	filter, err := promptfilter.New()
	if err != nil {
		return nil, err
	}

	provider, err := imagegen.NewProvider(&cfg.ImageGen)
	if err != nil {
		return nil, err
	}

	// 对象存储（可选）
	var store storage.Storage
	if cfg.Storage.Type != "" {
		st, err := storagefactory.NewStorage(ctx, &cfg.Storage)
		if err != nil {
			log.Warn().Err(err).Msg("storage disabled, generated images will not be persisted")
		} else {
			store = st
		}
	} else {
		log.Warn().Msg("storage is not configured, generated images will not be persisted")
	}

	// 生成记录（可选）
	var genRepo drawRepo.GenerationRepo
	if mongoClient != nil {
		genRepo = drawRepo.NewGenerationRepo(mongoClient.Database())
	}

	// 避免把 nil 指针装进接口
	var resultCache service.ResultCache
	if redisCache != nil {
		resultCache = redisCache
	}

	return service.NewDrawService(
		describer,
		filter,
		provider,
		store,
		resultCache,
		genRepo,
		cfg.Cache.ResultTTL,
	), nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	// 全局中间件
	s.engine.Use(middleware.Recovery())
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.Logger())
	s.engine.Use(middleware.CORS())

	// 健康检查
	healthHandler := handler.NewHealthHandler()
	s.engine.GET("/health", healthHandler.Health)
	s.engine.GET("/ready", healthHandler.Ready)

	// Swagger 文档
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1
	v1 := s.engine.Group("/api/v1")

	// 配置了 jwt_secret 时对业务接口启用鉴权
	api := v1.Group("")
	if s.cfg.Auth.JWTSecret != "" {
		expiry := s.cfg.Auth.AccessTokenExpiry
		if expiry == 0 {
			expiry = 24 * time.Hour
		}
		jwtUtil := jwt.NewJWT(s.cfg.Auth.JWTSecret, expiry)
		api.Use(middleware.Auth(jwtUtil))
	}

	var delegator drawHandler.Delegator
	if s.gateway != nil {
		delegator = s.gateway
	}
	drawHdl := drawHandler.NewHandler(s.drawSvc, delegator, s.cfg.Server.MaxImageBytes)

	api.POST("/draw/stylize", drawHdl.Stylize)
	api.POST("/draw/stylize/cloud", drawHdl.StylizeCloud)

	// 生成记录列表只在落库可用时注册
	if s.mongo != nil && s.drawSvc != nil {
		api.GET("/draw/generations", drawHdl.ListGenerations)
	}
}

// Run 启动服务器
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	// 启动服务器
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待关闭信号或错误
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server...")

		// 关闭连接
		if s.mongo != nil {
			if err := s.mongo.Close(context.Background()); err != nil {
				log.Error().Err(err).Msg("failed to close MongoDB connection")
			}
		}
		if s.redis != nil {
			if err := s.redis.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close Redis connection")
			}
		}

		return srv.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}

// Engine 获取 Gin 引擎 (用于测试)
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
