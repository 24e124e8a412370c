package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	drawmodel "matisse/internal/model/draw"
	"matisse/internal/pkg/cache"
	"matisse/internal/pkg/id"
	"matisse/internal/pkg/imagegen"
	"matisse/internal/pkg/promptfilter"
	"matisse/internal/pkg/storage"
	"matisse/internal/pkg/vision"
	drawrepo "matisse/internal/repository/draw"
)

var (
	// ErrInvalidImage 请求图片非法（为空或无法识别）
	ErrInvalidImage = errors.New("invalid image")

	// ErrUpstream 外部服务（描述模型/图片生成/对象存储）调用失败
	ErrUpstream = errors.New("upstream service error")
)

// StylizeRequest 风格化请求
type StylizeRequest struct {
	Image    []byte // 画作原始字节
	MimeType string // 画作 MIME 类型，默认 image/png
	Style    string // 风格提示，默认 卡通
	Size     string // 输出尺寸，空时由生成后端决定
	Save     bool   // 是否持久化到对象存储
	UserID   string // 用户ID（可选，来自鉴权）
}

// StylizeResult 风格化结果
type StylizeResult struct {
	Prompt   string `json:"prompt"`    // 生成使用的描述提示词
	ImageB64 string `json:"image_b64"` // base64 编码的生成图片
	ImageURL string `json:"image_url"` // 存储URL（未存储时为空）
}

// ResultCache 结果缓存能力
// *cache.RedisCache 实现了该接口
type ResultCache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// DrawService 画作风格化服务接口
type DrawService interface {
	// Stylize 执行本地流水线：描述画作 → 过滤提示词 → 生成图片 → 可选上传
	Stylize(ctx context.Context, req *StylizeRequest) (*StylizeResult, error)

	// ListGenerations 列出最近的生成记录
	ListGenerations(ctx context.Context, limit int64) ([]*drawmodel.Generation, error)
}

type drawService struct {
	describer vision.Describer
	filter    *promptfilter.Filter
	provider  imagegen.Provider
	store     storage.Storage         // 可选，为 nil 时不持久化
	cache     ResultCache             // 可选，为 nil 时不缓存
	genRepo   drawrepo.GenerationRepo // 可选，为 nil 时不落库
	resultTTL time.Duration
}

// NewDrawService 创建画作风格化服务
// store/cache/genRepo 均可为 nil，对应能力自动关闭
func NewDrawService(
	describer vision.Describer,
	filter *promptfilter.Filter,
	provider imagegen.Provider,
	store storage.Storage,
	resultCache ResultCache,
	genRepo drawrepo.GenerationRepo,
	resultTTL time.Duration,
) DrawService {
	if resultTTL == 0 {
		resultTTL = 30 * time.Minute
	}
	return &drawService{
		describer: describer,
		filter:    filter,
		provider:  provider,
		store:     store,
		cache:     resultCache,
		genRepo:   genRepo,
		resultTTL: resultTTL,
	}
}

// Stylize 执行本地风格化流水线
func (s *drawService) Stylize(ctx context.Context, req *StylizeRequest) (*StylizeResult, error) {
	if len(req.Image) == 0 {
		return nil, fmt.Errorf("%w: image is empty", ErrInvalidImage)
	}

	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = "image/png"
	}
	style := req.Style
	if style == "" {
		style = "卡通"
	}

	// 相同画作+风格+尺寸+save 直接命中缓存，避免重复计费
	// save 参与指纹：save=false 的缓存结果没有存储URL，不能回给 save=true 的请求
	cacheKey := cache.StylizeCacheKey(s.requestDigest(req.Image, style, req.Size, req.Save))
	if s.cache != nil {
		var cached StylizeResult
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			log.Debug().Str("key", cacheKey).Msg("stylize cache hit")
			return &cached, nil
		}
	}

	// 1. 多模态模型描述画作
	prompt, err := s.describer.Describe(ctx, req.Image, mimeType, style)
	if err != nil {
		return nil, fmt.Errorf("%w: describe drawing: %v", ErrUpstream, err)
	}

	// 2. 提示词内容过滤 + 风格后缀兜底
	if s.filter != nil {
		prompt = s.filter.Clean(prompt, style)
	}

	// 3. 图片生成
	imageData, err := s.provider.GenerateImage(ctx, prompt, req.Size)
	if err != nil {
		return nil, fmt.Errorf("%w: generate image: %v", ErrUpstream, err)
	}

	// 4. 可选上传对象存储
	var imageURL string
	if req.Save && s.store != nil {
		key := objectKey()
		imageURL, err = s.store.Upload(ctx, key, bytes.NewReader(imageData), "image/png")
		if err != nil {
			return nil, fmt.Errorf("%w: upload image: %v", ErrUpstream, err)
		}
	}

	result := &StylizeResult{
		Prompt:   prompt,
		ImageB64: base64.StdEncoding.EncodeToString(imageData),
		ImageURL: imageURL,
	}

	// 5. 记录与缓存失败只记日志，不影响结果
	if s.genRepo != nil {
		record := &drawmodel.Generation{
			ID:        id.New(),
			UserID:    req.UserID,
			Style:     style,
			Prompt:    prompt,
			ImageURL:  imageURL,
			Source:    drawmodel.SourceLocal,
			CreatedAt: time.Now(),
		}
		if err := s.genRepo.Insert(ctx, record); err != nil {
			log.Warn().Err(err).Msg("failed to record generation")
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, result, s.resultTTL); err != nil {
			log.Warn().Err(err).Msg("failed to cache stylize result")
		}
	}

	return result, nil
}

// ListGenerations 列出最近的生成记录
func (s *drawService) ListGenerations(ctx context.Context, limit int64) ([]*drawmodel.Generation, error) {
	if s.genRepo == nil {
		return nil, fmt.Errorf("generation history is not enabled")
	}
	return s.genRepo.ListRecent(ctx, limit)
}

// requestDigest 计算请求指纹：图片字节 + 风格 + 尺寸 + 是否持久化
func (s *drawService) requestDigest(image []byte, style, size string, save bool) string {
	h := sha256.New()
	h.Write(image)
	h.Write([]byte(style))
	h.Write([]byte(size))
	h.Write([]byte(strconv.FormatBool(save)))
	return hex.EncodeToString(h.Sum(nil))
}

// objectKey 生成存储对象 key: drawings/<yyyy/mm/dd>/<uuid>.png
func objectKey() string {
	now := time.Now()
	return fmt.Sprintf("drawings/%s/%s.png", now.Format("2006/01/02"), id.New())
}
