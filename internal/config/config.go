package config

import (
	"errors"
	"time"
)

// Config 应用配置根结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Vision   VisionConfig   `mapstructure:"vision"`
	ImageGen ImageGenConfig `mapstructure:"imagegen"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Log      LogConfig      `mapstructure:"log"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	Mode          string        `mapstructure:"mode"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	MaxImageBytes int64         `mapstructure:"max_image_bytes"` // 单次请求图片大小上限
}

// VisionConfig 多模态描述模型配置
type VisionConfig struct {
	Provider string              `mapstructure:"provider"` // openai, azure, ark
	APIKey   string              `mapstructure:"api_key"`
	Model    string              `mapstructure:"model"`
	BaseURL  string              `mapstructure:"base_url"`
	Options  VisionOptionsConfig `mapstructure:"options"`
}

// VisionOptionsConfig 模型参数
type VisionOptionsConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	TopP        float64 `mapstructure:"top_p"`
}

// ImageGenConfig 图片生成配置
type ImageGenConfig struct {
	Provider  string     `mapstructure:"provider"` // ark, t2p
	APIKey    string     `mapstructure:"api_key"`  // ark API Key
	Model     string     `mapstructure:"model"`
	BaseURL   string     `mapstructure:"base_url"`
	Size      string     `mapstructure:"size"` // 默认输出尺寸，如 1024x1024
	Watermark bool       `mapstructure:"watermark"`
	T2P       *T2PConfig `mapstructure:"t2p,omitempty"`
}

// T2PConfig 火山引擎 visual 服务（Text-to-Picture）配置
type T2PConfig struct {
	AccessKey      string  `mapstructure:"access_key"`
	SecretKey      string  `mapstructure:"secret_key"`
	ReqKey         string  `mapstructure:"req_key"`
	Width          int     `mapstructure:"width"`
	Height         int     `mapstructure:"height"`
	Scale          float64 `mapstructure:"scale"`
	DDIMSteps      int     `mapstructure:"ddim_steps"`
	UsePreLLM      bool    `mapstructure:"use_pre_llm"`
	UseSR          bool    `mapstructure:"use_sr"`
	NegativePrompt string  `mapstructure:"negative_prompt"`
	APIURL         string  `mapstructure:"api_url"`
	Region         string  `mapstructure:"region"`
}

// GatewayConfig 远程函数委托配置
// URL 为空时禁用委托，stylize 接口只走本地流水线
type GatewayConfig struct {
	URL        string        `mapstructure:"url"`
	APIKey     string        `mapstructure:"api_key"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RetryCount int           `mapstructure:"retry_count"`
}

// CacheConfig 结果缓存配置
type CacheConfig struct {
	ResultTTL time.Duration `mapstructure:"result_ttl"` // 相同画作重复提交的命中时长
}

// LogConfig 日志配置 (Zerolog)
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	TimeFormat string `mapstructure:"time_format"`
}

// MongoConfig MongoDB 配置
type MongoConfig struct {
	URI         string `mapstructure:"uri"`
	Database    string `mapstructure:"database"`
	MaxPoolSize uint64 `mapstructure:"max_pool_size"`
	MinPoolSize uint64 `mapstructure:"min_pool_size"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig 认证配置
type AuthConfig struct {
	JWTSecret         string        `mapstructure:"jwt_secret"`          // JWT密钥，为空时接口不鉴权
	AccessTokenExpiry time.Duration `mapstructure:"access_token_expiry"` // Access Token过期时间
}

// StorageConfig 存储配置
type StorageConfig struct {
	Type  string       `mapstructure:"type"` // local, oss
	Local *LocalConfig `mapstructure:"local,omitempty"`
	OSS   *OSSConfig   `mapstructure:"oss,omitempty"`
}

// LocalConfig 本地文件系统配置
type LocalConfig struct {
	BasePath string `mapstructure:"base_path"` // 基础路径
	BaseURL  string `mapstructure:"base_url"`  // 基础URL（用于生成访问URL）
}

// OSSConfig 阿里云OSS配置
type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
}

// Validate 验证配置有效性
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("invalid server port")
	}

	validModes := map[string]bool{"debug": true, "release": true, "test": true}
	if !validModes[c.Server.Mode] {
		return errors.New("invalid server mode, must be debug/release/test")
	}

	validVision := map[string]bool{"openai": true, "azure": true, "ark": true, "": true}
	if !validVision[c.Vision.Provider] {
		return errors.New("invalid vision provider, must be openai/azure/ark")
	}

	validImageGen := map[string]bool{"ark": true, "t2p": true, "": true}
	if !validImageGen[c.ImageGen.Provider] {
		return errors.New("invalid imagegen provider, must be ark/t2p")
	}

	if c.Server.MaxImageBytes <= 0 {
		return errors.New("server.max_image_bytes must be positive")
	}

	return nil
}
