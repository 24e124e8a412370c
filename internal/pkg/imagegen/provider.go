package imagegen

import (
	"context"
	"fmt"

	"matisse/internal/config"
)

// Provider 图片生成提供者
// 输入提示词，返回生成图片的原始字节
type Provider interface {
	GenerateImage(ctx context.Context, prompt, size string) ([]byte, error)
}

// NewProvider 根据配置创建图片生成提供者
func NewProvider(cfg *config.ImageGenConfig) (Provider, error) {
	switch cfg.Provider {
	case "ark", "":
		return NewArkClient(cfg)
	case "t2p":
		if cfg.T2P == nil {
			return nil, fmt.Errorf("t2p config is required")
		}
		return NewT2PClient(cfg.T2P)
	default:
		return nil, fmt.Errorf("unsupported imagegen provider: %s", cfg.Provider)
	}
}
