package draw

import (
	"context"

	"matisse/internal/pkg/gateway"
	"matisse/internal/service"
)

// Delegator 远程函数委托能力
// *gateway.Client 实现了该接口
type Delegator interface {
	Stylize(ctx context.Context, payload *gateway.StylizePayload) (*gateway.StylizeResult, error)
}

// Handler 画作风格化处理器
type Handler struct {
	drawService   service.DrawService // 本地流水线，可为 nil（未配置模型时）
	delegator     Delegator           // 远程委托，可为 nil（未配置网关时）
	maxImageBytes int64
}

// NewHandler 创建画作风格化处理器
func NewHandler(drawService service.DrawService, delegator Delegator, maxImageBytes int64) *Handler {
	if maxImageBytes <= 0 {
		maxImageBytes = 4 << 20
	}
	return &Handler{
		drawService:   drawService,
		delegator:     delegator,
		maxImageBytes: maxImageBytes,
	}
}
