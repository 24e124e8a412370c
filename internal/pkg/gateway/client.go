package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"matisse/internal/config"
)

// StylizePayload 委托给远程函数的风格化请求
// 字段与本地 stylize 接口的 JSON 请求体一致
type StylizePayload struct {
	ImageB64 string `json:"image_b64"`
	MimeType string `json:"mime_type,omitempty"`
	Style    string `json:"style,omitempty"`
	Size     string `json:"size,omitempty"`
	Save     bool   `json:"save"`
}

// StylizeResult 远程函数返回的风格化结果
type StylizeResult struct {
	Prompt   string `json:"prompt"`
	ImageB64 string `json:"image_b64"`
	ImageURL string `json:"image_url"`
}

// envelope 远程函数的响应包装（与本地响应格式一致）
type envelope struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    *StylizeResult `json:"data,omitempty"`
}

// Client 远程函数委托客户端
// 通过 HTTP 网关把整条流水线交给远程函数执行
type Client struct {
	client *resty.Client
	url    string
}

// New 创建委托客户端
// URL 未配置时返回 nil，调用方把 nil 视为委托不可用
func New(cfg *config.GatewayConfig) *Client {
	if cfg == nil || cfg.URL == "" {
		return nil
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	client := resty.New()
	client.SetTimeout(timeout)
	if cfg.RetryCount > 0 {
		client.SetRetryCount(cfg.RetryCount)
		client.SetRetryWaitTime(1 * time.Second)
		client.SetRetryMaxWaitTime(5 * time.Second)
	}
	if cfg.APIKey != "" {
		client.SetHeader("X-Api-Key", cfg.APIKey)
	}

	return &Client{
		client: client,
		url:    cfg.URL,
	}
}

// Stylize 委托远程函数执行整条风格化流水线
// 传输错误、非2xx状态码、响应包装 code != 0 均视为委托失败
func (c *Client) Stylize(ctx context.Context, payload *StylizePayload) (*StylizeResult, error) {
	var result envelope

	response, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		SetResult(&result).
		Post(c.url)
	if err != nil {
		return nil, fmt.Errorf("call stylize function: %w", err)
	}

	if response.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("stylize function returned status %d: %s",
			response.StatusCode(), response.String())
	}

	if result.Code != 0 {
		return nil, fmt.Errorf("stylize function returned error code %d: %s",
			result.Code, result.Message)
	}

	if result.Data == nil || result.Data.ImageB64 == "" {
		return nil, fmt.Errorf("stylize function returned no image")
	}

	return result.Data, nil
}
