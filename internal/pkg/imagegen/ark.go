package imagegen

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/volcengine/volcengine-go-sdk/service/arkruntime"
	"github.com/volcengine/volcengine-go-sdk/service/arkruntime/model"

	"matisse/internal/config"
)

const (
	defaultArkBaseURL    = "https://ark.cn-beijing.volces.com/api/v3"
	defaultArkImageModel = "doubao-seedream-3-0-t2i-250415"
)

// ArkClient Ark 图片生成客户端
// 调用火山引擎 Ark API 的 images.generate 同步接口
type ArkClient struct {
	client    *arkruntime.Client
	model     string
	size      string
	watermark bool
}

// NewArkClient 创建 Ark 图片生成客户端
func NewArkClient(cfg *config.ImageGenConfig) (*ArkClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("imagegen.api_key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultArkBaseURL
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultArkImageModel
	}

	arkClient := arkruntime.NewClientWithApiKey(cfg.APIKey, arkruntime.WithBaseUrl(baseURL))

	return &ArkClient{
		client:    arkClient,
		model:     modelName,
		size:      cfg.Size,
		watermark: cfg.Watermark,
	}, nil
}

// GenerateImage 生成图片（同步接口）
func (c *ArkClient) GenerateImage(ctx context.Context, prompt, size string) ([]byte, error) {
	if size == "" {
		size = c.size
	}
	if size == "" {
		size = "1024x1024"
	}

	responseFormat := "b64_json"
	watermark := c.watermark

	input := model.GenerateImagesRequest{
		Model:          c.model,
		Prompt:         prompt,
		Size:           &size,
		ResponseFormat: &responseFormat,
		Watermark:      &watermark,
	}

	output, err := c.client.GenerateImages(ctx, input)
	if err != nil {
		log.Error().Err(err).Msg("failed to call Ark GenerateImages API")
		return nil, fmt.Errorf("Ark GenerateImages API call failed: %w", err)
	}

	if len(output.Data) == 0 {
		return nil, fmt.Errorf("no image data in response")
	}

	firstImage := output.Data[0]
	if firstImage.B64Json == nil {
		return nil, fmt.Errorf("no b64_json in response data")
	}

	imageData, err := base64.StdEncoding.DecodeString(*firstImage.B64Json)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image data: %w", err)
	}

	return imageData, nil
}
