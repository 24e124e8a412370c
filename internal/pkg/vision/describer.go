package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Describer 画作描述能力
// 输入画作字节和风格提示，返回可直接用于图片生成的文字描述
type Describer interface {
	Describe(ctx context.Context, image []byte, mimeType, style string) (string, error)
}

// ModelDescriber 基于 eino ChatModel 的多模态描述器
// 发送一条多模态用户消息：画作（data URL 图片分片）+ 指令文本分片
type ModelDescriber struct {
	chatModel model.BaseChatModel
}

// NewModelDescriber 创建多模态描述器
// chatModel 通过 ai/component.NewChatModel 创建，需支持图片输入
func NewModelDescriber(chatModel model.BaseChatModel) *ModelDescriber {
	return &ModelDescriber{
		chatModel: chatModel,
	}
}

// Describe 描述画作
func (d *ModelDescriber) Describe(ctx context.Context, image []byte, mimeType, style string) (string, error) {
	if d.chatModel == nil {
		return "", fmt.Errorf("chatModel is required")
	}
	if len(image) == 0 {
		return "", fmt.Errorf("image is empty")
	}
	if mimeType == "" {
		mimeType = "image/png"
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))

	messages := []*schema.Message{
		{
			Role: schema.User,
			MultiContent: []schema.ChatMessagePart{
				{
					Type: schema.ChatMessagePartTypeText,
					Text: buildInstruction(style),
				},
				{
					Type: schema.ChatMessagePartTypeImageURL,
					ImageURL: &schema.ChatMessageImageURL{
						URL:      dataURL,
						MIMEType: mimeType,
					},
				},
			},
		},
	}

	response, err := d.chatModel.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("failed to describe drawing: %w", err)
	}

	content := strings.TrimSpace(response.Content)
	if content == "" {
		return "", fmt.Errorf("empty response from chat model")
	}

	return content, nil
}

// buildInstruction 构建描述指令
// 让模型直接产出绘图提示词，避免输出寒暄或解释
func buildInstruction(style string) string {
	if style == "" {
		style = "卡通"
	}
	return fmt.Sprintf(
		"你是一名绘画助手。请用一段简洁的中文描述这幅画的主体、动作、场景和配色，"+
			"并在描述末尾加上「%s风格，画面干净，细节丰富」。"+
			"只输出描述本身，不要任何解释或开场白。", style)
}
