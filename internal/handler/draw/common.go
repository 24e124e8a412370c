package draw

import (
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/gin-gonic/gin"

	httputil "matisse/internal/pkg/http"
)

// ErrorResponse 错误响应类型别名（使用共用的 http.ErrorResponse）
type ErrorResponse = httputil.ErrorResponse

// StylizeRequest 风格化请求（JSON 模式）
type StylizeRequest struct {
	ImageB64 string `json:"image_b64" binding:"required"` // base64 编码的画作（必填）
	MimeType string `json:"mime_type"`                    // 画作 MIME 类型（可选，默认 image/png）
	Style    string `json:"style"`                        // 风格提示（可选，默认 卡通）
	Size     string `json:"size"`                         // 输出尺寸（可选）
	Save     *bool  `json:"save"`                         // 是否持久化（可选，默认 true）
}

// StylizeResponseData 风格化响应数据
type StylizeResponseData struct {
	Prompt   string `json:"prompt"`    // 生成使用的描述提示词
	ImageB64 string `json:"image_b64"` // base64 编码的生成图片
	ImageURL string `json:"image_url"` // 存储URL（未存储时为空）
	Source   string `json:"source"`    // local / gateway
}

// parsedRequest 解析后的请求
type parsedRequest struct {
	image    []byte
	imageB64 string
	mimeType string
	style    string
	size     string
	save     bool
}

// parseStylizeRequest 解析风格化请求
// 同时支持 JSON（base64 字段）和 multipart/form-data（file 部分 + 表单字段）
func (h *Handler) parseStylizeRequest(c *gin.Context) (*parsedRequest, error) {
	contentType := c.ContentType()

	if strings.HasPrefix(contentType, "multipart/form-data") {
		return h.parseMultipart(c)
	}
	return h.parseJSON(c)
}

func (h *Handler) parseJSON(c *gin.Context) (*parsedRequest, error) {
	var req StylizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}

	image, err := base64.StdEncoding.DecodeString(req.ImageB64)
	if err != nil {
		return nil, fmt.Errorf("invalid image_b64: %w", err)
	}
	if len(image) == 0 {
		return nil, fmt.Errorf("image is empty")
	}
	if int64(len(image)) > h.maxImageBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", h.maxImageBytes)
	}

	save := true
	if req.Save != nil {
		save = *req.Save
	}

	return &parsedRequest{
		image:    image,
		imageB64: req.ImageB64,
		mimeType: req.MimeType,
		style:    req.Style,
		size:     req.Size,
		save:     save,
	}, nil
}

func (h *Handler) parseMultipart(c *gin.Context) (*parsedRequest, error) {
	file, err := c.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("invalid file: %w", err)
	}
	if file.Size > h.maxImageBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", h.maxImageBytes)
	}

	f, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	image, err := io.ReadAll(io.LimitReader(f, h.maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(image) == 0 {
		return nil, fmt.Errorf("image is empty")
	}
	if int64(len(image)) > h.maxImageBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", h.maxImageBytes)
	}

	mimeType := file.Header.Get("Content-Type")

	save := true
	if v := c.PostForm("save"); v == "false" || v == "0" {
		save = false
	}

	return &parsedRequest{
		image:    image,
		imageB64: base64.StdEncoding.EncodeToString(image),
		mimeType: mimeType,
		style:    c.PostForm("style"),
		size:     c.PostForm("size"),
		save:     save,
	}, nil
}
