package draw

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"matisse/internal/model/draw"
	"matisse/internal/pkg/ctxutil"
	"matisse/internal/pkg/gateway"
	httputil "matisse/internal/pkg/http"
	"matisse/internal/service"
)

// Stylize 画作风格化（优先远程委托，失败时回退本地流水线）
// @Summary      画作风格化
// @Description  将用户画作转换为指定风格的AI生成图片。优先把整条流水线委托给远程函数执行；委托不可用或失败时回退本地流水线（多模态描述 → 图片生成 → 可选上传对象存储）。
// @Tags         画作风格化
// @Accept       json
// @Accept       multipart/form-data
// @Produce      json
// @Param        request  body      StylizeRequest  true  "风格化请求"
// @Success      200      {object}  map[string]interface{}  "成功响应"
// @Failure      400      {object}  ErrorResponse  "请求参数错误"
// @Failure      502      {object}  ErrorResponse  "外部服务调用失败"
// @Failure      503      {object}  ErrorResponse  "服务未配置"
// @Router       /api/v1/draw/stylize [post]
func (h *Handler) Stylize(c *gin.Context) {
	req, err := h.parseStylizeRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse(40001, "Invalid request", err.Error()))
		return
	}

	ctx := c.Request.Context()

	// 优先委托远程函数
	if h.delegator != nil {
		result, err := h.delegator.Stylize(ctx, &gateway.StylizePayload{
			ImageB64: req.imageB64,
			MimeType: req.mimeType,
			Style:    req.style,
			Size:     req.size,
			Save:     req.save,
		})
		if err == nil {
			c.JSON(http.StatusOK, httputil.NewSuccessResponse("风格化成功", StylizeResponseData{
				Prompt:   result.Prompt,
				ImageB64: result.ImageB64,
				ImageURL: result.ImageURL,
				Source:   draw.SourceGateway,
			}))
			return
		}
		log.Warn().Err(err).Msg("gateway delegation failed, falling back to local pipeline")
	}

	if h.drawService == nil {
		c.JSON(http.StatusServiceUnavailable, httputil.NewErrorResponse(50301, "stylize pipeline is not configured"))
		return
	}

	result, err := h.drawService.Stylize(ctx, &service.StylizeRequest{
		Image:    req.image,
		MimeType: req.mimeType,
		Style:    req.style,
		Size:     req.size,
		Save:     req.save,
		UserID:   ctxutil.UserID(ctx),
	})
	if err != nil {
		status := http.StatusInternalServerError
		errorCode := 50001

		switch {
		case errors.Is(err, service.ErrInvalidImage):
			status = http.StatusBadRequest
			errorCode = 40002
		case errors.Is(err, service.ErrUpstream):
			status = http.StatusBadGateway
			errorCode = 50201
		}

		c.JSON(status, httputil.NewErrorResponse(errorCode, err.Error()))
		return
	}

	c.JSON(http.StatusOK, httputil.NewSuccessResponse("风格化成功", StylizeResponseData{
		Prompt:   result.Prompt,
		ImageB64: result.ImageB64,
		ImageURL: result.ImageURL,
		Source:   draw.SourceLocal,
	}))
}
