package draw

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"matisse/internal/model/draw"
	"matisse/internal/pkg/gateway"
	httputil "matisse/internal/pkg/http"
)

// StylizeCloud 画作风格化（纯远程委托，无本地回退）
// @Summary      画作风格化（云端）
// @Description  把整条风格化流水线委托给远程函数执行。网关未配置时返回503，委托失败时返回502，不回退本地流水线。
// @Tags         画作风格化
// @Accept       json
// @Accept       multipart/form-data
// @Produce      json
// @Param        request  body      StylizeRequest  true  "风格化请求"
// @Success      200      {object}  map[string]interface{}  "成功响应"
// @Failure      400      {object}  ErrorResponse  "请求参数错误"
// @Failure      502      {object}  ErrorResponse  "远程函数调用失败"
// @Failure      503      {object}  ErrorResponse  "网关未配置"
// @Router       /api/v1/draw/stylize/cloud [post]
func (h *Handler) StylizeCloud(c *gin.Context) {
	req, err := h.parseStylizeRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse(40001, "Invalid request", err.Error()))
		return
	}

	if h.delegator == nil {
		c.JSON(http.StatusServiceUnavailable, httputil.NewErrorResponse(50302, "gateway is not configured"))
		return
	}

	result, err := h.delegator.Stylize(c.Request.Context(), &gateway.StylizePayload{
		ImageB64: req.imageB64,
		MimeType: req.mimeType,
		Style:    req.style,
		Size:     req.size,
		Save:     req.save,
	})
	if err != nil {
		log.Warn().Err(err).Msg("gateway delegation failed")
		c.JSON(http.StatusBadGateway, httputil.NewErrorResponse(50202, err.Error()))
		return
	}

	c.JSON(http.StatusOK, httputil.NewSuccessResponse("风格化成功", StylizeResponseData{
		Prompt:   result.Prompt,
		ImageB64: result.ImageB64,
		ImageURL: result.ImageURL,
		Source:   draw.SourceGateway,
	}))
}
