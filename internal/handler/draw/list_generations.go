package draw

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"matisse/internal/model/draw"
	httputil "matisse/internal/pkg/http"
)

// ListGenerationsResponseData 生成记录列表响应数据
type ListGenerationsResponseData struct {
	Generations []*draw.Generation `json:"generations"` // 生成记录列表
	Count       int                `json:"count"`       // 记录数量
}

// ListGenerations 列出最近的生成记录
// @Summary      生成记录列表
// @Description  按创建时间倒序列出最近的风格化生成记录。
// @Tags         画作风格化
// @Produce      json
// @Param        limit  query     int  false  "返回条数（默认20，最大100）"
// @Success      200    {object}  map[string]interface{}  "成功响应"
// @Failure      500    {object}  ErrorResponse  "服务器内部错误"
// @Router       /api/v1/draw/generations [get]
func (h *Handler) ListGenerations(c *gin.Context) {
	limit := int64(20)
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > 100 {
		limit = 100
	}

	generations, err := h.drawService.ListGenerations(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, httputil.NewErrorResponse(50001, err.Error()))
		return
	}

	c.JSON(http.StatusOK, httputil.NewSuccessResponse("获取成功", ListGenerationsResponseData{
		Generations: generations,
		Count:       len(generations),
	}))
}
