package macros

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	macrosCore "ingredient-engine/internal/core/macros"
	"ingredient-engine/internal/pkg/common"
)

// EstimateRequest 估算食譜營養素
type EstimateRequest struct {
	Lines []string `json:"lines" binding:"required"`
}

// MacrosResponse 營養素合計
type MacrosResponse struct {
	macrosCore.RecipeMacros
	Kcal    float64 `json:"kcal"`
	Skipped int     `json:"skipped"`
}

func newMacrosResponse(m macrosCore.RecipeMacros) MacrosResponse {
	return MacrosResponse{
		RecipeMacros: m,
		Kcal:         m.Kcal(),
		Skipped:      m.SkippedCount(),
	}
}

// Handler 營養素處理程序
type Handler struct {
	service *macrosCore.Service
}

// NewHandler 創建營養素處理程序
func NewHandler(service *macrosCore.Service) *Handler {
	return &Handler{service: service}
}

// HandleAggregate 解析營養素文件並加總
func (h *Handler) HandleAggregate(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		common.WriteError(c, common.NewValidationError("failed to read request body"))
		return
	}

	result, err := macrosCore.DecodeRecipe(raw)
	if err != nil {
		common.LogWarn("營養素文件無效",
			zap.Error(err),
			zap.String("request_id", common.RequestID(c)),
		)
		common.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, newMacrosResponse(result))
}

// HandleEstimate 透過外部模型估算並加總
func (h *Handler) HandleEstimate(c *gin.Context) {
	if !h.service.Enabled() {
		common.WriteError(c, common.ErrNormalizerDisabled)
		return
	}

	var req EstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.WriteError(c, common.NewValidationError("invalid request format: "+err.Error()))
		return
	}

	result, err := h.service.Estimate(c.Request.Context(), req.Lines)
	if err != nil {
		common.LogError("營養素估算失敗",
			zap.Error(err),
			zap.String("request_id", common.RequestID(c)),
		)
		common.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, newMacrosResponse(result))
}
