package ingredient

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	ingredientCore "ingredient-engine/internal/core/ingredient"
	"ingredient-engine/internal/core/normalize"
	"ingredient-engine/internal/pkg/common"
)

// ParseRequest 解析食材行
type ParseRequest struct {
	Lines []string `json:"lines" binding:"required"`
}

// ParsedLine 單行解析結果
type ParsedLine struct {
	Input      string                    `json:"input"`
	Ingredient ingredientCore.Ingredient `json:"ingredient"`
	Text       string                    `json:"text"`
	Key        string                    `json:"key"`
}

// FormatRequest 格式化食材
type FormatRequest struct {
	Ingredients []ingredientCore.Ingredient `json:"ingredients" binding:"required"`
	Scale       *float64                    `json:"scale,omitempty"`
	IncludePrep bool                        `json:"include_prep"`
}

// NormalizeRequest 正規化食材名稱
type NormalizeRequest struct {
	Names []string `json:"names" binding:"required"`
}

// Handler 食材解析、格式化與名稱正規化
type Handler struct {
	cache      *normalize.Cache
	normalizer normalize.Normalizer
	limit      int
}

// NewHandler 創建處理程序；cache 或 normalizer 為 nil 時正規化端點返回 503
func NewHandler(cache *normalize.Cache, normalizer normalize.Normalizer, limit int) *Handler {
	return &Handler{
		cache:      cache,
		normalizer: normalizer,
		limit:      limit,
	}
}

// HandleParse 解析食材行
func (h *Handler) HandleParse(c *gin.Context) {
	var req ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.WriteError(c, common.NewValidationError("invalid request format: "+err.Error()))
		return
	}

	out := make([]ParsedLine, 0, len(req.Lines))
	for _, line := range req.Lines {
		ing := ingredientCore.Parse(line)
		out = append(out, ParsedLine{
			Input:      line,
			Ingredient: ing,
			Text:       ingredientCore.Format(ing, ingredientCore.DefaultScale, true),
			Key:        ing.Key(),
		})
	}

	c.JSON(http.StatusOK, gin.H{"lines": out})
}

// HandleFormat 依倍率格式化食材
func (h *Handler) HandleFormat(c *gin.Context) {
	var req FormatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.WriteError(c, common.NewValidationError("invalid request format: "+err.Error()))
		return
	}

	scale := ingredientCore.DefaultScale
	if req.Scale != nil {
		scale = *req.Scale
	}

	lines := make([]string, 0, len(req.Ingredients))
	for _, ing := range req.Ingredients {
		if ing.Unit != "" {
			unit, ok := ingredientCore.CanonicalizeUnit(string(ing.Unit))
			if !ok {
				common.WriteError(c, common.NewValidationError("unknown unit: "+string(ing.Unit)))
				return
			}
			ing.Unit = unit
		}
		if ing.Unit != "" && ing.Quantity == nil {
			common.WriteError(c, common.NewValidationError("unit requires a quantity"))
			return
		}
		lines = append(lines, ingredientCore.Format(ing, scale, req.IncludePrep))
	}

	c.JSON(http.StatusOK, gin.H{"lines": lines})
}

// HandleNormalize 經由快取正規化名稱
func (h *Handler) HandleNormalize(c *gin.Context) {
	if h.cache == nil || h.normalizer == nil {
		common.WriteError(c, common.ErrNormalizerDisabled)
		return
	}

	var req NormalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.WriteError(c, common.NewValidationError("invalid request format: "+err.Error()))
		return
	}

	names, err := h.cache.NormalizeAll(c.Request.Context(), req.Names, h.normalizer, h.limit)
	if err != nil {
		common.LogError("名稱正規化失敗",
			zap.Error(err),
			zap.Int("names", len(req.Names)),
			zap.String("request_id", common.RequestID(c)),
		)
		common.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"names": names})
}
