package shopping

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	shoppingCore "ingredient-engine/internal/core/shopping"
	"ingredient-engine/internal/pkg/common"
)

// AddItemsRequest 將食譜食材加入購物清單
type AddItemsRequest struct {
	Lines     []string `json:"lines" binding:"required"`
	RecipeID  *int64   `json:"recipe_id,omitempty"`
	Normalize bool     `json:"normalize"`
}

// UpdateItemRequest 更新完成狀態或分類
type UpdateItemRequest struct {
	Done     *bool   `json:"done,omitempty"`
	Category *string `json:"category,omitempty"`
}

// ItemView 購物清單項目與顯示文字
type ItemView struct {
	shoppingCore.Item
	Display string `json:"display"`
}

func newItemView(it shoppingCore.Item) ItemView {
	return ItemView{Item: it, Display: it.Display()}
}

func newItemViews(items []shoppingCore.Item) []ItemView {
	out := make([]ItemView, 0, len(items))
	for _, it := range items {
		out = append(out, newItemView(it))
	}
	return out
}

// Handler 購物清單處理程序
type Handler struct {
	service *shoppingCore.Service
}

// NewHandler 創建購物清單處理程序
func NewHandler(service *shoppingCore.Service) *Handler {
	return &Handler{service: service}
}

// HandleList 列出購物清單
func (h *Handler) HandleList(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": newItemViews(items)})
}

// HandleAddItems 解析食材行並合併進購物清單
func (h *Handler) HandleAddItems(c *gin.Context) {
	requestID := common.RequestID(c)

	var req AddItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.WriteError(c, common.NewValidationError("invalid request format: "+err.Error()))
		return
	}

	common.LogInfo("加入購物清單",
		zap.String("request_id", requestID),
		zap.Int("lines", len(req.Lines)),
		zap.Bool("normalize", req.Normalize),
	)

	items, err := h.service.AddLines(c.Request.Context(), req.Lines, req.RecipeID, req.Normalize)
	if err != nil {
		common.LogError("加入購物清單失敗",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		common.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": newItemViews(items)})
}

// HandleUpdateItem 更新完成狀態或分類
func (h *Handler) HandleUpdateItem(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}

	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.WriteError(c, common.NewValidationError("invalid request format: "+err.Error()))
		return
	}
	if req.Done == nil && req.Category == nil {
		common.WriteError(c, common.NewValidationError("done or category is required"))
		return
	}

	item, err := h.service.Update(c.Request.Context(), id, shoppingCore.ItemUpdate{
		Done:     req.Done,
		Category: req.Category,
	})
	if err != nil {
		common.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, newItemView(item))
}

// HandleDeleteItem 刪除項目
func (h *Handler) HandleDeleteItem(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		common.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleClearDone 清除已完成項目
func (h *Handler) HandleClearDone(c *gin.Context) {
	n, err := h.service.ClearDone(c.Request.Context())
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

// HandleSuggestCategory 建議分類
func (h *Handler) HandleSuggestCategory(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		common.WriteError(c, common.NewValidationError("name is required"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"name":     name,
		"category": shoppingCore.SuggestCategory(name),
	})
}

func itemID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		common.WriteError(c, common.NewValidationError("invalid item id"))
		return 0, false
	}
	return id, true
}
