package shopping

import (
	"strings"

	"ingredient-engine/internal/core/ingredient"
)

// Reconcile 將新食材合併進現有購物清單（純函式，不修改輸入）。
// 相同鍵的未完成項目會累加數量並聯集食譜 ID；已完成項目不作為合併目標。
func Reconcile(existing []Item, incoming []ingredient.Ingredient, recipeID *int64) []Item {
	out := make([]Item, 0, len(existing)+len(incoming))
	active := make(map[string]int, len(existing))
	for _, it := range existing {
		it = it.clone()
		if it.Key == "" {
			it.Key = ingredient.Key(it.Unit, it.Name)
		}
		out = append(out, it)
		if !it.Done {
			active[it.Key] = len(out) - 1
		}
	}

	for _, ing := range incoming {
		if strings.TrimSpace(ing.Name) == "" {
			continue
		}
		item := NewItem(ing, recipeID)
		if idx, ok := active[item.Key]; ok {
			out[idx] = MergeItems(out[idx], item)
			continue
		}
		out = append(out, item)
		active[item.Key] = len(out) - 1
	}
	return out
}

// NewItem 由食材建立新的未完成項目
func NewItem(ing ingredient.Ingredient, recipeID *int64) Item {
	item := Item{
		Name:      strings.TrimSpace(ing.Name),
		Unit:      ing.Unit,
		Key:       ing.Key(),
		RecipeIDs: RecipeIDs{},
	}
	if ing.Quantity != nil {
		item.Quantity = ingredient.Float(*ing.Quantity)
	}
	if recipeID != nil {
		item.RecipeIDs = item.RecipeIDs.Add(*recipeID)
	}
	return item
}

// MergeItems 合併兩個相同鍵的項目；分類與完成狀態以 existing 為準
func MergeItems(existing, incoming Item) Item {
	out := existing.clone()
	out.Quantity = AddQuantity(existing.Quantity, incoming.Quantity)
	out.RecipeIDs = existing.RecipeIDs.Union(incoming.RecipeIDs)
	return out
}

// AddQuantity nil 視為加法單位元：nil + x = x，nil + nil = nil
func AddQuantity(a, b *float64) *float64 {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		return ingredient.Float(*b)
	case b == nil:
		return ingredient.Float(*a)
	default:
		return ingredient.Float(*a + *b)
	}
}
