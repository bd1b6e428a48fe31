package shopping

import (
	"encoding/json"
	"sort"

	"ingredient-engine/internal/core/ingredient"
)

// Item 購物清單項目。Key 是 (Unit, Name) 的合併鍵，
// 任一時刻每個 Key 最多只有一個未完成（Done=false）的項目。
type Item struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Unit      ingredient.Unit `json:"unit,omitempty"`
	Quantity  *float64        `json:"quantity"`
	Key       string          `json:"key"`
	Done      bool            `json:"done"`
	Category  string          `json:"category,omitempty"`
	RecipeIDs RecipeIDs       `json:"recipe_ids"`
	// Version 樂觀鎖版本，由儲存層維護
	Version int64 `json:"-"`
}

// Ingredient 轉回食材以便格式化顯示
func (it Item) Ingredient() ingredient.Ingredient {
	return ingredient.Ingredient{
		Quantity: it.Quantity,
		Unit:     it.Unit,
		Name:     it.Name,
	}
}

// Display 顯示文字
func (it Item) Display() string {
	return ingredient.Format(it.Ingredient(), 1, false)
}

// clone 深拷貝指標與切片欄位
func (it Item) clone() Item {
	out := it
	if it.Quantity != nil {
		out.Quantity = ingredient.Float(*it.Quantity)
	}
	out.RecipeIDs = append(RecipeIDs(nil), it.RecipeIDs...)
	return out
}

// RecipeIDs 貢獻此項目的食譜 ID 集合（已排序、不重複）。
// 可能引用已刪除的食譜。
type RecipeIDs []int64

// Add 加入一個食譜 ID，返回新集合
func (r RecipeIDs) Add(id int64) RecipeIDs {
	if r.Contains(id) {
		return r
	}
	out := append(append(RecipeIDs(nil), r...), id)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Union 聯集
func (r RecipeIDs) Union(other RecipeIDs) RecipeIDs {
	out := append(make(RecipeIDs, 0, len(r)+len(other)), r...)
	for _, id := range other {
		out = out.Add(id)
	}
	return out
}

// Contains 是否包含
func (r RecipeIDs) Contains(id int64) bool {
	for _, v := range r {
		if v == id {
			return true
		}
	}
	return false
}

// MarshalJSON 空集合輸出為 []
func (r RecipeIDs) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]int64(r))
}

// DecodeRecipeIDs 解碼已儲存的 recipe_ids；格式錯誤時返回空集合而不報錯
func DecodeRecipeIDs(raw []byte) (RecipeIDs, bool) {
	if len(raw) == 0 {
		return RecipeIDs{}, true
	}
	var ids []int64
	if err := json.Unmarshal(raw, &ids); err != nil {
		return RecipeIDs{}, false
	}
	return RecipeIDs{}.Union(ids), true
}
