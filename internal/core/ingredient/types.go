package ingredient

// Ingredient 解析後的食材行
// Unit 不為空時 Quantity 必定存在。
type Ingredient struct {
	Quantity *float64 `json:"quantity"`
	Unit     Unit     `json:"unit,omitempty"`
	Name     string   `json:"name"`
	Prep     string   `json:"prep,omitempty"`
}

// HasQuantity 是否帶有數量
func (i Ingredient) HasQuantity() bool {
	return i.Quantity != nil
}

// Key 購物清單合併鍵
func (i Ingredient) Key() string {
	return Key(i.Unit, i.Name)
}

// Float 取得 float64 指標
func Float(v float64) *float64 {
	return &v
}
