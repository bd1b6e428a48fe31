package macros

// 熱量換算係數（每克 kcal）。沿用既有數值以維持與已計算資料一致，
// 不是 4/4/9 的 Atwater 係數。
const (
	ProteinKcalPerGram = 4.27
	CarbsKcalPerGram   = 3.87
	FatKcalPerGram     = 8.79
)

// IngredientMacros 單一食材的營養素估算
type IngredientMacros struct {
	Name     string  `json:"name"`
	ProteinG float64 `json:"protein_g"`
	FatG     float64 `json:"fat_g"`
	CarbsG   float64 `json:"carbs_g"`
	Skipped  bool    `json:"skipped"`
}

// RecipeMacros 食譜營養素合計與逐項明細（順序與食譜食材相同）
type RecipeMacros struct {
	ProteinG    float64            `json:"protein_g"`
	FatG        float64            `json:"fat_g"`
	CarbsG      float64            `json:"carbs_g"`
	Ingredients []IngredientMacros `json:"ingredients"`
}

// Aggregate 加總未略過的食材；略過的項目保留在明細中但不計入合計
func Aggregate(perIngredient []IngredientMacros) RecipeMacros {
	out := RecipeMacros{
		Ingredients: make([]IngredientMacros, len(perIngredient)),
	}
	copy(out.Ingredients, perIngredient)

	for _, m := range perIngredient {
		if m.Skipped {
			continue
		}
		out.ProteinG += m.ProteinG
		out.FatG += m.FatG
		out.CarbsG += m.CarbsG
	}
	return out
}

// Kcal 由三大營養素推算熱量
func Kcal(proteinG, carbsG, fatG float64) float64 {
	return proteinG*ProteinKcalPerGram + carbsG*CarbsKcalPerGram + fatG*FatKcalPerGram
}

// Kcal 食譜總熱量
func (r RecipeMacros) Kcal() float64 {
	return Kcal(r.ProteinG, r.CarbsG, r.FatG)
}

// SkippedCount 略過的食材數
func (r RecipeMacros) SkippedCount() int {
	n := 0
	for _, m := range r.Ingredients {
		if m.Skipped {
			n++
		}
	}
	return n
}
