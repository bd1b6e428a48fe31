package macros

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"ingredient-engine/internal/pkg/common"
)

// 外部估算器的輸出格式不固定，這裡把所有可接受的寫法明確對應到單一內部結構：
//
//	文件：  [entry, ...]  或  {"ingredients": [...]} / {"items": [...]}
//	名稱：  name > ingredient
//	蛋白質：protein_g > protein
//	脂肪：  fat_g > fat
//	碳水：  carbs_g > carbs > carbohydrates
//	略過：  skipped > skip；兩者皆無且沒有任何營養素欄位時視為略過
//	巢狀：  存在 "macros" 物件時只讀巢狀欄位，否則讀平鋪欄位
//
// 數值可為 JSON 數字或數字字串（可帶 "g" 後綴），負數、NaN 與缺值一律為 0。
// 文件中的合計欄位會被忽略，合計一律由 Aggregate 重新計算。

// flexFloat 接受數字或數字字串
type flexFloat struct {
	value float64
	set   bool
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	s = strings.TrimSpace(strings.Trim(s, `"`))
	s = strings.TrimSpace(strings.TrimSuffix(strings.ToLower(s), "g"))
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		// 非數值視為缺值
		return nil
	}
	f.value = v
	f.set = true
	return nil
}

type wireMacros struct {
	ProteinG      flexFloat `json:"protein_g"`
	Protein       flexFloat `json:"protein"`
	FatG          flexFloat `json:"fat_g"`
	Fat           flexFloat `json:"fat"`
	CarbsG        flexFloat `json:"carbs_g"`
	Carbs         flexFloat `json:"carbs"`
	Carbohydrates flexFloat `json:"carbohydrates"`
}

type wireEntry struct {
	Name       string `json:"name"`
	Ingredient string `json:"ingredient"`
	wireMacros
	Macros  *wireMacros `json:"macros"`
	Skipped *bool       `json:"skipped"`
	Skip    *bool       `json:"skip"`
}

type wireDocument struct {
	Ingredients []wireEntry `json:"ingredients"`
	Items       []wireEntry `json:"items"`
}

// Decode 解析外部估算器的營養素輸出
func Decode(raw []byte) ([]IngredientMacros, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, common.Wrap(common.ErrInvalidMacros, fmt.Errorf("empty document"))
	}

	var entries []wireEntry
	switch trimmed[0] {
	case '[':
		if err := common.ParseJSONBytes(trimmed, &entries); err != nil {
			return nil, common.Wrap(common.ErrInvalidMacros, err)
		}
	case '{':
		var doc wireDocument
		if err := common.ParseJSONBytes(trimmed, &doc); err != nil {
			return nil, common.Wrap(common.ErrInvalidMacros, err)
		}
		switch {
		case doc.Ingredients != nil:
			entries = doc.Ingredients
		case doc.Items != nil:
			entries = doc.Items
		default:
			return nil, common.Wrap(common.ErrInvalidMacros, fmt.Errorf("document has no ingredients"))
		}
	default:
		return nil, common.Wrap(common.ErrInvalidMacros, fmt.Errorf("unexpected document start %q", trimmed[0]))
	}

	out := make([]IngredientMacros, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.toMacros())
	}
	return out, nil
}

// DecodeRecipe 解析並加總
func DecodeRecipe(raw []byte) (RecipeMacros, error) {
	entries, err := Decode(raw)
	if err != nil {
		return RecipeMacros{}, err
	}
	return Aggregate(entries), nil
}

func (e wireEntry) toMacros() IngredientMacros {
	src := e.wireMacros
	if e.Macros != nil {
		src = *e.Macros
	}
	protein := firstSet(src.ProteinG, src.Protein)
	fat := firstSet(src.FatG, src.Fat)
	carbs := firstSet(src.CarbsG, src.Carbs, src.Carbohydrates)

	name := strings.TrimSpace(e.Name)
	if name == "" {
		name = strings.TrimSpace(e.Ingredient)
	}

	var skipped bool
	switch {
	case e.Skipped != nil:
		skipped = *e.Skipped
	case e.Skip != nil:
		skipped = *e.Skip
	default:
		skipped = !protein.set && !fat.set && !carbs.set
	}

	return IngredientMacros{
		Name:     name,
		ProteinG: nonNegative(protein.value),
		FatG:     nonNegative(fat.value),
		CarbsG:   nonNegative(carbs.value),
		Skipped:  skipped,
	}
}

func firstSet(candidates ...flexFloat) flexFloat {
	for _, c := range candidates {
		if c.set {
			return c
		}
	}
	return flexFloat{}
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
