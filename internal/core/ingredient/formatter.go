package ingredient

import (
	"math"
	"strconv"
	"strings"
)

// DefaultScale 無效倍率時使用的預設值
const DefaultScale = 1.0

// Format 將 Ingredient 依倍率轉為顯示文字。
// NaN、無限大或負數倍率一律視為 1.0。
func Format(ing Ingredient, scale float64, includePrep bool) string {
	if math.IsNaN(scale) || math.IsInf(scale, 0) || scale < 0 {
		scale = DefaultScale
	}

	var sb strings.Builder
	if ing.Quantity != nil {
		sb.WriteString(FormatQuantity(*ing.Quantity*scale, ing.Unit))
		sb.WriteByte(' ')
		if ing.Unit != "" {
			sb.WriteString(string(ing.Unit))
			sb.WriteByte(' ')
		}
	}
	sb.WriteString(ing.Name)

	if ing.Quantity != nil && includePrep && ing.Prep != "" {
		sb.WriteString(", ")
		sb.WriteString(ing.Prep)
	}
	return sb.String()
}

// FormatQuantity 依單位格式化數量：g、ml 取整數，其餘保留兩位小數並去除尾端零
func FormatQuantity(q float64, unit Unit) string {
	var s string
	if unit.wholeNumber() {
		s = strconv.FormatFloat(math.Round(q), 'f', 0, 64)
	} else {
		s = strconv.FormatFloat(q, 'f', 2, 64)
		s = strings.TrimSuffix(strings.TrimRight(s, "0"), ".")
	}
	if s == "-0" {
		return "0"
	}
	return s
}
