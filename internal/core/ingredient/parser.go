package ingredient

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// leadingNumber 開頭的數字或範圍（1、1.5、1,5、1-2、1 – 2）
var leadingNumber = regexp.MustCompile(`^(\d+(?:[.,]\d+)?)(?:\s*[-–]\s*(\d+(?:[.,]\d+)?))?`)

// Parse 將一行自由文字解析為 Ingredient，永不失敗。
// 無法確定數量或單位時，整行文字作為名稱。
func Parse(line string) Ingredient {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Ingredient{}
	}

	quantity, rest, ok := parseLeadingQuantity(trimmed)
	if !ok {
		return Ingredient{Name: trimmed}
	}

	var unit Unit
	rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
	if token, after := nextToken(rest); token != "" {
		if u, ok := CanonicalizeUnit(token); ok {
			unit = u
			rest = after
		}
	}

	name, prep := splitPrep(rest)
	if name == "" {
		return Ingredient{Name: trimmed}
	}

	return Ingredient{
		Quantity: Float(quantity),
		Unit:     unit,
		Name:     name,
		Prep:     prep,
	}
}

// ParseLines 逐行解析，略過空白行
func ParseLines(lines []string) []Ingredient {
	out := make([]Ingredient, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, Parse(line))
	}
	return out
}

// parseLeadingQuantity 讀取開頭數字，返回數量與剩餘文字。
// 數字後必須是空白、行尾，或緊接一個標準單位（例如 200g）。
func parseLeadingQuantity(s string) (float64, string, bool) {
	m := leadingNumber.FindStringSubmatchIndex(s)
	if m == nil {
		return 0, s, false
	}

	low, ok := parseDecimal(s[m[2]:m[3]])
	if !ok {
		return 0, s, false
	}
	quantity := low
	if m[4] >= 0 {
		high, ok := parseDecimal(s[m[4]:m[5]])
		if !ok {
			return 0, s, false
		}
		quantity = (low + high) / 2
	}

	rest := s[m[1]:]
	if rest == "" {
		return quantity, rest, true
	}
	if r, _ := utf8.DecodeRuneInString(rest); unicode.IsSpace(r) {
		return quantity, rest, true
	}
	// 數字與單位相連
	if token, _ := nextToken(rest); token != "" {
		if _, ok := CanonicalizeUnit(token); ok {
			return quantity, rest, true
		}
	}
	return 0, s, false
}

// parseDecimal 逗號一律視為小數點
func parseDecimal(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// nextToken 取出下一個以空白分隔的詞
func nextToken(s string) (string, string) {
	idx := strings.IndexFunc(s, unicode.IsSpace)
	if idx == -1 {
		return s, ""
	}
	return s[:idx], s[idx:]
}

// splitPrep 以第一個逗號切分名稱與處理方式
func splitPrep(s string) (string, string) {
	name, prep, found := strings.Cut(s, ",")
	if !found {
		return strings.TrimSpace(s), ""
	}
	return strings.TrimSpace(name), strings.TrimSpace(prep)
}
