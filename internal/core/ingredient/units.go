package ingredient

import "strings"

// Unit 標準單位，空字串代表無單位
type Unit string

// 六個標準單位
const (
	UnitGram       Unit = "g"
	UnitKilogram   Unit = "kg"
	UnitMilliliter Unit = "ml"
	UnitLiter      Unit = "L"
	UnitTeaspoon   Unit = "tsp"
	UnitTablespoon Unit = "tbsp"
)

// CanonicalUnits 依固定順序列出全部標準單位
var CanonicalUnits = []Unit{UnitGram, UnitKilogram, UnitMilliliter, UnitLiter, UnitTeaspoon, UnitTablespoon}

// unitVariants 拼寫變體（小寫）到標準單位的對照表。
// cup、oz、lb 等非公制單位刻意不收錄，保留在名稱中。
var unitVariants = map[string]Unit{
	"g":      UnitGram,
	"gr":     UnitGram,
	"gram":   UnitGram,
	"grams":  UnitGram,
	"gramme": UnitGram,

	"kg":        UnitKilogram,
	"kgs":       UnitKilogram,
	"kilo":      UnitKilogram,
	"kilos":     UnitKilogram,
	"kilogram":  UnitKilogram,
	"kilograms": UnitKilogram,

	"ml":          UnitMilliliter,
	"milliliter":  UnitMilliliter,
	"milliliters": UnitMilliliter,
	"millilitre":  UnitMilliliter,
	"millilitres": UnitMilliliter,

	"l":      UnitLiter,
	"liter":  UnitLiter,
	"liters": UnitLiter,
	"litre":  UnitLiter,
	"litres": UnitLiter,

	"tsp":       UnitTeaspoon,
	"tsps":      UnitTeaspoon,
	"teaspoon":  UnitTeaspoon,
	"teaspoons": UnitTeaspoon,

	"tbsp":        UnitTablespoon,
	"tbsps":       UnitTablespoon,
	"tbs":         UnitTablespoon,
	"tablespoon":  UnitTablespoon,
	"tablespoons": UnitTablespoon,
}

// CanonicalizeUnit 將單位拼寫轉為標準單位（不分大小寫）
func CanonicalizeUnit(token string) (Unit, bool) {
	u, ok := unitVariants[strings.ToLower(strings.TrimSpace(token))]
	return u, ok
}

// ParseUnit 只接受六個標準符號本身，用於解碼已儲存的資料
func ParseUnit(s string) (Unit, bool) {
	u := Unit(s)
	if u == "" {
		return "", true
	}
	if u.Valid() {
		return u, true
	}
	return "", false
}

// Valid 是否為標準單位
func (u Unit) Valid() bool {
	switch u {
	case UnitGram, UnitKilogram, UnitMilliliter, UnitLiter, UnitTeaspoon, UnitTablespoon:
		return true
	}
	return false
}

// wholeNumber g 與 ml 只顯示整數
func (u Unit) wholeNumber() bool {
	return u == UnitGram || u == UnitMilliliter
}
