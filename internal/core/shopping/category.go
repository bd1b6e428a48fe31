package shopping

import "strings"

// 分類名稱
const (
	CategoryProduce = "produce"
	CategoryDairy   = "dairy"
	CategoryMeat    = "meat"
	CategoryBakery  = "bakery"
	CategoryPantry  = "pantry"
	CategorySpices  = "spices"
	CategoryDrinks  = "drinks"
)

// SuggestCategory 依食材名稱建議分類：先完全比對，再依關鍵字子字串比對，
// 無法判斷時返回空字串
func SuggestCategory(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return ""
	}
	if cat, ok := categoryExact[n]; ok {
		return cat
	}
	for _, kw := range categoryKeywords {
		if strings.Contains(n, kw.keyword) {
			return kw.category
		}
	}
	return ""
}

var categoryExact = map[string]string{
	"salt":        CategorySpices,
	"pepper":      CategorySpices,
	"egg":         CategoryDairy,
	"eggs":        CategoryDairy,
	"water":       CategoryDrinks,
	"rice":        CategoryPantry,
	"pasta":       CategoryPantry,
	"flour":       CategoryPantry,
	"sugar":       CategoryPantry,
	"oil":         CategoryPantry,
	"bread":       CategoryBakery,
	"ham":         CategoryMeat,
	"corn":        CategoryProduce,
	"green beans": CategoryProduce,
}

// 較長、較具體的關鍵字排在前面
var categoryKeywords = []struct {
	keyword  string
	category string
}{
	{"bell pepper", CategoryProduce},
	{"black pepper", CategorySpices},
	{"chili powder", CategorySpices},
	{"coconut milk", CategoryPantry},
	{"olive oil", CategoryPantry},
	{"soy sauce", CategoryPantry},
	{"baking powder", CategoryPantry},
	{"baking soda", CategoryPantry},
	{"ground beef", CategoryMeat},
	{"tortilla", CategoryBakery},
	{"baguette", CategoryBakery},
	{"cinnamon", CategorySpices},
	{"paprika", CategorySpices},
	{"oregano", CategorySpices},
	{"cumin", CategorySpices},
	{"nutmeg", CategorySpices},
	{"thyme", CategorySpices},
	{"chicken", CategoryMeat},
	{"steak", CategoryMeat},
	{"salmon", CategoryMeat},
	{"shrimp", CategoryMeat},
	{"bacon", CategoryMeat},
	{"sausage", CategoryMeat},
	{"turkey", CategoryMeat},
	{"beef", CategoryMeat},
	{"pork", CategoryMeat},
	{"lamb", CategoryMeat},
	{"tuna", CategoryMeat},
	{"fish", CategoryMeat},
	{"cheese", CategoryDairy},
	{"yogurt", CategoryDairy},
	{"butter", CategoryDairy},
	{"cream", CategoryDairy},
	{"milk", CategoryDairy},
	{"tomato", CategoryProduce},
	{"potato", CategoryProduce},
	{"carrot", CategoryProduce},
	{"garlic", CategoryProduce},
	{"onion", CategoryProduce},
	{"lemon", CategoryProduce},
	{"lime", CategoryProduce},
	{"apple", CategoryProduce},
	{"banana", CategoryProduce},
	{"spinach", CategoryProduce},
	{"lettuce", CategoryProduce},
	{"mushroom", CategoryProduce},
	{"basil", CategoryProduce},
	{"parsley", CategoryProduce},
	{"cilantro", CategoryProduce},
	{"ginger", CategoryProduce},
	{"zucchini", CategoryProduce},
	{"broccoli", CategoryProduce},
	{"cucumber", CategoryProduce},
	{"bread", CategoryBakery},
	{"bun", CategoryBakery},
	{"flour", CategoryPantry},
	{"sugar", CategoryPantry},
	{"vinegar", CategoryPantry},
	{"noodle", CategoryPantry},
	{"pasta", CategoryPantry},
	{"beans", CategoryPantry},
	{"lentil", CategoryPantry},
	{"honey", CategoryPantry},
	{"stock", CategoryPantry},
	{"broth", CategoryPantry},
	{"rice", CategoryPantry},
	{"oil", CategoryPantry},
	{"juice", CategoryDrinks},
	{"wine", CategoryDrinks},
	{"coffee", CategoryDrinks},
	{"tea", CategoryDrinks},
}
