package ingredient

import "strings"

// Key 產生購物清單合併鍵：<單位>|<小寫去空白名稱>。
// 單位不同的同名食材是不同的鍵，不做跨單位合併。
func Key(unit Unit, name string) string {
	return string(unit) + "|" + strings.ToLower(strings.TrimSpace(name))
}
