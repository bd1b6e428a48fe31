package database

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"ingredient-engine/internal/core/ingredient"
	"ingredient-engine/internal/core/shopping"
	"ingredient-engine/internal/pkg/common"
)

// ShoppingItemRow 購物清單資料表。item_key 上的部分唯一索引保證每個鍵最多一個未完成項目。
type ShoppingItemRow struct {
	ID        int64          `gorm:"primaryKey;autoIncrement"`
	Name      string         `gorm:"not null"`
	Unit      string         `gorm:"not null"`
	Quantity  *float64       `gorm:"column:quantity"`
	ItemKey   string         `gorm:"column:item_key;not null;uniqueIndex:idx_shopping_items_active_key,where:done = false"`
	Done      bool           `gorm:"not null;index"`
	Category  string         `gorm:"not null"`
	RecipeIDs datatypes.JSON `gorm:"column:recipe_ids"`
	Version   int64          `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName 資料表名稱
func (ShoppingItemRow) TableName() string { return "shopping_items" }

// NormalizationEntryRow 名稱正規化快取資料表，寫入後不更新
type NormalizationEntryRow struct {
	RawName        string `gorm:"primaryKey"`
	NormalizedName string `gorm:"not null"`
	CreatedAt      time.Time
}

// TableName 資料表名稱
func (NormalizationEntryRow) TableName() string { return "normalization_entries" }

func toRow(item shopping.Item) ShoppingItemRow {
	ids := item.RecipeIDs
	if ids == nil {
		ids = shopping.RecipeIDs{}
	}
	raw, _ := json.Marshal([]int64(ids))
	return ShoppingItemRow{
		ID:        item.ID,
		Name:      item.Name,
		Unit:      string(item.Unit),
		Quantity:  item.Quantity,
		ItemKey:   item.Key,
		Done:      item.Done,
		Category:  item.Category,
		RecipeIDs: datatypes.JSON(raw),
		Version:   item.Version,
	}
}

func toItem(row ShoppingItemRow) shopping.Item {
	ids, ok := shopping.DecodeRecipeIDs(row.RecipeIDs)
	if !ok {
		// 格式錯誤的 recipe_ids 視為空集合
		common.LogWarn("recipe_ids 格式錯誤，視為空集合",
			zap.Int64("id", row.ID),
			zap.String("recipe_ids", string(row.RecipeIDs)),
		)
	}
	return shopping.Item{
		ID:        row.ID,
		Name:      row.Name,
		Unit:      ingredient.Unit(row.Unit),
		Quantity:  row.Quantity,
		Key:       row.ItemKey,
		Done:      row.Done,
		Category:  row.Category,
		RecipeIDs: ids,
		Version:   row.Version,
	}
}
