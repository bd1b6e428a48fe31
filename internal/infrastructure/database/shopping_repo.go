package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"ingredient-engine/internal/core/shopping"
	"ingredient-engine/internal/pkg/common"
)

// ShoppingRepo 以 gorm 實現的購物清單儲存
type ShoppingRepo struct {
	db *gorm.DB
}

// NewShoppingRepo 創建購物清單儲存
func NewShoppingRepo(db *gorm.DB) *ShoppingRepo {
	return &ShoppingRepo{db: db}
}

var _ shopping.Store = (*ShoppingRepo)(nil)

// List 列出全部項目
func (r *ShoppingRepo) List(ctx context.Context) ([]shopping.Item, error) {
	var rows []ShoppingItemRow
	if err := r.db.WithContext(ctx).Order("done ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list shopping items: %w", err)
	}
	out := make([]shopping.Item, 0, len(rows))
	for _, row := range rows {
		out = append(out, toItem(row))
	}
	return out, nil
}

// Get 依 ID 取得
func (r *ShoppingRepo) Get(ctx context.Context, id int64) (shopping.Item, error) {
	var row ShoppingItemRow
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return shopping.Item{}, common.ErrItemNotFound
		}
		return shopping.Item{}, fmt.Errorf("failed to get shopping item: %w", err)
	}
	return toItem(row), nil
}

// FindActiveByKey 取得該鍵的未完成項目
func (r *ShoppingRepo) FindActiveByKey(ctx context.Context, key string) (*shopping.Item, error) {
	var rows []ShoppingItemRow
	if err := r.db.WithContext(ctx).
		Where("item_key = ? AND done = ?", key, false).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find active item: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	item := toItem(rows[0])
	return &item, nil
}

// Insert 新增項目
func (r *ShoppingRepo) Insert(ctx context.Context, item *shopping.Item) error {
	row := toRow(*item)
	row.ID = 0
	row.Version = 1
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return translateWriteError(err)
	}
	item.ID = row.ID
	item.Version = row.Version
	return nil
}

// Update 以 version 欄位做樂觀鎖更新
func (r *ShoppingRepo) Update(ctx context.Context, item *shopping.Item) error {
	row := toRow(*item)
	res := r.db.WithContext(ctx).
		Model(&ShoppingItemRow{}).
		Where("id = ? AND version = ?", item.ID, item.Version).
		Updates(map[string]interface{}{
			"name":       row.Name,
			"unit":       row.Unit,
			"quantity":   row.Quantity,
			"item_key":   row.ItemKey,
			"done":       row.Done,
			"category":   row.Category,
			"recipe_ids": row.RecipeIDs,
			"version":    item.Version + 1,
		})
	if res.Error != nil {
		return translateWriteError(res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&ShoppingItemRow{}).Where("id = ?", item.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check shopping item: %w", err)
		}
		if count == 0 {
			return common.ErrItemNotFound
		}
		return shopping.ErrStoreConflict
	}
	item.Version++
	return nil
}

// Delete 刪除項目
func (r *ShoppingRepo) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&ShoppingItemRow{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete shopping item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return common.ErrItemNotFound
	}
	return nil
}

// DeleteDone 刪除所有已完成項目
func (r *ShoppingRepo) DeleteDone(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Where("done = ?", true).Delete(&ShoppingItemRow{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete done items: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Transact 在資料庫交易內執行 fn
func (r *ShoppingRepo) Transact(ctx context.Context, fn func(tx shopping.Store) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ShoppingRepo{db: tx})
	})
}

// translateWriteError 唯一索引衝突轉為可重試的 ErrStoreConflict
func translateWriteError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", shopping.ErrStoreConflict, err)
	}
	return fmt.Errorf("failed to write shopping item: %w", err)
}
