package shopping

import (
	"context"
	"errors"
)

// ErrStoreConflict 寫入衝突（唯一索引衝突或版本不符），可重試
var ErrStoreConflict = errors.New("shopping store: write conflict")

// Store 購物清單儲存。未完成項目的 Key 必須有唯一性約束。
type Store interface {
	// List 列出全部項目
	List(ctx context.Context) ([]Item, error)
	// Get 依 ID 取得，不存在時返回 common.ErrItemNotFound
	Get(ctx context.Context, id int64) (Item, error)
	// FindActiveByKey 取得該鍵的未完成項目，沒有時返回 nil
	FindActiveByKey(ctx context.Context, key string) (*Item, error)
	// Insert 新增並回填 ID 與 Version；違反唯一性時返回 ErrStoreConflict
	Insert(ctx context.Context, item *Item) error
	// Update 以 Version 做樂觀鎖更新；版本不符或違反唯一性時返回 ErrStoreConflict
	Update(ctx context.Context, item *Item) error
	// Delete 刪除項目，不存在時返回 common.ErrItemNotFound
	Delete(ctx context.Context, id int64) error
	// DeleteDone 刪除所有已完成項目
	DeleteDone(ctx context.Context) (int64, error)
	// Transact 在單一交易內執行 fn，fn 返回錯誤時回滾
	Transact(ctx context.Context, fn func(tx Store) error) error
}
