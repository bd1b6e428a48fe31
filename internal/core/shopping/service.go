package shopping

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"ingredient-engine/internal/core/ingredient"
	"ingredient-engine/internal/core/normalize"
	"ingredient-engine/internal/pkg/common"
)

const defaultNormalizeConcurrency = 4

// Service 購物清單服務
type Service struct {
	store      Store
	reconciler *Reconciler
	cache      *normalize.Cache
	normalizer normalize.Normalizer
	limit      int
}

// NewService 創建購物清單服務；cache 或 normalizer 為 nil 時不支援名稱正規化
func NewService(store Store, reconciler *Reconciler, cache *normalize.Cache, normalizer normalize.Normalizer) *Service {
	if reconciler == nil {
		reconciler = NewReconciler(store)
	}
	return &Service{
		store:      store,
		reconciler: reconciler,
		cache:      cache,
		normalizer: normalizer,
		limit:      defaultNormalizeConcurrency,
	}
}

// SetNormalizeConcurrency 設定同時進行的外部正規化呼叫數，n <= 0 時忽略
func (s *Service) SetNormalizeConcurrency(n int) {
	if n > 0 {
		s.limit = n
	}
}

// CanNormalize 是否可進行名稱正規化
func (s *Service) CanNormalize() bool {
	return s.cache != nil && s.normalizer != nil
}

// AddLines 解析食材行，可選擇先正規化名稱，再合併進購物清單
func (s *Service) AddLines(ctx context.Context, lines []string, recipeID *int64, normalizeNames bool) ([]Item, error) {
	parsed := ingredient.ParseLines(lines)
	if len(parsed) == 0 {
		return []Item{}, nil
	}

	if normalizeNames {
		if !s.CanNormalize() {
			return nil, common.ErrNormalizerDisabled
		}
		names := make([]string, len(parsed))
		for i, ing := range parsed {
			names[i] = ing.Name
		}
		normalized, err := s.cache.NormalizeAll(ctx, names, s.normalizer, s.limit)
		if err != nil {
			return nil, fmt.Errorf("failed to normalize names: %w", err)
		}
		for i := range parsed {
			parsed[i].Name = normalized[i]
		}
	}

	items, err := s.reconciler.Reconcile(ctx, parsed, recipeID)
	if err != nil {
		return nil, err
	}

	common.LogInfo("購物清單已更新",
		zap.Int("lines", len(lines)),
		zap.Int("items", len(items)),
	)
	return items, nil
}

// List 列出購物清單，未完成項目在前
func (s *Service) List(ctx context.Context) ([]Item, error) {
	items, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list shopping items: %w", err)
	}
	SortItems(items)
	return items, nil
}

// ItemUpdate 項目的部分更新，nil 欄位不變
type ItemUpdate struct {
	Done     *bool
	Category *string
}

// Update 在同一交易中套用分類與完成狀態；任何一項失敗時整筆不寫入。
// 取消完成時若同鍵已有未完成項目則返回 ErrActiveKeyExists。
func (s *Service) Update(ctx context.Context, id int64, upd ItemUpdate) (Item, error) {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return Item{}, err
	}

	unlock := s.reconciler.locks.Lock(current.Key)
	defer unlock()

	reactivate := false
	var saved Item
	err = s.store.Transact(ctx, func(tx Store) error {
		item, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		changed := false
		if upd.Category != nil {
			if category := strings.TrimSpace(*upd.Category); category != item.Category {
				item.Category = category
				changed = true
			}
		}
		if upd.Done != nil && item.Done != *upd.Done {
			if !*upd.Done {
				reactivate = true
				other, err := tx.FindActiveByKey(ctx, item.Key)
				if err != nil {
					return err
				}
				if other != nil && other.ID != item.ID {
					return common.ErrActiveKeyExists
				}
			}
			item.Done = *upd.Done
			changed = true
		}
		if changed {
			if err := tx.Update(ctx, &item); err != nil {
				return err
			}
		}
		saved = item
		return nil
	})
	if errors.Is(err, ErrStoreConflict) {
		if reactivate {
			return Item{}, common.Wrap(common.ErrActiveKeyExists, err)
		}
		return Item{}, common.Wrap(common.ErrConflict, err)
	}
	return saved, err
}

// SetDone 標記完成或取消完成
func (s *Service) SetDone(ctx context.Context, id int64, done bool) (Item, error) {
	return s.Update(ctx, id, ItemUpdate{Done: &done})
}

// SetCategory 設置分類（空字串表示清除）
func (s *Service) SetCategory(ctx context.Context, id int64, category string) (Item, error) {
	return s.Update(ctx, id, ItemUpdate{Category: &category})
}

// Delete 刪除項目
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.store.Delete(ctx, id)
}

// ClearDone 清除所有已完成項目
func (s *Service) ClearDone(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteDone(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to clear done items: %w", err)
	}
	common.LogInfo("已清除完成項目", zap.Int64("count", n))
	return n, nil
}
