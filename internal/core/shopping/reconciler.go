package shopping

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"ingredient-engine/internal/core/ingredient"
	"ingredient-engine/internal/pkg/common"
)

const (
	defaultMaxRetries   = 3
	defaultRetryBackoff = 20 * time.Millisecond
)

// Reconciler 將食材以交易方式合併進持久化的購物清單
type Reconciler struct {
	store      Store
	locks      *KeyedMutex
	maxRetries int
	backoff    time.Duration
}

// ReconcilerOption 配置選項
type ReconcilerOption func(*Reconciler)

// WithMaxRetries 設置衝突重試次數
func WithMaxRetries(n int) ReconcilerOption {
	return func(r *Reconciler) {
		if n >= 0 {
			r.maxRetries = n
		}
	}
}

// WithRetryBackoff 設置重試間隔（依次數線性增加）
func WithRetryBackoff(d time.Duration) ReconcilerOption {
	return func(r *Reconciler) {
		if d >= 0 {
			r.backoff = d
		}
	}
}

// NewReconciler 創建合併器
func NewReconciler(store Store, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		store:      store,
		locks:      NewKeyedMutex(),
		maxRetries: defaultMaxRetries,
		backoff:    defaultRetryBackoff,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile 合併一批食材，返回受影響的項目（依輸入中首次出現的順序）
func (r *Reconciler) Reconcile(ctx context.Context, incoming []ingredient.Ingredient, recipeID *int64) ([]Item, error) {
	// 先在批次內依鍵合併，每個鍵只需一次交易
	grouped := Reconcile(nil, incoming, recipeID)

	out := make([]Item, 0, len(grouped))
	for _, item := range grouped {
		saved, err := r.mergeOne(ctx, item)
		if err != nil {
			return out, err
		}
		out = append(out, saved)
	}
	return out, nil
}

func (r *Reconciler) mergeOne(ctx context.Context, item Item) (Item, error) {
	unlock := r.locks.Lock(item.Key)
	defer unlock()

	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Item{}, ctx.Err()
			case <-time.After(r.backoff * time.Duration(attempt)):
			}
		}

		var saved Item
		err := r.store.Transact(ctx, func(tx Store) error {
			existing, err := tx.FindActiveByKey(ctx, item.Key)
			if err != nil {
				return err
			}
			if existing == nil {
				saved = item.clone()
				return tx.Insert(ctx, &saved)
			}
			saved = MergeItems(*existing, item)
			return tx.Update(ctx, &saved)
		})
		if err == nil {
			return saved, nil
		}
		if !errors.Is(err, ErrStoreConflict) {
			return Item{}, err
		}

		lastErr = err
		common.LogWarn("購物清單合併衝突，準備重試",
			zap.String("key", item.Key),
			zap.Int("attempt", attempt+1),
		)
	}

	common.LogError("購物清單合併失敗",
		zap.String("key", item.Key),
		zap.Int("max_retries", r.maxRetries),
		zap.Error(lastErr),
	)
	return Item{}, common.Wrap(common.ErrMergeConflict, lastErr)
}
