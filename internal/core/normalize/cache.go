package normalize

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ingredient-engine/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Entry 名稱正規化快取條目，建立後不再更新
type Entry struct {
	RawName        string    `json:"raw_name"`
	NormalizedName string    `json:"normalized_name"`
	CreatedAt      time.Time `json:"created_at"`
}

// Store 正規化結果的持久化儲存
type Store interface {
	// Lookup 查詢已儲存的結果
	Lookup(ctx context.Context, rawName string) (string, bool, error)
	// InsertIfAbsent 條件插入（insert-or-ignore），返回最終儲存的值
	InsertIfAbsent(ctx context.Context, rawName, normalizedName string) (string, error)
}

// ComputeFunc 外部正規化函式
type ComputeFunc func(ctx context.Context) (string, error)

const defaultComputeTimeout = 60 * time.Second

// Cache 讀穿式、只寫一次的名稱正規化快取
type Cache struct {
	store          Store
	group          singleflight.Group
	computeTimeout time.Duration
}

// CacheOption 快取選項
type CacheOption func(*Cache)

// WithComputeTimeout 共用計算的時間上限，與個別呼叫者的 context 無關
func WithComputeTimeout(d time.Duration) CacheOption {
	return func(c *Cache) {
		if d > 0 {
			c.computeTimeout = d
		}
	}
}

// NewCache 創建正規化快取
func NewCache(store Store, opts ...CacheOption) *Cache {
	c := &Cache{store: store, computeTimeout: defaultComputeTimeout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CacheKey 快取鍵：去除前後空白並轉小寫
func CacheKey(rawName string) string {
	return strings.ToLower(strings.TrimSpace(rawName))
}

// GetOrCompute 命中時直接返回；未命中時呼叫 compute 並條件寫入，
// 若其他寫入者先寫入，返回已儲存的值而非本次計算結果。
// compute 失敗、被取消或返回空字串時不寫入。
func (c *Cache) GetOrCompute(ctx context.Context, rawName string, compute ComputeFunc) (string, error) {
	key := CacheKey(rawName)
	if key == "" {
		return "", common.NewValidationError("raw name is empty")
	}

	if v, ok, err := c.store.Lookup(ctx, key); err != nil {
		return "", fmt.Errorf("failed to lookup normalization cache: %w", err)
	} else if ok {
		common.LogCacheHit("normalization", key)
		return v, nil
	}
	common.LogCacheMiss("normalization", key)

	// 同一程序內對同一鍵的並發未命中共用一次計算。
	// 計算脫離發起者的取消，只受 computeTimeout 限制；每個呼叫者各自等待自己的 ctx。
	ch := c.group.DoChan(key, func() (interface{}, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.computeTimeout)
		defer cancel()
		return c.computeAndStore(sctx, key, compute)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Shared {
			common.LogDebug("Normalization computed once for concurrent callers", zap.String("raw_name", key))
		}
		return res.Val.(string), nil
	}
}

func (c *Cache) computeAndStore(ctx context.Context, key string, compute ComputeFunc) (string, error) {
	// 等待期間可能已被其他程序寫入
	if v, ok, err := c.store.Lookup(ctx, key); err == nil && ok {
		return v, nil
	}

	result, err := compute(ctx)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	result = strings.TrimSpace(result)
	if result == "" {
		return "", common.ErrEmptyNormalization
	}

	stored, err := c.store.InsertIfAbsent(ctx, key, result)
	if err != nil {
		return "", fmt.Errorf("failed to store normalization: %w", err)
	}
	if stored != result {
		common.LogDebug("Normalization raced, keeping stored value",
			zap.String("raw_name", key),
			zap.String("stored", stored),
			zap.String("discarded", result),
		)
	}
	return stored, nil
}
