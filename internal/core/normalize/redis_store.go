package normalize

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore 以 Redis SETNX 實現的共享正規化儲存
type RedisStore struct {
	client *redis.Client
	prefix string
	hits   atomic.Int64
	misses atomic.Int64
}

// NewRedisStore 創建 Redis 儲存
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ingredient:normalized:"
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

// Lookup 查詢已儲存的結果並計入命中統計
func (s *RedisStore) Lookup(ctx context.Context, rawName string) (string, bool, error) {
	v, ok, err := s.get(ctx, rawName)
	if err != nil {
		return "", false, err
	}
	if ok {
		s.hits.Add(1)
	} else {
		s.misses.Add(1)
	}
	return v, ok, nil
}

func (s *RedisStore) get(ctx context.Context, rawName string) (string, bool, error) {
	data, err := s.client.Get(ctx, s.key(rawName)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get cache: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return "", false, fmt.Errorf("failed to unmarshal cache: %w", err)
	}
	return entry.NormalizedName, true, nil
}

// InsertIfAbsent SETNX 寫入；鍵已存在時讀回既有值
func (s *RedisStore) InsertIfAbsent(ctx context.Context, rawName, normalizedName string) (string, error) {
	data, err := json.Marshal(Entry{
		RawName:        rawName,
		NormalizedName: normalizedName,
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal entry: %w", err)
	}

	ok, err := s.client.SetNX(ctx, s.key(rawName), data, 0).Result()
	if err != nil {
		return "", fmt.Errorf("failed to set cache: %w", err)
	}
	if ok {
		return normalizedName, nil
	}

	stored, found, err := s.get(ctx, rawName)
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("normalization entry for %q vanished after conflict", rawName)
	}
	return stored, nil
}

// GetStats 獲取快取統計信息；pool_* 為連線池統計
func (s *RedisStore) GetStats() map[string]interface{} {
	hits, misses := s.hits.Load(), s.misses.Load()
	hitRatio := 0.0
	if total := hits + misses; total > 0 {
		hitRatio = float64(hits) / float64(total)
	}
	pool := s.client.PoolStats()
	return map[string]interface{}{
		"backend":          "redis",
		"hits":             hits,
		"misses":           misses,
		"hit_ratio":        hitRatio,
		"pool_hits":        pool.Hits,
		"pool_misses":      pool.Misses,
		"pool_total_conns": pool.TotalConns,
		"pool_idle_conns":  pool.IdleConns,
	}
}

// Close 關閉連線
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(rawName string) string {
	return s.prefix + rawName
}
