package normalize

import (
	"context"
	"sync"
	"time"

	"ingredient-engine/internal/pkg/common"

	"go.uber.org/zap"
)

// MemoryStore 程序內的正規化儲存，條目不過期也不淘汰
type MemoryStore struct {
	mu    sync.RWMutex
	store map[string]Entry
	stats storeStats
}

// storeStats 快取統計
type storeStats struct {
	hits     int64
	misses   int64
	inserts  int64
	conflict int64
}

// NewMemoryStore 創建記憶體儲存
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		store: make(map[string]Entry),
	}
}

// Lookup 查詢已儲存的結果
func (m *MemoryStore) Lookup(ctx context.Context, rawName string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, exists := m.store[rawName]; exists {
		m.stats.hits++
		return entry.NormalizedName, true, nil
	}
	m.stats.misses++
	return "", false, nil
}

// InsertIfAbsent 已存在時不覆寫，返回既有值
func (m *MemoryStore) InsertIfAbsent(ctx context.Context, rawName, normalizedName string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, exists := m.store[rawName]; exists {
		m.stats.conflict++
		return entry.NormalizedName, nil
	}
	m.store[rawName] = Entry{
		RawName:        rawName,
		NormalizedName: normalizedName,
		CreatedAt:      time.Now().UTC(),
	}
	m.stats.inserts++
	return normalizedName, nil
}

// Entries 返回所有條目的副本
func (m *MemoryStore) Entries() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Entry, 0, len(m.store))
	for _, e := range m.store {
		out = append(out, e)
	}
	return out
}

// GetStats 獲取快取統計信息
func (m *MemoryStore) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hitRatio := 0.0
	if total := m.stats.hits + m.stats.misses; total > 0 {
		hitRatio = float64(m.stats.hits) / float64(total)
	}
	return map[string]interface{}{
		"backend":   "memory",
		"size":      len(m.store),
		"hits":      m.stats.hits,
		"misses":    m.stats.misses,
		"inserts":   m.stats.inserts,
		"conflicts": m.stats.conflict,
		"hit_ratio": hitRatio,
	}
}

// Close 關閉儲存
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	common.LogInfo("正規化快取已關閉",
		zap.Int("條目數", len(m.store)),
		zap.Int64("命中次數", m.stats.hits),
		zap.Int64("未命中次數", m.stats.misses),
	)
	m.store = make(map[string]Entry)
	return nil
}
