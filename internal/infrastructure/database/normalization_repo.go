package database

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ingredient-engine/internal/core/normalize"
)

// NormalizationRepo 以資料表實現的正規化快取儲存
type NormalizationRepo struct {
	db     *gorm.DB
	hits   atomic.Int64
	misses atomic.Int64
}

// NewNormalizationRepo 創建正規化儲存
func NewNormalizationRepo(db *gorm.DB) *NormalizationRepo {
	return &NormalizationRepo{db: db}
}

var _ normalize.Store = (*NormalizationRepo)(nil)

// Lookup 查詢已儲存的結果
func (r *NormalizationRepo) Lookup(ctx context.Context, rawName string) (string, bool, error) {
	var rows []NormalizationEntryRow
	if err := r.db.WithContext(ctx).
		Where("raw_name = ?", rawName).
		Limit(1).
		Find(&rows).Error; err != nil {
		return "", false, fmt.Errorf("failed to lookup normalization: %w", err)
	}
	if len(rows) == 0 {
		r.misses.Add(1)
		return "", false, nil
	}
	r.hits.Add(1)
	return rows[0].NormalizedName, true, nil
}

// InsertIfAbsent INSERT ... ON CONFLICT DO NOTHING 後讀回最終儲存的值
func (r *NormalizationRepo) InsertIfAbsent(ctx context.Context, rawName, normalizedName string) (string, error) {
	row := NormalizationEntryRow{
		RawName:        rawName,
		NormalizedName: normalizedName,
		CreatedAt:      time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error; err != nil {
		return "", fmt.Errorf("failed to insert normalization: %w", err)
	}

	var stored NormalizationEntryRow
	if err := r.db.WithContext(ctx).
		Where("raw_name = ?", rawName).
		Take(&stored).Error; err != nil {
		return "", fmt.Errorf("failed to read back normalization: %w", err)
	}
	return stored.NormalizedName, nil
}

// GetStats 獲取快取統計信息
func (r *NormalizationRepo) GetStats() map[string]interface{} {
	var size int64
	r.db.Model(&NormalizationEntryRow{}).Count(&size)

	hits, misses := r.hits.Load(), r.misses.Load()
	hitRatio := 0.0
	if total := hits + misses; total > 0 {
		hitRatio = float64(hits) / float64(total)
	}
	return map[string]interface{}{
		"backend":   r.db.Dialector.Name(),
		"size":      size,
		"hits":      hits,
		"misses":    misses,
		"hit_ratio": hitRatio,
	}
}
