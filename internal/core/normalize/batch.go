package normalize

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Normalizer 外部名稱正規化服務
type Normalizer interface {
	NormalizeName(ctx context.Context, rawName string) (string, error)
}

// NormalizeAll 以有限並發經由快取正規化多個名稱，結果順序與輸入相同
func (c *Cache) NormalizeAll(ctx context.Context, names []string, normalizer Normalizer, limit int) ([]string, error) {
	out := make([]string, len(names))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			v, err := c.GetOrCompute(gctx, name, func(ctx context.Context) (string, error) {
				return normalizer.NormalizeName(ctx, name)
			})
			if err != nil {
				return err
			}
			out[i] = v
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
