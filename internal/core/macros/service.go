package macros

import (
	"context"
	"fmt"
	"strings"

	"ingredient-engine/internal/core/ingredient"
	"ingredient-engine/internal/pkg/common"

	"go.uber.org/zap"
)

// Estimator 外部營養素估算器，返回原始輸出（由 Decode 解析）
type Estimator interface {
	EstimateMacros(ctx context.Context, names []string) ([]byte, error)
}

// Service 營養素估算服務
type Service struct {
	estimator Estimator
}

// NewService 創建營養素估算服務
func NewService(estimator Estimator) *Service {
	return &Service{estimator: estimator}
}

// Enabled 是否有可用的估算器
func (s *Service) Enabled() bool {
	return s != nil && s.estimator != nil
}

// Estimate 解析食材行、呼叫估算器並以名稱對應回食譜順序後加總。
// 估算器沒有回傳的食材以略過項目呈現。
func (s *Service) Estimate(ctx context.Context, lines []string) (RecipeMacros, error) {
	if !s.Enabled() {
		return RecipeMacros{}, common.ErrNormalizerDisabled
	}

	parsed := ingredient.ParseLines(lines)
	names := make([]string, len(parsed))
	for i, ing := range parsed {
		names[i] = ing.Name
	}
	if len(names) == 0 {
		return Aggregate(nil), nil
	}

	raw, err := s.estimator.EstimateMacros(ctx, names)
	if err != nil {
		return RecipeMacros{}, fmt.Errorf("failed to estimate macros: %w", err)
	}

	estimated, err := Decode(raw)
	if err != nil {
		return RecipeMacros{}, err
	}

	return Aggregate(JoinByName(names, estimated)), nil
}

// JoinByName 以名稱（不分大小寫）將估算結果排回 names 的順序
func JoinByName(names []string, estimated []IngredientMacros) []IngredientMacros {
	byName := make(map[string][]IngredientMacros, len(estimated))
	for _, m := range estimated {
		k := joinKey(m.Name)
		byName[k] = append(byName[k], m)
	}

	out := make([]IngredientMacros, 0, len(names))
	for i, name := range names {
		k := joinKey(name)
		if queue := byName[k]; len(queue) > 0 {
			m := queue[0]
			byName[k] = queue[1:]
			m.Name = name
			out = append(out, m)
			continue
		}
		// 名稱對不上時，退回同位置的項目
		if i < len(estimated) && estimated[i].Name == "" && len(byName[""]) > 0 {
			m := estimated[i]
			m.Name = name
			byName[""] = byName[""][1:]
			out = append(out, m)
			continue
		}
		out = append(out, IngredientMacros{Name: name, Skipped: true})
	}

	unmatched := 0
	for _, queue := range byName {
		unmatched += len(queue)
	}
	if unmatched > 0 {
		common.LogWarn("Macro estimates without a matching ingredient",
			zap.Int("unmatched", unmatched),
		)
	}
	return out
}

func joinKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
