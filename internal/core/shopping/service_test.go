package shopping

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"ingredient-engine/internal/core/normalize"
	"ingredient-engine/internal/pkg/common"
)

type fakeNormalizer struct {
	calls atomic.Int32
}

func (f *fakeNormalizer) NormalizeName(ctx context.Context, raw string) (string, error) {
	f.calls.Add(1)
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(raw)), "s"), nil
}

func newTestService(withNormalizer bool) (*Service, *MemoryStore, *fakeNormalizer) {
	store := NewMemoryStore()
	if !withNormalizer {
		return NewService(store, nil, nil, nil), store, nil
	}
	n := &fakeNormalizer{}
	return NewService(store, NewReconciler(store), normalize.NewCache(normalize.NewMemoryStore()), n), store, n
}

func TestAddLinesWithNormalization(t *testing.T) {
	svc, _, n := newTestService(true)
	ctx := context.Background()

	if _, err := svc.AddLines(ctx, []string{"2 Onions", "1 onion, diced"}, rid(1), true); err != nil {
		t.Fatalf("AddLines: %v", err)
	}
	items, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 || items[0].Name != "onion" || qty(items[0]) != 3 {
		t.Fatalf("items: %+v", items)
	}

	if _, err := svc.AddLines(ctx, []string{"onions"}, nil, true); err != nil {
		t.Fatalf("AddLines: %v", err)
	}
	if got := n.calls.Load(); got != 2 {
		t.Fatalf("normalizer calls: want=2 got=%d", got)
	}
}

func TestAddLinesNormalizerDisabled(t *testing.T) {
	svc, _, _ := newTestService(false)
	_, err := svc.AddLines(context.Background(), []string{"1 onion"}, nil, true)
	if !errors.Is(err, common.ErrNormalizerDisabled) {
		t.Fatalf("want ErrNormalizerDisabled, got=%v", err)
	}

	items, err := svc.AddLines(context.Background(), []string{"", "  "}, nil, false)
	if err != nil || len(items) != 0 {
		t.Fatalf("blank lines: items=%v err=%v", items, err)
	}
}

func TestSetDoneAndReactivate(t *testing.T) {
	svc, _, _ := newTestService(false)
	ctx := context.Background()

	first, err := svc.AddLines(ctx, []string{"100 g butter"}, nil, false)
	if err != nil {
		t.Fatalf("AddLines: %v", err)
	}
	id := first[0].ID

	done, err := svc.SetDone(ctx, id, true)
	if err != nil || !done.Done {
		t.Fatalf("SetDone(true): item=%+v err=%v", done, err)
	}

	// 已完成項目不再合併，新增一筆未完成項目
	second, err := svc.AddLines(ctx, []string{"50 g butter"}, nil, false)
	if err != nil || second[0].ID == id {
		t.Fatalf("AddLines after done: %+v err=%v", second, err)
	}

	if _, err := svc.SetDone(ctx, id, false); !errors.Is(err, common.ErrActiveKeyExists) {
		t.Fatalf("want ErrActiveKeyExists, got=%v", err)
	}

	if err := svc.Delete(ctx, second[0].ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	again, err := svc.SetDone(ctx, id, false)
	if err != nil || again.Done {
		t.Fatalf("SetDone(false): item=%+v err=%v", again, err)
	}
}

// 分類與完成狀態一起更新時，任一失敗都不留下部分寫入
func TestUpdateIsAllOrNothing(t *testing.T) {
	svc, store, _ := newTestService(false)
	ctx := context.Background()

	first, err := svc.AddLines(ctx, []string{"1 L milk"}, nil, false)
	if err != nil {
		t.Fatalf("AddLines: %v", err)
	}
	id := first[0].ID
	if _, err := svc.SetDone(ctx, id, true); err != nil {
		t.Fatalf("SetDone(true): %v", err)
	}
	if _, err := svc.AddLines(ctx, []string{"2 L milk"}, nil, false); err != nil {
		t.Fatalf("AddLines: %v", err)
	}

	done, category := false, "dairy"
	_, err = svc.Update(ctx, id, ItemUpdate{Done: &done, Category: &category})
	if !errors.Is(err, common.ErrActiveKeyExists) {
		t.Fatalf("want ErrActiveKeyExists, got=%v", err)
	}
	item, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if item.Category != "" || !item.Done {
		t.Fatalf("partial write: category=%q done=%v", item.Category, item.Done)
	}

	done = true
	item, err = svc.Update(ctx, id, ItemUpdate{Done: &done, Category: &category})
	if err != nil || item.Category != "dairy" || !item.Done {
		t.Fatalf("Update: item=%+v err=%v", item, err)
	}
}

func TestSetCategoryAndClearDone(t *testing.T) {
	svc, store, _ := newTestService(false)
	ctx := context.Background()

	items, _ := svc.AddLines(ctx, []string{"1 kg potatoes", "2 tbsp olive oil"}, nil, false)
	if items[0].Category != "" {
		t.Fatalf("new item category: want empty got=%q", items[0].Category)
	}

	cat, err := svc.SetCategory(ctx, items[0].ID, " "+SuggestCategory(items[0].Name)+" ")
	if err != nil || cat.Category != CategoryProduce {
		t.Fatalf("SetCategory: item=%+v err=%v", cat, err)
	}

	if _, err := svc.SetDone(ctx, items[1].ID, true); err != nil {
		t.Fatalf("SetDone: %v", err)
	}
	list, _ := svc.List(ctx)
	if list[0].Done || !list[1].Done {
		t.Fatalf("active items must be listed first: %+v", list)
	}

	n, err := svc.ClearDone(ctx)
	if err != nil || n != 1 {
		t.Fatalf("ClearDone: n=%d err=%v", n, err)
	}
	left, _ := store.List(ctx)
	if len(left) != 1 || left[0].Category != CategoryProduce {
		t.Fatalf("left: %+v", left)
	}
}

func TestMissingItem(t *testing.T) {
	svc, _, _ := newTestService(false)
	ctx := context.Background()

	if err := svc.Delete(ctx, 42); !errors.Is(err, common.ErrItemNotFound) {
		t.Fatalf("Delete: want ErrItemNotFound got=%v", err)
	}
	if _, err := svc.SetDone(ctx, 42, true); !errors.Is(err, common.ErrItemNotFound) {
		t.Fatalf("SetDone: want ErrItemNotFound got=%v", err)
	}
	if _, err := svc.SetCategory(ctx, 42, "dairy"); !errors.Is(err, common.ErrItemNotFound) {
		t.Fatalf("SetCategory: want ErrItemNotFound got=%v", err)
	}
}
