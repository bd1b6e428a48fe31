package shopping

import (
	"context"
	"sort"
	"sync"

	"ingredient-engine/internal/pkg/common"
)

// MemoryStore 記憶體中的購物清單儲存（database.driver=memory 與測試使用）
type MemoryStore struct {
	mu    sync.Mutex
	state *memState
}

type memState struct {
	items  map[int64]Item
	nextID int64
}

// NewMemoryStore 創建記憶體儲存
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: &memState{items: make(map[int64]Item), nextID: 1}}
}

func (s *memState) copyState() *memState {
	out := &memState{items: make(map[int64]Item, len(s.items)), nextID: s.nextID}
	for id, it := range s.items {
		out.items[id] = it.clone()
	}
	return out
}

// List 列出全部項目
func (m *MemoryStore) List(ctx context.Context) ([]Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.list(), nil
}

// Get 依 ID 取得
func (m *MemoryStore) Get(ctx context.Context, id int64) (Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.get(id)
}

// FindActiveByKey 取得該鍵的未完成項目
func (m *MemoryStore) FindActiveByKey(ctx context.Context, key string) (*Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.findActive(key), nil
}

// Insert 新增項目
func (m *MemoryStore) Insert(ctx context.Context, item *Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.insert(item)
}

// Update 樂觀鎖更新
func (m *MemoryStore) Update(ctx context.Context, item *Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.update(item)
}

// Delete 刪除項目
func (m *MemoryStore) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.delete(id)
}

// DeleteDone 刪除所有已完成項目
func (m *MemoryStore) DeleteDone(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.deleteDone(), nil
}

// Transact 在副本上執行 fn，成功後才替換狀態
func (m *MemoryStore) Transact(ctx context.Context, fn func(tx Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{state: m.state.copyState()}
	if err := fn(tx); err != nil {
		return err
	}
	m.state = tx.state
	return nil
}

// memTx 交易內的視圖，呼叫時已持有 MemoryStore 的鎖
type memTx struct {
	state *memState
}

func (t *memTx) List(ctx context.Context) ([]Item, error) { return t.state.list(), nil }
func (t *memTx) Get(ctx context.Context, id int64) (Item, error) { return t.state.get(id) }
func (t *memTx) FindActiveByKey(ctx context.Context, key string) (*Item, error) {
	return t.state.findActive(key), nil
}
func (t *memTx) Insert(ctx context.Context, item *Item) error { return t.state.insert(item) }
func (t *memTx) Update(ctx context.Context, item *Item) error { return t.state.update(item) }
func (t *memTx) Delete(ctx context.Context, id int64) error   { return t.state.delete(id) }
func (t *memTx) DeleteDone(ctx context.Context) (int64, error) {
	return t.state.deleteDone(), nil
}
func (t *memTx) Transact(ctx context.Context, fn func(tx Store) error) error { return fn(t) }

func (s *memState) list() []Item {
	out := make([]Item, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it.clone())
	}
	SortItems(out)
	return out
}

func (s *memState) get(id int64) (Item, error) {
	it, ok := s.items[id]
	if !ok {
		return Item{}, common.ErrItemNotFound
	}
	return it.clone(), nil
}

func (s *memState) findActive(key string) *Item {
	for _, it := range s.items {
		if !it.Done && it.Key == key {
			found := it.clone()
			return &found
		}
	}
	return nil
}

func (s *memState) insert(item *Item) error {
	if !item.Done && s.findActive(item.Key) != nil {
		return ErrStoreConflict
	}
	item.ID = s.nextID
	item.Version = 1
	s.nextID++
	s.items[item.ID] = item.clone()
	return nil
}

func (s *memState) update(item *Item) error {
	current, ok := s.items[item.ID]
	if !ok {
		return common.ErrItemNotFound
	}
	if current.Version != item.Version {
		return ErrStoreConflict
	}
	if !item.Done {
		if other := s.findActive(item.Key); other != nil && other.ID != item.ID {
			return ErrStoreConflict
		}
	}
	item.Version++
	s.items[item.ID] = item.clone()
	return nil
}

func (s *memState) delete(id int64) error {
	if _, ok := s.items[id]; !ok {
		return common.ErrItemNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *memState) deleteDone() int64 {
	var n int64
	for id, it := range s.items {
		if it.Done {
			delete(s.items, id)
			n++
		}
	}
	return n
}

// SortItems 未完成項目在前，其餘依 ID 排序
func SortItems(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Done != items[j].Done {
			return !items[i].Done
		}
		return items[i].ID < items[j].ID
	})
}
