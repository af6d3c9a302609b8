package catalog

import (
	"context"
	"slices"
	"sync"
)

// MemStore keeps products in insertion order. Ids come from a counter that
// only moves forward, so a deleted id is never handed out again.
type MemStore struct {
	mu     sync.Mutex
	items  []Product
	nextID int64
}

func NewMemStore(seed ...Fields) *MemStore {
	s := &MemStore{nextID: 1}
	for _, f := range seed {
		s.insert(f)
	}
	return s
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) List(ctx context.Context) ([]Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Product, 0, len(s.items))
	for _, p := range s.items {
		out = append(out, p.clone())
	}
	return out, nil
}

func (s *MemStore) Create(ctx context.Context, f Fields) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insert(f).clone(), nil
}

func (s *MemStore) Update(ctx context.Context, id int64, f Fields) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return Product{}, ErrNotFound
	}

	s.items[i].Fields = s.items[i].Fields.Merge(f)
	return s.items[i].clone(), nil
}

func (s *MemStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = slices.DeleteFunc(s.items, func(p Product) bool { return p.ID == id })
	return nil
}

// insert must be called with mu held or before the store is shared.
func (s *MemStore) insert(f Fields) Product {
	p := Product{ID: s.nextID, Fields: f.clone()}
	s.nextID++
	s.items = append(s.items, p)
	return p
}

func (s *MemStore) indexOf(id int64) int {
	return slices.IndexFunc(s.items, func(p Product) bool { return p.ID == id })
}
