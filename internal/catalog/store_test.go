package catalog

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
)

func TestMemStore_SeedStartsCounterAfterSeed(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore(DefaultSeed()...)

	list, _ := s.List(ctx)
	if len(list) != 1 || list[0].ID != 1 || *list[0].Name != "Laptop" {
		t.Fatalf("seed=%+v", list)
	}

	p, _ := s.Create(ctx, Fields{Name: ptr("Phone"), Price: ptr(500.0)})
	if p.ID != 2 {
		t.Fatalf("id=%d want 2", p.ID)
	}
}

func TestMemStore_IDsNeverReused(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	var last int64
	for i := 0; i < 5; i++ {
		p, err := s.Create(ctx, Fields{})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if p.ID <= last {
			t.Fatalf("id=%d not greater than %d", p.ID, last)
		}
		last = p.ID

		// deleting the newest record must not roll the counter back
		if i%2 == 0 {
			_ = s.Delete(ctx, p.ID)
		}
	}

	if last != 5 {
		t.Fatalf("last id=%d want 5", last)
	}
}

func TestMemStore_ListInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	for _, n := range []string{"c", "a", "b"} {
		_, _ = s.Create(ctx, Fields{Name: ptr(n)})
	}
	_ = s.Delete(ctx, 2)

	list, _ := s.List(ctx)
	var names []string
	for _, p := range list {
		names = append(names, *p.Name)
	}
	if !reflect.DeepEqual(names, []string{"c", "b"}) {
		t.Fatalf("names=%v", names)
	}
}

func TestMemStore_UpdateMerges(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore(DefaultSeed()...)

	p, err := s.Update(ctx, 1, Fields{Price: ptr(899.5), Active: ptr(false)})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if *p.Price != 899.5 || *p.Active != false {
		t.Fatalf("overrides not applied: %+v", p)
	}
	if *p.Name != "Laptop" || *p.Category != "Electrónica" || *p.Stock != 5 {
		t.Fatalf("absent fields not preserved: %+v", p)
	}
	if p.ID != 1 {
		t.Fatalf("id changed to %d", p.ID)
	}

	list, _ := s.List(ctx)
	if !reflect.DeepEqual(list, []Product{p}) {
		t.Fatalf("stored=%+v returned=%+v", list, p)
	}
}

func TestMemStore_UpdateMissingLeavesCatalog(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore(DefaultSeed()...)
	before, _ := s.List(ctx)

	_, err := s.Update(ctx, 999, Fields{Name: ptr("x")})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	after, _ := s.List(ctx)
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("catalog changed: before=%+v after=%+v", before, after)
	}

	next, _ := s.Create(ctx, Fields{})
	if next.ID != 2 {
		t.Fatalf("failed update consumed an id: next=%d", next.ID)
	}
}

func TestMemStore_DeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore(DefaultSeed()...)

	for _, id := range []int64{1, 1, 42} {
		if err := s.Delete(ctx, id); err != nil {
			t.Fatalf("delete %d: %v", id, err)
		}
	}

	if list, _ := s.List(ctx); len(list) != 0 {
		t.Fatalf("list=%+v want empty", list)
	}
}

func TestMemStore_ReturnedRecordsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore(DefaultSeed()...)

	list, _ := s.List(ctx)
	*list[0].Name = "mutated"

	again, _ := s.List(ctx)
	if *again[0].Name != "Laptop" {
		t.Fatalf("store aliased caller memory: %q", *again[0].Name)
	}
}

func TestMemStore_ConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	const n = 64
	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, _ := s.Create(ctx, Fields{})
			ids <- p.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool, n)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = true
	}
	if len(seen) != n {
		t.Fatalf("got %d ids want %d", len(seen), n)
	}
}
