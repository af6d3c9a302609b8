package catalog

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

type Store interface {
	List(ctx context.Context) ([]Product, error)
	Create(ctx context.Context, f Fields) (Product, error)
	Update(ctx context.Context, id int64, f Fields) (Product, error)
	Delete(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
}

// DefaultSeed is the catalog a fresh process starts with.
func DefaultSeed() []Fields {
	return []Fields{{
		Name:     ptr("Laptop"),
		Price:    ptr(1000.0),
		Category: ptr("Electrónica"),
		Stock:    ptr(int64(5)),
		Active:   ptr(true),
	}}
}
