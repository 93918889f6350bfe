package dao

import (
	"context"
)

// Service is the generic persistence contract shared by all entity stores.
type Service[K comparable, T any] interface {
	Save(ctx context.Context, t *T) error

	Load(ctx context.Context, id K) (*T, error)

	Delete(ctx context.Context, id K) error

	List(ctx context.Context, parameters ...*Parameter) ([]*T, error)
}

// Updater mutates a single record atomically. The mutate callback runs while
// the store holds its write lock, so state transitions made inside it are
// compare-and-set rather than blind overwrites. Returning an error from
// mutate aborts the update and leaves the record untouched.
type Updater[K comparable, T any] interface {
	Update(ctx context.Context, id K, mutate func(*T) error) (*T, error)
}

// Store combines plain persistence with atomic updates. All lifecycle state
// machines require this contract for their mutation entry points.
type Store[K comparable, T any] interface {
	Service[K, T]
	Updater[K, T]
}
