package store

import (
	"context"
	"sync"

	"github.com/veriflow/lifecycle/service/dao"
)

// MemoryStore is a generic in-memory implementation of dao.Store. It keeps
// entities of type *T mapped by a comparable key K obtained from the
// supplied keySelector.
//
// Update runs its mutate callback under the store write lock, which gives
// state machines the compare-and-set semantics they need: two racing
// transitions on the same record serialise, and only one of them observes
// the pre-transition state.
//
// Load, List and Update return shallow copies taken under the lock, so a
// reader never observes a concurrent mutation of the stored struct. Nested
// reference fields are shared; mutate records only through Update.
type MemoryStore[K comparable, T any] struct {
	mu          sync.RWMutex
	records     map[K]*T
	keySelector func(*T) K
}

// NewMemoryStore creates a new MemoryStore. keySelector extracts the entity
// key (usually the ID field) from a value.
func NewMemoryStore[K comparable, T any](keySelector func(*T) K) *MemoryStore[K, T] {
	return &MemoryStore[K, T]{
		records:     make(map[K]*T),
		keySelector: keySelector,
	}
}

// Save stores or overwrites a record.
func (s *MemoryStore[K, T]) Save(_ context.Context, v *T) error {
	if v == nil {
		return dao.ErrNilEntity
	}
	key := s.keySelector(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = v
	return nil
}

// Load returns a copy of the record stored under key, or nil when absent.
func (s *MemoryStore[K, T]) Load(_ context.Context, key K) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.records[key]
	if !ok {
		return nil, nil
	}
	clone := *v
	return &clone, nil
}

// Delete removes a record.
func (s *MemoryStore[K, T]) Delete(_ context.Context, key K) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

// List returns copies of all stored records.
func (s *MemoryStore[K, T]) List(_ context.Context, _ ...*dao.Parameter) ([]*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*T, 0, len(s.records))
	for _, v := range s.records {
		clone := *v
		out = append(out, &clone)
	}
	return out, nil
}

// Update atomically mutates the record stored under key. The callback must
// not call back into the store. When mutate returns an error the record is
// left untouched and the error is propagated.
func (s *MemoryStore[K, T]) Update(_ context.Context, key K, mutate func(*T) error) (*T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.records[key]
	if !ok {
		return nil, dao.ErrNotFound
	}
	if err := mutate(v); err != nil {
		return nil, err
	}
	clone := *v
	return &clone, nil
}

var _ dao.Store[string, struct{}] = (*MemoryStore[string, struct{}])(nil)
