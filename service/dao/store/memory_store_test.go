package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veriflow/lifecycle/service/dao"
)

type record struct {
	ID    string
	State string
	Count int
}

func TestMemoryStoreCRUD(t *testing.T) {
	ctx := context.Background()
	memStore := NewMemoryStore[string, record](func(r *record) string { return r.ID })

	require.NoError(t, memStore.Save(ctx, &record{ID: "r1", State: "initial"}))
	loaded, err := memStore.Load(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "initial", loaded.State)

	missing, err := memStore.Load(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, memStore.Delete(ctx, "r1"))
	loaded, _ = memStore.Load(ctx, "r1")
	assert.Nil(t, loaded)

	assert.ErrorIs(t, memStore.Save(ctx, nil), dao.ErrNilEntity)
}

func TestMemoryStoreUpdate(t *testing.T) {
	ctx := context.Background()
	memStore := NewMemoryStore[string, record](func(r *record) string { return r.ID })
	require.NoError(t, memStore.Save(ctx, &record{ID: "r1", State: "pending"}))

	_, err := memStore.Update(ctx, "missing", func(*record) error { return nil })
	assert.ErrorIs(t, err, dao.ErrNotFound)

	// An aborted update leaves the record alone.
	boom := errors.New("boom")
	_, err = memStore.Update(ctx, "r1", func(r *record) error { return boom })
	assert.ErrorIs(t, err, boom)

	updated, err := memStore.Update(ctx, "r1", func(r *record) error {
		r.State = "accepted"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "accepted", updated.State)
}

func TestMemoryStoreReadsAreIsolated(t *testing.T) {
	ctx := context.Background()
	memStore := NewMemoryStore[string, record](func(r *record) string { return r.ID })
	require.NoError(t, memStore.Save(ctx, &record{ID: "r1", State: "pending"}))

	before, err := memStore.Load(ctx, "r1")
	require.NoError(t, err)
	listed, err := memStore.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	_, err = memStore.Update(ctx, "r1", func(r *record) error {
		r.State = "accepted"
		return nil
	})
	require.NoError(t, err)

	// snapshots taken before the update never see it
	assert.Equal(t, "pending", before.State)
	assert.Equal(t, "pending", listed[0].State)

	// readers and writers may overlap freely; Load and List hand out
	// copies, so no goroutine observes a half-applied mutation
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = memStore.Update(ctx, "r1", func(r *record) error {
				r.Count++
				return nil
			})
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			if all, err := memStore.List(ctx); err == nil && len(all) == 1 {
				_ = all[0].Count
			}
			if v, err := memStore.Load(ctx, "r1"); err == nil && v != nil {
				_ = v.State
			}
		}()
	}
	wg.Wait()

	final, err := memStore.Load(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 20, final.Count)
}

func TestMemoryStoreUpdateSerialises(t *testing.T) {
	ctx := context.Background()
	memStore := NewMemoryStore[string, record](func(r *record) string { return r.ID })
	require.NoError(t, memStore.Save(ctx, &record{ID: "r1"}))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = memStore.Update(ctx, "r1", func(r *record) error {
				r.Count++
				return nil
			})
		}()
	}
	wg.Wait()

	final, err := memStore.Load(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 50, final.Count)
}
