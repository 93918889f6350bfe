package chain

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veriflow/lifecycle/model"
	"github.com/veriflow/lifecycle/policy"
	"github.com/veriflow/lifecycle/service/dao/store"
	"github.com/veriflow/lifecycle/service/moderation"
	"github.com/veriflow/lifecycle/service/sanction"
	smemory "github.com/veriflow/lifecycle/service/sanction/memory"
)

type fixture struct {
	artifacts *store.MemoryStore[string, model.Artifact]
	service   *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	registry := policy.NewRegistry()
	signer, err := sanction.NewTokenSigner([]byte("test-key"))
	require.NoError(t, err)
	artifacts := store.NewMemoryStore[string, model.Artifact](func(a *model.Artifact) string { return a.ID })
	moderationService := moderation.New(artifacts, registry, smemory.New(registry, signer))
	return &fixture{
		artifacts: artifacts,
		service:   New(artifacts, moderationService),
	}
}

func (f *fixture) addRoot(t *testing.T, state model.ReviewState) *model.Artifact {
	t.Helper()
	root := &model.Artifact{
		ID:            "root",
		RootID:        "root",
		VersionNumber: 1,
		CreatorID:     "creator",
		Provider:      "journal-a",
		Title:         "Observations on sleep",
		Description:   "A study",
		Tags:          []string{"sleep", "cohort"},
		Subjects:      []string{"neuroscience"},
		License:       "CC-BY-4.0",
		ReviewsState:  state,
		Contributors: []model.Contributor{
			{UserID: "c-second", Role: model.RoleWrite, Index: 2, Bibliographic: true},
			{UserID: "c-first", Role: model.RoleAdmin, Index: 1, Bibliographic: true},
			{UserID: "c-hidden", Role: model.RoleRead, Index: 3, Bibliographic: false, Visible: false},
		},
	}
	require.NoError(t, f.artifacts.Save(context.Background(), root))
	return root
}

func TestOpenVersionInherits(t *testing.T) {
	f := newFixture(t)
	root := f.addRoot(t, model.StateAccepted)
	root.IsPublic = true
	root.EverPublic = true
	root.DOICreated = true

	next, err := f.service.OpenVersion(context.Background(), "root", "creator")
	require.NoError(t, err)

	assert.Equal(t, 2, next.VersionNumber)
	assert.Equal(t, "root", next.RootID)
	assert.Equal(t, "root", next.PreviousID)
	assert.Equal(t, model.StateInitial, next.ReviewsState)
	assert.Equal(t, root.Title, next.Title)
	assert.Equal(t, root.Tags, next.Tags)
	assert.Equal(t, root.Subjects, next.Subjects)
	assert.Equal(t, root.License, next.License)

	// exclusion list: flags and state never carry over
	assert.False(t, next.IsPublic)
	assert.False(t, next.EverPublic)
	assert.False(t, next.DOICreated)
	assert.Empty(t, next.SanctionID)

	// contributor list and ordering reproduce the predecessor exactly,
	// including non-bibliographic/invisible entries
	require.Len(t, next.Contributors, 3)
	assert.Equal(t, "c-first", next.Contributors[0].UserID)
	assert.Equal(t, "c-second", next.Contributors[1].UserID)
	assert.Equal(t, "c-hidden", next.Contributors[2].UserID)
	assert.False(t, next.Contributors[2].Bibliographic)
}

func TestOpenVersionIdempotent(t *testing.T) {
	f := newFixture(t)
	f.addRoot(t, model.StateAccepted)

	first, err := f.service.OpenVersion(context.Background(), "root", "creator")
	require.NoError(t, err)
	second, err := f.service.OpenVersion(context.Background(), "root", "creator")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	versions, err := f.service.Versions(context.Background(), "root")
	require.NoError(t, err)
	assert.Len(t, versions, 2)
}

func TestOpenVersionBlocksWhilePending(t *testing.T) {
	f := newFixture(t)
	f.addRoot(t, model.StatePending)

	existing, err := f.service.OpenVersion(context.Background(), "root", "creator")
	require.NoError(t, err)
	assert.Equal(t, "root", existing.ID, "the pending version itself comes back")
}

func TestOpenVersionPermission(t *testing.T) {
	f := newFixture(t)
	f.addRoot(t, model.StateAccepted)

	_, err := f.service.OpenVersion(context.Background(), "root", "c-second")
	assert.ErrorIs(t, err, ErrPermissionDenied, "write contributor cannot open versions")

	_, err = f.service.OpenVersion(context.Background(), "root", "c-first")
	assert.NoError(t, err, "admin contributor can")

	// the role gate also guards the idempotent path: an existing open
	// draft never leaks to actors who could not have created it
	_, err = f.service.OpenVersion(context.Background(), "root", "c-second")
	assert.ErrorIs(t, err, ErrPermissionDenied)
	_, err = f.service.OpenVersion(context.Background(), "root", "stranger")
	assert.ErrorIs(t, err, ErrPermissionDenied)

	returned, err := f.service.OpenVersion(context.Background(), "root", "creator")
	require.NoError(t, err)
	assert.Equal(t, 2, returned.VersionNumber, "admins still get the open draft back")
}

func TestOpenVersionConcurrent(t *testing.T) {
	f := newFixture(t)
	f.addRoot(t, model.StateAccepted)

	ids := make([]string, 8)
	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			version, err := f.service.OpenVersion(context.Background(), "root", "creator")
			if err == nil {
				ids[slot] = version.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id, "every concurrent call sees the same version")
	}
	versions, err := f.service.Versions(context.Background(), "root")
	require.NoError(t, err)
	assert.Len(t, versions, 2, "exactly one new version row")
}

func TestResolveLatestIsStateAgnostic(t *testing.T) {
	f := newFixture(t)
	f.addRoot(t, model.StateAccepted)
	next, err := f.service.OpenVersion(context.Background(), "root", "creator")
	require.NoError(t, err)

	latest, err := f.service.ResolveLatest(context.Background(), "root")
	require.NoError(t, err)
	assert.Equal(t, next.ID, latest.ID, "latest includes the open version")
}

func TestResolveStatePropagatesWithdrawal(t *testing.T) {
	f := newFixture(t)
	root := f.addRoot(t, model.StateAccepted)

	v2, err := f.service.OpenVersion(context.Background(), "root", "creator")
	require.NoError(t, err)
	_, err = f.artifacts.Update(context.Background(), v2.ID, func(a *model.Artifact) error {
		a.ReviewsState = model.StateAccepted
		return nil
	})
	require.NoError(t, err)

	state, err := f.service.ResolveState(context.Background(), root.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StateAccepted, state)

	// withdrawing the latest accepted version flips the chain-level state
	// even though version 1 stays accepted
	_, err = f.artifacts.Update(context.Background(), v2.ID, func(a *model.Artifact) error {
		a.ReviewsState = model.StateWithdrawn
		return nil
	})
	require.NoError(t, err)

	state, err = f.service.ResolveState(context.Background(), root.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StateWithdrawn, state)

	v1, err := f.artifacts.Load(context.Background(), "root")
	require.NoError(t, err)
	assert.Equal(t, model.StateAccepted, v1.ReviewsState)
}

func TestResolveStateRejectedChain(t *testing.T) {
	f := newFixture(t)
	f.addRoot(t, model.StateRejected)
	state, err := f.service.ResolveState(context.Background(), "root")
	require.NoError(t, err)
	assert.Equal(t, model.StateRejected, state)
}

func TestOpenVersionUnknownChain(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.OpenVersion(context.Background(), "ghost", "creator")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMetadataDiff(t *testing.T) {
	prev := &model.Artifact{ID: "a", VersionNumber: 1, Title: "Old title"}
	next := &model.Artifact{ID: "b", VersionNumber: 2, Title: "New title"}
	diff, err := MetadataDiff(prev, next)
	require.NoError(t, err)
	assert.Contains(t, diff, "Old title")
	assert.Contains(t, diff, "New title")
}
