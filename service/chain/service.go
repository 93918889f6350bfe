package chain

import (
	"context"
	"log"
	"sort"
	"sync"

	"github.com/veriflow/lifecycle/internal/clock"
	"github.com/veriflow/lifecycle/internal/idgen"
	"github.com/veriflow/lifecycle/model"
	"github.com/veriflow/lifecycle/service/dao"
	"github.com/veriflow/lifecycle/service/event"
	"github.com/veriflow/lifecycle/service/moderation"
	"github.com/veriflow/lifecycle/tracing"
)

// EventTypeVersionOpened is published after a new version is committed.
const EventTypeVersionOpened = "chain.version_opened"

// Service manages version chains over the shared artifact store.
type Service struct {
	artifacts  dao.Store[string, model.Artifact]
	moderation *moderation.Service
	publisher  *event.Publisher[model.Artifact]

	// mu serialises the check-then-create of OpenVersion; without it two
	// callers could both find no open version and create one each.
	mu sync.Mutex
}

type Option func(*Service)

// WithPublisher attaches the publisher version events go to.
func WithPublisher(publisher *event.Publisher[model.Artifact]) Option {
	return func(s *Service) { s.publisher = publisher }
}

// New creates the chain manager.
func New(artifacts dao.Store[string, model.Artifact], moderationService *moderation.Service, options ...Option) *Service {
	ret := &Service{
		artifacts:  artifacts,
		moderation: moderationService,
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// OpenVersion creates the next version of a chain, seeded from the current
// latest version. When the chain already holds an open version the call is
// idempotent and returns that version, so client retries never create
// duplicates.
func (s *Service) OpenVersion(ctx context.Context, id, actorID string) (*model.Artifact, error) {
	ctx, span := tracing.StartSpan(ctx, "chain.open_version")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	versions, err := s.versions(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, ErrNotFound
	}

	latest := versions[len(versions)-1]
	if !latest.RoleOf(actorID).CanAdminister() {
		return nil, ErrPermissionDenied
	}

	if open := openVersions(versions); len(open) > 0 {
		if len(open) > 1 {
			// storage invariant violated; a programmer error, not a user one
			log.Printf("chain %s: %d versions in non-terminal state, expected at most one", versions[0].RootID, len(open))
		}
		return open[0], nil
	}

	next, err := inherited(latest)
	if err != nil {
		return nil, err
	}
	now := clock.Now()
	next.ID = idgen.New()
	next.RootID = latest.RootID
	next.PreviousID = latest.ID
	next.VersionNumber = latest.VersionNumber + 1
	next.CreatedAt = now
	next.ModifiedAt = now

	if err = s.artifacts.Save(ctx, next); err != nil {
		return nil, err
	}
	if _, err = s.moderation.Open(ctx, next); err != nil {
		return nil, err
	}
	s.publishOpened(ctx, latest, next, actorID)
	return next, nil
}

// ResolveLatest returns the version with the highest version number,
// whatever its moderation state - the submitter needs to see their own
// pending work; callers wanting the current approved view filter by state.
func (s *Service) ResolveLatest(ctx context.Context, id string) (*model.Artifact, error) {
	versions, err := s.versions(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, ErrNotFound
	}
	return versions[len(versions)-1], nil
}

// ResolveState returns the review state the chain presents at root level.
// Withdrawal is a chain-level fact: once the latest accepted version is
// withdrawn the whole chain resolves withdrawn, even though earlier
// versions stay individually accepted.
func (s *Service) ResolveState(ctx context.Context, id string) (model.ReviewState, error) {
	versions, err := s.versions(ctx, id)
	if err != nil {
		return "", err
	}
	if len(versions) == 0 {
		return "", ErrNotFound
	}
	for i := len(versions) - 1; i >= 0; i-- {
		switch versions[i].ReviewsState {
		case model.StateWithdrawn:
			return model.StateWithdrawn, nil
		case model.StateAccepted:
			return model.StateAccepted, nil
		}
	}
	return versions[len(versions)-1].ReviewsState, nil
}

// Versions returns the chain members ordered by ascending version number.
func (s *Service) Versions(ctx context.Context, id string) ([]*model.Artifact, error) {
	return s.versions(ctx, id)
}

func (s *Service) versions(ctx context.Context, id string) ([]*model.Artifact, error) {
	rootID := id
	if member, err := s.artifacts.Load(ctx, id); err != nil {
		return nil, err
	} else if member != nil && member.RootID != "" {
		rootID = member.RootID
	}
	all, err := s.artifacts.List(ctx)
	if err != nil {
		return nil, err
	}
	var versions []*model.Artifact
	for _, candidate := range all {
		if candidate.RootID == rootID || candidate.ID == rootID {
			versions = append(versions, candidate)
		}
	}
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].VersionNumber < versions[j].VersionNumber
	})
	return versions, nil
}

func openVersions(versions []*model.Artifact) []*model.Artifact {
	var open []*model.Artifact
	for _, candidate := range versions {
		if candidate.ReviewsState.IsOpen() {
			open = append(open, candidate)
		}
	}
	return open
}

func (s *Service) publishOpened(ctx context.Context, prev, next *model.Artifact, actorID string) {
	metadata := map[string]interface{}{}
	if diff, err := MetadataDiff(prev, next); err == nil && diff != "" {
		metadata["diff"] = diff
	}
	evt := event.NewEvent(&event.Context{
		ArtifactID: next.ID,
		RootID:     next.RootID,
		Provider:   next.Provider,
		EventType:  EventTypeVersionOpened,
		ActorID:    actorID,
	}, *next)
	evt.Metadata = metadata
	_ = s.publisher.Publish(ctx, evt)
}
