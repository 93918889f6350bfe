// Package memory provides the in-process implementation of the sanction
// machine, backed by the generic DAO store.
package memory

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/veriflow/lifecycle/internal/clock"
	"github.com/veriflow/lifecycle/internal/idgen"
	"github.com/veriflow/lifecycle/model"
	"github.com/veriflow/lifecycle/policy"
	"github.com/veriflow/lifecycle/service/dao"
	"github.com/veriflow/lifecycle/service/dao/store"
	"github.com/veriflow/lifecycle/service/event"
	"github.com/veriflow/lifecycle/service/messaging"
	qmem "github.com/veriflow/lifecycle/service/messaging/memory"
	"github.com/veriflow/lifecycle/service/sanction"
	"github.com/veriflow/lifecycle/tracing"
)

// errSkip aborts a CAS update when another worker already applied the same
// resolution; the caller treats it as "nothing to do".
var errSkip = errors.New("skip")

type effectTable struct {
	mu        sync.RWMutex
	approved  map[sanction.Kind][]sanction.Effect
	rejected  map[sanction.Kind][]sanction.Effect
	completed map[sanction.Kind][]sanction.Effect
}

type service struct {
	sanctions dao.Store[string, sanction.Sanction]
	policies  *policy.Registry
	signer    *sanction.TokenSigner
	events    messaging.Queue[event.Event[sanction.Sanction]]
	effects   effectTable
}

// New creates the sanction service. The policy registry and token signer
// are required collaborators; store and queue default to in-memory
// implementations.
func New(policies *policy.Registry, signer *sanction.TokenSigner, options ...Option) sanction.Service {
	ret := &service{
		sanctions: store.NewMemoryStore[string, sanction.Sanction](func(s *sanction.Sanction) string { return s.ID }),
		policies:  policies,
		signer:    signer,
		events:    qmem.NewQueue[event.Event[sanction.Sanction]](qmem.DefaultConfig()),
		effects: effectTable{
			approved:  make(map[sanction.Kind][]sanction.Effect),
			rejected:  make(map[sanction.Kind][]sanction.Effect),
			completed: make(map[sanction.Kind][]sanction.Effect),
		},
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

func (s *service) Initiate(ctx context.Context, artifact *model.Artifact, kind sanction.Kind, authorizers []string, end *time.Time) (*sanction.Sanction, error) {
	if artifact == nil {
		return nil, dao.ErrNilEntity
	}
	if !kind.Valid() {
		return nil, sanction.ErrInvalidKind
	}
	if len(authorizers) == 0 {
		return nil, sanction.ErrNoAuthorizers
	}
	now := clock.Now()
	if end == nil {
		deadline := now.Add(s.policies.Lookup(artifact.Provider).Grace())
		end = &deadline
	}
	ret := &sanction.Sanction{
		ID:            idgen.New(),
		ArtifactID:    artifact.ID,
		Provider:      artifact.Provider,
		Kind:          kind,
		State:         sanction.StateUnapproved,
		ApprovalState: make(map[string]*sanction.ApprovalRecord, len(authorizers)),
		InitiatedBy:   artifact.CreatorID,
		InitiatedAt:   now,
		EndDate:       end,
	}
	for _, userID := range authorizers {
		if userID == "" {
			continue
		}
		ret.ApprovalState[userID] = &sanction.ApprovalRecord{
			ApprovalToken:  s.signer.Mint(ret.ID, userID, sanction.IntentApprove),
			RejectionToken: s.signer.Mint(ret.ID, userID, sanction.IntentReject),
		}
	}
	if len(ret.ApprovalState) == 0 {
		return nil, sanction.ErrNoAuthorizers
	}
	if err := s.sanctions.Save(ctx, ret); err != nil {
		return nil, err
	}
	s.publish(ctx, sanction.TopicInitiated, "", ret)
	return ret, nil
}

func (s *service) Redeem(ctx context.Context, sanctionID, userID, token string, intent sanction.Intent) (*sanction.Sanction, error) {
	ctx, span := tracing.StartSpan(ctx, "sanction.redeem")
	defer span.End()

	var approved, rejected bool
	now := clock.Now()
	updated, err := s.sanctions.Update(ctx, sanctionID, func(sc *sanction.Sanction) error {
		if !s.signer.Verify(sc.ID, userID, intent, token) {
			return sanction.ErrTokenMismatch
		}
		record, ok := sc.ApprovalState[userID]
		if !ok {
			return sanction.ErrTokenMismatch
		}
		if sc.Swept {
			return sanction.ErrStale
		}
		switch sc.State {
		case sanction.StateApproved:
			if intent == sanction.IntentApprove {
				return nil // redeeming an already-approved token is a no-op
			}
			return sanction.ErrAlreadyDecided
		case sanction.StateRejected:
			if intent == sanction.IntentReject {
				return nil
			}
			return sanction.ErrAlreadyDecided
		case sanction.StateCompleted:
			return sanction.ErrAlreadyDecided
		}
		if intent == sanction.IntentReject {
			// First rejection wins, whatever approvals came before.
			sc.State = sanction.StateRejected
			sc.ResolvedBy = userID
			record.DecidedAt = &now
			rejected = true
			return nil
		}
		if record.HasApproved {
			return nil
		}
		record.HasApproved = true
		record.DecidedAt = &now
		if sc.AllApproved() {
			sc.State = sanction.StateApproved
			sc.ResolvedBy = userID
			approved = true
		} else {
			sc.State = sanction.StatePending
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return nil, sanction.ErrNotFound
		}
		return nil, err
	}
	switch {
	case approved:
		s.fire(ctx, s.approvedEffects(updated.Kind), updated)
		s.publish(ctx, sanction.TopicResolved, userID, updated)
	case rejected:
		s.fire(ctx, s.rejectedEffects(updated.Kind), updated)
		s.publish(ctx, sanction.TopicResolved, userID, updated)
	default:
		s.publish(ctx, sanction.TopicRedeemed, userID, updated)
	}
	return updated, nil
}

func (s *service) SweepPending(ctx context.Context) ([]*sanction.Sanction, error) {
	ctx, span := tracing.StartSpan(ctx, "sanction.sweep")
	defer span.End()

	all, err := s.sanctions.List(ctx)
	if err != nil {
		return nil, err
	}
	now := clock.Now()
	var mutated []*sanction.Sanction
	for _, candidate := range all {
		if candidate.EndDate == nil || now.Before(*candidate.EndDate) {
			continue
		}
		switch {
		case !candidate.State.Terminal():
			swept, err := s.applyDefault(ctx, candidate.ID, now)
			if err != nil {
				return mutated, err
			}
			if swept != nil {
				mutated = append(mutated, swept)
			}
		case candidate.State == sanction.StateApproved && candidate.Kind == sanction.KindEmbargo:
			completed, err := s.complete(ctx, candidate.ID, now)
			if err != nil {
				return mutated, err
			}
			if completed != nil {
				mutated = append(mutated, completed)
			}
		}
	}
	return mutated, nil
}

// applyDefault resolves an expired open sanction exactly as if the last
// missing authorizer had redeemed a token. The recheck inside the CAS
// callback keeps a concurrent manual redemption or a second sweep worker
// from double-resolving.
func (s *service) applyDefault(ctx context.Context, id string, now time.Time) (*sanction.Sanction, error) {
	var approved bool
	updated, err := s.sanctions.Update(ctx, id, func(sc *sanction.Sanction) error {
		if sc.State.Terminal() || sc.Swept {
			return errSkip
		}
		if sc.EndDate == nil || now.Before(*sc.EndDate) {
			return errSkip
		}
		outcome := s.policies.Lookup(sc.Provider).DefaultOutcome(string(sc.Kind))
		if outcome == "" {
			outcome = sc.Kind.FallbackOutcome()
		}
		sc.Swept = true
		sc.ResolvedBy = sanction.SweepActor
		if outcome == policy.OutcomeApprove {
			for _, record := range sc.ApprovalState {
				if !record.HasApproved {
					record.HasApproved = true
					record.DecidedAt = &now
				}
			}
			sc.State = sanction.StateApproved
			approved = true
		} else {
			sc.State = sanction.StateRejected
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errSkip) {
			return nil, nil
		}
		return nil, err
	}
	if approved {
		s.fire(ctx, s.approvedEffects(updated.Kind), updated)
	} else {
		s.fire(ctx, s.rejectedEffects(updated.Kind), updated)
	}
	s.publish(ctx, sanction.TopicSwept, sanction.SweepActor, updated)
	return updated, nil
}

// complete moves an approved embargo whose period ran out to completed.
func (s *service) complete(ctx context.Context, id string, now time.Time) (*sanction.Sanction, error) {
	updated, err := s.sanctions.Update(ctx, id, func(sc *sanction.Sanction) error {
		if sc.State != sanction.StateApproved {
			return errSkip
		}
		if sc.EndDate == nil || now.Before(*sc.EndDate) {
			return errSkip
		}
		sc.State = sanction.StateCompleted
		return nil
	})
	if err != nil {
		if errors.Is(err, errSkip) {
			return nil, nil
		}
		return nil, err
	}
	s.fire(ctx, s.completedEffects(updated.Kind), updated)
	s.publish(ctx, sanction.TopicSwept, sanction.SweepActor, updated)
	return updated, nil
}

func (s *service) Load(ctx context.Context, id string) (*sanction.Sanction, error) {
	ret, err := s.sanctions.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if ret == nil {
		return nil, sanction.ErrNotFound
	}
	return ret, nil
}

func (s *service) ListPending(ctx context.Context) ([]*sanction.Sanction, error) {
	all, err := s.sanctions.List(ctx)
	if err != nil {
		return nil, err
	}
	pending := make([]*sanction.Sanction, 0, len(all))
	for _, candidate := range all {
		if !candidate.State.Terminal() {
			pending = append(pending, candidate)
		}
	}
	return pending, nil
}

func (s *service) OnApproved(kind sanction.Kind, effects ...sanction.Effect) {
	s.effects.mu.Lock()
	defer s.effects.mu.Unlock()
	s.effects.approved[kind] = append(s.effects.approved[kind], effects...)
}

func (s *service) OnRejected(kind sanction.Kind, effects ...sanction.Effect) {
	s.effects.mu.Lock()
	defer s.effects.mu.Unlock()
	s.effects.rejected[kind] = append(s.effects.rejected[kind], effects...)
}

func (s *service) OnCompleted(kind sanction.Kind, effects ...sanction.Effect) {
	s.effects.mu.Lock()
	defer s.effects.mu.Unlock()
	s.effects.completed[kind] = append(s.effects.completed[kind], effects...)
}

func (s *service) approvedEffects(kind sanction.Kind) []sanction.Effect {
	s.effects.mu.RLock()
	defer s.effects.mu.RUnlock()
	return s.effects.approved[kind]
}

func (s *service) rejectedEffects(kind sanction.Kind) []sanction.Effect {
	s.effects.mu.RLock()
	defer s.effects.mu.RUnlock()
	return s.effects.rejected[kind]
}

func (s *service) completedEffects(kind sanction.Kind) []sanction.Effect {
	s.effects.mu.RLock()
	defer s.effects.mu.RUnlock()
	return s.effects.completed[kind]
}

// fire runs effects in registration order after the transition was stored.
// The CAS in Update guarantees a single caller observes each transition, so
// a handler runs at most once per transition. Effect failures are logged,
// not propagated - the state change is already durable.
func (s *service) fire(ctx context.Context, effects []sanction.Effect, sc *sanction.Sanction) {
	for _, effect := range effects {
		if err := effect(ctx, sc); err != nil {
			log.Printf("sanction %s: %s effect failed: %v", sc.ID, sc.Kind, err)
		}
	}
}

func (s *service) publish(ctx context.Context, topic, actorID string, sc *sanction.Sanction) {
	_ = s.events.Publish(ctx, event.NewEvent(&event.Context{
		ArtifactID: sc.ArtifactID,
		Provider:   sc.Provider,
		EventType:  topic,
		ActorID:    actorID,
	}, *sc))
}

func (s *service) Queue() messaging.Queue[event.Event[sanction.Sanction]] { return s.events }

var _ sanction.Service = (*service)(nil)
