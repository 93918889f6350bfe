package moderation

import (
	"context"
	"errors"
	"fmt"

	"github.com/veriflow/lifecycle/internal/clock"
	"github.com/veriflow/lifecycle/internal/idgen"
	"github.com/veriflow/lifecycle/model"
	"github.com/veriflow/lifecycle/policy"
	"github.com/veriflow/lifecycle/service/dao"
	"github.com/veriflow/lifecycle/service/dao/criteria"
	"github.com/veriflow/lifecycle/service/dao/store"
	"github.com/veriflow/lifecycle/service/event"
	"github.com/veriflow/lifecycle/service/sanction"
	"github.com/veriflow/lifecycle/tracing"
)

// Service drives moderation transitions. All collaborators are injected at
// construction; there is no package-level provider lookup.
type Service struct {
	artifacts dao.Store[string, model.Artifact]
	records   dao.Store[string, Record]
	policies  *policy.Registry
	sanctions sanction.Service
	publisher *event.Publisher[Entry]
}

type Option func(*Service)

// WithRecordStore swaps the moderation record store.
func WithRecordStore(records dao.Store[string, Record]) Option {
	return func(s *Service) { s.records = records }
}

// WithPublisher attaches the publisher transition events go to.
func WithPublisher(publisher *event.Publisher[Entry]) Option {
	return func(s *Service) { s.publisher = publisher }
}

// New creates the moderation machine over the shared artifact store.
func New(artifacts dao.Store[string, model.Artifact], policies *policy.Registry, sanctions sanction.Service, options ...Option) *Service {
	ret := &Service{
		artifacts: artifacts,
		records:   store.NewMemoryStore[string, Record](func(r *Record) string { return r.ArtifactID }),
		policies:  policies,
		sanctions: sanctions,
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Open creates the empty moderation record of a freshly created version.
func (s *Service) Open(ctx context.Context, artifact *model.Artifact) (*Record, error) {
	if artifact == nil {
		return nil, dao.ErrNilEntity
	}
	record := &Record{
		ArtifactID: artifact.ID,
		Provider:   artifact.Provider,
		State:      model.StateInitial,
		History:    []*Entry{},
	}
	if err := s.records.Save(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// Transition applies a trigger for an actor and returns the appended
// history entry. The state change is compare-and-set on the artifact, so a
// losing racer gets ErrInvalidTransition rather than overwriting.
func (s *Service) Transition(ctx context.Context, artifactID string, trigger Trigger, actorID, comment string) (*Entry, error) {
	ctx, span := tracing.StartSpan(ctx, "moderation.transition")
	defer span.End()

	artifact, err := s.artifacts.Load(ctx, artifactID)
	if err != nil {
		return nil, err
	}
	if artifact == nil {
		return nil, ErrNotFound
	}
	pol := s.policies.Lookup(artifact.Provider)
	role := s.roleOf(artifact, actorID)

	from := artifact.ReviewsState
	to, err := s.target(pol, from, trigger, role, actorID)
	if err != nil {
		return nil, err
	}

	now := clock.Now()
	updated, err := s.artifacts.Update(ctx, artifactID, func(a *model.Artifact) error {
		if a.ReviewsState != from {
			// lost the race; the trigger is no longer legal
			return ErrInvalidTransition
		}
		a.ReviewsState = to
		a.ModifiedAt = now
		switch trigger {
		case TriggerAccept, TriggerSubmit:
			if to == model.StateAccepted {
				a.IsPublished = true
				if a.IsPublic {
					a.EverPublic = true
				}
			}
		case TriggerWithdrawRequest:
			a.WithdrawalJustification = comment
		case TriggerWithdraw:
			a.DateWithdrawn = &now
			if comment != "" {
				a.WithdrawalJustification = comment
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if trigger == TriggerWithdrawRequest {
		if err := s.openRetraction(ctx, updated, comment); err != nil {
			return nil, err
		}
	}

	entry := &Entry{
		ID:         idgen.New(),
		ArtifactID: artifactID,
		From:       from,
		To:         to,
		Trigger:    trigger,
		ActorID:    actorID,
		Comment:    comment,
		CreatedAt:  now,
	}
	if err := s.append(ctx, updated, entry); err != nil {
		return nil, err
	}
	_ = s.publisher.Publish(ctx, event.NewEvent(&event.Context{
		ArtifactID: artifactID,
		RootID:     updated.RootID,
		Provider:   updated.Provider,
		EventType:  EventTypeTransition,
		Trigger:    string(trigger),
		ActorID:    actorID,
	}, *entry))
	return entry, nil
}

// target resolves the transition table: state legality first (so an illegal
// trigger reports ErrInvalidTransition even to privileged actors), then the
// actor requirement.
func (s *Service) target(pol *policy.Policy, from model.ReviewState, trigger Trigger, role model.Role, actorID string) (model.ReviewState, error) {
	switch trigger {
	case TriggerSubmit:
		if from != model.StateInitial {
			return "", transitionError(trigger, from)
		}
		if !role.CanAdminister() {
			return "", ErrPermissionDenied
		}
		if pol.Moderated() {
			return model.StatePending, nil
		}
		return model.StateAccepted, nil

	case TriggerAccept, TriggerReject:
		if from != model.StatePending {
			return "", transitionError(trigger, from)
		}
		if role != model.RoleModerator {
			return "", ErrPermissionDenied
		}
		if trigger == TriggerAccept {
			return model.StateAccepted, nil
		}
		return model.StateRejected, nil

	case TriggerWithdrawRequest:
		if from != model.StateAccepted {
			return "", transitionError(trigger, from)
		}
		if !role.CanAdminister() {
			return "", ErrPermissionDenied
		}
		return model.StateAccepted, nil

	case TriggerWithdraw:
		if from != model.StateAccepted {
			return "", transitionError(trigger, from)
		}
		// Normally arrives via the retraction sanction's effect: a
		// moderator redeemed the final token, or the sweep applied the
		// provider default. Unmoderated providers let admins finalise.
		if role != model.RoleModerator && actorID != sanction.SweepActor &&
			!(role.CanAdminister() && !pol.Moderated()) {
			return "", ErrPermissionDenied
		}
		return model.StateWithdrawn, nil
	}
	return "", transitionError(trigger, from)
}

func transitionError(trigger Trigger, from model.ReviewState) error {
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, trigger, from)
}

// openRetraction starts the multi-party withdrawal sanction. Moderated
// providers require the moderator group; otherwise the artifact admins
// decide. A repeated request while a sanction is still open keeps that
// sanction, so tokens already issued for it stay valid.
func (s *Service) openRetraction(ctx context.Context, artifact *model.Artifact, comment string) error {
	if artifact.SanctionID != "" {
		if existing, err := s.sanctions.Load(ctx, artifact.SanctionID); err == nil && !existing.State.Terminal() {
			return nil
		}
	}
	pol := s.policies.Lookup(artifact.Provider)
	authorizers := artifact.Admins()
	if pol.Moderated() {
		authorizers = pol.Moderators
	}
	sc, err := s.sanctions.Initiate(ctx, artifact, sanction.KindRetraction, authorizers, nil)
	if err != nil {
		return err
	}
	_, err = s.artifacts.Update(ctx, artifact.ID, func(a *model.Artifact) error {
		a.SanctionID = sc.ID
		return nil
	})
	return err
}

func (s *Service) append(ctx context.Context, artifact *model.Artifact, entry *Entry) error {
	_, err := s.records.Update(ctx, artifact.ID, func(r *Record) error {
		r.State = entry.To
		r.History = append(r.History, entry)
		return nil
	})
	if errors.Is(err, dao.ErrNotFound) {
		return s.records.Save(ctx, &Record{
			ArtifactID: artifact.ID,
			Provider:   artifact.Provider,
			State:      entry.To,
			History:    []*Entry{entry},
		})
	}
	return err
}

// History returns the immutable transition log of a version.
func (s *Service) History(ctx context.Context, artifactID string) ([]*Entry, error) {
	record, err := s.records.Load(ctx, artifactID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrNotFound
	}
	return record.History, nil
}

// ListPending returns the moderation queue of a provider: submitted
// versions awaiting a decision. Versions stuck in initial never show up
// here; abandoned drafts are not a moderation concern.
func (s *Service) ListPending(ctx context.Context, provider string) ([]*model.Artifact, error) {
	parameters := []*dao.Parameter{
		dao.NewParameter("Provider", provider),
		dao.NewParameter("ReviewsState", string(model.StatePending)),
	}
	all, err := s.artifacts.List(ctx, parameters...)
	if err != nil {
		return nil, err
	}
	var pending []*model.Artifact
	for _, artifact := range all {
		if !criteria.Matches("Provider", artifact.Provider, parameters) {
			continue
		}
		if !criteria.Matches("ReviewsState", string(artifact.ReviewsState), parameters) {
			continue
		}
		pending = append(pending, artifact)
	}
	return pending, nil
}

func (s *Service) roleOf(artifact *model.Artifact, actorID string) model.Role {
	if s.policies.IsModerator(artifact.Provider, actorID) {
		return model.RoleModerator
	}
	return artifact.RoleOf(actorID)
}
