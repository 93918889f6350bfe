package sanction

import (
	"context"
	"time"

	"github.com/veriflow/lifecycle/model"
	"github.com/veriflow/lifecycle/service/event"
	"github.com/veriflow/lifecycle/service/messaging"
)

// Effect is a post-transition side-effect handler (publish, lift embargo,
// complete retraction...). Handlers registered for a kind run in
// registration order, at most once per transition, only after the state
// change is committed.
type Effect func(ctx context.Context, sanction *Sanction) error

// Service defines the sanction machine interface.
type Service interface {
	// Initiate opens a sanction over an artifact with one fresh token pair
	// per required authorizer. When end is nil the provider grace period
	// applies.
	Initiate(ctx context.Context, artifact *model.Artifact, kind Kind, authorizers []string, end *time.Time) (*Sanction, error)

	// Redeem applies one authorizer's token. Approvals commute and are
	// idempotent; a rejection is terminal regardless of prior approvals.
	Redeem(ctx context.Context, sanctionID, userID, token string, intent Intent) (*Sanction, error)

	// SweepPending applies the provider default outcome to sanctions whose
	// grace period elapsed, and completes approved timed sanctions whose
	// period ran out. Safe to run concurrently from multiple workers; the
	// returned slice lists sanctions mutated by this call, for audit.
	SweepPending(ctx context.Context) ([]*Sanction, error)

	Load(ctx context.Context, id string) (*Sanction, error)

	// ListPending returns sanctions still awaiting authorizers.
	ListPending(ctx context.Context) ([]*Sanction, error)

	// OnApproved/OnRejected/OnCompleted append effect handlers for a kind.
	OnApproved(kind Kind, effects ...Effect)
	OnRejected(kind Kind, effects ...Effect)
	OnCompleted(kind Kind, effects ...Effect)

	Queue() messaging.Queue[event.Event[Sanction]]
}
