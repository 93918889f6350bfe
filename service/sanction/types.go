package sanction

import (
	"sort"
	"time"

	"github.com/veriflow/lifecycle/policy"
)

// State represents the lifecycle of a sanction.
type State string

const (
	// StateUnapproved is the initial state, before any authorizer acted.
	StateUnapproved State = "unapproved"
	// StatePending marks a sanction with at least one approval recorded but
	// not yet all of them.
	StatePending State = "pending"
	StateApproved State = "approved"
	StateRejected State = "rejected"
	// StateCompleted marks an approved timed sanction whose period ran out,
	// e.g. an embargo that ended.
	StateCompleted State = "completed"
)

// Terminal reports whether no redemption can change the state anymore.
func (s State) Terminal() bool {
	return s == StateApproved || s == StateRejected || s == StateCompleted
}

// Kind enumerates the closed set of sanction variants. Side effects are
// dispatched through per-kind effect tables, not subclassing.
type Kind string

const (
	KindRegistrationApproval Kind = "registration_approval"
	KindEmbargo              Kind = "embargo"
	KindRetraction           Kind = "retraction"
	KindEmbargoTermination   Kind = "embargo_termination"
	KindSchemaResponse       Kind = "schema_response_approval"
)

// Valid reports whether the kind belongs to the closed variant set.
func (k Kind) Valid() bool {
	switch k {
	case KindRegistrationApproval, KindEmbargo, KindRetraction, KindEmbargoTermination, KindSchemaResponse:
		return true
	}
	return false
}

// FallbackOutcome returns the timeout outcome applied when the provider
// policy is silent. Changes that expand visibility approve by default;
// destructive ones reject by default.
func (k Kind) FallbackOutcome() string {
	switch k {
	case KindRetraction, KindEmbargoTermination:
		return policy.OutcomeReject
	}
	return policy.OutcomeApprove
}

// Intent states what a token redemption is trying to do.
type Intent string

const (
	IntentApprove Intent = "approve"
	IntentReject  Intent = "reject"
)

// SweepActor is recorded as ResolvedBy when the background sweep, rather
// than a user, resolved the sanction.
const SweepActor = "sweep"

// Event topics published by the sanction service.
const (
	TopicInitiated = "sanction.initiated"
	TopicRedeemed  = "sanction.redeemed"
	TopicResolved  = "sanction.resolved"
	TopicSwept     = "sanction.swept"
)

// ApprovalRecord tracks one authorizer's stance on a pending sanction.
type ApprovalRecord struct {
	ApprovalToken  string     `json:"approvalToken"`
	RejectionToken string     `json:"rejectionToken"`
	HasApproved    bool       `json:"hasApproved"`
	DecidedAt      *time.Time `json:"decidedAt,omitempty"`
}

// Sanction is one multi-party approval process. Rejected sanctions are never
// deleted; they remain as an audit trail.
type Sanction struct {
	ID         string `json:"id"`
	ArtifactID string `json:"artifactId"`
	Provider   string `json:"provider,omitempty"`
	Kind       Kind   `json:"kind"`
	State      State  `json:"state"`

	// ApprovalState maps authorizer id to that authorizer's tokens and
	// recorded decision.
	ApprovalState map[string]*ApprovalRecord `json:"approvalState"`

	InitiatedBy string     `json:"initiatedBy,omitempty"`
	InitiatedAt time.Time  `json:"initiatedAt"`
	EndDate     *time.Time `json:"endDate,omitempty"`

	// ResolvedBy is the authorizer whose redemption made the sanction
	// terminal, or SweepActor when the grace period ran out.
	ResolvedBy string `json:"resolvedBy,omitempty"`
	Swept      bool   `json:"swept,omitempty"`
	Comment    string `json:"comment,omitempty"`
}

// AllApproved reports whether every required authorizer has approved.
func (s *Sanction) AllApproved() bool {
	if len(s.ApprovalState) == 0 {
		return false
	}
	for _, record := range s.ApprovalState {
		if !record.HasApproved {
			return false
		}
	}
	return true
}

// Authorizers returns the required authorizer ids in stable order.
func (s *Sanction) Authorizers() []string {
	out := make([]string, 0, len(s.ApprovalState))
	for id := range s.ApprovalState {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
