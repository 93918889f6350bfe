package moderation

import (
	"time"

	"github.com/veriflow/lifecycle/model"
)

// Trigger names a moderation transition request.
type Trigger string

const (
	// TriggerSubmit moves a version out of initial; it lands in pending
	// under a moderated provider and directly in accepted otherwise.
	TriggerSubmit Trigger = "submit"
	// TriggerAccept and TriggerReject are moderator decisions on pending
	// versions.
	TriggerAccept Trigger = "accept"
	TriggerReject Trigger = "reject"
	// TriggerWithdrawRequest opens a retraction sanction over an accepted
	// version; the state stays accepted until the sanction resolves.
	TriggerWithdrawRequest Trigger = "withdraw_request"
	// TriggerWithdraw finalises a withdrawal, normally fired by the
	// retraction sanction's on-approved effect.
	TriggerWithdraw Trigger = "withdraw"
)

// EventType published for every committed transition.
const EventTypeTransition = "moderation.transition"

// Entry is one immutable element of a version's moderation history.
type Entry struct {
	ID         string            `json:"id"`
	ArtifactID string            `json:"artifactId"`
	From       model.ReviewState `json:"from"`
	To         model.ReviewState `json:"to"`
	Trigger    Trigger           `json:"trigger"`
	ActorID    string            `json:"actorId"`
	Comment    string            `json:"comment,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// Record accumulates the moderation history of one version. The version's
// current review state lives on the artifact itself; the record mirrors it
// for the audit trail.
type Record struct {
	ArtifactID string            `json:"artifactId"`
	Provider   string            `json:"provider,omitempty"`
	State      model.ReviewState `json:"state"`
	History    []*Entry          `json:"history"`
}
