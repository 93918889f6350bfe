package model

// ReviewState represents the moderation lifecycle state of a single version.
type ReviewState string

const (
	// StateInitial marks a version that exists but was never submitted.
	// It is visible only to admin contributors; an abandoned draft is not
	// a moderation concern.
	StateInitial ReviewState = "initial"

	// StatePending marks a submitted version awaiting a moderator decision.
	StatePending ReviewState = "pending"

	// StateAccepted marks a version cleared for its audience.
	StateAccepted ReviewState = "accepted"

	// StateRejected is terminal; the version stays hidden from
	// non-contributors.
	StateRejected ReviewState = "rejected"

	// StateWithdrawn is terminal and reachable only from accepted.
	StateWithdrawn ReviewState = "withdrawn"
)

// IsOpen reports whether the state still allows edits, i.e. the version has
// not reached a moderator decision. A chain may hold at most one open
// version at a time.
func (s ReviewState) IsOpen() bool {
	return s == StateInitial || s == StatePending
}

// IsTerminal reports whether no further trigger can leave the state.
func (s ReviewState) IsTerminal() bool {
	return s == StateRejected || s == StateWithdrawn
}
