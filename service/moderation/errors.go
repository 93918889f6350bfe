package moderation

import "errors"

var (
	// ErrInvalidTransition is returned when the trigger is not legal from
	// the version's current state, for anyone.
	ErrInvalidTransition = errors.New("moderation: invalid transition")

	// ErrPermissionDenied is returned when the transition is legal but the
	// actor lacks the required role. The message never names the internal
	// state.
	ErrPermissionDenied = errors.New("moderation: permission denied")

	// ErrNotFound is returned when the artifact does not exist.
	ErrNotFound = errors.New("moderation: artifact not found")
)
