package chain

import "errors"

var (
	// ErrNotFound is returned when neither a version nor a root matches the
	// supplied id.
	ErrNotFound = errors.New("chain: artifact not found")

	// ErrPermissionDenied is returned when the actor may not open a new
	// version of the chain.
	ErrPermissionDenied = errors.New("chain: permission denied")

	// ErrConcurrentVersion signals that the chain already holds a version
	// in a non-terminal moderation state. OpenVersion resolves this
	// idempotently by returning that version; the sentinel exists for the
	// API layer, which maps it to a conflict response where idempotent
	// resolution is not possible.
	ErrConcurrentVersion = errors.New("chain: an open version already exists")
)
