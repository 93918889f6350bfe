package sanction

import "errors"

// Recoverable sanction errors. The excluded web layer maps these to HTTP
// status codes; they carry enough to render a user message without leaking
// internal state to unauthorized callers.

var (
	// ErrTokenMismatch is returned for any failed token verification. It
	// deliberately does not reveal whether the user id or the token was
	// wrong.
	ErrTokenMismatch = errors.New("sanction: this link is invalid or has expired")

	// ErrAlreadyDecided is returned when a conflicting redemption is
	// attempted on a terminal sanction.
	ErrAlreadyDecided = errors.New("sanction: already decided")

	// ErrStale is returned when the grace period elapsed and the sweep
	// already applied the default outcome.
	ErrStale = errors.New("sanction: resolved by timeout")

	// ErrNotFound is returned when the sanction does not exist.
	ErrNotFound = errors.New("sanction: not found")

	// ErrNoAuthorizers is returned when a sanction is initiated without any
	// required authorizer.
	ErrNoAuthorizers = errors.New("sanction: at least one authorizer required")

	// ErrInvalidKind is returned for a kind outside the closed variant set.
	ErrInvalidKind = errors.New("sanction: invalid kind")
)
