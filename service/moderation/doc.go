// Package moderation implements the role-gated review state machine layered
// on top of published artifacts: initial -> pending -> accepted / rejected,
// with withdrawal of accepted versions gated by a retraction sanction. Every
// transition appends an immutable history entry and publishes a domain
// event after the state change is committed.
package moderation
