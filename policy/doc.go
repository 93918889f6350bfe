// Package policy provides declarative per-provider moderation rules: the
// moderation mode, moderator membership, sanction grace periods and the
// default outcome applied when a grace period runs out. Policies are
// injected into the state machines at construction, never looked up through
// package-level state.
package policy
