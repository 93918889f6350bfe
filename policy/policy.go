package policy

import (
	"strings"
	"time"
)

// Moderation modes recognised by the engine.
const (
	ModeNone = "none" // submissions accept immediately
	ModePre  = "pre-moderation"
	ModePost = "post-moderation"
)

// Default outcomes applied by the sweep when a grace period elapses.
const (
	OutcomeApprove = "approve"
	OutcomeReject  = "reject"
)

// DefaultGracePeriod applies when a policy does not configure one.
const DefaultGracePeriod = 48 * time.Hour

// Policy holds the moderation rules of a single provider.
//
//   - Mode controls whether submissions require a moderator decision.
//   - Moderators lists the user ids of the provider moderator group.
//   - GracePeriod bounds how long a sanction may stay undecided.
//   - Defaults maps a sanction kind to the outcome applied on timeout;
//     kinds absent from the map fall back to the engine's per-kind default.
//
// A nil *Policy means "unmoderated, engine defaults" and is the zero-cost
// fallback.
type Policy struct {
	Provider    string
	Mode        string
	Moderators  []string
	GracePeriod time.Duration
	Defaults    map[string]string
}

// Moderated reports whether submissions require a moderator decision.
func (p *Policy) Moderated() bool {
	if p == nil {
		return false
	}
	return p.Mode == ModePre || p.Mode == ModePost
}

// IsModerator reports membership of the provider moderator group. The
// comparison is case-insensitive to match how user ids arrive from the
// excluded web layer.
func (p *Policy) IsModerator(userID string) bool {
	if p == nil || userID == "" {
		return false
	}
	for _, id := range p.Moderators {
		if strings.EqualFold(id, userID) {
			return true
		}
	}
	return false
}

// Grace returns the configured grace period or the engine default.
func (p *Policy) Grace() time.Duration {
	if p == nil || p.GracePeriod <= 0 {
		return DefaultGracePeriod
	}
	return p.GracePeriod
}

// DefaultOutcome returns the configured timeout outcome for a sanction kind,
// or empty when the policy is silent and the engine default applies.
func (p *Policy) DefaultOutcome(kind string) string {
	if p == nil {
		return ""
	}
	return p.Defaults[kind]
}
