// Package lifecycle governs how a mutable research-artifact draft becomes
// an immutable, citable version, and how successive versions of it are
// moderated, approved and withdrawn.
//
// The engine is built from four cooperating services:
//
//   - sanction   – generic multi-party approve/reject machine with timers
//   - moderation – role-gated review lifecycle layered per provider policy
//   - chain      – version chains with single-open-version and inheritance
//   - visibility – role x state view/redaction decisions
//
// End-users interact via the high-level Service façade exposed by this
// package:
//
//	srv := lifecycle.New(lifecycle.WithSigningKey(key))
//	draft, _ := srv.CreateDraft(ctx, artifact)
//	_, _ = srv.Moderation().Transition(ctx, draft.ID, moderation.TriggerSubmit, userID, "")
//
// For more details see the individual sub-packages.
package lifecycle
