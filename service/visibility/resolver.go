package visibility

import (
	"sort"
	"sync"

	"github.com/veriflow/lifecycle/model"
	"github.com/veriflow/lifecycle/policy"
)

// Attribute names used in redaction sets. They match the artifact's wire
// field names so the API layer can strip them mechanically.
const (
	FieldFiles                   = "files"
	FieldDescription             = "description"
	FieldTags                    = "tags"
	FieldSubjects                = "subjects"
	FieldInstitutions            = "institutions"
	FieldMetadata                = "metadata"
	FieldLicense                 = "license"
	FieldWithdrawalJustification = "withdrawalJustification"
	FieldDateWithdrawn           = "dateWithdrawn"
)

// Decision is the resolved authorisation of one requester for one version.
type Decision struct {
	CanView  bool     `json:"canView"`
	CanEdit  bool     `json:"canEdit"`
	Redacted []string `json:"redacted,omitempty"`
}

// Resolver computes visibility decisions, caching them per artifact and
// user until a transition invalidates the artifact.
type Resolver struct {
	policies *policy.Registry

	mu    sync.RWMutex
	cache map[string]map[string]Decision
}

// New creates a resolver backed by the provider policy registry.
func New(policies *policy.Registry) *Resolver {
	return &Resolver{
		policies: policies,
		cache:    make(map[string]map[string]Decision),
	}
}

// Resolve returns the decision for userID on the supplied version. The role
// is derived from provider moderator membership and the contributor list.
func (r *Resolver) Resolve(artifact *model.Artifact, userID string) Decision {
	if artifact == nil {
		return Decision{}
	}
	r.mu.RLock()
	if byUser, ok := r.cache[artifact.ID]; ok {
		if decision, ok := byUser[userID]; ok {
			r.mu.RUnlock()
			return decision
		}
	}
	r.mu.RUnlock()

	role := artifact.RoleOf(userID)
	if r.policies.IsModerator(artifact.Provider, userID) {
		role = model.RoleModerator
	}
	decision := Decision{
		CanView:  CanView(artifact, role),
		CanEdit:  CanEdit(artifact, role),
		Redacted: RedactedFields(artifact, role),
	}

	r.mu.Lock()
	byUser, ok := r.cache[artifact.ID]
	if !ok {
		byUser = make(map[string]Decision)
		r.cache[artifact.ID] = byUser
	}
	byUser[userID] = decision
	r.mu.Unlock()
	return decision
}

// Invalidate drops all cached decisions for an artifact. Called after every
// committed transition.
func (r *Resolver) Invalidate(artifactID string) {
	r.mu.Lock()
	delete(r.cache, artifactID)
	r.mu.Unlock()
}

// CanView implements the role x state decision table.
func CanView(artifact *model.Artifact, role model.Role) bool {
	switch artifact.ReviewsState {
	case model.StateInitial:
		// never-submitted drafts belong to their admins alone; moderators
		// have no business with them and IsPublic is ignored
		return role == model.RoleCreator || role == model.RoleAdmin

	case model.StatePending:
		return role.IsContributor() || role == model.RoleModerator

	case model.StateAccepted:
		if role.IsContributor() || role == model.RoleModerator {
			return true
		}
		return artifact.IsPublic

	case model.StateRejected:
		return role.IsContributor() || role == model.RoleModerator

	case model.StateWithdrawn:
		if role.IsContributor() || role == model.RoleModerator {
			return true
		}
		// the ever-public latch: a version the world has seen stays
		// discoverable after withdrawal; one it never saw reads as rejected
		return artifact.EverPublic
	}
	return false
}

// CanEdit reports whether the role may still modify the version. Only open
// versions are editable, and only by contributors holding write or better.
// Moderators review, they do not edit.
func CanEdit(artifact *model.Artifact, role model.Role) bool {
	if !artifact.ReviewsState.IsOpen() {
		return false
	}
	switch role {
	case model.RoleCreator, model.RoleAdmin, model.RoleWrite:
		return true
	}
	return false
}

// RedactedFields returns the attribute names to strip for the given role.
// The set is non-empty only for withdrawn versions: content is hidden for
// everyone, and the withdrawal tombstone (date, justification) is shown
// only when the version had been public before withdrawal.
func RedactedFields(artifact *model.Artifact, role model.Role) []string {
	if artifact.ReviewsState != model.StateWithdrawn {
		return nil
	}
	redacted := []string{
		FieldFiles,
		FieldDescription,
		FieldTags,
		FieldSubjects,
		FieldInstitutions,
		FieldMetadata,
		FieldLicense,
	}
	if !artifact.EverPublic {
		redacted = append(redacted, FieldWithdrawalJustification, FieldDateWithdrawn)
	}
	sort.Strings(redacted)
	return redacted
}
