package visibility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/veriflow/lifecycle/model"
	"github.com/veriflow/lifecycle/policy"
)

func artifactIn(state model.ReviewState) *model.Artifact {
	return &model.Artifact{
		ID:        "v1",
		CreatorID: "creator",
		Provider:  "journal-a",
		Contributors: []model.Contributor{
			{UserID: "adm", Role: model.RoleAdmin, Index: 1},
			{UserID: "wrt", Role: model.RoleWrite, Index: 2},
			{UserID: "rdr", Role: model.RoleRead, Index: 3},
		},
		ReviewsState: state,
	}
}

func TestCanViewTable(t *testing.T) {
	roles := []model.Role{
		model.RoleCreator, model.RoleAdmin, model.RoleWrite,
		model.RoleRead, model.RoleModerator, model.RoleUnaffiliated,
	}
	testCases := []struct {
		description string
		state       model.ReviewState
		isPublic    bool
		everPublic  bool
		visible     map[model.Role]bool
	}{
		{
			description: "initial is private to its admins even when flagged public",
			state:       model.StateInitial,
			isPublic:    true,
			visible: map[model.Role]bool{
				model.RoleCreator: true,
				model.RoleAdmin:   true,
			},
		},
		{
			description: "pending is contributor and moderator only",
			state:       model.StatePending,
			visible: map[model.Role]bool{
				model.RoleCreator:   true,
				model.RoleAdmin:     true,
				model.RoleWrite:     true,
				model.RoleRead:      true,
				model.RoleModerator: true,
			},
		},
		{
			description: "accepted private",
			state:       model.StateAccepted,
			visible: map[model.Role]bool{
				model.RoleCreator:   true,
				model.RoleAdmin:     true,
				model.RoleWrite:     true,
				model.RoleRead:      true,
				model.RoleModerator: true,
			},
		},
		{
			description: "accepted public is visible to anyone",
			state:       model.StateAccepted,
			isPublic:    true,
			visible: map[model.Role]bool{
				model.RoleCreator:      true,
				model.RoleAdmin:        true,
				model.RoleWrite:        true,
				model.RoleRead:         true,
				model.RoleModerator:    true,
				model.RoleUnaffiliated: true,
			},
		},
		{
			description: "rejected stays visible to insiders only",
			state:       model.StateRejected,
			visible: map[model.Role]bool{
				model.RoleCreator:   true,
				model.RoleAdmin:     true,
				model.RoleWrite:     true,
				model.RoleRead:      true,
				model.RoleModerator: true,
			},
		},
		{
			description: "withdrawn after being public stays discoverable",
			state:       model.StateWithdrawn,
			everPublic:  true,
			visible: map[model.Role]bool{
				model.RoleCreator:      true,
				model.RoleAdmin:        true,
				model.RoleWrite:        true,
				model.RoleRead:         true,
				model.RoleModerator:    true,
				model.RoleUnaffiliated: true,
			},
		},
		{
			description: "withdrawn never public reads as rejected to outsiders",
			state:       model.StateWithdrawn,
			visible: map[model.Role]bool{
				model.RoleCreator:   true,
				model.RoleAdmin:     true,
				model.RoleWrite:     true,
				model.RoleRead:      true,
				model.RoleModerator: true,
			},
		},
	}
	for _, testCase := range testCases {
		artifact := artifactIn(testCase.state)
		artifact.IsPublic = testCase.isPublic
		artifact.EverPublic = testCase.everPublic
		for _, role := range roles {
			expected := testCase.visible[role]
			actual := CanView(artifact, role)
			assert.Equal(t, expected, actual, "%s: role %s", testCase.description, role)
		}
	}
}

func TestModeratorCannotSeeInitial(t *testing.T) {
	artifact := artifactIn(model.StateInitial)
	assert.False(t, CanView(artifact, model.RoleModerator))
}

func TestPendingReadContributorVersusUnaffiliated(t *testing.T) {
	registry := policy.NewRegistry(&policy.Policy{Provider: "journal-a", Mode: policy.ModePre})
	resolver := New(registry)
	artifact := artifactIn(model.StatePending)

	assert.True(t, resolver.Resolve(artifact, "rdr").CanView)
	assert.False(t, resolver.Resolve(artifact, "stranger").CanView)
}

func TestWithdrawnTombstone(t *testing.T) {
	now := time.Now()

	everPublic := artifactIn(model.StateWithdrawn)
	everPublic.EverPublic = true
	everPublic.DateWithdrawn = &now
	everPublic.WithdrawalJustification = "duplicate submission"
	redacted := RedactedFields(everPublic, model.RoleUnaffiliated)
	assert.Contains(t, redacted, FieldFiles)
	assert.NotContains(t, redacted, FieldWithdrawalJustification)
	assert.NotContains(t, redacted, FieldDateWithdrawn)

	neverPublic := artifactIn(model.StateWithdrawn)
	redacted = RedactedFields(neverPublic, model.RoleRead)
	assert.Contains(t, redacted, FieldFiles)
	assert.Contains(t, redacted, FieldWithdrawalJustification)
	assert.Contains(t, redacted, FieldDateWithdrawn)
}

func TestRedactionOnlyForWithdrawn(t *testing.T) {
	for _, state := range []model.ReviewState{
		model.StateInitial, model.StatePending, model.StateAccepted, model.StateRejected,
	} {
		assert.Empty(t, RedactedFields(artifactIn(state), model.RoleUnaffiliated), string(state))
	}
}

func TestCanEdit(t *testing.T) {
	open := artifactIn(model.StateInitial)
	assert.True(t, CanEdit(open, model.RoleCreator))
	assert.True(t, CanEdit(open, model.RoleWrite))
	assert.False(t, CanEdit(open, model.RoleRead))
	assert.False(t, CanEdit(open, model.RoleModerator))

	accepted := artifactIn(model.StateAccepted)
	assert.False(t, CanEdit(accepted, model.RoleCreator), "decided versions are immutable")
}

func TestResolveUsesModeratorMembership(t *testing.T) {
	registry := policy.NewRegistry(&policy.Policy{
		Provider:   "journal-a",
		Mode:       policy.ModePre,
		Moderators: []string{"mod"},
	})
	resolver := New(registry)
	artifact := artifactIn(model.StatePending)

	assert.True(t, resolver.Resolve(artifact, "mod").CanView)
	assert.False(t, resolver.Resolve(artifact, "mod").CanEdit)
}

func TestResolveCacheInvalidation(t *testing.T) {
	registry := policy.NewRegistry()
	resolver := New(registry)
	artifact := artifactIn(model.StateAccepted)
	artifact.IsPublic = true

	assert.True(t, resolver.Resolve(artifact, "stranger").CanView)

	// the cache answers until the artifact is invalidated
	artifact.ReviewsState = model.StateRejected
	assert.True(t, resolver.Resolve(artifact, "stranger").CanView)

	resolver.Invalidate(artifact.ID)
	assert.False(t, resolver.Resolve(artifact, "stranger").CanView)
}
