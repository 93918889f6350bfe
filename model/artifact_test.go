package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArtifactRoleOf(t *testing.T) {
	artifact := &Artifact{
		CreatorID: "u1",
		Contributors: []Contributor{
			{UserID: "u2", Role: RoleAdmin, Index: 1},
			{UserID: "u3", Role: RoleWrite, Index: 2},
			{UserID: "u4", Role: RoleRead, Index: 3},
		},
	}

	for _, testCase := range []struct {
		description string
		userID      string
		expect      Role
	}{
		{description: "creator", userID: "u1", expect: RoleCreator},
		{description: "admin contributor", userID: "u2", expect: RoleAdmin},
		{description: "write contributor", userID: "u3", expect: RoleWrite},
		{description: "read contributor", userID: "u4", expect: RoleRead},
		{description: "unknown user", userID: "u9", expect: RoleUnaffiliated},
		{description: "anonymous", userID: "", expect: RoleUnaffiliated},
	} {
		assert.Equal(t, testCase.expect, artifact.RoleOf(testCase.userID), testCase.description)
	}
}

func TestArtifactOrderedContributors(t *testing.T) {
	artifact := &Artifact{
		Contributors: []Contributor{
			{UserID: "c", Index: 3},
			{UserID: "a", Index: 1},
			{UserID: "b", Index: 2},
		},
	}
	ordered := artifact.OrderedContributors()
	assert.Equal(t, []string{"a", "b", "c"}, []string{ordered[0].UserID, ordered[1].UserID, ordered[2].UserID})
}

func TestMarkPublicLatchesEverPublic(t *testing.T) {
	artifact := &Artifact{}
	artifact.MarkPublic()
	artifact.IsPublic = false
	assert.True(t, artifact.EverPublic, "latch survives going private again")
}
