package model

import (
	"sort"
	"time"
)

// Contributor is one entry of an artifact's ordered contributor list.
type Contributor struct {
	UserID        string `json:"userId"`
	Role          Role   `json:"role"` // admin, write or read
	Index         int    `json:"index"`
	Bibliographic bool   `json:"bibliographic"`
	Visible       bool   `json:"visible"`
}

// Artifact is a single version of a governed research artifact (a
// registration or a preprint). Versions sharing a RootID form a chain;
// VersionNumber ascends within the chain.
type Artifact struct {
	ID             string `json:"id"`
	RootID         string `json:"rootId"`
	PreviousID     string `json:"previousId,omitempty"`
	VersionNumber  int    `json:"versionNumber"`
	CreatorID      string `json:"creatorId"`
	Provider       string `json:"provider"`
	NodeID         string `json:"nodeId,omitempty"`

	Title       string                 `json:"title"`
	Description string                 `json:"description,omitempty"`
	Tags        []string               `json:"tags,omitempty"`
	Subjects    []string               `json:"subjects,omitempty"`
	Institutions []string              `json:"institutions,omitempty"`
	License     string                 `json:"license,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`

	Contributors []Contributor `json:"contributors"`

	IsPublic    bool `json:"isPublic"`
	IsPublished bool `json:"isPublished"`
	// EverPublic is a one-way latch: once a version has been public at
	// least once, withdrawal never fully hides it again.
	EverPublic bool `json:"everPublic"`
	DOICreated bool `json:"doiCreated"`

	ReviewsState ReviewState `json:"reviewsState"`
	SanctionID   string      `json:"sanctionId,omitempty"`

	WithdrawalJustification string     `json:"withdrawalJustification,omitempty"`
	DateWithdrawn           *time.Time `json:"dateWithdrawn,omitempty"`

	CreatedAt  time.Time `json:"createdAt"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// RoleOf resolves the contributor role of userID relative to the artifact.
// Moderator membership is provider-level and resolved separately via the
// policy registry.
func (a *Artifact) RoleOf(userID string) Role {
	if userID == "" {
		return RoleUnaffiliated
	}
	if userID == a.CreatorID {
		return RoleCreator
	}
	for i := range a.Contributors {
		if a.Contributors[i].UserID == userID {
			return a.Contributors[i].Role
		}
	}
	return RoleUnaffiliated
}

// Admins returns the user ids allowed to administer the artifact, creator
// first, contributors in list order.
func (a *Artifact) Admins() []string {
	ids := []string{a.CreatorID}
	for _, c := range a.OrderedContributors() {
		if c.Role == RoleAdmin && c.UserID != a.CreatorID {
			ids = append(ids, c.UserID)
		}
	}
	return ids
}

// OrderedContributors returns the contributor list sorted by Index.
func (a *Artifact) OrderedContributors() []Contributor {
	out := make([]Contributor, len(a.Contributors))
	copy(out, a.Contributors)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// MarkPublic flips the public flag and latches EverPublic.
func (a *Artifact) MarkPublic() {
	a.IsPublic = true
	a.EverPublic = true
}
