package chain

import (
	"fmt"

	"github.com/viant/structology/conv"
	"github.com/viant/toolbox"

	"github.com/veriflow/lifecycle/model"
)

// inheritExclusions lists snapshot keys a new version must never inherit:
// identity, timestamps, sanction/moderation state and the DOI flag.
var inheritExclusions = []string{
	"id", "rootId", "previousId", "versionNumber",
	"createdAt", "modifiedAt",
	"reviewsState", "sanctionId",
	"isPublic", "isPublished", "everPublic", "doiCreated",
	"withdrawalJustification", "dateWithdrawn",
	"contributors",
}

// inherited builds a fresh version seeded from its predecessor: scalar
// metadata through a map round-trip minus the exclusion list, relational
// fields copied explicitly with contributor ordering preserved.
func inherited(prev *model.Artifact) (*model.Artifact, error) {
	snapshot := map[string]interface{}{}
	if err := toolbox.DefaultConverter.AssignConverted(&snapshot, prev); err != nil {
		return nil, fmt.Errorf("chain: failed to snapshot version %s: %w", prev.ID, err)
	}
	snapshot = toolbox.DeleteEmptyKeys(snapshot)
	for _, key := range inheritExclusions {
		delete(snapshot, key)
	}

	next := &model.Artifact{}
	converter := conv.NewConverter(conv.DefaultOptions())
	if err := converter.Convert(snapshot, next); err != nil {
		return nil, fmt.Errorf("chain: failed to seed new version from %s: %w", prev.ID, err)
	}

	// The conversion must never leak excluded state, whatever the snapshot
	// keys looked like.
	next.ID = ""
	next.RootID = ""
	next.PreviousID = ""
	next.VersionNumber = 0
	next.ReviewsState = model.StateInitial
	next.SanctionID = ""
	next.IsPublic = false
	next.IsPublished = false
	next.EverPublic = false
	next.DOICreated = false
	next.WithdrawalJustification = ""
	next.DateWithdrawn = nil

	next.CreatorID = prev.CreatorID
	next.Provider = prev.Provider
	next.NodeID = prev.NodeID
	next.License = prev.License
	next.Contributors = prev.OrderedContributors()
	next.Subjects = append([]string(nil), prev.Subjects...)
	next.Institutions = append([]string(nil), prev.Institutions...)
	next.Tags = append([]string(nil), prev.Tags...)
	if prev.Metadata != nil {
		next.Metadata = make(map[string]interface{}, len(prev.Metadata))
		for k, v := range prev.Metadata {
			next.Metadata[k] = v
		}
	}
	next.Title = prev.Title
	next.Description = prev.Description
	return next, nil
}
