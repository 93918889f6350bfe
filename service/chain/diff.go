package chain

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/yaml.v3"

	"github.com/veriflow/lifecycle/model"
)

// MetadataDiff renders a unified diff between two versions, used in the
// version-opened event so reviewers can see what changed against the
// predecessor.
func MetadataDiff(prev, next *model.Artifact) (string, error) {
	prevDoc, err := yaml.Marshal(prev)
	if err != nil {
		return "", err
	}
	nextDoc, err := yaml.Marshal(next)
	if err != nil {
		return "", err
	}
	unified := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(prevDoc)),
		B:        difflib.SplitLines(string(nextDoc)),
		FromFile: fmt.Sprintf("version %d", prev.VersionNumber),
		ToFile:   fmt.Sprintf("version %d", next.VersionNumber),
		Context:  3,
	}
	return difflib.GetUnifiedDiffString(unified)
}
