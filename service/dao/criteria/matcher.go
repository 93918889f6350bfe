// Package criteria evaluates dao.Parameter filters against entity fields.
package criteria

import (
	"github.com/veriflow/lifecycle/service/dao"
)

// Matches reports whether a named field value satisfies every parameter
// carrying that name. Parameters with other names are ignored so stores can
// apply several Matches calls, one per filterable field.
func Matches(name, value string, parameters []*dao.Parameter) bool {
	for _, parameter := range parameters {
		if parameter == nil || parameter.Name != name {
			continue
		}
		switch actual := parameter.Value.(type) {
		case string:
			if value != actual {
				return false
			}
		case []string:
			var found bool
			for _, candidate := range actual {
				if value == candidate {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}
