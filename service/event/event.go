// Package event carries typed domain events emitted after committed state
// transitions. The outer layer consumes them for search indexing, email and
// DOI metadata updates; the engine guarantees at most one event per
// transition, published only after the transition is stored.
package event

import (
	"time"

	"github.com/veriflow/lifecycle/internal/clock"
)

// Context identifies the transition an event originates from.
type Context struct {
	ArtifactID string `json:"artifactID"`
	RootID     string `json:"rootID,omitempty"`
	Provider   string `json:"provider,omitempty"`
	EventType  string `json:"eventType"`
	Trigger    string `json:"trigger,omitempty"`
	ActorID    string `json:"actorID,omitempty"`
}

// Event is the generic envelope around a payload of type T.
type Event[T any] struct {
	Context   *Context               `json:"context"`
	CreatedAt time.Time              `json:"createdAt"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Data      T                      `json:"data"`
}

// NewEvent creates an event with the supplied context and payload.
func NewEvent[T any](context *Context, data T) *Event[T] {
	return &Event[T]{
		Context:   context,
		CreatedAt: clock.Now(),
		Data:      data,
	}
}
