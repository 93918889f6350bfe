package visibility

import (
	"context"
	"log"

	"github.com/veriflow/lifecycle/service/event"
	"github.com/veriflow/lifecycle/service/messaging"
	"github.com/veriflow/lifecycle/service/moderation"
)

// Watcher invalidates cached decisions as transition events arrive.
type Watcher struct {
	resolver   *Resolver
	queue      messaging.Queue[event.Event[moderation.Entry]]
	shutdownCh chan struct{}
}

// NewWatcher creates a watcher consuming the moderation event queue.
func NewWatcher(resolver *Resolver, queue messaging.Queue[event.Event[moderation.Entry]]) *Watcher {
	return &Watcher{
		resolver:   resolver,
		queue:      queue,
		shutdownCh: make(chan struct{}),
	}
}

// Start consumes events and blocks until ctx is done or Shutdown is called.
func (w *Watcher) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-w.shutdownCh:
			cancel()
		case <-ctx.Done():
		}
	}()
	for {
		msg, err := w.queue.Consume(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Printf("visibility watcher: consume failed: %v", err)
			continue
		}
		if msg == nil {
			continue
		}
		if evt := msg.T(); evt != nil && evt.Context != nil {
			w.resolver.Invalidate(evt.Context.ArtifactID)
		}
		_ = msg.Ack()
	}
}

// Shutdown stops the watcher.
func (w *Watcher) Shutdown() {
	close(w.shutdownCh)
}
