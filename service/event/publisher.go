package event

import (
	"context"

	"github.com/veriflow/lifecycle/internal/clock"
	"github.com/veriflow/lifecycle/service/messaging"
)

// Publisher fans typed events out to a messaging queue.
type Publisher[T any] struct {
	queue messaging.Queue[Event[T]]
}

// NewPublisher creates a publisher over the supplied queue.
func NewPublisher[T any](queue messaging.Queue[Event[T]]) *Publisher[T] {
	return &Publisher[T]{queue: queue}
}

// Publish stamps and enqueues an event.
func (p *Publisher[T]) Publish(ctx context.Context, event *Event[T]) error {
	if p == nil || p.queue == nil || event == nil {
		return nil
	}
	event.CreatedAt = clock.Now()
	return p.queue.Publish(ctx, event)
}

// Consume retrieves and acknowledges the next event.
func (p *Publisher[T]) Consume(ctx context.Context) (*Event[T], error) {
	msg, err := p.queue.Consume(ctx)
	if err != nil || msg == nil {
		return nil, err
	}
	if err = msg.Ack(); err != nil {
		return nil, err
	}
	return msg.T(), nil
}
