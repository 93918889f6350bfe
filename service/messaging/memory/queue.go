// Package memory provides a channel-backed in-process messaging.Queue.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/veriflow/lifecycle/internal/idgen"
	"github.com/veriflow/lifecycle/service/messaging"
)

// Config for the in-memory queue.
type Config struct {
	MaxRetries  int
	RetryDelay  time.Duration
	QueueBuffer int
}

// DefaultConfig returns a standard configuration.
func DefaultConfig() Config {
	return Config{
		MaxRetries:  3,
		RetryDelay:  100 * time.Millisecond,
		QueueBuffer: 100,
	}
}

// Queue implements messaging.Queue on top of a buffered channel.
type Queue[T any] struct {
	messages chan *message[T]
	config   Config
}

// NewQueue creates a new in-memory queue.
func NewQueue[T any](config Config) *Queue[T] {
	if config.QueueBuffer <= 0 {
		config.QueueBuffer = DefaultConfig().QueueBuffer
	}
	return &Queue[T]{
		messages: make(chan *message[T], config.QueueBuffer),
		config:   config,
	}
}

// Publish adds a new item to the queue.
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	msg := &message[T]{
		id:      idgen.New(),
		payload: *t,
		queue:   q,
	}
	select {
	case q.messages <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume retrieves the next message, blocking until one arrives or ctx is
// done.
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	select {
	case msg := <-q.messages:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Size returns the number of buffered messages.
func (q *Queue[T]) Size() int {
	return len(q.messages)
}

type message[T any] struct {
	id         string
	payload    T
	queue      *Queue[T]
	retryCount int
	mu         sync.Mutex
	processed  bool
}

// T returns the message payload.
func (m *message[T]) T() *T {
	return &m.payload
}

// Ack acknowledges the message as processed successfully.
func (m *message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message %s already processed", m.id)
	}
	m.processed = true
	return nil
}

// Nack re-queues the message after the retry delay until MaxRetries is
// exhausted; afterwards the message is dropped.
func (m *message[T]) Nack(_ error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message %s already processed", m.id)
	}
	m.processed = true
	if m.retryCount >= m.queue.config.MaxRetries {
		return nil
	}
	retry := &message[T]{
		id:         m.id,
		payload:    m.payload,
		queue:      m.queue,
		retryCount: m.retryCount + 1,
	}
	go func() {
		time.Sleep(m.queue.config.RetryDelay)
		m.queue.messages <- retry
	}()
	return nil
}

var _ messaging.Queue[struct{}] = (*Queue[struct{}])(nil)
