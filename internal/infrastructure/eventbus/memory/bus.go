// Package memory provides the in-process event bus implementation.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/axiumai/chat-widget/internal/core/eventbus"
)

// DefaultBufferSize is the per-subscription delivery buffer.
const DefaultBufferSize = 256

// ErrClosed is returned by operations on a closed bus.
var ErrClosed = errors.New("event bus closed")

// Bus implements eventbus.Bus with in-process fan-out. A subscriber whose
// buffer is full misses the message rather than stalling the publisher.
type Bus struct {
	mu         sync.RWMutex
	topics     map[string]map[*subscription]struct{}
	bufferSize int
	closed     bool
	logger     zerolog.Logger
}

// NewBus creates an in-memory bus. A bufferSize <= 0 selects DefaultBufferSize.
func NewBus(bufferSize int, logger zerolog.Logger) *Bus {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Bus{
		topics:     make(map[string]map[*subscription]struct{}),
		bufferSize: bufferSize,
		logger:     logger.With().Str("component", "memory-bus").Logger(),
	}
}

// Publish delivers payload to every subscriber of topic.
func (b *Bus) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrClosed
	}

	for sub := range b.topics[topic] {
		msg := eventbus.Message{Topic: topic, Payload: append([]byte(nil), payload...)}
		select {
		case sub.out <- msg:
		default:
			b.logger.Warn().Str("topic", topic).Msg("Subscriber buffer full, dropping event")
		}
	}
	return nil
}

// Subscribe registers a subscription on topic.
func (b *Bus) Subscribe(ctx context.Context, topic string) (eventbus.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	sub := &subscription{
		bus:   b,
		topic: topic,
		out:   make(chan eventbus.Message, b.bufferSize),
	}
	if b.topics[topic] == nil {
		b.topics[topic] = make(map[*subscription]struct{})
	}
	b.topics[topic][sub] = struct{}{}
	return sub, nil
}

// Ping reports whether the bus is still open.
func (b *Bus) Ping(ctx context.Context) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	return nil
}

// Close closes every subscription and rejects further use.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for topic, subs := range b.topics {
		for sub := range subs {
			close(sub.out)
		}
		delete(b.topics, topic)
	}
	return nil
}

// Subscribers returns the number of subscriptions on topic.
func (b *Bus) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}

func (b *Bus) remove(sub *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.topics[sub.topic]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	close(sub.out)
	if len(subs) == 0 {
		delete(b.topics, sub.topic)
	}
}

type subscription struct {
	bus   *Bus
	topic string
	out   chan eventbus.Message
}

func (s *subscription) Messages() <-chan eventbus.Message {
	return s.out
}

func (s *subscription) Close() error {
	s.bus.remove(s)
	return nil
}
