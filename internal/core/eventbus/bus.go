// Package eventbus defines the event bus interface used to fan controller
// events out to stream subscribers.
package eventbus

import (
	"context"
)

// Message is a payload received on a topic.
type Message struct {
	Topic   string
	Payload []byte
}

// Subscription delivers the messages published on one topic.
type Subscription interface {
	// Messages returns the delivery channel. It is closed after Close.
	Messages() <-chan Message

	// Close stops delivery and releases the subscription.
	Close() error
}

// Bus defines the interface for publish/subscribe operations.
type Bus interface {
	// Publish sends payload to every current subscriber of topic.
	// Publishing to a topic without subscribers is not an error.
	Publish(ctx context.Context, topic string, payload []byte) error

	// Subscribe registers interest in topic. Messages published after
	// Subscribe returns are delivered in publish order.
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Ping checks if the bus backend is reachable.
	Ping(ctx context.Context) error

	// Close closes the bus and every open subscription.
	Close() error
}
