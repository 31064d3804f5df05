// Package redis provides the Redis pub/sub event bus implementation.
package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/axiumai/chat-widget/internal/core/eventbus"
)

// Config holds Redis connection configuration.
type Config struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Bus implements the eventbus.Bus interface on Redis pub/sub.
type Bus struct {
	client *redis.Client
}

// NewBus creates a new Redis bus and verifies the connection.
func NewBus(cfg Config) (*Bus, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Bus{client: client}, nil
}

// Publish publishes payload on the Redis channel named topic.
func (b *Bus) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := b.client.Publish(ctx, topic, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// Subscribe subscribes to the Redis channel named topic. It returns once
// Redis has confirmed the subscription.
func (b *Bus) Subscribe(ctx context.Context, topic string) (eventbus.Subscription, error) {
	pubsub := b.client.Subscribe(ctx, topic)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	sub := &subscription{
		pubsub: pubsub,
		out:    make(chan eventbus.Message, 64),
		done:   make(chan struct{}),
	}
	go sub.forward()
	return sub, nil
}

// Ping checks if the Redis connection is alive.
func (b *Bus) Ping(ctx context.Context) error {
	if err := b.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (b *Bus) Close() error {
	if err := b.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis connection: %w", err)
	}
	return nil
}

// GetClient returns the underlying Redis client (for testing purposes).
func (b *Bus) GetClient() *redis.Client {
	return b.client
}

type subscription struct {
	pubsub *redis.PubSub
	out    chan eventbus.Message
	done   chan struct{}
	once   sync.Once
}

func (s *subscription) forward() {
	defer close(s.out)
	for msg := range s.pubsub.Channel() {
		select {
		case s.out <- eventbus.Message{Topic: msg.Channel, Payload: []byte(msg.Payload)}:
		case <-s.done:
			return
		}
	}
}

func (s *subscription) Messages() <-chan eventbus.Message {
	return s.out
}

func (s *subscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		if closeErr := s.pubsub.Close(); closeErr != nil {
			err = fmt.Errorf("failed to close subscription: %w", closeErr)
		}
	})
	return err
}
