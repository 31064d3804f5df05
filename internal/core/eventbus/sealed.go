package eventbus

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/axiumai/chat-widget/internal/pkg/encryption"
)

// SealedBus encrypts payloads before they leave the process and decrypts
// them on delivery. Messages that fail to decrypt are dropped.
type SealedBus struct {
	bus    Bus
	enc    encryption.Encryptor
	logger zerolog.Logger
}

// NewSealedBus wraps bus so payloads travel encrypted with enc.
func NewSealedBus(bus Bus, enc encryption.Encryptor, logger zerolog.Logger) *SealedBus {
	return &SealedBus{
		bus:    bus,
		enc:    enc,
		logger: logger.With().Str("component", "sealed-bus").Logger(),
	}
}

// Publish encrypts payload and publishes it on the wrapped bus.
func (s *SealedBus) Publish(ctx context.Context, topic string, payload []byte) error {
	sealed, err := s.enc.Encrypt(payload)
	if err != nil {
		return fmt.Errorf("failed to seal payload: %w", err)
	}
	return s.bus.Publish(ctx, topic, []byte(sealed))
}

// Subscribe subscribes on the wrapped bus and decrypts each delivery.
func (s *SealedBus) Subscribe(ctx context.Context, topic string) (Subscription, error) {
	inner, err := s.bus.Subscribe(ctx, topic)
	if err != nil {
		return nil, err
	}

	sub := &sealedSubscription{
		inner: inner,
		out:   make(chan Message, cap(inner.Messages())),
		done:  make(chan struct{}),
	}
	go func() {
		defer close(sub.out)
		for msg := range inner.Messages() {
			plain, err := s.enc.Decrypt(string(msg.Payload))
			if err != nil {
				s.logger.Warn().Err(err).Str("topic", msg.Topic).Msg("Dropping undecryptable event")
				continue
			}
			select {
			case sub.out <- Message{Topic: msg.Topic, Payload: plain}:
			case <-sub.done:
				return
			}
		}
	}()
	return sub, nil
}

// Ping checks the wrapped bus.
func (s *SealedBus) Ping(ctx context.Context) error {
	return s.bus.Ping(ctx)
}

// Close closes the wrapped bus.
func (s *SealedBus) Close() error {
	return s.bus.Close()
}

type sealedSubscription struct {
	inner Subscription
	out   chan Message
	done  chan struct{}
	once  sync.Once
}

func (s *sealedSubscription) Messages() <-chan Message {
	return s.out
}

func (s *sealedSubscription) Close() error {
	s.once.Do(func() { close(s.done) })
	return s.inner.Close()
}
