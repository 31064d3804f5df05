// Package widget hosts one chat controller per widget visitor and exposes
// their events on the event bus.
package widget

import (
	"context"
	"crypto/subtle"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/axiumai/chat-widget/internal/core/eventbus"
	domainerrors "github.com/axiumai/chat-widget/internal/domain/errors"
	"github.com/axiumai/chat-widget/internal/services/chat"
	"github.com/axiumai/chat-widget/internal/services/chatapi"
	"github.com/axiumai/chat-widget/internal/services/wsclient"
)

const (
	// DefaultIdleTTL evicts conversations nobody touched for this long.
	DefaultIdleTTL = 30 * time.Minute

	// DefaultMaxConversations caps live conversations per process.
	DefaultMaxConversations = 1000

	// DefaultSweepInterval is how often idle conversations are looked for.
	DefaultSweepInterval = time.Minute
)

// Config holds the dependencies and settings of the widget service.
type Config struct {
	Sessions chatapi.Client
	Dialer   wsclient.Dialer
	Bus      eventbus.Bus
	Logger   zerolog.Logger

	ConnectTimeout time.Duration
	Greeting       string
	Reconnect      chat.ReconnectPolicy

	IdleTTL          time.Duration
	MaxConversations int
	SweepInterval    time.Duration

	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// Conversation is one visitor's chat, guarded by a bearer token.
type Conversation struct {
	ID         string
	Controller *chat.Controller
	CreatedAt  time.Time

	token       string
	lastSeen    atomic.Int64
	streams     atomic.Int32
	unsubscribe func()
}

// Token returns the conversation's bearer token.
func (c *Conversation) Token() string {
	return c.token
}

// LastSeen returns when the conversation was last used.
func (c *Conversation) LastSeen() time.Time {
	return time.Unix(0, c.lastSeen.Load())
}

func (c *Conversation) touch(now time.Time) {
	c.lastSeen.Store(now.UnixNano())
}

func (c *Conversation) close() {
	c.unsubscribe()
	c.Controller.Close()
}

// Service is the registry of live conversations.
type Service struct {
	cfg    Config
	logger zerolog.Logger
	now    func() time.Time

	mu            sync.RWMutex
	conversations map[string]*Conversation
	closed        bool
}

// NewService creates a new widget service.
func NewService(cfg *Config) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("session client is required")
	}
	if cfg.Dialer == nil {
		return nil, fmt.Errorf("dialer is required")
	}
	if cfg.Bus == nil {
		return nil, fmt.Errorf("event bus is required")
	}

	c := *cfg
	if c.IdleTTL <= 0 {
		c.IdleTTL = DefaultIdleTTL
	}
	if c.MaxConversations <= 0 {
		c.MaxConversations = DefaultMaxConversations
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = DefaultSweepInterval
	}
	now := c.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		cfg:           c,
		logger:        c.Logger.With().Str("component", "widget").Logger(),
		now:           now,
		conversations: make(map[string]*Conversation),
	}, nil
}

// Create registers a conversation and initiates its chat. When initiation
// fails the conversation is discarded and the error returned.
func (s *Service) Create(ctx context.Context) (*Conversation, error) {
	ctrl, err := chat.NewController(&chat.Config{
		Sessions:       s.cfg.Sessions,
		Dialer:         s.cfg.Dialer,
		Logger:         s.cfg.Logger,
		ConnectTimeout: s.cfg.ConnectTimeout,
		Greeting:       s.cfg.Greeting,
		Reconnect:      s.cfg.Reconnect,
	})
	if err != nil {
		return nil, domainerrors.NewInternalError("failed to create controller", err)
	}

	id := uuid.NewString()
	conv := &Conversation{
		ID:         id,
		Controller: ctrl,
		CreatedAt:  s.now(),
		token:      uuid.NewString(),
	}
	conv.touch(conv.CreatedAt)
	conv.unsubscribe = ctrl.Subscribe(newPublisher(s.cfg.Bus, id, s.logger.With().Str("conversation_id", id).Logger()))

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conv.close()
		return nil, domainerrors.NewServiceUnavailableError("widget", fmt.Errorf("service closed"))
	}
	if len(s.conversations) >= s.cfg.MaxConversations {
		s.mu.Unlock()
		conv.close()
		return nil, domainerrors.NewServiceUnavailableError("widget", fmt.Errorf("conversation limit %d reached", s.cfg.MaxConversations))
	}
	s.conversations[id] = conv
	s.mu.Unlock()

	if err := ctrl.InitiateChat(ctx); err != nil {
		s.remove(id)
		s.logger.Warn().Err(err).Str("conversation_id", id).Msg("Failed to initiate chat")
		return nil, err
	}

	s.logger.Info().Str("conversation_id", id).Msg("Conversation created")
	return conv, nil
}

// Get returns the conversation with id.
func (s *Service) Get(id string) (*Conversation, error) {
	s.mu.RLock()
	conv, ok := s.conversations[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domainerrors.NewNotFoundError("conversation", id)
	}
	return conv, nil
}

// Authorize returns the conversation when token matches, and marks it used.
func (s *Service) Authorize(id, token string) (*Conversation, error) {
	conv, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(conv.token)) != 1 {
		return nil, domainerrors.NewUnauthorizedError("invalid conversation token")
	}
	conv.touch(s.now())
	return conv, nil
}

// SendMessage sends text in the conversation.
func (s *Service) SendMessage(ctx context.Context, id, text string) (chat.Snapshot, error) {
	conv, err := s.Get(id)
	if err != nil {
		return chat.Snapshot{}, err
	}
	conv.touch(s.now())
	if err := conv.Controller.SendMessage(ctx, text); err != nil {
		return conv.Controller.Snapshot(), err
	}
	return conv.Controller.Snapshot(), nil
}

// Reset clears the conversation's chat without dropping it.
func (s *Service) Reset(id string) error {
	conv, err := s.Get(id)
	if err != nil {
		return err
	}
	conv.touch(s.now())
	conv.Controller.Reset()
	return nil
}

// Delete resets and drops the conversation.
func (s *Service) Delete(id string) error {
	if !s.remove(id) {
		return domainerrors.NewNotFoundError("conversation", id)
	}
	s.logger.Info().Str("conversation_id", id).Msg("Conversation deleted")
	return nil
}

// Stream subscribes to the conversation's events. The conversation is not
// evicted while a stream is open.
func (s *Service) Stream(ctx context.Context, id string) (eventbus.Subscription, error) {
	conv, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	sub, err := s.cfg.Bus.Subscribe(ctx, Topic(id))
	if err != nil {
		return nil, domainerrors.NewServiceUnavailableError("event bus", err)
	}
	conv.streams.Add(1)
	return &stream{Subscription: sub, conv: conv, now: s.now}, nil
}

// Len returns the number of live conversations.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}

// Ping checks the event bus.
func (s *Service) Ping(ctx context.Context) error {
	return s.cfg.Bus.Ping(ctx)
}

// Sweep drops conversations idle for longer than IdleTTL that have no open
// stream, and returns how many were dropped.
func (s *Service) Sweep() int {
	cutoff := s.now().Add(-s.cfg.IdleTTL)

	s.mu.Lock()
	var idle []*Conversation
	for id, conv := range s.conversations {
		if conv.streams.Load() > 0 || conv.LastSeen().After(cutoff) {
			continue
		}
		idle = append(idle, conv)
		delete(s.conversations, id)
	}
	s.mu.Unlock()

	for _, conv := range idle {
		conv.close()
		s.logger.Info().Str("conversation_id", conv.ID).Msg("Evicted idle conversation")
	}
	return len(idle)
}

// Run sweeps idle conversations until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Debug().Int("evicted", n).Int("live", s.Len()).Msg("Sweep finished")
			}
		}
	}
}

// Close closes every conversation and rejects new ones.
func (s *Service) Close() {
	s.mu.Lock()
	s.closed = true
	all := make([]*Conversation, 0, len(s.conversations))
	for id, conv := range s.conversations {
		all = append(all, conv)
		delete(s.conversations, id)
	}
	s.mu.Unlock()

	var wg sync.WaitGroup
	for _, conv := range all {
		wg.Add(1)
		go func(conv *Conversation) {
			defer wg.Done()
			conv.close()
		}(conv)
	}
	wg.Wait()
}

func (s *Service) remove(id string) bool {
	s.mu.Lock()
	conv, ok := s.conversations[id]
	delete(s.conversations, id)
	s.mu.Unlock()

	if ok {
		conv.close()
	}
	return ok
}

type stream struct {
	eventbus.Subscription
	conv *Conversation
	now  func() time.Time
	once sync.Once
}

func (s *stream) Close() error {
	s.once.Do(func() {
		s.conv.streams.Add(-1)
		s.conv.touch(s.now())
	})
	return s.Subscription.Close()
}
