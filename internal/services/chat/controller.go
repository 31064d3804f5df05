// Package chat orchestrates a chat conversation: it acquires sessions,
// owns the single live connection, keeps the message log and recovers from
// unexpected disconnects.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	domainerrors "github.com/axiumai/chat-widget/internal/domain/errors"
	"github.com/axiumai/chat-widget/internal/domain/models"
	"github.com/axiumai/chat-widget/internal/services/chatapi"
	"github.com/axiumai/chat-widget/internal/services/wsclient"
)

const (
	// DefaultConnectTimeout bounds the wait for a connection to open.
	DefaultConnectTimeout = 10 * time.Second

	// DefaultGreeting is sent on every new session to trigger the welcome turn.
	DefaultGreeting = "Hello"
)

var (
	// ErrConversationReset is returned by operations overtaken by Reset.
	ErrConversationReset = errors.New("conversation was reset")

	// ErrReconnectExhausted is recorded when automatic recovery gives up.
	ErrReconnectExhausted = errors.New("automatic reconnect attempts exhausted")
)

// Config holds the dependencies and settings of a Controller.
type Config struct {
	Sessions chatapi.Client
	Dialer   wsclient.Dialer
	Logger   zerolog.Logger

	ConnectTimeout time.Duration
	Greeting       string
	// Reconnect applies to automatic recovery. The zero value selects
	// DefaultReconnectPolicy.
	Reconnect ReconnectPolicy
}

// Controller owns one conversation: at most one Session and one live
// connection at a time, plus the append-only message log.
type Controller struct {
	sessions       chatapi.Client
	dialer         wsclient.Dialer
	logger         zerolog.Logger
	connectTimeout time.Duration
	greeting       string
	policy         ReconnectPolicy

	// opMu serializes session and delivery operations.
	opMu sync.Mutex

	mu          sync.Mutex
	session     *models.Session
	handle      *wsclient.Handle
	generation  uint64
	epoch       uint64
	epochCtx    context.Context
	cancelEpoch context.CancelFunc
	state       models.ConnectionState
	typing      bool
	messages    []models.Message
	lastErr     error

	recoveries       int
	recovering       bool
	closedRecovering bool

	observers []subscription
	nextSubID uint64
	pending   []Event
	flushing  bool

	wg sync.WaitGroup
}

// NewController creates a new chat controller.
func NewController(cfg *Config) (*Controller, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("session client is required")
	}
	if cfg.Dialer == nil {
		return nil, fmt.Errorf("dialer is required")
	}

	c := &Controller{
		sessions:       cfg.Sessions,
		dialer:         cfg.Dialer,
		logger:         cfg.Logger.With().Str("component", "chat").Logger(),
		connectTimeout: cfg.ConnectTimeout,
		greeting:       cfg.Greeting,
		policy:         cfg.Reconnect,
		state:          models.StateIdle,
	}
	if c.connectTimeout <= 0 {
		c.connectTimeout = DefaultConnectTimeout
	}
	if c.greeting == "" {
		c.greeting = DefaultGreeting
	}
	if c.policy == (ReconnectPolicy{}) {
		c.policy = DefaultReconnectPolicy()
	}
	c.epochCtx, c.cancelEpoch = context.WithCancel(context.Background())

	return c, nil
}

// InitiateChat starts the first session. It does nothing when a session
// already exists.
func (c *Controller) InitiateChat(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	exists := c.session != nil
	epoch := c.epoch
	c.mu.Unlock()

	if exists {
		return nil
	}
	return c.startNewSession(ctx, epoch, false)
}

// StartNewSession fetches a fresh session, connects with it and sends the
// greeting. A reconnection appends a session divider to the log first.
func (c *Controller) StartNewSession(ctx context.Context, isReconnection bool) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	epoch := c.epoch
	c.mu.Unlock()

	return c.startNewSession(ctx, epoch, isReconnection)
}

// SendMessage appends the user's text to the log and delivers it, connecting
// or reconnecting as needed. A failed delivery gets exactly one recovery
// attempt on a brand-new session; if that fails too, a connection error
// message is appended and the state becomes error.
func (c *Controller) SendMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	c.mu.Lock()
	epoch := c.epoch
	c.appendLocked(*models.NewMessage(models.RoleUser, text))
	c.setTypingLocked(true)
	c.mu.Unlock()
	c.flush()

	c.opMu.Lock()
	defer c.opMu.Unlock()

	ctx, cancel := c.bind(ctx, epoch)
	defer cancel()

	err := c.deliver(ctx, epoch, text)
	if err == nil {
		return nil
	}
	if c.stale(epoch) {
		return ErrConversationReset
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		c.mu.Lock()
		c.setTypingLocked(false)
		c.mu.Unlock()
		c.flush()
		return ctxErr
	}

	c.logger.Warn().Err(err).Msg("send failed, recovering with a new session")

	err = c.startNewSession(ctx, epoch, true)
	if err == nil {
		err = c.sendCurrent(epoch, text)
	}
	if err == nil {
		return nil
	}
	if c.stale(epoch) {
		return ErrConversationReset
	}

	c.logger.Error().Err(err).Msg("recovery failed")

	c.mu.Lock()
	c.appendLocked(*models.NewMessage(models.RoleAssistant, models.ConnectionErrorText))
	c.setStateLocked(models.StateError)
	c.setTypingLocked(false)
	c.failLocked(err)
	c.mu.Unlock()
	c.flush()

	return err
}

// Reset closes the connection on purpose and clears the session, the log,
// the typing flag and the state. Operations in flight are abandoned.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.epoch++
	c.generation++
	c.cancelEpoch()
	c.epochCtx, c.cancelEpoch = context.WithCancel(context.Background())

	h := c.handle
	c.handle = nil
	c.session = nil
	c.messages = nil
	c.typing = false
	c.state = models.StateIdle
	c.lastErr = nil
	c.recoveries = 0
	c.enqueueLocked(Event{Type: EventReset, State: models.StateIdle})
	c.mu.Unlock()

	if h != nil {
		h.Close()
	}
	c.flush()

	c.logger.Debug().Msg("conversation reset")
}

// Close resets the controller and waits for background recovery to stop.
func (c *Controller) Close() {
	c.Reset()
	c.wg.Wait()
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		State:     c.state,
		Typing:    c.typing,
		Messages:  append([]models.Message(nil), c.messages...),
		LastError: c.lastErr,
	}
	if c.session != nil {
		snap.SessionID = c.session.SessionID
	}
	return snap
}

// State returns the current connection state.
func (c *Controller) State() models.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Session returns the current session, or nil.
func (c *Controller) Session() *models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// deliver sends text on the current connection, creating the session or
// reconnecting first when needed.
func (c *Controller) deliver(ctx context.Context, epoch uint64, text string) error {
	c.mu.Lock()
	session := c.session
	h := c.handle
	c.mu.Unlock()

	switch {
	case session == nil:
		fetched, err := c.fetchSession(ctx, epoch)
		if err != nil {
			return err
		}
		if err := c.adoptSession(epoch, fetched, false); err != nil {
			return err
		}
		if _, err := c.connect(ctx, epoch, fetched); err != nil {
			return err
		}
	case h == nil || h.State() != wsclient.StateAuthenticated:
		if _, err := c.connect(ctx, epoch, session); err != nil {
			return err
		}
	}

	return c.sendCurrent(epoch, text)
}

func (c *Controller) startNewSession(ctx context.Context, epoch uint64, isReconnection bool) error {
	ctx, cancel := c.bind(ctx, epoch)
	defer cancel()

	c.mu.Lock()
	c.setTypingLocked(true)
	c.mu.Unlock()
	c.flush()

	session, err := c.fetchSession(ctx, epoch)
	if err != nil {
		if c.stale(epoch) {
			return ErrConversationReset
		}
		c.mu.Lock()
		c.setStateLocked(models.StateError)
		c.setTypingLocked(false)
		c.failLocked(err)
		c.mu.Unlock()
		c.flush()
		return err
	}

	if err := c.adoptSession(epoch, session, isReconnection); err != nil {
		return err
	}

	h, err := c.connect(ctx, epoch, session)
	if err != nil {
		c.mu.Lock()
		if c.epoch == epoch {
			c.setTypingLocked(false)
		}
		c.mu.Unlock()
		c.flush()
		return err
	}

	if err := h.Send(c.greeting); err != nil {
		return err
	}
	return nil
}

func (c *Controller) fetchSession(ctx context.Context, epoch uint64) (*models.Session, error) {
	session, err := c.sessions.FetchSession(ctx)
	if c.stale(epoch) {
		return nil, ErrConversationReset
	}
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to fetch session")
		return nil, err
	}
	return session, nil
}

// adoptSession replaces the stored session, appending a divider first when
// this is a reconnection.
func (c *Controller) adoptSession(epoch uint64, session *models.Session, isReconnection bool) error {
	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		return ErrConversationReset
	}
	if isReconnection {
		c.appendLocked(*models.NewDivider())
	}
	c.session = session
	c.enqueueLocked(Event{Type: EventSession, SessionID: session.SessionID})
	c.mu.Unlock()
	c.flush()

	c.logger.Info().
		Str("session_id", session.SessionID).
		Bool("reconnection", isReconnection).
		Msg("session started")
	return nil
}

// connect supersedes the current handle with a new one for session and waits
// until it is authenticated, closes, or the connect timeout elapses.
func (c *Controller) connect(ctx context.Context, epoch uint64, session *models.Session) (*wsclient.Handle, error) {
	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		return nil, ErrConversationReset
	}
	old := c.handle
	c.handle = nil
	c.generation++
	gen := c.generation
	c.setStateLocked(models.StateConnecting)
	c.mu.Unlock()
	c.flush()

	if old != nil {
		old.Close()
	}

	h := wsclient.Connect(session, wsclient.Options{
		Dialer:     c.dialer,
		Callbacks:  c.callbacks(gen),
		Logger:     c.logger,
		Generation: gen,
	})

	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		h.Close()
		return nil, ErrConversationReset
	}
	c.handle = h
	c.mu.Unlock()

	timer := time.NewTimer(c.connectTimeout)
	defer timer.Stop()

	var err error
	reported := false
	select {
	case <-h.Opened():
		c.logger.Debug().
			Str("session_id", h.SessionID()).
			Uint64("generation", h.Generation()).
			Msg("connected")
		return h, nil
	case <-h.Done():
		// The handle already reported its own error through OnError.
		err = h.Err()
		reported = err != nil
		if err == nil {
			err = domainerrors.NewConnectionError("connection closed before opening", nil)
		}
	case <-timer.C:
		h.Close()
		err = domainerrors.NewConnectionError(fmt.Sprintf("connection did not open within %s", c.connectTimeout), nil)
	case <-ctx.Done():
		h.Close()
		err = ctx.Err()
	}

	if c.stale(epoch) {
		return nil, ErrConversationReset
	}

	c.mu.Lock()
	if c.generation == gen {
		c.setStateLocked(models.StateError)
		if !reported {
			c.failLocked(err)
		}
	}
	c.mu.Unlock()
	c.flush()

	c.logger.Warn().
		Err(err).
		Str("session_id", h.SessionID()).
		Uint64("generation", h.Generation()).
		Bool("was_opened", h.WasOpened()).
		Msg("failed to connect")
	return nil, err
}

func (c *Controller) sendCurrent(epoch uint64, text string) error {
	c.mu.Lock()
	h := c.handle
	stale := c.epoch != epoch
	c.mu.Unlock()

	if stale {
		return ErrConversationReset
	}
	if h == nil {
		return domainerrors.NewConnectionError("no active connection", nil)
	}
	return h.Send(text)
}

// callbacks binds handle signals to gen; signals from superseded handles
// are dropped.
func (c *Controller) callbacks(gen uint64) wsclient.Callbacks {
	return wsclient.Callbacks{
		OnOpen: func() {
			c.mu.Lock()
			if c.generation == gen {
				c.setStateLocked(models.StateConnected)
			}
			c.mu.Unlock()
			c.flush()
		},
		OnMessage: func(in *models.InboundMessage) {
			c.mu.Lock()
			if c.generation != gen {
				c.mu.Unlock()
				return
			}
			c.appendLocked(*in.ToMessage())
			c.setTypingLocked(false)
			c.recoveries = 0
			c.mu.Unlock()
			c.flush()
		},
		OnClose: func(info wsclient.CloseInfo) {
			c.handleClose(gen, info)
		},
		OnError: func(err error) {
			c.mu.Lock()
			current := c.generation == gen
			if current {
				c.failLocked(err)
			}
			c.mu.Unlock()
			c.flush()

			if current {
				c.logger.Warn().Err(err).Msg("connection error")
			}
		},
	}
}

func (c *Controller) handleClose(gen uint64, info wsclient.CloseInfo) {
	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return
	}
	c.setStateLocked(models.StateClosed)

	unexpected := !info.Intentional && info.WasOpened
	start := false
	if unexpected {
		if c.recovering {
			c.closedRecovering = true
		} else {
			c.recovering = true
			c.wg.Add(1)
			start = true
		}
	}
	epoch := c.epoch
	ctx := c.epochCtx
	c.mu.Unlock()
	c.flush()

	if !unexpected {
		return
	}

	c.logger.Info().
		Int("code", info.Code).
		Str("reason", info.Reason).
		Msg("connection closed unexpectedly")

	if start {
		go c.recoverSession(ctx, epoch)
	}
}

// recoverSession starts new sessions until one connects, the policy gives up
// or the conversation is reset.
func (c *Controller) recoverSession(ctx context.Context, epoch uint64) {
	defer c.wg.Done()

	for {
		c.mu.Lock()
		if c.epoch != epoch {
			c.recovering = false
			c.mu.Unlock()
			return
		}
		if h := c.handle; h != nil && !c.closedRecovering && h.State() == wsclient.StateAuthenticated {
			// Another operation already reconnected.
			c.recovering = false
			c.mu.Unlock()
			return
		}
		attempt := c.recoveries + 1
		if c.policy.Exhausted(attempt) {
			c.recovering = false
			c.closedRecovering = false
			c.setStateLocked(models.StateError)
			c.setTypingLocked(false)
			c.failLocked(ErrReconnectExhausted)
			c.mu.Unlock()
			c.flush()
			c.logger.Error().Int("attempts", attempt-1).Msg("giving up on automatic reconnect")
			return
		}
		c.recoveries = attempt
		c.closedRecovering = false
		c.mu.Unlock()

		if delay := c.policy.Backoff(attempt); delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				c.finishRecovery(epoch)
				return
			}
		}

		c.logger.Info().Int("attempt", attempt).Msg("starting new session after disconnect")

		c.opMu.Lock()
		err := c.startNewSession(ctx, epoch, true)
		c.opMu.Unlock()

		c.mu.Lock()
		if c.epoch != epoch {
			c.recovering = false
			c.mu.Unlock()
			return
		}
		if err == nil && !c.closedRecovering {
			c.recovering = false
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()

		if err != nil {
			c.logger.Warn().Err(err).Int("attempt", attempt).Msg("automatic reconnect failed")
		}
	}
}

func (c *Controller) finishRecovery(epoch uint64) {
	c.mu.Lock()
	if c.epoch == epoch {
		c.recovering = false
	}
	c.mu.Unlock()
}

// bind derives a context that is also cancelled when the epoch ends.
func (c *Controller) bind(ctx context.Context, epoch uint64) (context.Context, context.CancelFunc) {
	c.mu.Lock()
	epochCtx := c.epochCtx
	current := c.epoch == epoch
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	if !current {
		cancel()
		return ctx, cancel
	}
	stop := context.AfterFunc(epochCtx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (c *Controller) stale(epoch uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch != epoch
}

func (c *Controller) appendLocked(m models.Message) {
	c.messages = append(c.messages, m)
	c.enqueueLocked(Event{Type: EventMessage, Message: &m})
}

func (c *Controller) setStateLocked(s models.ConnectionState) {
	if c.state == s {
		return
	}
	c.state = s
	c.enqueueLocked(Event{Type: EventState, State: s})
}

func (c *Controller) setTypingLocked(typing bool) {
	if c.typing == typing {
		return
	}
	c.typing = typing
	c.enqueueLocked(Event{Type: EventTyping, Typing: typing})
}

func (c *Controller) failLocked(err error) {
	c.lastErr = err
	c.enqueueLocked(Event{Type: EventError, Err: err})
}
