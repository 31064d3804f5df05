package wsclient

import (
	"context"
	"errors"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	domainerrors "github.com/axiumai/chat-widget/internal/domain/errors"
	"github.com/axiumai/chat-widget/internal/domain/models"
)

// State is the lifecycle position of a Handle.
type State string

const (
	StateUnopened      State = "unopened"
	StateConnecting    State = "connecting"
	StateOpen          State = "open"
	StateAuthenticated State = "authenticated"
	StateClosed        State = "closed"
)

// CloseInfo describes why a handle closed.
type CloseInfo struct {
	Code   int
	Reason string
	// Intentional is true when Close was called on the handle.
	Intentional bool
	// WasOpened is true when the transport reached the open state.
	WasOpened bool
}

// Callbacks receive the handle's signals. All are optional. They run on the
// handle's own goroutine, except OnError for a configuration error, which
// runs inside Connect.
type Callbacks struct {
	OnOpen    func()
	OnMessage func(msg *models.InboundMessage)
	OnClose   func(info CloseInfo)
	OnError   func(err error)
}

// Options configure a connection attempt.
type Options struct {
	Dialer    Dialer
	Callbacks Callbacks
	Logger    zerolog.Logger
	// Generation tags the handle so its owner can ignore stale handles.
	Generation uint64
}

// Handle is one connection attempt and, once open, the live connection.
type Handle struct {
	sessionID  string
	generation uint64
	dialer     Dialer
	cb         Callbacks
	logger     zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	state       State
	conn        Conn
	queue       [][]byte
	intentional bool
	wasOpened   bool
	err         error

	opened chan struct{}
	done   chan struct{}
}

// Connect starts connecting to the session's websocket URL and returns
// immediately. A session without a websocket URL yields a closed handle and a
// ConfigurationError reported through OnError; nothing is dialed.
func Connect(session *models.Session, opts Options) *Handle {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Handle{
		generation: opts.Generation,
		dialer:     opts.Dialer,
		cb:         opts.Callbacks,
		ctx:        ctx,
		cancel:     cancel,
		state:      StateUnopened,
		opened:     make(chan struct{}),
		done:       make(chan struct{}),
	}
	if session != nil {
		h.sessionID = session.SessionID
	}
	h.logger = opts.Logger.With().
		Str("component", "wsclient").
		Str("session_id", h.sessionID).
		Uint64("generation", h.generation).
		Logger()

	if session == nil || session.WebsocketURL == "" {
		h.abort(domainerrors.NewConfigurationError("websocket URL is missing"))
		return h
	}
	if h.dialer == nil {
		h.abort(domainerrors.NewConfigurationError("websocket dialer is not configured"))
		return h
	}

	target, err := BuildURL(session.WebsocketURL, session.WebsocketToken)
	if err != nil {
		h.abort(err)
		return h
	}

	h.state = StateConnecting
	go h.run(target)

	return h
}

// abort closes a handle that never dialed.
func (h *Handle) abort(err error) {
	h.state = StateClosed
	h.err = err
	h.cancel()
	close(h.done)

	h.logger.Error().Err(err).Msg("connection not attempted")
	if h.cb.OnError != nil {
		h.cb.OnError(err)
	}
}

func (h *Handle) run(target string) {
	h.logger.Debug().Msg("dialing chat websocket")

	conn, err := h.dialer.Dial(h.ctx, target)
	if err != nil {
		if h.Intentional() {
			h.finish(CloseInfo{Code: websocket.CloseNormalClosure, Reason: "closed while connecting"})
			return
		}
		h.report(domainerrors.NewConnectionError("failed to connect", err))
		h.finish(CloseInfo{Code: websocket.CloseAbnormalClosure, Reason: err.Error()})
		return
	}

	h.mu.Lock()
	if h.intentional {
		h.mu.Unlock()
		_ = conn.Close()
		h.finish(CloseInfo{Code: websocket.CloseNormalClosure, Reason: "closed while connecting"})
		return
	}
	h.conn = conn
	h.state = StateOpen
	h.wasOpened = true
	h.mu.Unlock()

	h.logger.Debug().Msg("chat websocket open")
	if h.cb.OnOpen != nil {
		h.cb.OnOpen()
	}

	if h.authenticate(conn) {
		close(h.opened)
	}

	h.readLoop(conn)
}

// authenticate marks the handle ready and flushes queued payloads in order.
// The token was presented on the URL, so an open socket is an authenticated one.
func (h *Handle) authenticate(conn Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.intentional || h.state != StateOpen {
		return false
	}
	h.state = StateAuthenticated

	queued := h.queue
	h.queue = nil
	for i, payload := range queued {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.logger.Warn().Err(err).Int("dropped", len(queued)-i).Msg("failed to flush queued messages")
			_ = conn.Close()
			return true
		}
	}
	if len(queued) > 0 {
		h.logger.Debug().Int("count", len(queued)).Msg("flushed queued messages")
	}
	return true
}

func (h *Handle) readLoop(conn Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			_ = conn.Close()
			h.finish(h.closeInfo(err))
			return
		}

		if h.Intentional() {
			continue
		}

		msg, err := models.ParseInbound(data)
		if err != nil {
			h.logger.Warn().Err(err).Int("bytes", len(data)).Msg("dropping malformed inbound frame")
			h.report(domainerrors.NewMessageParseError(err))
			continue
		}
		if h.cb.OnMessage != nil {
			h.cb.OnMessage(msg)
		}
	}
}

// closeInfo translates a read error into a close description. Errors that are
// not close frames are transport failures and are reported through OnError.
func (h *Handle) closeInfo(err error) CloseInfo {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return CloseInfo{Code: closeErr.Code, Reason: closeErr.Text}
	}
	if h.Intentional() {
		return CloseInfo{Code: websocket.CloseNormalClosure, Reason: "closed by client"}
	}
	h.report(domainerrors.NewConnectionError("connection lost", err))
	return CloseInfo{Code: websocket.CloseAbnormalClosure, Reason: err.Error()}
}

// finish moves the handle to closed exactly once and fires OnClose.
func (h *Handle) finish(info CloseInfo) {
	h.mu.Lock()
	if h.state == StateClosed {
		h.mu.Unlock()
		return
	}
	h.state = StateClosed
	h.conn = nil
	h.queue = nil
	info.Intentional = h.intentional
	info.WasOpened = h.wasOpened
	h.mu.Unlock()

	h.cancel()
	close(h.done)

	h.logger.Debug().
		Int("code", info.Code).
		Str("reason", info.Reason).
		Bool("intentional", info.Intentional).
		Msg("chat websocket closed")

	if h.cb.OnClose != nil {
		h.cb.OnClose(info)
	}
}

func (h *Handle) report(err error) {
	h.mu.Lock()
	if h.err == nil {
		h.err = err
	}
	h.mu.Unlock()

	if h.cb.OnError != nil {
		h.cb.OnError(err)
	}
}

// Send serializes text as {"message": text}. An authenticated handle writes
// it at once; a handle that is not yet authenticated queues it. Sending on a
// closed handle fails with a ConnectionError.
func (h *Handle) Send(text string) error {
	payload, err := models.EncodeOutbound(text)
	if err != nil {
		return domainerrors.NewConnectionError("failed to encode message", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.intentional || h.state == StateClosed {
		return domainerrors.NewConnectionError("connection is closed", nil)
	}
	if h.state != StateAuthenticated {
		h.queue = append(h.queue, payload)
		return nil
	}

	if err := h.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		_ = h.conn.Close()
		return domainerrors.NewConnectionError("failed to send message", err)
	}
	return nil
}

// Close shuts the handle down on purpose. The resulting CloseInfo has
// Intentional set. Closing while the dial is in flight cancels it.
func (h *Handle) Close() {
	h.mu.Lock()
	if h.intentional || h.state == StateClosed {
		h.mu.Unlock()
		return
	}
	h.intentional = true
	h.queue = nil
	conn := h.conn
	if conn != nil {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		if err := conn.WriteMessage(websocket.CloseMessage, msg); err != nil {
			h.logger.Debug().Err(err).Msg("failed to write close frame")
		}
		_ = conn.Close()
	}
	h.mu.Unlock()

	h.cancel()
}

// Opened is closed once the handle is authenticated.
func (h *Handle) Opened() <-chan struct{} {
	return h.opened
}

// Done is closed once the handle is closed.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// State returns the current lifecycle state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Intentional reports whether Close was called.
func (h *Handle) Intentional() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.intentional
}

// WasOpened reports whether the transport ever opened.
func (h *Handle) WasOpened() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.wasOpened
}

// Err returns the first error the handle reported, if any.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Generation returns the generation the handle was created for.
func (h *Handle) Generation() uint64 {
	return h.generation
}

// SessionID returns the id of the session the handle connects with.
func (h *Handle) SessionID() string {
	return h.sessionID
}
