// Package wsclient wraps one WebSocket connection to the chat backend:
// token-authenticated connect, queued sends before authentication, and
// callback dispatch for open, message, close and error signals.
package wsclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	domainerrors "github.com/axiumai/chat-widget/internal/domain/errors"
)

const (
	// TokenQueryParam carries the session's websocket token on the URL.
	TokenQueryParam = "token"

	// DefaultHandshakeTimeout bounds the WebSocket upgrade.
	DefaultHandshakeTimeout = 10 * time.Second

	// DefaultReadLimit caps a single inbound frame.
	DefaultReadLimit = 1 << 20
)

// Conn is the subset of *websocket.Conn the handle relies on.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Dialer opens transport connections.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, url string) (Conn, error)

// Dial implements Dialer.
func (f DialerFunc) Dial(ctx context.Context, url string) (Conn, error) {
	return f(ctx, url)
}

// GorillaDialer dials with github.com/gorilla/websocket.
type GorillaDialer struct {
	HandshakeTimeout time.Duration
	ReadLimit        int64
	Header           http.Header
}

// NewGorillaDialer creates a dialer with the given handshake timeout.
func NewGorillaDialer(handshakeTimeout time.Duration) *GorillaDialer {
	if handshakeTimeout <= 0 {
		handshakeTimeout = DefaultHandshakeTimeout
	}
	return &GorillaDialer{
		HandshakeTimeout: handshakeTimeout,
		ReadLimit:        DefaultReadLimit,
	}
}

// Dial implements Dialer.
func (d *GorillaDialer) Dial(ctx context.Context, target string) (Conn, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: d.HandshakeTimeout,
	}

	conn, resp, err := dialer.DialContext(ctx, target, d.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("ws dial failed with status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("ws dial failed: %w", err)
	}
	if d.ReadLimit > 0 {
		conn.SetReadLimit(d.ReadLimit)
	}
	return conn, nil
}

// BuildURL appends token to rawURL as the token query parameter, keeping any
// query the URL already has. http and https schemes are mapped to ws and wss.
func BuildURL(rawURL, token string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", domainerrors.NewConfigurationError(fmt.Sprintf("invalid websocket URL: %v", err))
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", domainerrors.NewConfigurationError(fmt.Sprintf("unsupported websocket URL scheme %q", u.Scheme))
	}

	q := u.Query()
	q.Set(TokenQueryParam, token)
	u.RawQuery = q.Encode()

	return u.String(), nil
}
