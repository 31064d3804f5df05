// Package testutil provides test utilities and helpers.
package testutil

import (
	"context"
	"net"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/axiumai/chat-widget/internal/services/wsclient"
)

// FakeConn is an in-memory wsclient.Conn. Frames pushed with Deliver are
// returned by ReadMessage; text frames written by the client are recorded.
type FakeConn struct {
	URL string

	inbound chan []byte
	closed  chan struct{}
	once    sync.Once

	mu       sync.Mutex
	written  []string
	closeErr error
	writeErr error
}

// NewFakeConn creates an open fake connection.
func NewFakeConn(url string) *FakeConn {
	return &FakeConn{
		URL:     url,
		inbound: make(chan []byte, 64),
		closed:  make(chan struct{}),
	}
}

// ReadMessage implements wsclient.Conn.
func (c *FakeConn) ReadMessage() (int, []byte, error) {
	select {
	case data := <-c.inbound:
		return websocket.TextMessage, data, nil
	case <-c.closed:
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closeErr != nil {
			return 0, nil, c.closeErr
		}
		return 0, nil, net.ErrClosed
	}
}

// WriteMessage implements wsclient.Conn.
func (c *FakeConn) WriteMessage(messageType int, data []byte) error {
	select {
	case <-c.closed:
		return net.ErrClosed
	default:
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	if messageType == websocket.TextMessage {
		c.written = append(c.written, string(data))
	}
	return nil
}

// Close implements wsclient.Conn.
func (c *FakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

// Deliver queues an inbound frame for the client.
func (c *FakeConn) Deliver(frame string) {
	c.inbound <- []byte(frame)
}

// RemoteClose simulates the backend closing the socket with a close frame.
func (c *FakeConn) RemoteClose(code int, reason string) {
	c.mu.Lock()
	c.closeErr = &websocket.CloseError{Code: code, Text: reason}
	c.mu.Unlock()
	_ = c.Close()
}

// FailWrites makes every later write fail with err.
func (c *FakeConn) FailWrites(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeErr = err
}

// Written returns the text frames written so far.
func (c *FakeConn) Written() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.written...)
}

// IsClosed reports whether the connection was closed by either side.
func (c *FakeConn) IsClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// FakeDialer hands out FakeConns and records every dial.
type FakeDialer struct {
	mu    sync.Mutex
	conns []*FakeConn
	urls  []string
	err   error
	block chan struct{}

	failNext    int
	failNextErr error
}

// NewFakeDialer creates a dialer whose dials succeed.
func NewFakeDialer() *FakeDialer {
	return &FakeDialer{}
}

var _ wsclient.Dialer = (*FakeDialer)(nil)

// Dial implements wsclient.Dialer.
func (d *FakeDialer) Dial(ctx context.Context, url string) (wsclient.Conn, error) {
	d.mu.Lock()
	d.urls = append(d.urls, url)
	block := d.block
	err := d.err
	if d.failNext > 0 {
		d.failNext--
		err = d.failNextErr
	}
	d.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	conn := NewFakeConn(url)
	d.mu.Lock()
	d.conns = append(d.conns, conn)
	d.mu.Unlock()
	return conn, nil
}

// Fail makes later dials fail with err; nil restores success.
func (d *FakeDialer) Fail(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

// FailNext makes the next n dials fail with err.
func (d *FakeDialer) FailNext(n int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failNext = n
	d.failNextErr = err
}

// Block makes later dials wait until the returned function is called or
// their context ends.
func (d *FakeDialer) Block() (release func()) {
	ch := make(chan struct{})
	d.mu.Lock()
	d.block = ch
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			if d.block == ch {
				d.block = nil
			}
			d.mu.Unlock()
			close(ch)
		})
	}
}

// Dials returns how many dials were attempted.
func (d *FakeDialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.urls)
}

// URLs returns the dialed URLs in order.
func (d *FakeDialer) URLs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.urls...)
}

// Conns returns the successfully dialed connections in order.
func (d *FakeDialer) Conns() []*FakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*FakeConn(nil), d.conns...)
}

// Last returns the most recent connection, or nil.
func (d *FakeDialer) Last() *FakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) == 0 {
		return nil
	}
	return d.conns[len(d.conns)-1]
}
