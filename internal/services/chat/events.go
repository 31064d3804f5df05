package chat

import (
	"time"

	"github.com/axiumai/chat-widget/internal/domain/models"
)

// EventType identifies what changed in a conversation.
type EventType string

const (
	EventMessage EventType = "message"
	EventState   EventType = "state"
	EventTyping  EventType = "typing"
	EventSession EventType = "session"
	EventReset   EventType = "reset"
	EventError   EventType = "error"
)

// Event is one observable mutation of the controller. Only the field that
// matches Type is meaningful.
type Event struct {
	Type      EventType
	Message   *models.Message
	State     models.ConnectionState
	Typing    bool
	SessionID string
	Err       error
	At        time.Time
}

// Observer receives controller events in mutation order. OnEvent must not
// block for long; it runs on the goroutine that made the change.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

// OnEvent implements Observer.
func (f ObserverFunc) OnEvent(e Event) {
	f(e)
}

// Snapshot is a consistent copy of the controller state.
type Snapshot struct {
	SessionID string
	State     models.ConnectionState
	Typing    bool
	Messages  []models.Message
	LastError error
}

type subscription struct {
	id       uint64
	observer Observer
}

// Subscribe registers an observer and returns a function that removes it.
func (c *Controller) Subscribe(o Observer) func() {
	c.mu.Lock()
	c.nextSubID++
	id := c.nextSubID
	c.observers = append(c.observers, subscription{id: id, observer: o})
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, s := range c.observers {
			if s.id == id {
				c.observers = append(c.observers[:i:i], c.observers[i+1:]...)
				return
			}
		}
	}
}

// enqueueLocked records an event; c.mu must be held.
func (c *Controller) enqueueLocked(e Event) {
	e.At = time.Now()
	c.pending = append(c.pending, e)
}

// flush delivers queued events. Only one goroutine delivers at a time, so
// observers see events in the order they were queued. Events queued while
// another goroutine is delivering are picked up by that goroutine.
func (c *Controller) flush() {
	c.mu.Lock()
	if c.flushing {
		c.mu.Unlock()
		return
	}
	c.flushing = true

	for len(c.pending) > 0 {
		batch := c.pending
		c.pending = nil
		observers := append([]subscription(nil), c.observers...)
		c.mu.Unlock()

		for _, e := range batch {
			for _, s := range observers {
				c.notify(s.observer, e)
			}
		}

		c.mu.Lock()
	}

	c.flushing = false
	c.mu.Unlock()
}

// notify delivers one event; a panicking observer is logged and skipped so
// the others keep receiving events.
func (c *Controller) notify(o Observer, e Event) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().
				Interface("panic", r).
				Str("event", string(e.Type)).
				Msg("observer panicked")
		}
	}()
	o.OnEvent(e)
}
