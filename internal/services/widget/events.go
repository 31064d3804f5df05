package widget

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/axiumai/chat-widget/internal/core/eventbus"
	"github.com/axiumai/chat-widget/internal/domain/models"
	"github.com/axiumai/chat-widget/internal/services/chat"
)

// PublishTimeout bounds a single event publish.
const PublishTimeout = 2 * time.Second

// Topic returns the bus topic carrying a conversation's events.
func Topic(conversationID string) string {
	return "conversation:" + conversationID + ":events"
}

// EventPayload is the wire form of a controller event.
type EventPayload struct {
	Type           chat.EventType          `json:"type"`
	ConversationID string                  `json:"conversationId"`
	Message        *models.RenderedMessage `json:"message,omitempty"`
	State          models.ConnectionState  `json:"state,omitempty"`
	Typing         *bool                   `json:"typing,omitempty"`
	SessionID      string                  `json:"sessionId,omitempty"`
	Error          string                  `json:"error,omitempty"`
	At             time.Time               `json:"at"`
}

// NewEventPayload converts a controller event.
func NewEventPayload(conversationID string, e chat.Event) EventPayload {
	p := EventPayload{
		Type:           e.Type,
		ConversationID: conversationID,
		At:             e.At,
	}
	switch e.Type {
	case chat.EventMessage:
		if e.Message != nil {
			rendered := models.Render(*e.Message)
			p.Message = &rendered
		}
	case chat.EventState, chat.EventReset:
		p.State = e.State
	case chat.EventTyping:
		typing := e.Typing
		p.Typing = &typing
	case chat.EventSession:
		p.SessionID = e.SessionID
	case chat.EventError:
		if e.Err != nil {
			p.Error = e.Err.Error()
		}
	}
	return p
}

// publisher forwards one conversation's events to the bus.
type publisher struct {
	bus            eventbus.Bus
	conversationID string
	topic          string
	logger         zerolog.Logger
}

func newPublisher(bus eventbus.Bus, conversationID string, logger zerolog.Logger) *publisher {
	return &publisher{
		bus:            bus,
		conversationID: conversationID,
		topic:          Topic(conversationID),
		logger:         logger,
	}
}

// OnEvent implements chat.Observer.
func (p *publisher) OnEvent(e chat.Event) {
	data, err := json.Marshal(NewEventPayload(p.conversationID, e))
	if err != nil {
		p.logger.Error().Err(err).Str("event", string(e.Type)).Msg("Failed to encode event")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
	defer cancel()

	if err := p.bus.Publish(ctx, p.topic, data); err != nil {
		p.logger.Warn().Err(err).Str("event", string(e.Type)).Msg("Failed to publish event")
	}
}
