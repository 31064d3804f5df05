package dto

import (
	"time"

	"github.com/axiumai/chat-widget/internal/domain/models"
	"github.com/axiumai/chat-widget/internal/services/chat"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

// CreateConversationResponse is returned when a widget opens a conversation.
// Token must accompany every later call for the conversation.
type CreateConversationResponse struct {
	ConversationID string                 `json:"conversationId"`
	Token          string                 `json:"token"`
	SessionID      string                 `json:"sessionId,omitempty"`
	State          models.ConnectionState `json:"state"`
}

// ConversationResponse is a rendered snapshot of a conversation.
type ConversationResponse struct {
	ConversationID string                   `json:"conversationId"`
	SessionID      string                   `json:"sessionId,omitempty"`
	State          models.ConnectionState   `json:"state"`
	Typing         bool                     `json:"typing"`
	CanSend        bool                     `json:"canSend"`
	Messages       []models.RenderedMessage `json:"messages"`
	LastError      string                   `json:"lastError,omitempty"`
	CreatedAt      time.Time                `json:"createdAt"`
}

// NewConversationResponse renders a snapshot. Session dividers are left out.
func NewConversationResponse(conversationID string, createdAt time.Time, snap chat.Snapshot) *ConversationResponse {
	visible := models.VisibleMessages(snap.Messages)
	rendered := make([]models.RenderedMessage, 0, len(visible))
	for _, m := range visible {
		rendered = append(rendered, models.Render(m))
	}

	resp := &ConversationResponse{
		ConversationID: conversationID,
		SessionID:      snap.SessionID,
		State:          snap.State,
		Typing:         snap.Typing,
		CanSend:        snap.State.CanSend(),
		Messages:       rendered,
		CreatedAt:      createdAt,
	}
	if snap.LastError != nil {
		resp.LastError = snap.LastError.Error()
	}
	return resp
}
