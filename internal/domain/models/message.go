package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MessageRole represents the role of a message sender.
type MessageRole string

const (
	// RoleUser represents a message from the user.
	RoleUser MessageRole = "user"
	// RoleAssistant represents a message from the assistant.
	RoleAssistant MessageRole = "assistant"
	// RoleSystem represents a system message.
	RoleSystem MessageRole = "system"
)

// ParseRole maps a wire role onto a MessageRole, defaulting to RoleAssistant.
func ParseRole(role string) MessageRole {
	switch MessageRole(strings.ToLower(strings.TrimSpace(role))) {
	case RoleUser:
		return RoleUser
	case RoleSystem:
		return RoleSystem
	default:
		return RoleAssistant
	}
}

const (
	// DividerText marks a session boundary in the message log.
	DividerText = "SESSION_DIVIDER"

	// ConnectionErrorText is shown when a message could not be delivered.
	ConnectionErrorText = "Connection error. Try again."
)

// Message represents one entry of the conversation log.
type Message struct {
	ID        string          `json:"id"`
	Role      MessageRole     `json:"role"`
	Text      string          `json:"text"`
	CreatedAt int64           `json:"createdAt"` // epoch ms
	RawData   json.RawMessage `json:"rawData,omitempty"`
}

// NewMessage creates a new message with a generated ID.
func NewMessage(role MessageRole, text string) *Message {
	now := time.Now()
	return &Message{
		ID:        newMessageID(now),
		Role:      role,
		Text:      text,
		CreatedAt: now.UnixMilli(),
	}
}

// NewDivider creates a session divider sentinel.
func NewDivider() *Message {
	return NewMessage(RoleSystem, DividerText)
}

// NewMessageID generates a unique message ID: epoch milliseconds plus a
// short random suffix.
func NewMessageID() string {
	return newMessageID(time.Now())
}

func newMessageID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("%d_%s", now.UnixMilli(), suffix)
}

// IsDivider reports whether the message is a session divider sentinel.
func (m *Message) IsDivider() bool {
	return m.Role == RoleSystem && m.Text == DividerText
}

// VisibleMessages returns the messages that should be rendered as chat turns.
func VisibleMessages(messages []Message) []Message {
	visible := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.IsDivider() {
			continue
		}
		visible = append(visible, m)
	}
	return visible
}
