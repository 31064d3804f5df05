package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// OutboundMessage is the wire payload sent for every user turn.
type OutboundMessage struct {
	Message string `json:"message"`
}

// EncodeOutbound serializes text as an outbound wire payload.
func EncodeOutbound(text string) ([]byte, error) {
	return json.Marshal(OutboundMessage{Message: text})
}

// InboundMessage is a decoded frame received from the chat backend.
type InboundMessage struct {
	ID         string
	Role       MessageRole
	Text       string
	Components []Component
	Raw        json.RawMessage
}

// HasFixtures reports whether any component should render as fixture data.
func (m *InboundMessage) HasFixtures() bool {
	for _, c := range m.Components {
		if c.Type.IsFixture() {
			return true
		}
	}
	return false
}

// ToMessage converts the frame into a log entry. Fixture payloads replace
// the text with FixturePlaceholder so the renderer draws the fixtures.
func (m *InboundMessage) ToMessage() *Message {
	text := m.Text
	if m.HasFixtures() {
		text = FixturePlaceholder
	}

	msg := NewMessage(m.Role, text)
	if m.ID != "" {
		msg.ID = m.ID
	}
	msg.RawData = m.Raw
	return msg
}

// ParseInbound decodes a frame. Objects are read for id, role, text/message
// and components; a bare JSON string becomes the text; any other valid JSON
// value is kept verbatim as text.
func ParseInbound(data []byte) (*InboundMessage, error) {
	data = bytes.TrimSpace(data)
	if !json.Valid(data) {
		return nil, fmt.Errorf("invalid JSON payload")
	}

	raw := json.RawMessage(append([]byte(nil), data...))
	msg := &InboundMessage{Role: RoleAssistant, Raw: raw}

	switch data[0] {
	case '{':
		var wire struct {
			ID         FlexString      `json:"id"`
			Role       string          `json:"role"`
			Text       json.RawMessage `json:"text"`
			Message    json.RawMessage `json:"message"`
			Components json.RawMessage `json:"components"`
		}
		if err := json.Unmarshal(data, &wire); err != nil {
			return nil, fmt.Errorf("failed to decode payload: %w", err)
		}
		msg.ID = wire.ID.String()
		msg.Role = ParseRole(wire.Role)
		msg.Components = decodeComponents(wire.Components)

		text, hasText := flexField(wire.Text)
		message, hasMessage := flexField(wire.Message)

		// A present but empty text key still counts as the display text.
		switch {
		case text != "":
			msg.Text = text
		case message != "":
			msg.Text = message
		case hasText || hasMessage:
			msg.Text = ""
		case len(msg.Components) == 0:
			msg.Text = string(data)
		}
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to decode payload: %w", err)
		}
		msg.Text = s
	default:
		msg.Text = string(data)
	}

	return msg, nil
}

// flexField decodes an optional scalar field and reports whether the key was
// present at all.
func flexField(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var f FlexString
	if err := json.Unmarshal(raw, &f); err != nil {
		return string(raw), true
	}
	return f.String(), true
}

func decodeComponents(raw json.RawMessage) []Component {
	if len(raw) == 0 {
		return nil
	}
	var components []Component
	if err := json.Unmarshal(raw, &components); err != nil {
		return nil
	}
	return components
}
