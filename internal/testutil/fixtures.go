package testutil

import (
	"fmt"

	"github.com/axiumai/chat-widget/internal/domain/models"
)

// Test constants
const (
	TestSessionID      = "sess-test-123"
	TestWebsocketURL   = "wss://chat.test/ws/chat"
	TestWebsocketToken = "ws-token-456"
	TestAPIToken       = "api-token-789"
)

// NewTestSession creates a session with default test values.
func NewTestSession() *models.Session {
	return models.NewSession(TestSessionID, TestWebsocketURL, TestWebsocketToken, 60)
}

// NewNumberedSession creates the n-th distinct test session.
func NewNumberedSession(n int) *models.Session {
	return models.NewSession(
		fmt.Sprintf("sess-%d", n),
		TestWebsocketURL,
		fmt.Sprintf("ws-token-%d", n),
		60,
	)
}

// OutboundFrame returns the wire frame the client writes for text.
func OutboundFrame(text string) string {
	data, err := models.EncodeOutbound(text)
	if err != nil {
		panic(err)
	}
	return string(data)
}
