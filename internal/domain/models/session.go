// Package models contains domain models for the chat widget.
package models

import "time"

// DefaultSessionExpiresIn is used when the initiation response omits expires_in.
const DefaultSessionExpiresIn = 60

// Session is the server-issued credential bundle that authorizes one
// WebSocket connection. A Session is never mutated; reconnecting replaces it.
type Session struct {
	SessionID      string    `json:"sessionId"`
	WebsocketURL   string    `json:"websocketUrl"`
	WebsocketToken string    `json:"websocketToken"`
	ExpiresIn      int       `json:"expiresIn"`
	IssuedAt       time.Time `json:"issuedAt"`
}

// NewSession creates a session issued now. A non-positive expiresIn falls
// back to DefaultSessionExpiresIn.
func NewSession(sessionID, websocketURL, websocketToken string, expiresIn int) *Session {
	if expiresIn <= 0 {
		expiresIn = DefaultSessionExpiresIn
	}
	return &Session{
		SessionID:      sessionID,
		WebsocketURL:   websocketURL,
		WebsocketToken: websocketToken,
		ExpiresIn:      expiresIn,
		IssuedAt:       time.Now().UTC(),
	}
}

// ExpiresAt returns the instant the session credentials stop being valid.
func (s *Session) ExpiresAt() time.Time {
	return s.IssuedAt.Add(time.Duration(s.ExpiresIn) * time.Second)
}

// IsExpired checks if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().UTC().After(s.ExpiresAt())
}
