package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_Error(t *testing.T) {
	assert.Equal(t, "NOT_FOUND: conversation not found (abc)", NewNotFoundError("conversation", "abc").Error())
	assert.Equal(t, "UNAUTHORIZED: missing token", NewUnauthorizedError("missing token").Error())
}

func TestConstructors(t *testing.T) {
	cause := errors.New("cause")

	tests := []struct {
		name   string
		err    *DomainError
		code   string
		status int
		is     func(error) bool
	}{
		{"not found", NewNotFoundError("conversation", "x"), ErrCodeNotFound, http.StatusNotFound, IsNotFound},
		{"validation", NewValidationError("bad", "text"), ErrCodeValidation, http.StatusBadRequest, IsValidationError},
		{"unauthorized", NewUnauthorizedError("no"), ErrCodeUnauthorized, http.StatusUnauthorized, IsUnauthorized},
		{"session request", NewSessionRequestError(401, "Unauthorized"), ErrCodeSessionRequest, http.StatusBadGateway, IsSessionRequestError},
		{"session parse", NewSessionParseError("session_id not found", nil), ErrCodeSessionParse, http.StatusBadGateway, IsSessionParseError},
		{"configuration", NewConfigurationError("missing url"), ErrCodeConfiguration, http.StatusBadGateway, IsConfigurationError},
		{"message parse", NewMessageParseError(cause), ErrCodeMessageParse, http.StatusBadGateway, IsMessageParseError},
		{"connection", NewConnectionError("dial failed", cause), ErrCodeConnection, http.StatusBadGateway, IsConnectionError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.HTTPStatus)

			wrapped := fmt.Errorf("outer: %w", tt.err)
			assert.True(t, tt.is(wrapped))
			assert.True(t, IsDomainError(wrapped))
		})
	}
}

func TestInternalAndUnavailableKeepCause(t *testing.T) {
	cause := errors.New("redis down")

	internal := NewInternalError("failed", cause)
	assert.Equal(t, http.StatusInternalServerError, internal.HTTPStatus)
	assert.Equal(t, "redis down", internal.Details)
	assert.ErrorIs(t, internal, cause)

	unavailable := NewServiceUnavailableError("event bus", cause)
	assert.Equal(t, "event bus is unavailable", unavailable.Message)
	assert.ErrorIs(t, unavailable, cause)

	conflict := NewConflictError("conversation was reset", "")
	assert.Equal(t, http.StatusConflict, conflict.HTTPStatus)
}

func TestSessionRequestError_KeepsStatus(t *testing.T) {
	err := NewSessionRequestError(503, "Service Unavailable")
	assert.Equal(t, "Service Unavailable", err.Details)
	require.Error(t, err.Unwrap())
	assert.Contains(t, err.Unwrap().Error(), "503")
}

func TestGetDomainError(t *testing.T) {
	_, ok := GetDomainError(errors.New("plain"))
	assert.False(t, ok)
	assert.False(t, IsDomainError(nil))
	assert.False(t, HasCode(errors.New("plain"), ErrCodeNotFound))

	de, ok := GetDomainError(fmt.Errorf("wrap: %w", NewConnectionError("x", nil)))
	require.True(t, ok)
	assert.Equal(t, ErrCodeConnection, de.Code)
}
