// Package chatapi provides tests for the session initiation client.
package chatapi_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/axiumai/chat-widget/internal/domain/errors"
	"github.com/axiumai/chat-widget/internal/domain/models"
	"github.com/axiumai/chat-widget/internal/services/chatapi"
	"github.com/axiumai/chat-widget/internal/testutil/mocks"
)

func newTestClient(t *testing.T, baseURL string) chatapi.Client {
	t.Helper()
	client, err := chatapi.NewClient(&chatapi.ClientConfig{
		BaseURL: baseURL,
		Token:   "api-token",
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)
	return client
}

// TestFetchSession_Success tests the request shape and a flat response.
func TestFetchSession_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Verify request
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat/initiate/", r.URL.Path)
		assert.Equal(t, "Bearer api-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "{}", string(body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"session_id":"s-1","websocket_url":"wss://chat.example.com/ws","websocket_token":"wt","expires_in":120}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL+"/")

	session, err := client.FetchSession(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "s-1", session.SessionID)
	assert.Equal(t, "wss://chat.example.com/ws", session.WebsocketURL)
	assert.Equal(t, "wt", session.WebsocketToken)
	assert.Equal(t, 120, session.ExpiresIn)
}

// TestFetchSession_NonSuccessStatus tests that HTTP failures carry the status text.
func TestFetchSession_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"bad token"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	session, err := client.FetchSession(context.Background())

	assert.Nil(t, session)
	require.Error(t, err)
	assert.True(t, domainerrors.IsSessionRequestError(err))
	domainErr, ok := domainerrors.GetDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "Unauthorized", domainErr.Details)
}

// TestFetchSession_MissingSession tests a body without session fields.
func TestFetchSession_MissingSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"status":"ok"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.FetchSession(context.Background())

	assert.True(t, domainerrors.IsSessionParseError(err))
}

// TestFetchSession_TokenSource tests a per-request token resolver.
func TestFetchSession_TokenSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer from-vault", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data":{"session_id":"s-2","websocket_url":"wss://x/ws","websocket_token":"t"}}`))
	}))
	defer server.Close()

	client, err := chatapi.NewClient(&chatapi.ClientConfig{
		BaseURL: server.URL,
		TokenSource: func(context.Context) (string, error) {
			return "from-vault", nil
		},
	})
	require.NoError(t, err)

	session, err := client.FetchSession(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "s-2", session.SessionID)
	assert.Equal(t, models.DefaultSessionExpiresIn, session.ExpiresIn)
}

// TestFetchSession_TokenSourceError tests that resolver failures skip the request.
func TestFetchSession_TokenSourceError(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client, err := chatapi.NewClient(&chatapi.ClientConfig{
		BaseURL: server.URL,
		TokenSource: func(context.Context) (string, error) {
			return "", errors.New("vault unavailable")
		},
	})
	require.NoError(t, err)

	_, err = client.FetchSession(context.Background())

	assert.ErrorContains(t, err, "vault unavailable")
	assert.False(t, called)
}

// TestNewClient_Validation tests required configuration.
func TestVaultToken(t *testing.T) {
	ctx := context.Background()
	v := new(mocks.MockVault)
	v.On("GetSecret", ctx, "dotenv://CHAT_TOKEN").Return("rotated", nil).Once()
	v.On("GetSecret", ctx, "dotenv://CHAT_TOKEN").Return("", errors.New("sealed")).Once()

	source := chatapi.VaultToken(v, "dotenv://CHAT_TOKEN")

	token, err := source(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rotated", token)

	_, err = source(ctx)
	assert.ErrorContains(t, err, "failed to resolve chat api token")
	v.AssertExpectations(t)
}

func TestNewClient_Validation(t *testing.T) {
	_, err := chatapi.NewClient(nil)
	assert.Error(t, err)

	_, err = chatapi.NewClient(&chatapi.ClientConfig{})
	assert.ErrorContains(t, err, "base URL is required")
}

// TestParseSession_Nesting tests that nested and flat bodies parse to the same session.
func TestParseSession_Nesting(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "flat", body: `{"session_id":"abc","websocket_url":"wss://h/ws","websocket_token":"tok","expires_in":90}`},
		{name: "data", body: `{"data":{"session_id":"abc","websocket_url":"wss://h/ws","websocket_token":"tok","expires_in":90}}`},
		{name: "data.data", body: `{"success":true,"data":{"data":{"session_id":"abc","websocket_url":"wss://h/ws","websocket_token":"tok","expires_in":"90"}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := chatapi.ParseSession([]byte(tt.body))

			require.NoError(t, err)
			assert.Equal(t, "abc", session.SessionID)
			assert.Equal(t, "wss://h/ws", session.WebsocketURL)
			assert.Equal(t, "tok", session.WebsocketToken)
			assert.Equal(t, 90, session.ExpiresIn)
		})
	}
}

// TestParseSession_Precedence tests that the innermost object with session_id wins.
func TestParseSession_Precedence(t *testing.T) {
	body := `{"session_id":"root","data":{"session_id":"outer","data":{"session_id":"inner","websocket_url":"wss://in/ws"}}}`

	session, err := chatapi.ParseSession([]byte(body))

	require.NoError(t, err)
	assert.Equal(t, "inner", session.SessionID)
	assert.Equal(t, "wss://in/ws", session.WebsocketURL)
}

// TestParseSession_NumericID tests numeric session ids.
func TestParseSession_NumericID(t *testing.T) {
	session, err := chatapi.ParseSession([]byte(`{"session_id":42,"websocket_url":"wss://h/ws"}`))

	require.NoError(t, err)
	assert.Equal(t, "42", session.SessionID)
	assert.Equal(t, models.DefaultSessionExpiresIn, session.ExpiresIn)
}

// TestParseSession_Invalid tests bodies that carry no session.
func TestParseSession_Invalid(t *testing.T) {
	for _, body := range []string{`not json`, `[]`, `{}`, `{"data":"text"}`, `{"session_id":""}`} {
		_, err := chatapi.ParseSession([]byte(body))
		assert.True(t, domainerrors.IsSessionParseError(err), "body %s", body)
	}
}
