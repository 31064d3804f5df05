// Package chatapi provides the client for the chat backend's session
// initiation endpoint.
package chatapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/axiumai/chat-widget/internal/core/vault"
	domainerrors "github.com/axiumai/chat-widget/internal/domain/errors"
	"github.com/axiumai/chat-widget/internal/domain/models"
)

const (
	// InitiatePath is the session initiation endpoint relative to the base URL.
	InitiatePath = "/api/chat/initiate/"

	// DefaultTimeout bounds a single initiation request.
	DefaultTimeout = 30 * time.Second

	maxErrorBodyBytes = 4096
)

// Client obtains chat sessions from the backend.
type Client interface {
	// FetchSession issues one initiation request. It never retries; the
	// caller owns the retry policy.
	FetchSession(ctx context.Context) (*models.Session, error)
}

// TokenSource supplies the bearer token for each initiation request.
type TokenSource func(ctx context.Context) (string, error)

// StaticToken returns a TokenSource that always yields token.
func StaticToken(token string) TokenSource {
	return func(context.Context) (string, error) {
		return token, nil
	}
}

// VaultToken returns a TokenSource that reads the token from v at uri on
// every request, so rotated secrets are picked up without a restart.
func VaultToken(v vault.Vault, uri string) TokenSource {
	return func(ctx context.Context) (string, error) {
		token, err := v.GetSecret(ctx, uri)
		if err != nil {
			return "", fmt.Errorf("failed to resolve chat api token: %w", err)
		}
		return token, nil
	}
}

// ClientConfig holds the configuration for the chat API client.
type ClientConfig struct {
	// BaseURL is the backend origin, e.g. https://api.example.com
	BaseURL string
	// Token is used when TokenSource is nil.
	Token string
	// TokenSource resolves the bearer token per request.
	TokenSource TokenSource
	// Timeout applies when HTTPClient is nil.
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// client implements the Client interface.
type client struct {
	baseURL     string
	tokenSource TokenSource
	httpClient  *http.Client
	logger      zerolog.Logger
}

// NewClient creates a new chat API client.
func NewClient(cfg *ClientConfig) (Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	tokenSource := cfg.TokenSource
	if tokenSource == nil {
		tokenSource = StaticToken(cfg.Token)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &client{
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		tokenSource: tokenSource,
		httpClient:  httpClient,
		logger:      cfg.Logger.With().Str("component", "chatapi").Logger(),
	}, nil
}

// FetchSession posts an empty JSON object to the initiation endpoint and
// extracts the session descriptor from the response.
func (c *client) FetchSession(ctx context.Context) (*models.Session, error) {
	token, err := c.tokenSource(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve API token: %w", err)
	}

	url := c.baseURL + InitiatePath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString("{}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("body", string(body)).
			Msg("session initiation rejected")
		return nil, domainerrors.NewSessionRequestError(resp.StatusCode, statusText(resp))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	session, err := ParseSession(body)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("session_id", session.SessionID).
		Int("expires_in", session.ExpiresIn).
		Msg("session initiated")

	return session, nil
}

// statusText returns the reason phrase of the response, e.g. "Unauthorized".
func statusText(resp *http.Response) string {
	if text := strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprint(resp.StatusCode))); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
