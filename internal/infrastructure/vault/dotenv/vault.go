// Package dotenv provides an environment-backed vault for development and
// single-host deployments.
package dotenv

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/axiumai/chat-widget/internal/core/vault"
)

// Scheme is the URI scheme served by this vault.
const Scheme = "dotenv://"

// Vault implements vault.Vault on environment variables. Values set with Set
// take precedence over the environment.
type Vault struct {
	mu        sync.RWMutex
	overrides map[string]string
}

// NewVault creates a new DotEnv vault instance.
func NewVault() *Vault {
	return &Vault{overrides: make(map[string]string)}
}

// URI returns the vault URI for an environment variable name.
func URI(name string) string {
	return Scheme + name
}

// Set registers an in-process secret.
func (v *Vault) Set(name, value string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.overrides[name] = value
}

// GetSecret resolves a "dotenv://NAME" URI.
func (v *Vault) GetSecret(ctx context.Context, uri string) (string, error) {
	if !strings.HasPrefix(uri, Scheme) {
		return "", fmt.Errorf("unsupported secret uri %q: expected %sNAME", uri, Scheme)
	}
	name := strings.TrimPrefix(uri, Scheme)
	if name == "" {
		return "", fmt.Errorf("secret uri %q has no name", uri)
	}

	v.mu.RLock()
	value, ok := v.overrides[name]
	v.mu.RUnlock()
	if ok {
		return value, nil
	}

	if value := os.Getenv(name); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("%w: %s", vault.ErrSecretNotFound, name)
}

// Ping always succeeds.
func (v *Vault) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (v *Vault) Close() error {
	return nil
}
