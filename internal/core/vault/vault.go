// Package vault defines the secret store used to resolve credentials such as
// the chat API bearer token.
package vault

import (
	"context"
	"errors"
)

// ErrSecretNotFound is returned when a URI names no secret.
var ErrSecretNotFound = errors.New("secret not found")

// Vault resolves secret URIs of the form "<scheme>://<name>".
type Vault interface {
	// GetSecret retrieves the secret referenced by uri.
	GetSecret(ctx context.Context, uri string) (string, error)

	// Ping checks if the vault backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the vault.
	Close() error
}
