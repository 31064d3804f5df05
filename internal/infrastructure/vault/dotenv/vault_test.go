package dotenv_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axiumai/chat-widget/internal/core/vault"
	"github.com/axiumai/chat-widget/internal/infrastructure/vault/dotenv"
)

func TestVault_GetSecretFromEnv(t *testing.T) {
	t.Setenv("WIDGET_TEST_SECRET", "env-secret-value")
	v := dotenv.NewVault()

	value, err := v.GetSecret(context.Background(), "dotenv://WIDGET_TEST_SECRET")

	require.NoError(t, err)
	assert.Equal(t, "env-secret-value", value)
}

func TestVault_OverrideWins(t *testing.T) {
	t.Setenv("WIDGET_TEST_SECRET", "from-env")
	v := dotenv.NewVault()
	v.Set("WIDGET_TEST_SECRET", "from-override")

	value, err := v.GetSecret(context.Background(), dotenv.URI("WIDGET_TEST_SECRET"))

	require.NoError(t, err)
	assert.Equal(t, "from-override", value)
}

func TestVault_GetSecretNotFound(t *testing.T) {
	v := dotenv.NewVault()

	value, err := v.GetSecret(context.Background(), "dotenv://WIDGET_DOES_NOT_EXIST")

	assert.ErrorIs(t, err, vault.ErrSecretNotFound)
	assert.Empty(t, value)
}

func TestVault_InvalidURI(t *testing.T) {
	v := dotenv.NewVault()

	tests := []struct {
		name string
		uri  string
	}{
		{name: "other scheme", uri: "azure://secret"},
		{name: "no scheme", uri: "SECRET"},
		{name: "empty name", uri: "dotenv://"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.GetSecret(context.Background(), tt.uri)
			assert.Error(t, err)
			assert.NotErrorIs(t, err, vault.ErrSecretNotFound)
		})
	}
}

func TestVault_PingAndClose(t *testing.T) {
	v := dotenv.NewVault()

	assert.NoError(t, v.Ping(context.Background()))
	assert.NoError(t, v.Close())
}
