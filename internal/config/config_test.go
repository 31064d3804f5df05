package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SERVER_HOST", "SERVER_PORT", "CHAT_API_BASE_URL", "CONNECT_TIMEOUT", "CHAT_GREETING",
		"RECONNECT_MAX_ATTEMPTS", "RECONNECT_INITIAL_BACKOFF", "RECONNECT_MAX_BACKOFF",
		"EVENTBUS_TYPE", "VAULT_TYPE", "CORS_ALLOW_ORIGINS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	clearEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address())
	assert.Equal(t, 10*time.Second, cfg.Connection.ConnectTimeout)
	assert.Equal(t, "Hello", cfg.Connection.Greeting)
	assert.Equal(t, 5, cfg.Reconnect.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Reconnect.InitialBackoff)
	assert.Equal(t, 30*time.Second, cfg.Reconnect.MaxBackoff)
	assert.Equal(t, "memory", cfg.EventBus.Type)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowOrigins)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	clearEnv(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CHAT_API_BASE_URL", "https://api.example.com")
	t.Setenv("CHAT_API_TOKEN_URI", "dotenv://CHAT_TOKEN")
	t.Setenv("CONNECT_TIMEOUT", "2500ms")
	t.Setenv("RECONNECT_MAX_BACKOFF", "45")
	t.Setenv("EVENTBUS_TYPE", "redis")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "https://api.example.com", cfg.ChatAPI.BaseURL)
	assert.Equal(t, "dotenv://CHAT_TOKEN", cfg.ChatAPI.TokenURI)
	assert.Equal(t, 2500*time.Millisecond, cfg.Connection.ConnectTimeout)
	assert.Equal(t, 45*time.Second, cfg.Reconnect.MaxBackoff)
	assert.Equal(t, "redis", cfg.EventBus.Type)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowOrigins)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Chdir(t.TempDir())
	clearEnv(t)
	t.Setenv("SERVER_PORT", "not-a-number")
	t.Setenv("CONNECT_TIMEOUT", "soon")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Connection.ConnectTimeout)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:     ServerConfig{Port: 8080},
			ChatAPI:    ChatAPIConfig{BaseURL: "http://localhost", Timeout: time.Second},
			Connection: ConnectionConfig{ConnectTimeout: time.Second},
			Reconnect:  ReconnectConfig{MaxAttempts: 5, InitialBackoff: time.Second, MaxBackoff: 30 * time.Second},
			Bridge:     BridgeConfig{MaxConversations: 10},
			EventBus:   EventBusConfig{Type: "memory"},
			Vault:      VaultConfig{Type: "dotenv"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "SERVER_PORT"},
		{name: "base url", mutate: func(c *Config) { c.ChatAPI.BaseURL = "" }, wantErr: "CHAT_API_BASE_URL"},
		{name: "negative timeout", mutate: func(c *Config) { c.Connection.ConnectTimeout = -1 }, wantErr: "timeouts"},
		{name: "attempts", mutate: func(c *Config) { c.Reconnect.MaxAttempts = -1 }, wantErr: "RECONNECT_MAX_ATTEMPTS"},
		{name: "backoff order", mutate: func(c *Config) { c.Reconnect.MaxBackoff = time.Millisecond }, wantErr: "backoff"},
		{name: "bridge", mutate: func(c *Config) { c.Bridge.MaxConversations = -1 }, wantErr: "bridge"},
		{name: "bus type", mutate: func(c *Config) { c.EventBus.Type = "kafka" }, wantErr: "EVENTBUS_TYPE"},
		{name: "vault type", mutate: func(c *Config) { c.Vault.Type = "azure" }, wantErr: "VAULT_TYPE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
