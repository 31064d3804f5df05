// Package config handles application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Server     ServerConfig
	ChatAPI    ChatAPIConfig
	Connection ConnectionConfig
	Reconnect  ReconnectConfig
	Bridge     BridgeConfig
	EventBus   EventBusConfig
	Vault      VaultConfig
	CORS       CORSConfig
	Log        LogConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host    string
	Port    int
	GinMode string
}

// Address returns the server address in host:port format.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ChatAPIConfig holds the chat backend's session initiation settings.
type ChatAPIConfig struct {
	BaseURL string
	// Token is the bearer token; TokenURI, when set, resolves it through the vault instead.
	Token    string
	TokenURI string
	Timeout  time.Duration
}

// ConnectionConfig holds per-connection settings.
type ConnectionConfig struct {
	ConnectTimeout   time.Duration
	HandshakeTimeout time.Duration
	Greeting         string
}

// ReconnectConfig holds the automatic reconnect policy.
type ReconnectConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// BridgeConfig holds the widget bridge's conversation registry settings.
type BridgeConfig struct {
	IdleTTL          time.Duration
	MaxConversations int
	SweepInterval    time.Duration
}

// EventBusConfig holds event bus configuration.
type EventBusConfig struct {
	Type     string
	Host     string
	Port     string
	Password string
	DB       int
	// EncryptionKey, when set, seals payloads on the bus with AES-256-GCM.
	EncryptionKey string
}

// VaultConfig holds vault configuration.
type VaultConfig struct {
	Type string
}

// CORSConfig holds the origins allowed to call the bridge.
type CORSConfig struct {
	AllowOrigins []string
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:    getEnv("SERVER_HOST", "0.0.0.0"),
			Port:    getEnvAsInt("SERVER_PORT", 8080),
			GinMode: getEnv("GIN_MODE", "debug"),
		},
		ChatAPI: ChatAPIConfig{
			BaseURL:  getEnv("CHAT_API_BASE_URL", "http://localhost:8000"),
			Token:    getEnv("CHAT_API_TOKEN", ""),
			TokenURI: getEnv("CHAT_API_TOKEN_URI", ""),
			Timeout:  time.Duration(getEnvAsInt("CHAT_API_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Connection: ConnectionConfig{
			ConnectTimeout:   getEnvAsDuration("CONNECT_TIMEOUT", 10*time.Second),
			HandshakeTimeout: getEnvAsDuration("HANDSHAKE_TIMEOUT", 10*time.Second),
			Greeting:         getEnv("CHAT_GREETING", "Hello"),
		},
		Reconnect: ReconnectConfig{
			MaxAttempts:    getEnvAsInt("RECONNECT_MAX_ATTEMPTS", 5),
			InitialBackoff: getEnvAsDuration("RECONNECT_INITIAL_BACKOFF", time.Second),
			MaxBackoff:     getEnvAsDuration("RECONNECT_MAX_BACKOFF", 30*time.Second),
		},
		Bridge: BridgeConfig{
			IdleTTL:          getEnvAsDuration("BRIDGE_IDLE_TTL", 30*time.Minute),
			MaxConversations: getEnvAsInt("BRIDGE_MAX_CONVERSATIONS", 1000),
			SweepInterval:    getEnvAsDuration("BRIDGE_SWEEP_INTERVAL", time.Minute),
		},
		EventBus: EventBusConfig{
			Type:          getEnv("EVENTBUS_TYPE", "memory"),
			Host:          getEnv("REDIS_HOST", "localhost"),
			Port:          getEnv("REDIS_PORT", "6379"),
			Password:      getEnv("REDIS_PASSWORD", ""),
			DB:            getEnvAsInt("REDIS_DB", 0),
			EncryptionKey: getEnv("EVENTBUS_ENCRYPTION_KEY", ""),
		},
		Vault: VaultConfig{
			Type: getEnv("VAULT_TYPE", "dotenv"),
		},
		CORS: CORSConfig{
			AllowOrigins: getEnvAsList("CORS_ALLOW_ORIGINS", []string{"*"}),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the services cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("SERVER_PORT out of range: %d", c.Server.Port))
	}
	if c.ChatAPI.BaseURL == "" {
		errs = append(errs, errors.New("CHAT_API_BASE_URL is required"))
	}
	if c.ChatAPI.Timeout < 0 || c.Connection.ConnectTimeout < 0 || c.Connection.HandshakeTimeout < 0 {
		errs = append(errs, errors.New("timeouts must not be negative"))
	}
	if c.Reconnect.MaxAttempts < 0 {
		errs = append(errs, errors.New("RECONNECT_MAX_ATTEMPTS must not be negative"))
	}
	if c.Reconnect.InitialBackoff < 0 || c.Reconnect.MaxBackoff < c.Reconnect.InitialBackoff {
		errs = append(errs, errors.New("reconnect backoff must satisfy 0 <= initial <= max"))
	}
	if c.Bridge.MaxConversations < 0 || c.Bridge.IdleTTL < 0 || c.Bridge.SweepInterval < 0 {
		errs = append(errs, errors.New("bridge limits must not be negative"))
	}
	switch c.EventBus.Type {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("unknown EVENTBUS_TYPE %q", c.EventBus.Type))
	}
	if c.Vault.Type != "dotenv" {
		errs = append(errs, fmt.Errorf("unknown VAULT_TYPE %q", c.Vault.Type))
	}

	return errors.Join(errs...)
}

// getEnv gets an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsDuration reads a Go duration ("1500ms", "30s"); a bare integer is seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping empty items.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
