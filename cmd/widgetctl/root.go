package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/axiumai/chat-widget/internal/config"
	dotenvvault "github.com/axiumai/chat-widget/internal/infrastructure/vault/dotenv"
	"github.com/axiumai/chat-widget/internal/pkg/logging"
	"github.com/axiumai/chat-widget/internal/services/chat"
	"github.com/axiumai/chat-widget/internal/services/chatapi"
	"github.com/axiumai/chat-widget/internal/services/wsclient"
)

var (
	verbose bool
	baseURL string
	token   string

	cfg    *config.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "widgetctl",
	Short: "Talk to the chat backend from a terminal",
	Long: `widgetctl exercises the chat backend the way the embedded widget does.

It reads the same environment as the bridge server (CHAT_API_BASE_URL,
CHAT_API_TOKEN, CHAT_API_TOKEN_URI, CONNECT_TIMEOUT, RECONNECT_*), and a
.env file in the working directory if present.

Quick Start:
  widgetctl session            # Request one session and print it
  widgetctl chat               # Start an interactive conversation`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if cmd.Flags().Changed("base-url") {
			loaded.ChatAPI.BaseURL = baseURL
		}
		if cmd.Flags().Changed("token") {
			loaded.ChatAPI.Token = token
			loaded.ChatAPI.TokenURI = ""
		}

		logCfg := config.LogConfig{Level: "warn", Format: "console"}
		if verbose {
			logCfg.Level = "debug"
		}
		logger = logging.SetupWriter(logCfg, cmd.ErrOrStderr())
		cfg = loaded
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Chat backend origin (overrides CHAT_API_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "Bearer token for session initiation (overrides CHAT_API_TOKEN)")

	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(chatCmd)
}

// newSessionClient builds the initiation client from the loaded config.
func newSessionClient() (chatapi.Client, error) {
	source := chatapi.StaticToken(cfg.ChatAPI.Token)
	if cfg.ChatAPI.TokenURI != "" {
		source = chatapi.VaultToken(dotenvvault.NewVault(), cfg.ChatAPI.TokenURI)
	}
	return chatapi.NewClient(&chatapi.ClientConfig{
		BaseURL:     cfg.ChatAPI.BaseURL,
		TokenSource: source,
		Timeout:     cfg.ChatAPI.Timeout,
		Logger:      logger,
	})
}

// newController builds a chat controller from the loaded config.
func newController(dialer wsclient.Dialer) (*chat.Controller, error) {
	sessions, err := newSessionClient()
	if err != nil {
		return nil, err
	}
	if dialer == nil {
		dialer = wsclient.NewGorillaDialer(cfg.Connection.HandshakeTimeout)
	}
	return chat.NewController(&chat.Config{
		Sessions:       sessions,
		Dialer:         dialer,
		Logger:         logger,
		ConnectTimeout: cfg.Connection.ConnectTimeout,
		Greeting:       cfg.Connection.Greeting,
		Reconnect: chat.ReconnectPolicy{
			MaxAttempts:    cfg.Reconnect.MaxAttempts,
			InitialBackoff: cfg.Reconnect.InitialBackoff,
			MaxBackoff:     cfg.Reconnect.MaxBackoff,
		},
	})
}
