// Package main is the entry point for the Axium chat widget bridge.
// @title Axium Chat Widget Bridge API
// @version 1.0
// @description Backend-for-frontend that owns chat sessions for embedded widget visitors
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/axiumai/chat-widget

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Conversation token returned by the create endpoint
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/sync/errgroup"

	_ "github.com/axiumai/chat-widget/docs"
	"github.com/axiumai/chat-widget/internal/api/handlers"
	"github.com/axiumai/chat-widget/internal/api/middleware"
	"github.com/axiumai/chat-widget/internal/api/routes"
	"github.com/axiumai/chat-widget/internal/config"
	"github.com/axiumai/chat-widget/internal/core/eventbus"
	"github.com/axiumai/chat-widget/internal/core/vault"
	"github.com/axiumai/chat-widget/internal/infrastructure/eventbus/memory"
	redisbus "github.com/axiumai/chat-widget/internal/infrastructure/eventbus/redis"
	dotenvvault "github.com/axiumai/chat-widget/internal/infrastructure/vault/dotenv"
	"github.com/axiumai/chat-widget/internal/pkg/encryption"
	"github.com/axiumai/chat-widget/internal/pkg/logging"
	"github.com/axiumai/chat-widget/internal/services/chat"
	"github.com/axiumai/chat-widget/internal/services/chatapi"
	"github.com/axiumai/chat-widget/internal/services/widget"
	"github.com/axiumai/chat-widget/internal/services/wsclient"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Log)

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
	logger.Info().Msg("Server exited")
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	// Initialize vault using factory pattern
	v, err := createVault(cfg.Vault)
	if err != nil {
		return fmt.Errorf("failed to initialize vault: %w", err)
	}
	defer v.Close()

	// Initialize event bus using factory pattern
	bus, err := createEventBus(cfg.EventBus, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize event bus: %w", err)
	}
	defer bus.Close()

	sessions, err := chatapi.NewClient(&chatapi.ClientConfig{
		BaseURL:     cfg.ChatAPI.BaseURL,
		TokenSource: createTokenSource(cfg.ChatAPI, v),
		Timeout:     cfg.ChatAPI.Timeout,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize chat api client: %w", err)
	}

	service, err := widget.NewService(&widget.Config{
		Sessions:       sessions,
		Dialer:         wsclient.NewGorillaDialer(cfg.Connection.HandshakeTimeout),
		Bus:            bus,
		Logger:         logger,
		ConnectTimeout: cfg.Connection.ConnectTimeout,
		Greeting:       cfg.Connection.Greeting,
		Reconnect: chat.ReconnectPolicy{
			MaxAttempts:    cfg.Reconnect.MaxAttempts,
			InitialBackoff: cfg.Reconnect.InitialBackoff,
			MaxBackoff:     cfg.Reconnect.MaxBackoff,
		},
		IdleTTL:          cfg.Bridge.IdleTTL,
		MaxConversations: cfg.Bridge.MaxConversations,
		SweepInterval:    cfg.Bridge.SweepInterval,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize widget service: %w", err)
	}
	defer service.Close()

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	srv := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           setupRouter(cfg, logger, service, bus, v),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("address", srv.Addr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return service.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// createVault creates a vault based on the configuration.
func createVault(cfg config.VaultConfig) (vault.Vault, error) {
	switch vault.Type(cfg.Type) {
	case vault.TypeDotEnv:
		return dotenvvault.NewVault(), nil
	default:
		return nil, fmt.Errorf("unsupported vault type: %s", cfg.Type)
	}
}

// createEventBus creates an event bus based on the configuration, sealed
// with AES-GCM when an encryption key is configured.
func createEventBus(cfg config.EventBusConfig, logger zerolog.Logger) (eventbus.Bus, error) {
	var bus eventbus.Bus

	switch eventbus.Type(cfg.Type) {
	case eventbus.TypeMemory:
		bus = memory.NewBus(memory.DefaultBufferSize, logger)
	case eventbus.TypeRedis:
		rb, err := redisbus.NewBus(redisbus.Config{
			Host:     cfg.Host,
			Port:     cfg.Port,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		if err != nil {
			return nil, err
		}
		bus = rb
	default:
		return nil, fmt.Errorf("unsupported event bus type: %s", cfg.Type)
	}

	if cfg.EncryptionKey == "" {
		return bus, nil
	}
	enc, err := encryption.NewAESEncryptor(cfg.EncryptionKey)
	if err != nil {
		_ = bus.Close()
		return nil, fmt.Errorf("failed to initialize event encryption: %w", err)
	}
	return eventbus.NewSealedBus(bus, enc, logger), nil
}

// createTokenSource prefers a vault reference over a literal token.
func createTokenSource(cfg config.ChatAPIConfig, v vault.Vault) chatapi.TokenSource {
	if cfg.TokenURI != "" {
		return chatapi.VaultToken(v, cfg.TokenURI)
	}
	return chatapi.StaticToken(cfg.Token)
}

// setupRouter creates and configures the Gin router.
func setupRouter(cfg *config.Config, logger zerolog.Logger, service *widget.Service, bus eventbus.Bus, v vault.Vault) *gin.Engine {
	router := gin.New()

	// Create middleware
	loggingMw := middleware.NewLoggingMiddlewareWithLogger(logger)
	errorMw := middleware.NewErrorMiddleware()
	authMw := middleware.NewAuthMiddleware(service)

	// Create handlers
	healthHandler := handlers.NewHealthHandler(map[string]handlers.Pinger{
		"eventbus": bus,
		"vault":    v,
	})
	conversationsHandler := handlers.NewConversationsHandler(service, handlers.DefaultKeepAlive)

	routes.SetupWithMiddleware(router, &routes.Config{
		HealthHandler:        healthHandler,
		ConversationsHandler: conversationsHandler,
		AuthMiddleware:       authMw,
	}, loggingMw, errorMw, middleware.DefaultCORSConfig(cfg.CORS.AllowOrigins))

	// Swagger documentation
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return router
}
