package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/sessionchat/internal/auth"
	"github.com/vovakirdan/sessionchat/internal/config"
	"github.com/vovakirdan/sessionchat/internal/core"
	"github.com/vovakirdan/sessionchat/internal/store"
	"github.com/vovakirdan/sessionchat/internal/store/memory"
	"github.com/vovakirdan/sessionchat/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/sessionchat/internal/transport/http"
)

// TokenTTL is the lifetime of tokens minted by the token command.
const TokenTTL = 24 * time.Hour

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	router          *core.Router
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := OpenStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Info().Str("driver", cfg.StoreDriver).Str("db_path", cfg.DatabasePath).Msg("store initialized")

	var authService *auth.Service
	if cfg.AuthEnabled() {
		authService = auth.NewService(st, JWTConfig(cfg))
		logger.Info().Str("issuer", cfg.JWTIssuer).Msg("token authentication enabled")
	}

	router := core.NewRouter(logger)
	handler := core.NewHandler(st, router, core.NewEchoResponder(cfg.EchoPrefix), core.HandlerOptions{
		StoreTimeout: cfg.StoreTimeout,
		Logger:       logger,
	})
	hub := core.NewHub(handler, logger)
	server := transporthttp.NewServer(hub, authService, st, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		router:          router,
		store:           st,
		log:             logger,
	}, nil
}

// OpenStore opens the store selected by cfg.StoreDriver.
func OpenStore(cfg *config.Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case "memory":
		return memory.New(), nil
	case "sqlite", "":
		st, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// JWTConfig derives token settings from cfg.
func JWTConfig(cfg *config.Config) *auth.JWTConfig {
	return &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      TokenTTL,
	}
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() stdhttp.Handler {
	return a.server.Handler
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	hubCtx, stopHub := context.WithCancel(ctx)
	hubDone := make(chan struct{})
	go func() {
		a.hub.Run(hubCtx)
		close(hubDone)
	}()

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		stopHub()
		<-hubDone
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		err := a.server.Shutdown(shutdownCtx)

		// Hijacked WebSocket connections are not tracked by Shutdown; stopping the hub
		// ends them.
		stopHub()
		<-hubDone
		a.cleanup()
		if err != nil {
			return err
		}
		return <-serverErr
	}
}

// cleanup closes the router and the store.
func (a *App) cleanup() {
	a.router.Close()
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
