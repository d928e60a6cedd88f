package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/hivemind/hivemind-server/internal/assist"
	"github.com/hivemind/hivemind-server/internal/config"
	"github.com/hivemind/hivemind-server/internal/core"
	"github.com/hivemind/hivemind-server/internal/identity"
	"github.com/hivemind/hivemind-server/internal/sandbox"
	"github.com/hivemind/hivemind-server/internal/store"
	"github.com/hivemind/hivemind-server/internal/store/sqlite"
	transporthttp "github.com/hivemind/hivemind-server/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	store           store.DocumentStore
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Info().Str("db_path", cfg.DatabasePath).Msg("document store initialized")

	verifier := identity.NewJWTVerifier(&identity.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      24 * time.Hour,
	})

	runner := sandbox.NewRunner(sandbox.Options{
		Timeout:        cfg.ExecTimeout,
		MaxOutputBytes: cfg.ExecMaxOutputBytes,
		NodeBin:        cfg.NodeBin,
		PythonBin:      cfg.PythonBin,
	}, logger)

	assistSvc, err := assist.New(ctx, cfg.AssistAPIKey, cfg.AssistModel, logger)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("init assist: %w", err)
	}

	hub := core.NewHub(st, logger)
	server := transporthttp.NewServer(hub, runner, verifier, assistSvc, *cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		store:           st,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go a.hub.Run(ctx)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes the document store and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
