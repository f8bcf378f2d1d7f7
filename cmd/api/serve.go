package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/crucial707/authsvc/internal/auth"
	"github.com/crucial707/authsvc/internal/config"
	"github.com/crucial707/authsvc/internal/db"
	"github.com/crucial707/authsvc/internal/logging"
	"github.com/crucial707/authsvc/internal/repo"
	"github.com/crucial707/authsvc/internal/telemetry"
)

const (
	shutdownTimeout     = 10 * time.Second
	defaultWriteTimeout = 15 * time.Second
	// responseMargin covers hashing and writing once a connection is in hand.
	responseMargin = 5 * time.Second
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

// loadConfig reads and validates the environment and installs the default logger.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	logging.SetDefault(serviceName, version, cfg.LogFormat, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	if cfg.UsesInsecureSecret() {
		slog.Warn("JWT_SECRET_KEY is not set; tokens are signed with the public default key and can be forged")
	}
	return cfg, nil
}

// newService wires the account store, hasher and token issuer.
func newService(m *db.Manager, cfg config.Config) (*auth.Service, *repo.AccountRepo) {
	accounts := repo.NewAccountRepo(m)
	svc := auth.NewService(accounts, auth.NewBcryptHasher(cfg.BcryptCost), auth.NewTokenIssuer([]byte(cfg.JWTSecret)))
	return svc, accounts
}

func serve(ctx context.Context, cfg config.Config) error {
	shutdownTracing, err := telemetry.Setup(ctx, serviceName, version, telemetry.Options{
		Enabled:  cfg.OTelEnabled,
		Endpoint: cfg.OTelEndpoint,
	})
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			slog.Warn("flush traces failed", "error", err)
		}
	}()

	manager, err := db.Open(cfg)
	if err != nil {
		return err
	}
	defer manager.Close()

	// Fail fast when the store never comes up; the error already carries the attempt count.
	conn, err := manager.ConnectStartup(ctx)
	if err != nil {
		slog.Error("database unreachable", "host", cfg.DBHost, "attempts", cfg.DBConnectAttempts, "error", err)
		return err
	}
	_ = conn.Close()
	slog.Info("connected to database", "host", cfg.DBHost, "name", cfg.DBName, "driver", cfg.DBDriver)

	svc, accounts := newService(manager, cfg)

	var schemaReady atomic.Bool
	if err := accounts.EnsureSchema(ctx); err != nil {
		if cfg.DBSchemaRequired {
			slog.Error("schema initialization failed", "error", err)
			return err
		}
		slog.Warn("schema initialization failed; serving without it", "error", err)
	} else {
		schemaReady.Store(true)
	}

	srv := newServer(cfg, newRouter(svc, &schemaReady, cfg), manager.RequestBudget())

	errCh := make(chan error, 1)
	go func() {
		tls := cfg.TLSCertFile != "" && cfg.TLSKeyFile != ""
		slog.Info("starting server", "addr", srv.Addr, "tls", tls, "env", cfg.Env)
		if tls {
			errCh <- srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
			return
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("server stopped")
	return nil
}

// newServer sizes the write deadline so a request that exhausts its connection
// retries can still send its 500 or 503 body.
func newServer(cfg config.Config, handler http.Handler, requestBudget time.Duration) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      writeTimeout(requestBudget),
		IdleTimeout:       60 * time.Second,
	}
}

func writeTimeout(requestBudget time.Duration) time.Duration {
	return max(defaultWriteTimeout, requestBudget+responseMargin)
}
