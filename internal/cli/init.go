// Package cli holds the start-up and terminal output helpers shared by
// cmd/room8, cmd/room8-worker, cmd/reminder-worker and cmd/room8ctl.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"room8/internal/backend"
	"room8/internal/config"
	"room8/internal/log"
	"room8/internal/metrics"
	"room8/internal/schedule"
	"room8/internal/services"
)

// SetupLogger builds the process logger from the configured format and
// level and installs it as the slog default.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	return newLogger(os.Stdout, cfg, component)
}

func newLogger(w io.Writer, cfg *config.Config, component string) *log.Logger {
	format, level := log.FormatText, "info"
	if cfg != nil {
		format, level = cfg.LogFormat, cfg.LogLevel
	}
	logger := log.New(log.Config{
		Component: component,
		Handler:   log.NewHandler(w, format, log.ParseLevel(level)),
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig() *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		// The configured logger is not available yet.
		log.New(log.DefaultConfig()).Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// Runtime is what every binary opens at start-up: the backends and a
// household loaded from the store.
type Runtime struct {
	Backend   *backend.BackendResult
	Household *services.Household
	Metrics   *metrics.Metrics
}

// OpenRuntime creates the configured backends and loads the household.
// Close releases the backends.
func OpenRuntime(ctx context.Context, logger *log.Logger, cfg *config.Config, opts ...services.Option) (*Runtime, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	opts = append([]services.Option{services.WithLogger(logger), services.WithMetrics(m)}, opts...)
	household := services.NewHousehold(res.Store, schedule.New(bcfg.Location), opts...)
	household.Load(ctx)

	return &Runtime{Backend: res, Household: household, Metrics: m}, nil
}

func (r *Runtime) Close() error {
	if r.Backend == nil || r.Backend.Cleanup == nil {
		return nil
	}
	return r.Backend.Cleanup()
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
