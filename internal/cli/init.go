// Package cli provides common initialization for cmd/zodiac,
// cmd/zodiac-worker and cmd/zodiac-cli.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"zodiac/internal/backend"
	"zodiac/internal/config"
	"zodiac/internal/core"
	"zodiac/internal/log"
)

// SetupLogger builds the text logger for LOG_LEVEL and installs it as the
// slog default.
func SetupLogger(level string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(level)
	logger := log.New(cfg)
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
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// LoadSignTable reads the sign table from the configured backend.
func LoadSignTable(ctx context.Context, cfg *config.Config, logger *log.Logger) (core.Table, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return core.Table{}, fmt.Errorf("backend config: %w", err)
	}
	slogger := logger.Logger.With(log.FieldComponent, log.ComponentBackend)
	return backend.LoadTable(ctx, backend.NewFactory(slogger), bcfg, slogger)
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
