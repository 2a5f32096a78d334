// Package cli provides the start-up steps shared by the fintrack commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/backend"
	"fintrack/internal/config"
	"fintrack/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored as the file is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger and sets it as the default.
func SetupLogger(level string) *log.Logger {
	logger := log.New(log.Config{Level: log.ParseLevel(level), Component: log.ComponentApp})
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig reads the environment and validates it.
func LoadAndValidateConfig(logger *log.Logger) (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed",
			log.FieldError, err.Error(),
			log.FieldErrorType, log.ErrorTypeConfiguration)
		return nil, err
	}
	return cfg, nil
}

// OpenBackend opens the store and its storage for cfg. The caller owns the
// result's Cleanup; owner processes flush every key there.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *log.Logger, owner bool) (*backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	bcfg.FlushOnClose = owner
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to open backend",
			log.FieldError, err.Error(),
			log.FieldErrorType, log.ErrorTypeDatabase,
			"backend", bcfg.Type.String())
		return nil, err
	}
	return res, nil
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// GracefulShutdown blocks until ctx is done, then runs shutdown with a
// fresh context bounded by timeout.
func GracefulShutdown(ctx context.Context, logger *log.Logger, timeout time.Duration, shutdown func(context.Context) error) error {
	<-ctx.Done()
	logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	err := shutdown(shutdownCtx)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn("Shutdown timeout reached",
			"timeout", timeout.String(), log.FieldErrorType, log.ErrorTypeTimeout)
		return fmt.Errorf("shutdown: %w", err)
	case err != nil:
		logger.Error("Shutdown failed", log.FieldError, err.Error())
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("Shutdown complete", log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}
