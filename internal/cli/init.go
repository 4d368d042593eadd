// Package cli provides the process bootstrap used by cmd/ledger: env file,
// logging, configuration, store and signal handling.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"budgettracker/internal/config"
	applog "budgettracker/internal/log"
	"budgettracker/internal/storage"
)

// LoadEnvFile loads the .env file for local use.
// A missing file is not an error.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the application logger at the configured level and
// makes it the slog default.
func SetupLogger(cfg *config.Config) *applog.Logger {
	logger := applog.New(applog.Config{
		Level:     cfg.Level(),
		Component: applog.ComponentApp,
		Output:    os.Stderr,
	})
	applog.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// InitStore opens the ledger at dbPath.
func InitStore(ctx context.Context, logger *applog.Logger, dbPath string) (*storage.LedgerStore, error) {
	store, err := storage.NewLedgerStore(ctx, dbPath, logger)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to open ledger", applog.FieldError, err, applog.FieldPath, dbPath)
		return nil, fmt.Errorf("open ledger %s: %w", dbPath, err)
	}
	logger.InfoContext(ctx, "Ledger opened", applog.FieldPath, dbPath, applog.FieldOperation, applog.OpStartup)
	return store, nil
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// The returned context is cancelled on SIGINT/SIGTERM or when stop is
// called; either way cleanup runs once and done is closed afterwards.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func()) (ctx context.Context, stop context.CancelFunc, done <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	closed := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String(), applog.FieldOperation, applog.OpShutdown)
		case <-ctx.Done():
		}

		cancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup()
			}
			close(finished)
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-time.After(timeout):
			logger.Warn("Shutdown timeout reached")
		}
		close(closed)
	}()

	return ctx, cancel, closed
}

// WaitForShutdown blocks until the context is cancelled and cleanup finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
