package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"budgettracker/internal/cli"
	applog "budgettracker/internal/log"
	"budgettracker/internal/menu"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		// No configured logger yet; fall back to the stderr default
		applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentConfig).Error("Invalid configuration",
			applog.FieldError, err, applog.FieldErrorType, applog.ErrorTypeConfiguration)
		os.Exit(1)
	}

	logger := cli.SetupLogger(cfg)

	store, err := cli.InitStore(context.Background(), logger, cfg.DBPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// The store is closed exactly once, whether the menu quits or a signal arrives
	ctx, stop, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close ledger", applog.FieldError, err, applog.FieldPath, cfg.DBPath)
		}
	})
	ctx = applog.NewContext(ctx, logger)

	result := make(chan error, 1)
	go func() {
		result <- menu.New(store, os.Stdin, os.Stdout, cfg.CurrencySymbol).Run(ctx)
	}()

	var runErr error
	select {
	case runErr = <-result:
	case <-ctx.Done():
	}

	stop()
	cli.WaitForShutdown(ctx, done)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logger.Error("Menu stopped with error", applog.FieldError, runErr)
		os.Exit(1)
	}
}
