package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	quotareset "github.com/magabrotheeeer/content-generator/internal/app/quota-reset"
	"github.com/magabrotheeeer/content-generator/internal/config"
	"github.com/magabrotheeeer/content-generator/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	logger := sl.SetupLogger(cfg.Env)

	logger.Info("starting quota reset service", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := quotareset.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize quota reset app", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("quota reset app stopped with error", sl.Err(err))
		os.Exit(1)
	}

	logger.Info("quota reset app stopped gracefully")
}
