// Package quotareset запускает ежемесячный сброс счётчиков экспортов.
package quotareset

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/content-generator/internal/config"
	"github.com/magabrotheeeer/content-generator/internal/lib/sl"
	"github.com/magabrotheeeer/content-generator/internal/metrics"
	"github.com/magabrotheeeer/content-generator/internal/models"
	"github.com/magabrotheeeer/content-generator/internal/services/history"
	"github.com/magabrotheeeer/content-generator/internal/services/quota"
	"github.com/magabrotheeeer/content-generator/internal/services/scheduler"
	"github.com/magabrotheeeer/content-generator/internal/storage/repository"
)

const (
	dbReadyAttempts = 10
	dbReadyDelay    = 3 * time.Second
)

// App представляет приложение планировщика.
type App struct {
	scheduler *scheduler.Service
	db        *repository.Storage
	logger    *slog.Logger
}

func waitForDB(ctx context.Context, db *repository.Storage) error {
	for range dbReadyAttempts {
		err := repository.CheckDatabaseReady(db)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(dbReadyDelay):
		}
	}
	return fmt.Errorf("database not ready after retries")
}

// New создает новый экземпляр приложения планировщика.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err := waitForDB(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	m := metrics.Nop{}
	quotaService := quota.New(db, history.New(db, m, logger), m, models.TierLimits{
		Free:   cfg.Quota.FreeLimit,
		Pro:    cfg.Quota.ProLimit,
		Agency: cfg.Quota.AgencyLimit,
	}, logger)

	return &App{
		scheduler: scheduler.New(quotaService, cfg.QuotaResetInterval, logger),
		db:        db,
		logger:    logger,
	}, nil
}

// Run запускает планировщик и ждёт отмены ctx.
func (a *App) Run(ctx context.Context) error {
	a.scheduler.Run(ctx)

	a.logger.Info("shutting down quota reset service")
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
	return nil
}
