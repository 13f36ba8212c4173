package contentgenerator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/content-generator/internal/blobstore"
	"github.com/magabrotheeeer/content-generator/internal/cache"
	"github.com/magabrotheeeer/content-generator/internal/config"
	"github.com/magabrotheeeer/content-generator/internal/http/handlers/exports"
	"github.com/magabrotheeeer/content-generator/internal/http/handlers/health"
	historyhandler "github.com/magabrotheeeer/content-generator/internal/http/handlers/history"
	"github.com/magabrotheeeer/content-generator/internal/http/handlers/projects"
	"github.com/magabrotheeeer/content-generator/internal/http/handlers/templates"
	"github.com/magabrotheeeer/content-generator/internal/http/handlers/users"
	"github.com/magabrotheeeer/content-generator/internal/http/middlewarectx"
	"github.com/magabrotheeeer/content-generator/internal/lib/jwt"
	"github.com/magabrotheeeer/content-generator/internal/lib/sl"
	"github.com/magabrotheeeer/content-generator/internal/metrics"
	"github.com/magabrotheeeer/content-generator/internal/migrations"
	"github.com/magabrotheeeer/content-generator/internal/models"
	"github.com/magabrotheeeer/content-generator/internal/rabbitmq"
	"github.com/magabrotheeeer/content-generator/internal/render"
	"github.com/magabrotheeeer/content-generator/internal/services/export"
	"github.com/magabrotheeeer/content-generator/internal/services/history"
	"github.com/magabrotheeeer/content-generator/internal/services/project"
	"github.com/magabrotheeeer/content-generator/internal/services/quota"
	"github.com/magabrotheeeer/content-generator/internal/services/template"
	"github.com/magabrotheeeer/content-generator/internal/storage/repository"
)

const shutdownTimeout = 15 * time.Second

// App — HTTP API сервиса.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New подключает зависимости, применяет миграции и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if _, err = migrations.Run(db.DB, cfg.MigrationsPath, logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.Redis)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQ, logger)
	if err != nil {
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	ch, err := rabbitmq.SetupChannel(conn, cfg.RabbitMQ.Exchange, rabbitmq.ExportQueues())
	if err != nil {
		_ = conn.Close()
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	historyService := history.New(db, collector, logger)
	templateService := template.New(db, cacheRedis, historyService, cfg.TemplateCacheTTL, logger)
	projectService := project.New(db, templateService, historyService, logger)
	quotaService := quota.New(db, historyService, collector, models.TierLimits{
		Free:   cfg.Quota.FreeLimit,
		Pro:    cfg.Quota.ProLimit,
		Agency: cfg.Quota.AgencyLimit,
	}, logger)
	exportService := export.New(
		db,
		render.NewClient(cfg.Renderer.URL, cfg.Renderer.Timeout),
		blobstore.NewClient(cfg.BlobStore),
		rabbitmq.NewPublisher(ch, cfg.RabbitMQ.Exchange),
		historyService,
		collector,
		logger,
	)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Handlers{
		Projects:  projects.New(logger, projectService),
		Templates: templates.New(logger, templateService),
		History:   historyhandler.New(logger, historyService),
		Users:     users.New(logger, quotaService),
		Exports:   exports.New(logger, exportService),
		Health: health.New(logger, map[string]health.Check{
			"postgres": db.DB.PingContext,
			"redis": func(ctx context.Context) error {
				return cacheRedis.DB.Ping(ctx).Err()
			},
			"rabbitmq": func(context.Context) error {
				if conn.IsClosed() {
					return errors.New("connection closed")
				}
				return nil
			},
		}),
		Metrics: metrics.Handler(reg),
	}, jwt.NewVerifier(cfg.JWT.SecretKey), middlewarectx.NewRateLimiter(cfg.RateLimit))

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.Renderer.Timeout + cfg.BlobStore.Timeout + cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
		conn:   conn,
		ch:     ch,
	}, nil
}

// Run обслуживает запросы до отмены ctx, затем завершает сервер и закрывает соединения.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err = a.server.Shutdown(timeoutCtx)
	}
	a.close()
	return err
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Error("failed to close cache", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
