// Package contentgenerator собирает HTTP API сервиса: хранилище, кэш, брокер,
// клиенты рендерера и файлового хранилища, сервисы ядра и маршруты.
package contentgenerator

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/content-generator/internal/http/handlers/exports"
	"github.com/magabrotheeeer/content-generator/internal/http/handlers/history"
	"github.com/magabrotheeeer/content-generator/internal/http/handlers/projects"
	"github.com/magabrotheeeer/content-generator/internal/http/handlers/templates"
	"github.com/magabrotheeeer/content-generator/internal/http/handlers/users"
	"github.com/magabrotheeeer/content-generator/internal/http/middlewarectx"
)

// Handlers — обработчики, которые подключает RegisterRoutes.
type Handlers struct {
	Projects  *projects.Handler
	Templates *templates.Handler
	History   *history.Handler
	Users     *users.Handler
	Exports   *exports.Handler
	Health    http.Handler
	Metrics   http.Handler
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, h Handlers,
	verifier middlewarectx.Verifier, limiter *middlewarectx.RateLimiter) {
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Get("/health", h.Health.ServeHTTP)
	r.Handle("/metrics", h.Metrics)
	r.Get("/docs/*", httpSwagger.WrapHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.JWTMiddleware(verifier, logger))
		r.Use(limiter.Middleware(logger))

		r.Route("/projects", h.Projects.Routes)
		r.Route("/templates", h.Templates.Routes)
		r.Route("/history", h.History.Routes)
		r.Route("/exports", h.Exports.Routes)
		r.Route("/me", h.Users.SelfRoutes)
		r.Route("/admin/users", h.Users.AdminRoutes)
	})
}
