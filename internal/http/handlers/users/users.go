// Package users реализует HTTP-обработчики профиля, квоты и тарифа пользователя.
package users

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/content-generator/internal/http/middlewarectx"
	"github.com/magabrotheeeer/content-generator/internal/http/request"
	"github.com/magabrotheeeer/content-generator/internal/http/response"
	"github.com/magabrotheeeer/content-generator/internal/models"
)

// Service описывает операции над пользователями и их квотами.
type Service interface {
	Register(ctx context.Context, email, username string) (*models.User, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
	Usage(ctx context.Context, userID string) (*models.QuotaUsage, error)
	UpdateSubscription(ctx context.Context, userID string, in models.SubscriptionUpdate) (*models.User, error)
	ResetMonthly(ctx context.Context, userID string) error
	ConsumeExport(ctx context.Context, userID string) (*models.QuotaUsage, error)
}

// Handler обслуживает /me и /admin/users.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// SelfRoutes регистрирует маршруты текущего пользователя.
func (h *Handler) SelfRoutes(r chi.Router) {
	r.Get("/", h.Me)
	r.Get("/usage", h.Usage)
}

// AdminRoutes регистрирует административные маршруты.
func (h *Handler) AdminRoutes(r chi.Router) {
	r.Use(middlewarectx.RequireAdmin(h.log))
	r.Post("/", h.Register)
	r.Put("/{id}/subscription", h.UpdateSubscription)
	r.Post("/{id}/reset-exports", h.ResetExports)
	r.Post("/{id}/consume-export", h.ConsumeExport)
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// Me godoc
// @Summary Текущий пользователь
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=models.User}
// @Failure 404 {object} response.ErrorResponse
// @Router /me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.users.Me")

	actor, ok := middlewarectx.ActorFrom(r.Context())
	if !ok {
		response.Unauthorized(w, r)
		return
	}
	u, err := h.service.GetUser(r.Context(), actor.UserID)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(u))
}

// Usage godoc
// @Summary Квота экспортов
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=models.QuotaUsage}
// @Failure 404 {object} response.ErrorResponse
// @Router /me/usage [get]
func (h *Handler) Usage(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.users.Usage")

	actor, ok := middlewarectx.ActorFrom(r.Context())
	if !ok {
		response.Unauthorized(w, r)
		return
	}
	usage, err := h.service.Usage(r.Context(), actor.UserID)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(usage))
}

type registerRequest struct {
	Email    string `json:"email" example:"user@example.com"`
	Username string `json:"username" example:"designer"`
}

// Register godoc
// @Summary Завести пользователя
// @Description Пользователь создаётся на бесплатном тарифе. Его ID становится subject в токенах провайдера.
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body registerRequest true "Почта и имя"
// @Success 201 {object} response.Response{data=models.User}
// @Failure 403 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse "Почта или имя заняты"
// @Router /admin/users [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.users.Register")

	var req registerRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	u, err := h.service.Register(r.Context(), req.Email, req.Username)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	log.Info("user registered", slog.String("user_id", u.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(u))
}

// UpdateSubscription godoc
// @Summary Сменить тариф
// @Description Лимит экспортов по умолчанию берётся из настроек нового тарифа.
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID пользователя"
// @Param request body models.SubscriptionUpdate true "Новый тариф"
// @Success 200 {object} response.Response{data=models.User}
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /admin/users/{id}/subscription [put]
func (h *Handler) UpdateSubscription(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.users.UpdateSubscription")

	var in models.SubscriptionUpdate
	if err := request.DecodeJSON(r, &in); err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	u, err := h.service.UpdateSubscription(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(u))
}

// ResetExports godoc
// @Summary Обнулить счётчик экспортов
// @Tags Admin
// @Security BearerAuth
// @Param id path string true "ID пользователя"
// @Success 204
// @Failure 404 {object} response.ErrorResponse
// @Router /admin/users/{id}/reset-exports [post]
func (h *Handler) ResetExports(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.users.ResetExports")

	if err := h.service.ResetMonthly(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ConsumeExport godoc
// @Summary Списать экспорт вручную
// @Description Списывает один экспорт из месячной квоты, например за файл, выданный в обход конвейера экспорта.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID пользователя"
// @Success 200 {object} response.Response{data=models.QuotaUsage}
// @Failure 404 {object} response.ErrorResponse
// @Failure 429 {object} response.ErrorResponse "Лимит исчерпан"
// @Router /admin/users/{id}/consume-export [post]
func (h *Handler) ConsumeExport(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.users.ConsumeExport")

	usage, err := h.service.ConsumeExport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	log.Info("export consumed manually", slog.String("user_id", chi.URLParam(r, "id")), slog.Int("remaining", usage.Remaining))
	render.JSON(w, r, response.OKWithData(usage))
}
