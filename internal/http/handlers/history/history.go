// Package history реализует HTTP-обработчики журнала действий пользователя.
package history

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/content-generator/internal/http/middlewarectx"
	"github.com/magabrotheeeer/content-generator/internal/http/request"
	"github.com/magabrotheeeer/content-generator/internal/http/response"
	"github.com/magabrotheeeer/content-generator/internal/models"
)

// Service описывает чтение и очистку журнала.
type Service interface {
	Query(ctx context.Context, userID string, f models.HistoryFilter) (*models.Page[models.HistoryEntry], error)
	Recent(ctx context.Context, userID string, count int) ([]models.HistoryEntry, error)
	Clear(ctx context.Context, userID string, olderThan *time.Time) (int, error)
}

// Handler обслуживает /history.
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

// Routes регистрирует маршруты журнала.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.Query)
	r.Get("/recent", h.Recent)
	r.Delete("/", h.Clear)
}

// Query godoc
// @Summary Журнал действий
// @Tags History
// @Produce json
// @Security BearerAuth
// @Param action_type query string false "Вид действия"
// @Param project_id query string false "ID проекта"
// @Param from query string false "RFC 3339"
// @Param to query string false "RFC 3339"
// @Param sort_by query string false "createdat или actiontype"
// @Param sort_order query string false "asc или desc"
// @Param page query int false "Номер страницы"
// @Param page_size query int false "Размер страницы (до 100)"
// @Success 200 {object} response.Response{data=models.Page[models.HistoryEntry]}
// @Failure 422 {object} response.ErrorResponse
// @Router /history [get]
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.history.Query"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	actor, ok := middlewarectx.ActorFrom(r.Context())
	if !ok {
		response.Unauthorized(w, r)
		return
	}

	q := r.URL.Query()
	var f models.HistoryFilter
	if s := request.String(q, "action_type"); s != nil {
		a := models.ActionType(*s)
		f.ActionType = &a
	}
	f.ProjectID = request.String(q, "project_id")

	var err error
	if f.From, err = request.Time(q, "from"); err == nil {
		if f.To, err = request.Time(q, "to"); err == nil {
			if f.SortBy, f.SortDesc, err = request.Sort(q); err == nil {
				f.Pagination, err = request.Pagination(q)
			}
		}
	}
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}

	page, err := h.service.Query(r.Context(), actor.UserID, f)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(page))
}

// Recent godoc
// @Summary Последние действия
// @Tags History
// @Produce json
// @Security BearerAuth
// @Param count query int false "Количество (по умолчанию 10)"
// @Success 200 {object} response.Response{data=[]models.HistoryEntry}
// @Router /history/recent [get]
func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.history.Recent"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	actor, ok := middlewarectx.ActorFrom(r.Context())
	if !ok {
		response.Unauthorized(w, r)
		return
	}
	count, err := request.Int(r.URL.Query(), "count", 0)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}

	items, err := h.service.Recent(r.Context(), actor.UserID, count)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(items))
}

// Clear godoc
// @Summary Очистить журнал
// @Description Удаляет записи старше older_than, без параметра удаляет все.
// @Tags History
// @Produce json
// @Security BearerAuth
// @Param older_than query string false "RFC 3339"
// @Success 200 {object} response.Response{data=map[string]int}
// @Failure 422 {object} response.ErrorResponse
// @Router /history [delete]
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.history.Clear"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	actor, ok := middlewarectx.ActorFrom(r.Context())
	if !ok {
		response.Unauthorized(w, r)
		return
	}
	olderThan, err := request.Time(r.URL.Query(), "older_than")
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}

	n, err := h.service.Clear(r.Context(), actor.UserID, olderThan)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	log.Info("history cleared", slog.Int("removed", n))
	render.JSON(w, r, response.OKWithData(map[string]int{"removed": n}))
}
