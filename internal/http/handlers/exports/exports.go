// Package exports реализует HTTP-обработчики экспорта проектов и выдачи ссылок на файлы.
package exports

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

const defaultLinkMinutes = 60

// Service описывает оркестратор экспорта.
type Service interface {
	Export(ctx context.Context, userID string, req models.ExportRequest) (*models.ExportResult, error)
	SignedDownload(ctx context.Context, userID, filePath string, minutes int) (string, error)
}

// Handler обслуживает /exports.
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

// Routes регистрирует маршруты экспорта.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.Export)
	r.Get("/download", h.Download)
}

// Export godoc
// @Summary Экспортировать проект
// @Description Отрисовывает проект, сохраняет файл и списывает один экспорт из месячной квоты.
// @Tags Exports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.ExportRequest true "Проект, формат и качество"
// @Success 201 {object} response.Response{data=models.ExportResult}
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Failure 429 {object} response.ErrorResponse "Месячный лимит исчерпан"
// @Failure 502 {object} response.ErrorResponse "Сбой рендерера или хранилища"
// @Router /exports [post]
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.exports.Export"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	actor, ok := middlewarectx.ActorFrom(r.Context())
	if !ok {
		response.Unauthorized(w, r)
		return
	}
	var req models.ExportRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, log, err)
		return
	}

	res, err := h.service.Export(r.Context(), actor.UserID, req)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	log.Info("project exported", slog.String("project_id", req.ProjectID), slog.String("file", res.FileName))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(res))
}

// Download godoc
// @Summary Временная ссылка на файл
// @Tags Exports
// @Produce json
// @Security BearerAuth
// @Param path query string true "Имя файла экспорта"
// @Param minutes query int false "Срок действия, 1-1440 минут (по умолчанию 60)"
// @Success 200 {object} response.Response{data=map[string]string}
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Router /exports/download [get]
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.exports.Download"

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
	minutes, err := request.Int(q, "minutes", defaultLinkMinutes)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}

	link, err := h.service.SignedDownload(r.Context(), actor.UserID, q.Get("path"), minutes)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(map[string]string{"url": link}))
}
