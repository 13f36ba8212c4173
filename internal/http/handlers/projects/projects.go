// Package projects реализует HTTP-обработчики проектов пользователя.
//
// Все операции выполняются от имени пользователя из контекста запроса:
// чужой проект неотличим от несуществующего и даёт 404.
package projects

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

// Service описывает операции над проектами.
type Service interface {
	Create(ctx context.Context, userID string, in models.CreateProjectInput) (*models.Project, error)
	GetByID(ctx context.Context, id, userID string) (*models.Project, error)
	Update(ctx context.Context, id, userID string, patch models.ProjectPatch) (*models.Project, error)
	UpdateThumbnail(ctx context.Context, id, userID, url string) (*models.Project, error)
	Delete(ctx context.Context, id, userID string) error
	Duplicate(ctx context.Context, id, userID string, newName *string) (*models.Project, error)
	List(ctx context.Context, userID string, f models.ProjectFilter) (*models.Page[models.Project], error)
	Recent(ctx context.Context, userID string, count int) ([]models.Project, error)
}

// Handler обслуживает /projects.
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

// Routes регистрирует маршруты проектов.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/recent", h.Recent)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Put("/{id}/thumbnail", h.UpdateThumbnail)
	r.Post("/{id}/duplicate", h.Duplicate)
	r.Delete("/{id}", h.Delete)
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// Create godoc
// @Summary Создать проект
// @Description Создаёт проект в статусе Draft. Холст берётся из запроса, иначе из шаблона.
// @Tags Projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateProjectInput true "Данные проекта"
// @Success 201 {object} response.Response{data=models.Project}
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse "Премиальный шаблон на бесплатном тарифе"
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /projects [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.projects.Create")

	actor, ok := middlewarectx.ActorFrom(r.Context())
	if !ok {
		response.Unauthorized(w, r)
		return
	}
	var in models.CreateProjectInput
	if err := request.DecodeJSON(r, &in); err != nil {
		response.WriteError(w, r, log, err)
		return
	}

	p, err := h.service.Create(r.Context(), actor.UserID, in)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	log.Info("project created", slog.String("project_id", p.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(p))
}

// Get godoc
// @Summary Получить проект
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID проекта"
// @Success 200 {object} response.Response{data=models.Project}
// @Failure 404 {object} response.ErrorResponse
// @Router /projects/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.projects.Get")

	actor, ok := middlewarectx.ActorFrom(r.Context())
	if !ok {
		response.Unauthorized(w, r)
		return
	}
	p, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"), actor.UserID)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(p))
}

// Update godoc
// @Summary Изменить проект
// @Description Частичное обновление: непереданные поля не меняются.
// @Tags Projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID проекта"
// @Param request body models.ProjectPatch true "Изменяемые поля"
// @Success 200 {object} response.Response{data=models.Project}
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse "Проект изменён параллельно"
// @Failure 422 {object} response.ErrorResponse
// @Router /projects/{id} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.projects.Update")

	actor, ok := middlewarectx.ActorFrom(r.Context())
	if !ok {
		response.Unauthorized(w, r)
		return
	}
	var patch models.ProjectPatch
	if err := request.DecodeJSON(r, &patch); err != nil {
		response.WriteError(w, r, log, err)
		return
	}

	p, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), actor.UserID, patch)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(p))
}

type thumbnailRequest struct {
	ThumbnailURL string `json:"thumbnail_url"`
}

// UpdateThumbnail godoc
// @Summary Заменить миниатюру проекта
// @Tags Projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID проекта"
// @Param request body thumbnailRequest true "Адрес миниатюры"
// @Success 200 {object} response.Response{data=models.Project}
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /projects/{id}/thumbnail [put]
func (h *Handler) UpdateThumbnail(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.projects.UpdateThumbnail")

	actor, ok := middlewarectx.ActorFrom(r.Context())
	if !ok {
		response.Unauthorized(w, r)
		return
	}
	var req thumbnailRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, log, err)
		return
	}

	p, err := h.service.UpdateThumbnail(r.Context(), chi.URLParam(r, "id"), actor.UserID, req.ThumbnailURL)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(p))
}

type duplicateRequest struct {
	Name *string `json:"name,omitempty"`
}

// Duplicate godoc
// @Summary Скопировать проект
// @Description Создаёт копию в статусе Draft. Без имени копия называется "<имя> (Copy)".
// @Tags Projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID проекта"
// @Param request body duplicateRequest false "Имя копии"
// @Success 201 {object} response.Response{data=models.Project}
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /projects/{id}/duplicate [post]
func (h *Handler) Duplicate(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.projects.Duplicate")

	actor, ok := middlewarectx.ActorFrom(r.Context())
	if !ok {
		response.Unauthorized(w, r)
		return
	}
	var req duplicateRequest
	if r.ContentLength != 0 {
		if err := request.DecodeJSON(r, &req); err != nil {
			response.WriteError(w, r, log, err)
			return
		}
	}

	p, err := h.service.Duplicate(r.Context(), chi.URLParam(r, "id"), actor.UserID, req.Name)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	log.Info("project duplicated", slog.String("project_id", p.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(p))
}

// Delete godoc
// @Summary Удалить проект
// @Description Удаление безвозвратное.
// @Tags Projects
// @Security BearerAuth
// @Param id path string true "ID проекта"
// @Success 204
// @Failure 404 {object} response.ErrorResponse
// @Router /projects/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.projects.Delete")

	actor, ok := middlewarectx.ActorFrom(r.Context())
	if !ok {
		response.Unauthorized(w, r)
		return
	}
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id"), actor.UserID); err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// List godoc
// @Summary Список проектов
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Param status query string false "Draft или Completed"
// @Param search query string false "Подстрока имени"
// @Param created_from query string false "RFC 3339"
// @Param created_to query string false "RFC 3339"
// @Param sort_by query string false "name, status, createdat, exportedat, updatedat"
// @Param sort_order query string false "asc или desc"
// @Param page query int false "Номер страницы"
// @Param page_size query int false "Размер страницы (до 100)"
// @Success 200 {object} response.Response{data=models.Page[models.Project]}
// @Failure 422 {object} response.ErrorResponse
// @Router /projects [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.projects.List")

	actor, ok := middlewarectx.ActorFrom(r.Context())
	if !ok {
		response.Unauthorized(w, r)
		return
	}
	f, err := parseFilter(r)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}

	page, err := h.service.List(r.Context(), actor.UserID, f)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	log.Debug("projects listed", slog.Int("count", len(page.Items)), slog.Int("total", page.TotalCount))
	render.JSON(w, r, response.OKWithData(page))
}

// Recent godoc
// @Summary Недавние проекты
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Param count query int false "Количество (по умолчанию 5)"
// @Success 200 {object} response.Response{data=[]models.Project}
// @Router /projects/recent [get]
func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.projects.Recent")

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

func parseFilter(r *http.Request) (models.ProjectFilter, error) {
	q := r.URL.Query()

	var f models.ProjectFilter
	if s := request.String(q, "status"); s != nil {
		st := models.ProjectStatus(*s)
		f.Status = &st
	}
	if s := request.String(q, "search"); s != nil {
		f.Search = *s
	}

	var err error
	if f.CreatedFrom, err = request.Time(q, "created_from"); err != nil {
		return f, err
	}
	if f.CreatedTo, err = request.Time(q, "created_to"); err != nil {
		return f, err
	}
	if f.SortBy, f.SortDesc, err = request.Sort(q); err != nil {
		return f, err
	}
	if f.Pagination, err = request.Pagination(q); err != nil {
		return f, err
	}
	return f, nil
}
