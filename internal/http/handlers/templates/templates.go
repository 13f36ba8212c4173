// Package templates реализует HTTP-обработчики каталога шаблонов.
// Чтение доступно любому пользователю, изменения только администратору.
package templates

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

// Service описывает операции каталога.
type Service interface {
	GetByID(ctx context.Context, id string) (*models.Template, error)
	ListByCategory(ctx context.Context, category models.Category, count int) ([]models.Template, error)
	ListFeatured(ctx context.Context, count int) ([]models.Template, error)
	Search(ctx context.Context, term string) ([]models.Template, error)
	List(ctx context.Context, f models.TemplateFilter) (*models.Page[models.Template], error)
	Create(ctx context.Context, actor models.Actor, in models.TemplateInput) (*models.Template, error)
	Update(ctx context.Context, actor models.Actor, id string, patch models.TemplatePatch) (*models.Template, error)
	Delete(ctx context.Context, actor models.Actor, id string) error
	ToggleActive(ctx context.Context, actor models.Actor, id string) (*models.Template, error)
}

// Handler обслуживает /templates.
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

// Routes регистрирует маршруты каталога. Изменяющие маршруты закрыты RequireAdmin.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/featured", h.Featured)
	r.Get("/search", h.Search)
	r.Get("/category/{category}", h.ByCategory)
	r.Get("/{id}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(middlewarectx.RequireAdmin(h.log))
		r.Post("/", h.Create)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Post("/{id}/toggle-active", h.ToggleActive)
	})
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// Get godoc
// @Summary Получить шаблон
// @Tags Templates
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID шаблона"
// @Success 200 {object} response.Response{data=models.Template}
// @Failure 404 {object} response.ErrorResponse
// @Router /templates/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.templates.Get")

	t, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(t))
}

// List godoc
// @Summary Список шаблонов
// @Description По умолчанию только активные. Неактивные видит только администратор.
// @Tags Templates
// @Produce json
// @Security BearerAuth
// @Param category query string false "SocialMedia, Marketing, Presentation, Print, Web, Other"
// @Param is_premium query bool false "Премиальные"
// @Param is_active query bool false "Активные (только для администратора)"
// @Param search query string false "Подстрока имени или описания"
// @Param sort_by query string false "name, category, ispremium, createdat"
// @Param sort_order query string false "asc или desc"
// @Param page query int false "Номер страницы"
// @Param page_size query int false "Размер страницы (до 100)"
// @Success 200 {object} response.Response{data=models.Page[models.Template]}
// @Failure 422 {object} response.ErrorResponse
// @Router /templates [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.templates.List")

	f, err := parseFilter(r)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	if actor, ok := middlewarectx.ActorFrom(r.Context()); !ok || !actor.IsAdmin() {
		f.IsActive = nil
	}

	page, err := h.service.List(r.Context(), f)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(page))
}

// Featured godoc
// @Summary Новые шаблоны
// @Tags Templates
// @Produce json
// @Security BearerAuth
// @Param count query int false "Количество (по умолчанию 10)"
// @Success 200 {object} response.Response{data=[]models.Template}
// @Router /templates/featured [get]
func (h *Handler) Featured(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.templates.Featured")

	count, err := request.Int(r.URL.Query(), "count", 0)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	items, err := h.service.ListFeatured(r.Context(), count)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(items))
}

// Search godoc
// @Summary Поиск шаблонов
// @Tags Templates
// @Produce json
// @Security BearerAuth
// @Param q query string true "Строка поиска"
// @Success 200 {object} response.Response{data=[]models.Template}
// @Failure 422 {object} response.ErrorResponse
// @Router /templates/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.templates.Search")

	items, err := h.service.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(items))
}

// ByCategory godoc
// @Summary Шаблоны категории
// @Tags Templates
// @Produce json
// @Security BearerAuth
// @Param category path string true "Категория"
// @Param count query int false "Количество (по умолчанию 20)"
// @Success 200 {object} response.Response{data=[]models.Template}
// @Failure 422 {object} response.ErrorResponse
// @Router /templates/category/{category} [get]
func (h *Handler) ByCategory(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.templates.ByCategory")

	count, err := request.Int(r.URL.Query(), "count", 0)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	items, err := h.service.ListByCategory(r.Context(), models.Category(chi.URLParam(r, "category")), count)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(items))
}

// Create godoc
// @Summary Создать шаблон
// @Tags Templates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.TemplateInput true "Данные шаблона"
// @Success 201 {object} response.Response{data=models.Template}
// @Failure 403 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /templates [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.templates.Create")

	actor, ok := middlewarectx.ActorFrom(r.Context())
	if !ok {
		response.Unauthorized(w, r)
		return
	}
	var in models.TemplateInput
	if err := request.DecodeJSON(r, &in); err != nil {
		response.WriteError(w, r, log, err)
		return
	}

	t, err := h.service.Create(r.Context(), actor, in)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	log.Info("template created", slog.String("template_id", t.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(t))
}

// Update godoc
// @Summary Изменить шаблон
// @Tags Templates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID шаблона"
// @Param request body models.TemplatePatch true "Изменяемые поля"
// @Success 200 {object} response.Response{data=models.Template}
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /templates/{id} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.templates.Update")

	actor, ok := middlewarectx.ActorFrom(r.Context())
	if !ok {
		response.Unauthorized(w, r)
		return
	}
	var patch models.TemplatePatch
	if err := request.DecodeJSON(r, &patch); err != nil {
		response.WriteError(w, r, log, err)
		return
	}

	t, err := h.service.Update(r.Context(), actor, chi.URLParam(r, "id"), patch)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(t))
}

// Delete godoc
// @Summary Скрыть шаблон
// @Description Мягкое удаление: шаблон становится неактивным, проекты сохраняют ссылку.
// @Tags Templates
// @Security BearerAuth
// @Param id path string true "ID шаблона"
// @Success 204
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /templates/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.templates.Delete")

	actor, ok := middlewarectx.ActorFrom(r.Context())
	if !ok {
		response.Unauthorized(w, r)
		return
	}
	if err := h.service.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleActive godoc
// @Summary Переключить активность шаблона
// @Tags Templates
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID шаблона"
// @Success 200 {object} response.Response{data=models.Template}
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /templates/{id}/toggle-active [post]
func (h *Handler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.templates.ToggleActive")

	actor, ok := middlewarectx.ActorFrom(r.Context())
	if !ok {
		response.Unauthorized(w, r)
		return
	}
	t, err := h.service.ToggleActive(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(t))
}

func parseFilter(r *http.Request) (models.TemplateFilter, error) {
	q := r.URL.Query()

	var f models.TemplateFilter
	if s := request.String(q, "category"); s != nil {
		c := models.Category(*s)
		f.Category = &c
	}
	if s := request.String(q, "search"); s != nil {
		f.Search = *s
	}

	var err error
	if f.IsPremium, err = request.Bool(q, "is_premium"); err != nil {
		return f, err
	}
	if f.IsActive, err = request.Bool(q, "is_active"); err != nil {
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
