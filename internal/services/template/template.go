// Package template реализует каталог шаблонов: чтение для всех пользователей
// и изменение только администратором. Шаблоны удаляются мягко.
package template

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/content-generator/internal/lib/sl"
	"github.com/magabrotheeeer/content-generator/internal/models"
)

const (
	defaultFeaturedCount   = 10
	defaultByCategoryCount = 20

	featuredPrefix = "templates:featured:"
)

// Operation — операция каталога. Привилегированные операции доступны только администратору.
type Operation string

const (
	OpGetByID        Operation = "template.get"
	OpList           Operation = "template.list"
	OpCreate         Operation = "template.create"
	OpUpdate         Operation = "template.update"
	OpDelete         Operation = "template.delete"
	OpToggleActive   Operation = "template.toggle_active"
	OpListByCategory Operation = "template.list_by_category"
	OpListFeatured   Operation = "template.list_featured"
	OpSearch         Operation = "template.search"
)

// Privileged сообщает, требует ли операция повышенных привилегий.
func (o Operation) Privileged() bool {
	switch o {
	case OpCreate, OpUpdate, OpDelete, OpToggleActive:
		return true
	}
	return false
}

// Authorize проверяет, может ли actor выполнить операцию.
func Authorize(actor models.Actor, op Operation) error {
	if op.Privileged() && !actor.IsAdmin() {
		return models.Forbidden("administrator privileges required")
	}
	return nil
}

// Repository определяет методы хранилища шаблонов.
type Repository interface {
	CreateTemplate(ctx context.Context, t models.Template) (*models.Template, error)
	GetTemplate(ctx context.Context, id string) (*models.Template, error)
	UpdateTemplate(ctx context.Context, id string, patch models.TemplatePatch) (*models.Template, error)
	ToggleTemplateActive(ctx context.Context, id string) (*models.Template, error)
	ListTemplates(ctx context.Context, f models.TemplateFilter) ([]models.Template, int, error)
	FeaturedTemplates(ctx context.Context, count int) ([]models.Template, error)
	TemplatesByCategory(ctx context.Context, category models.Category, count int) ([]models.Template, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
	InvalidatePrefix(ctx context.Context, prefix string) error
}

// Auditor записывает действия в журнал.
type Auditor interface {
	Append(ctx context.Context, userID string, action models.ActionType, projectID *string, data models.Document) error
}

// Service реализует каталог шаблонов с кэшированием чтения.
type Service struct {
	repo  Repository
	cache Cache
	audit Auditor
	ttl   time.Duration
	log   *slog.Logger
}

// New создаёт сервис каталога.
func New(repo Repository, cache Cache, audit Auditor, ttl time.Duration, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		audit: audit,
		ttl:   ttl,
		log:   log,
	}
}

func templateKey(id string) string {
	return "template:" + id
}

// GetByID возвращает шаблон независимо от признака активности.
func (s *Service) GetByID(ctx context.Context, id string) (*models.Template, error) {
	const op = "template.GetByID"

	key := templateKey(id)
	var cached models.Template
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("failed to read template from cache", slog.String("op", op), slog.String("key", key), sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	t, err := s.repo.GetTemplate(ctx, id)
	if err != nil {
		return nil, models.Wrap(err, "failed to load template")
	}
	if err := s.cache.Set(ctx, key, t, s.ttl); err != nil {
		s.log.Warn("failed to cache template", slog.String("op", op), slog.String("key", key), sl.Err(err))
	}
	return t, nil
}

// ListByCategory возвращает до count активных шаблонов категории.
func (s *Service) ListByCategory(ctx context.Context, category models.Category, count int) ([]models.Template, error) {
	if !category.Valid() {
		return nil, models.InvalidInput("unknown template category %q", category)
	}
	items, err := s.repo.TemplatesByCategory(ctx, category, clampCount(count, defaultByCategoryCount))
	if err != nil {
		return nil, models.Wrap(err, "failed to load templates")
	}
	return nonNil(items), nil
}

// ListFeatured возвращает до count самых новых активных шаблонов.
func (s *Service) ListFeatured(ctx context.Context, count int) ([]models.Template, error) {
	const op = "template.ListFeatured"

	count = clampCount(count, defaultFeaturedCount)
	key := fmt.Sprintf("%s%d", featuredPrefix, count)
	var cached []models.Template
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("failed to read featured templates from cache", slog.String("op", op), sl.Err(err))
	}
	if found {
		return nonNil(cached), nil
	}

	items, err := s.repo.FeaturedTemplates(ctx, count)
	if err != nil {
		return nil, models.Wrap(err, "failed to load templates")
	}
	items = nonNil(items)
	if err := s.cache.Set(ctx, key, items, s.ttl); err != nil {
		s.log.Warn("failed to cache featured templates", slog.String("op", op), sl.Err(err))
	}
	return items, nil
}

// Search ищет активные шаблоны по вхождению term в название или описание без учёта регистра.
func (s *Service) Search(ctx context.Context, term string) ([]models.Template, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, models.InvalidInput("search term is required")
	}
	items, _, err := s.repo.ListTemplates(ctx, models.TemplateFilter{
		Search:     term,
		Pagination: models.Pagination{Page: 1, PageSize: models.MaxPageSize},
	})
	if err != nil {
		return nil, models.Wrap(err, "failed to search templates")
	}
	return nonNil(items), nil
}

// List возвращает страницу шаблонов. По умолчанию только активные, новые первыми.
func (s *Service) List(ctx context.Context, f models.TemplateFilter) (*models.Page[models.Template], error) {
	if f.Category != nil && !f.Category.Valid() {
		return nil, models.InvalidInput("unknown template category %q", *f.Category)
	}
	f.Search = strings.TrimSpace(f.Search)
	f.Pagination = f.Pagination.Normalize()

	items, total, err := s.repo.ListTemplates(ctx, f)
	if err != nil {
		return nil, models.Wrap(err, "failed to load templates")
	}
	return models.NewPage(items, total, f.Pagination), nil
}

// Create добавляет шаблон. Требует прав администратора.
func (s *Service) Create(ctx context.Context, actor models.Actor, in models.TemplateInput) (*models.Template, error) {
	const op = "template.Create"

	if err := Authorize(actor, OpCreate); err != nil {
		return nil, err
	}
	if err := models.Validate(in); err != nil {
		return nil, err
	}
	if !in.Category.Valid() {
		return nil, models.InvalidInput("unknown template category %q", in.Category)
	}

	var createdBy *string
	if actor.UserID != "" {
		id := actor.UserID
		createdBy = &id
	}
	t, err := s.repo.CreateTemplate(ctx, models.Template{
		Name:         strings.TrimSpace(in.Name),
		Description:  in.Description,
		Category:     in.Category,
		ThumbnailURL: in.ThumbnailURL,
		TemplateData: in.TemplateData,
		IsPremium:    in.IsPremium,
		IsActive:     true,
		CreatedByID:  createdBy,
	})
	if err != nil {
		s.log.Error("failed to create template", slog.String("op", op), sl.Err(err))
		return nil, models.Wrap(err, "failed to create template")
	}
	s.log.Info("template created", slog.String("op", op), slog.String("template_id", t.ID))
	s.invalidateLists(ctx)

	if actor.UserID != "" {
		if err := s.audit.Append(ctx, actor.UserID, models.ActionTemplateUsed, nil, models.Document{
			"action":       "Template created",
			"templateName": t.Name,
		}); err != nil {
			s.log.Warn("failed to append history", slog.String("op", op),
				slog.String("user_id", actor.UserID), slog.String("action", string(models.ActionTemplateUsed)), sl.Err(err))
		}
	}
	return t, nil
}

// Update изменяет переданные поля шаблона. Требует прав администратора.
func (s *Service) Update(ctx context.Context, actor models.Actor, id string, patch models.TemplatePatch) (*models.Template, error) {
	if err := Authorize(actor, OpUpdate); err != nil {
		return nil, err
	}
	if err := models.Validate(patch); err != nil {
		return nil, err
	}
	if patch.Category != nil && !patch.Category.Valid() {
		return nil, models.InvalidInput("unknown template category %q", *patch.Category)
	}
	return s.write(ctx, "template.Update", id, func() (*models.Template, error) {
		return s.repo.UpdateTemplate(ctx, id, patch)
	})
}

// Delete мягко удаляет шаблон: он становится неактивным, ссылки проектов сохраняются.
// Требует прав администратора.
func (s *Service) Delete(ctx context.Context, actor models.Actor, id string) error {
	if err := Authorize(actor, OpDelete); err != nil {
		return err
	}
	inactive := false
	_, err := s.write(ctx, "template.Delete", id, func() (*models.Template, error) {
		return s.repo.UpdateTemplate(ctx, id, models.TemplatePatch{IsActive: &inactive})
	})
	return err
}

// ToggleActive инвертирует признак активности шаблона. Требует прав администратора.
func (s *Service) ToggleActive(ctx context.Context, actor models.Actor, id string) (*models.Template, error) {
	if err := Authorize(actor, OpToggleActive); err != nil {
		return nil, err
	}
	return s.write(ctx, "template.ToggleActive", id, func() (*models.Template, error) {
		return s.repo.ToggleTemplateActive(ctx, id)
	})
}

func (s *Service) write(ctx context.Context, op, id string, fn func() (*models.Template, error)) (*models.Template, error) {
	t, err := fn()
	if err != nil {
		if models.KindOf(err) == models.KindInternal {
			s.log.Error("failed to modify template", slog.String("op", op), slog.String("template_id", id), sl.Err(err))
		}
		return nil, models.Wrap(err, "failed to modify template")
	}
	if err := s.cache.Invalidate(ctx, templateKey(id)); err != nil {
		s.log.Warn("failed to invalidate template cache", slog.String("op", op), slog.String("template_id", id), sl.Err(err))
	}
	s.invalidateLists(ctx)
	s.log.Info("template modified", slog.String("op", op), slog.String("template_id", id))
	return t, nil
}

func (s *Service) invalidateLists(ctx context.Context) {
	if err := s.cache.InvalidatePrefix(ctx, featuredPrefix); err != nil {
		s.log.Warn("failed to invalidate featured templates cache", sl.Err(err))
	}
}

func clampCount(count, def int) int {
	if count <= 0 {
		return def
	}
	if count > models.MaxPageSize {
		return models.MaxPageSize
	}
	return count
}

func nonNil(items []models.Template) []models.Template {
	if items == nil {
		return []models.Template{}
	}
	return items
}
