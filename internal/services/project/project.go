// Package project управляет проектами пользователя. Все операции ограничены владельцем:
// чужой проект неотличим от отсутствующего.
package project

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/magabrotheeeer/content-generator/internal/lib/sl"
	"github.com/magabrotheeeer/content-generator/internal/models"
)

const (
	defaultRecentCount = 5
	copySuffix         = " (Copy)"
)

// Repository определяет методы хранилища проектов.
type Repository interface {
	CreateProject(ctx context.Context, p models.Project) (*models.Project, error)
	GetUserProject(ctx context.Context, id, userID string) (*models.Project, error)
	UpdateProject(ctx context.Context, p models.Project, expected time.Time) (*models.Project, error)
	UpdateProjectThumbnail(ctx context.Context, id, userID, url string) (*models.Project, error)
	DeleteUserProject(ctx context.Context, id, userID string) error
	ListUserProjects(ctx context.Context, userID string, f models.ProjectFilter) ([]models.Project, int, error)
	RecentUserProjects(ctx context.Context, userID string, count int) ([]models.Project, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// Templates выдаёт шаблон по идентификатору.
type Templates interface {
	GetByID(ctx context.Context, id string) (*models.Template, error)
}

// Auditor записывает действия в журнал.
type Auditor interface {
	Append(ctx context.Context, userID string, action models.ActionType, projectID *string, data models.Document) error
}

// Service реализует операции над проектами.
type Service struct {
	repo      Repository
	templates Templates
	audit     Auditor
	log       *slog.Logger
}

// New создаёт сервис проектов.
func New(repo Repository, templates Templates, audit Auditor, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		templates: templates,
		audit:     audit,
		log:       log,
	}
}

// Create создаёт проект в статусе Draft. Премиальный шаблон недоступен на бесплатном тарифе.
func (s *Service) Create(ctx context.Context, userID string, in models.CreateProjectInput) (*models.Project, error) {
	const op = "project.Create"

	in.Name = strings.TrimSpace(in.Name)
	if err := models.Validate(in); err != nil {
		return nil, err
	}

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, models.Wrap(err, "failed to load user")
	}

	var tpl *models.Template
	if in.TemplateID != nil {
		tpl, err = s.templates.GetByID(ctx, *in.TemplateID)
		if err != nil {
			return nil, models.Wrap(err, "failed to load template")
		}
		if !tpl.IsActive {
			return nil, models.InvalidInput("template is not available")
		}
		if tpl.IsPremium && !user.CanUsePremium() {
			return nil, models.Forbidden("premium template requires a paid subscription")
		}
	}

	canvas := in.CanvasData
	if canvas == nil && tpl != nil {
		canvas = tpl.TemplateData.Clone()
	}
	if canvas == nil {
		canvas = models.Document{}
	}

	p, err := s.repo.CreateProject(ctx, models.Project{
		UserID:     user.ID,
		TemplateID: in.TemplateID,
		Name:       in.Name,
		CanvasData: canvas,
		Width:      in.Width,
		Height:     in.Height,
		Status:     models.ProjectStatusDraft,
	})
	if err != nil {
		s.log.Error("failed to create project", slog.String("op", op), slog.String("user_id", userID), sl.Err(err))
		return nil, models.Wrap(err, "failed to create project")
	}
	s.log.Info("project created", slog.String("op", op), slog.String("user_id", userID), slog.String("project_id", p.ID))

	var templateUsed any
	if tpl != nil {
		templateUsed = tpl.Name
	}
	s.appendHistory(ctx, op, userID, models.ActionProjectCreated, &p.ID, models.Document{
		"projectName":  p.Name,
		"templateUsed": templateUsed,
	})
	if tpl != nil {
		s.appendHistory(ctx, op, userID, models.ActionTemplateUsed, &p.ID, models.Document{
			"templateName":     tpl.Name,
			"templateCategory": string(tpl.Category),
		})
	}
	return p, nil
}

// GetByID возвращает проект владельца.
func (s *Service) GetByID(ctx context.Context, id, userID string) (*models.Project, error) {
	p, err := s.repo.GetUserProject(ctx, id, userID)
	if err != nil {
		return nil, models.Wrap(err, "failed to load project")
	}
	return p, nil
}

// Update изменяет только переданные поля. Пустой патч возвращает проект без изменений.
// Если проект изменили параллельно, возвращается Conflict.
func (s *Service) Update(ctx context.Context, id, userID string, patch models.ProjectPatch) (*models.Project, error) {
	const op = "project.Update"

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}
	if err := models.Validate(patch); err != nil {
		return nil, err
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, models.InvalidInput("unknown project status %q", *patch.Status)
	}

	current, err := s.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	fields := patch.Fields()
	if len(fields) == 0 {
		return current, nil
	}

	next := apply(*current, patch)
	updated, err := s.repo.UpdateProject(ctx, next, current.UpdatedAt)
	if err != nil {
		return nil, models.Wrap(err, "failed to update project")
	}
	s.log.Info("project updated", slog.String("op", op), slog.String("project_id", id), slog.Any("fields", fields))

	s.appendHistory(ctx, op, userID, models.ActionProjectUpdated, &updated.ID, models.Document{
		"projectName":   updated.Name,
		"updatedFields": fieldsDoc(fields),
	})
	return updated, nil
}

// UpdateThumbnail меняет миниатюру проекта владельца.
func (s *Service) UpdateThumbnail(ctx context.Context, id, userID, url string) (*models.Project, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, models.InvalidInput("thumbnail url is required")
	}
	p, err := s.repo.UpdateProjectThumbnail(ctx, id, userID, url)
	if err != nil {
		return nil, models.Wrap(err, "failed to update thumbnail")
	}
	return p, nil
}

// Delete удаляет проект вместе с его записями журнала.
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	const op = "project.Delete"

	if err := s.repo.DeleteUserProject(ctx, id, userID); err != nil {
		return models.Wrap(err, "failed to delete project")
	}
	s.log.Info("project deleted", slog.String("op", op), slog.String("project_id", id))
	return nil
}

// Duplicate копирует проект в новый черновик. Имя по умолчанию — "<исходное> (Copy)".
func (s *Service) Duplicate(ctx context.Context, id, userID string, newName *string) (*models.Project, error) {
	const op = "project.Duplicate"

	src, err := s.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	name := truncate(src.Name+copySuffix, models.MaxNameLen)
	if newName != nil {
		name = strings.TrimSpace(*newName)
		if name == "" {
			return nil, models.InvalidInput("name is required")
		}
		if utf8.RuneCountInString(name) > models.MaxNameLen {
			return nil, models.InvalidInput("name must be at most %d", models.MaxNameLen)
		}
	}

	p, err := s.repo.CreateProject(ctx, models.Project{
		UserID:     src.UserID,
		TemplateID: src.TemplateID,
		Name:       name,
		CanvasData: src.CanvasData.Clone(),
		Width:      src.Width,
		Height:     src.Height,
		Status:     models.ProjectStatusDraft,
	})
	if err != nil {
		s.log.Error("failed to duplicate project", slog.String("op", op), slog.String("project_id", id), sl.Err(err))
		return nil, models.Wrap(err, "failed to duplicate project")
	}
	s.log.Info("project duplicated", slog.String("op", op), slog.String("from", id), slog.String("project_id", p.ID))

	s.appendHistory(ctx, op, userID, models.ActionProjectCreated, &p.ID, models.Document{
		"projectName":    p.Name,
		"duplicatedFrom": src.Name,
	})
	return p, nil
}

// List возвращает страницу проектов пользователя.
func (s *Service) List(ctx context.Context, userID string, f models.ProjectFilter) (*models.Page[models.Project], error) {
	if f.Status != nil && !f.Status.Valid() {
		return nil, models.InvalidInput("unknown project status %q", *f.Status)
	}
	if f.CreatedFrom != nil && f.CreatedTo != nil && f.CreatedFrom.After(*f.CreatedTo) {
		return nil, models.InvalidInput("created_from must not be after created_to")
	}
	f.Search = strings.TrimSpace(f.Search)
	f.Pagination = f.Pagination.Normalize()

	items, total, err := s.repo.ListUserProjects(ctx, userID, f)
	if err != nil {
		return nil, models.Wrap(err, "failed to load projects")
	}
	return models.NewPage(items, total, f.Pagination), nil
}

// Recent возвращает последние изменённые проекты пользователя.
func (s *Service) Recent(ctx context.Context, userID string, count int) ([]models.Project, error) {
	if count <= 0 {
		count = defaultRecentCount
	}
	if count > models.MaxPageSize {
		count = models.MaxPageSize
	}
	items, err := s.repo.RecentUserProjects(ctx, userID, count)
	if err != nil {
		return nil, models.Wrap(err, "failed to load projects")
	}
	if items == nil {
		items = []models.Project{}
	}
	return items, nil
}

func (s *Service) appendHistory(ctx context.Context, op, userID string, action models.ActionType, projectID *string, data models.Document) {
	if err := s.audit.Append(ctx, userID, action, projectID, data); err != nil {
		attrs := []any{slog.String("op", op), slog.String("user_id", userID), slog.String("action", string(action)), sl.Err(err)}
		if projectID != nil {
			attrs = append(attrs, slog.String("project_id", *projectID))
		}
		s.log.Warn("failed to append history", attrs...)
	}
}

func apply(p models.Project, patch models.ProjectPatch) models.Project {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.CanvasData != nil {
		p.CanvasData = patch.CanvasData
	}
	if patch.ThumbnailURL != nil {
		p.ThumbnailURL = patch.ThumbnailURL
	}
	if patch.Width != nil {
		p.Width = *patch.Width
	}
	if patch.Height != nil {
		p.Height = *patch.Height
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	return p
}

func fieldsDoc(fields []string) []any {
	out := make([]any, len(fields))
	for i, f := range fields {
		out[i] = f
	}
	return out
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
