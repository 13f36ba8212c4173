package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/content-generator/internal/models"
)

const projectColumns = `id, user_id, template_id, name, canvas_data, thumbnail_url,
	width, height, status, exported_at, created_at, updated_at`

var projectSortColumns = map[string]string{
	"name":       "name",
	"status":     "status",
	"createdat":  "created_at",
	"exportedat": "exported_at",
	"updatedat":  "updated_at",
}

func scanProject(row rowScanner) (*models.Project, error) {
	var p models.Project
	var templateID, thumbnail sql.NullString
	var exportedAt sql.NullTime
	if err := row.Scan(&p.ID, &p.UserID, &templateID, &p.Name, &p.CanvasData, &thumbnail,
		&p.Width, &p.Height, &p.Status, &exportedAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.TemplateID = stringPtr(templateID)
	p.ThumbnailURL = stringPtr(thumbnail)
	p.ExportedAt = timePtr(exportedAt)
	return &p, nil
}

func scanProjects(rows *sql.Rows) ([]models.Project, error) {
	var result []models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, rows.Close()
}

// CreateProject сохраняет новый проект.
func (s *Storage) CreateProject(ctx context.Context, p models.Project) (*models.Project, error) {
	const op = "storage.CreateProject"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO projects (user_id, template_id, name, canvas_data, thumbnail_url,
			      width, height, status, exported_at)
			  VALUES ($1, $2, $3, COALESCE($4, '{}'::jsonb), $5, $6, $7, $8, $9)
			  RETURNING ` + projectColumns
	created, err := scanProject(s.DB.QueryRowContext(ctx, query,
		p.UserID, nullStringPtr(p.TemplateID), p.Name, p.CanvasData, nullStringPtr(p.ThumbnailURL),
		p.Width, p.Height, string(p.Status), nullTime(p.ExportedAt)))
	if err != nil {
		return nil, mapError(op, err, "project not found")
	}
	return created, nil
}

// GetUserProject возвращает проект, только если он принадлежит пользователю.
// Чужой проект неотличим от отсутствующего.
func (s *Storage) GetUserProject(ctx context.Context, id, userID string) (*models.Project, error) {
	const op = "storage.GetUserProject"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if !validID(id) || !validID(userID) {
		return nil, models.NotFound("project not found")
	}

	p, err := scanProject(s.DB.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		return nil, mapError(op, err, "project not found")
	}
	return p, nil
}

// UpdateProject записывает изменяемые поля проекта, если с момента чтения (expected)
// его никто не изменил. Проигравшая гонку запись получает Conflict.
func (s *Storage) UpdateProject(ctx context.Context, p models.Project, expected time.Time) (*models.Project, error) {
	const op = "storage.UpdateProject"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if !validID(p.ID) || !validID(p.UserID) {
		return nil, models.NotFound("project not found")
	}

	query := `UPDATE projects
			  SET name = $3, canvas_data = COALESCE($4, canvas_data), thumbnail_url = $5,
			      width = $6, height = $7, status = $8, updated_at = now()
			  WHERE id = $1 AND user_id = $2 AND updated_at = $9
			  RETURNING ` + projectColumns
	updated, err := scanProject(s.DB.QueryRowContext(ctx, query, p.ID, p.UserID,
		p.Name, p.CanvasData, nullStringPtr(p.ThumbnailURL), p.Width, p.Height, string(p.Status), expected))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, mapError(op, err, "project not found")
	}

	exists, err := s.projectExists(ctx, p.ID, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return nil, models.NotFound("project not found")
	}
	return nil, models.Conflict("project was modified concurrently")
}

func (s *Storage) projectExists(ctx context.Context, id, userID string) (bool, error) {
	var exists bool
	err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1 AND user_id = $2)`, id, userID).Scan(&exists)
	return exists, err
}

// UpdateProjectThumbnail меняет ссылку на миниатюру проекта владельца.
func (s *Storage) UpdateProjectThumbnail(ctx context.Context, id, userID, url string) (*models.Project, error) {
	const op = "storage.UpdateProjectThumbnail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if !validID(id) || !validID(userID) {
		return nil, models.NotFound("project not found")
	}

	p, err := scanProject(s.DB.QueryRowContext(ctx,
		`UPDATE projects SET thumbnail_url = $3, updated_at = now()
		 WHERE id = $1 AND user_id = $2 RETURNING `+projectColumns, id, userID, url))
	if err != nil {
		return nil, mapError(op, err, "project not found")
	}
	return p, nil
}

// DeleteUserProject удаляет проект владельца вместе с его записями журнала.
func (s *Storage) DeleteUserProject(ctx context.Context, id, userID string) error {
	const op = "storage.DeleteUserProject"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if !validID(id) || !validID(userID) {
		return models.NotFound("project not found")
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM projects WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return models.NotFound("project not found")
	}
	return nil
}

// ListUserProjects возвращает страницу проектов пользователя и общее количество подходящих записей.
func (s *Storage) ListUserProjects(ctx context.Context, userID string, f models.ProjectFilter) ([]models.Project, int, error) {
	const op = "storage.ListUserProjects"
	select {
	case <-ctx.Done():
		return nil, 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if !validID(userID) {
		return nil, 0, nil
	}

	var status sql.NullString
	if f.Status != nil {
		status = nullString(string(*f.Status))
	}
	where := ` WHERE user_id = $1
		  AND ($2::text IS NULL OR status = $2)
		  AND ($3::text IS NULL OR name ILIKE '%' || $3 || '%')
		  AND ($4::timestamptz IS NULL OR created_at >= $4)
		  AND ($5::timestamptz IS NULL OR created_at <= $5)`
	args := []any{userID, status, nullString(f.Search), nullTime(f.CreatedFrom), nullTime(f.CreatedTo)}

	var total int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	p := f.Pagination.Normalize()
	query := `SELECT ` + projectColumns + ` FROM projects` + where +
		` ORDER BY ` + orderBy(projectSortColumns, f.SortBy, "updated_at DESC, id", f.SortDesc) +
		` LIMIT $6 OFFSET $7`
	rows, err := s.DB.QueryContext(ctx, query, append(args, p.PageSize, p.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	result, err := scanProjects(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return result, total, nil
}

// RecentUserProjects возвращает последние изменённые проекты пользователя.
func (s *Storage) RecentUserProjects(ctx context.Context, userID string, count int) ([]models.Project, error) {
	const op = "storage.RecentUserProjects"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if !validID(userID) {
		return nil, nil
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects
		WHERE user_id = $1 ORDER BY updated_at DESC, id LIMIT $2`, userID, count)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	result, err := scanProjects(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
