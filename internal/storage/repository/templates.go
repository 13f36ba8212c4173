package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/content-generator/internal/models"
)

const templateColumns = `id, name, description, category, thumbnail_url, template_data,
	is_premium, is_active, created_by, created_at, updated_at`

var templateSortColumns = map[string]string{
	"name":      "name",
	"category":  "category",
	"ispremium": "is_premium",
	"createdat": "created_at",
}

func scanTemplate(row rowScanner) (*models.Template, error) {
	var t models.Template
	var createdBy sql.NullString
	if err := row.Scan(&t.ID, &t.Name, &t.Description, &t.Category, &t.ThumbnailURL, &t.TemplateData,
		&t.IsPremium, &t.IsActive, &createdBy, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.CreatedByID = stringPtr(createdBy)
	return &t, nil
}

func scanTemplates(rows *sql.Rows) ([]models.Template, error) {
	var result []models.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, rows.Close()
}

// CreateTemplate сохраняет новый шаблон.
func (s *Storage) CreateTemplate(ctx context.Context, t models.Template) (*models.Template, error) {
	const op = "storage.CreateTemplate"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO templates (name, description, category, thumbnail_url, template_data,
			      is_premium, is_active, created_by)
			  VALUES ($1, $2, $3, $4, COALESCE($5, '{}'::jsonb), $6, $7, $8)
			  RETURNING ` + templateColumns
	created, err := scanTemplate(s.DB.QueryRowContext(ctx, query,
		t.Name, t.Description, string(t.Category), t.ThumbnailURL, t.TemplateData,
		t.IsPremium, t.IsActive, nullStringPtr(t.CreatedByID)))
	if err != nil {
		return nil, mapError(op, err, "template not found")
	}
	return created, nil
}

// GetTemplate возвращает шаблон по ID независимо от признака активности.
func (s *Storage) GetTemplate(ctx context.Context, id string) (*models.Template, error) {
	const op = "storage.GetTemplate"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if !validID(id) {
		return nil, models.NotFound("template not found")
	}

	t, err := scanTemplate(s.DB.QueryRowContext(ctx,
		`SELECT `+templateColumns+` FROM templates WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(op, err, "template not found")
	}
	return t, nil
}

// UpdateTemplate изменяет только переданные поля шаблона.
func (s *Storage) UpdateTemplate(ctx context.Context, id string, patch models.TemplatePatch) (*models.Template, error) {
	const op = "storage.UpdateTemplate"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if !validID(id) {
		return nil, models.NotFound("template not found")
	}

	var category sql.NullString
	if patch.Category != nil {
		category = nullString(string(*patch.Category))
	}
	query := `UPDATE templates
			  SET name = COALESCE($2, name),
			      description = COALESCE($3, description),
			      category = COALESCE($4, category),
			      thumbnail_url = COALESCE($5, thumbnail_url),
			      template_data = COALESCE($6, template_data),
			      is_premium = COALESCE($7, is_premium),
			      is_active = COALESCE($8, is_active),
			      updated_at = now()
			  WHERE id = $1
			  RETURNING ` + templateColumns
	t, err := scanTemplate(s.DB.QueryRowContext(ctx, query, id,
		nullStringPtr(patch.Name), nullStringPtr(patch.Description), category,
		nullStringPtr(patch.ThumbnailURL), patch.TemplateData,
		nullBool(patch.IsPremium), nullBool(patch.IsActive)))
	if err != nil {
		return nil, mapError(op, err, "template not found")
	}
	return t, nil
}

// ToggleTemplateActive инвертирует признак активности шаблона.
func (s *Storage) ToggleTemplateActive(ctx context.Context, id string) (*models.Template, error) {
	const op = "storage.ToggleTemplateActive"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if !validID(id) {
		return nil, models.NotFound("template not found")
	}

	t, err := scanTemplate(s.DB.QueryRowContext(ctx,
		`UPDATE templates SET is_active = NOT is_active, updated_at = now()
		 WHERE id = $1 RETURNING `+templateColumns, id))
	if err != nil {
		return nil, mapError(op, err, "template not found")
	}
	return t, nil
}

// ListTemplates возвращает страницу шаблонов и общее количество подходящих записей.
func (s *Storage) ListTemplates(ctx context.Context, f models.TemplateFilter) ([]models.Template, int, error) {
	const op = "storage.ListTemplates"
	select {
	case <-ctx.Done():
		return nil, 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	active := true
	if f.IsActive != nil {
		active = *f.IsActive
	}
	var category sql.NullString
	if f.Category != nil {
		category = nullString(string(*f.Category))
	}
	where := ` WHERE is_active = $1
		  AND ($2::text IS NULL OR category = $2)
		  AND ($3::boolean IS NULL OR is_premium = $3)
		  AND ($4::text IS NULL OR name ILIKE '%' || $4 || '%' OR description ILIKE '%' || $4 || '%')`
	args := []any{active, category, nullBool(f.IsPremium), nullString(f.Search)}

	var total int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM templates`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	p := f.Pagination.Normalize()
	query := `SELECT ` + templateColumns + ` FROM templates` + where +
		` ORDER BY ` + orderBy(templateSortColumns, f.SortBy, "created_at DESC, id", f.SortDesc) +
		` LIMIT $5 OFFSET $6`
	rows, err := s.DB.QueryContext(ctx, query, append(args, p.PageSize, p.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	result, err := scanTemplates(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return result, total, nil
}

// FeaturedTemplates возвращает самые новые активные шаблоны.
func (s *Storage) FeaturedTemplates(ctx context.Context, count int) ([]models.Template, error) {
	const op = "storage.FeaturedTemplates"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT `+templateColumns+` FROM templates
		WHERE is_active = true ORDER BY created_at DESC, id LIMIT $1`, count)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	result, err := scanTemplates(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// TemplatesByCategory возвращает активные шаблоны категории, новые первыми.
func (s *Storage) TemplatesByCategory(ctx context.Context, category models.Category, count int) ([]models.Template, error) {
	const op = "storage.TemplatesByCategory"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT `+templateColumns+` FROM templates
		WHERE is_active = true AND category = $1 ORDER BY created_at DESC, id LIMIT $2`, string(category), count)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	result, err := scanTemplates(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
