package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/content-generator/internal/models"
)

const historyColumns = `id, user_id, project_id, action_type, action_data, created_at`

var historySortColumns = map[string]string{
	"createdat":  "created_at",
	"actiontype": "action_type",
}

func scanHistoryEntries(rows *sql.Rows) ([]models.HistoryEntry, error) {
	var result []models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		var projectID sql.NullString
		if err := rows.Scan(&e.ID, &e.UserID, &projectID, &e.ActionType, &e.ActionData, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.ProjectID = stringPtr(projectID)
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, rows.Close()
}

// AppendHistory добавляет запись в журнал действий. Существующие записи не изменяются.
func (s *Storage) AppendHistory(ctx context.Context, e models.HistoryEntry) (*models.HistoryEntry, error) {
	const op = "storage.AppendHistory"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO history (user_id, project_id, action_type, action_data)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id, created_at`
	out := e
	if err := s.DB.QueryRowContext(ctx, query,
		e.UserID, nullStringPtr(e.ProjectID), string(e.ActionType), e.ActionData).Scan(&out.ID, &out.CreatedAt); err != nil {
		return nil, mapError(op, err, "history entry not found")
	}
	return &out, nil
}

// ListHistory возвращает страницу журнала пользователя и общее количество подходящих записей.
func (s *Storage) ListHistory(ctx context.Context, userID string, f models.HistoryFilter) ([]models.HistoryEntry, int, error) {
	const op = "storage.ListHistory"
	select {
	case <-ctx.Done():
		return nil, 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if !validID(userID) {
		return nil, 0, nil
	}
	if f.ProjectID != nil && !validID(*f.ProjectID) {
		return nil, 0, nil
	}

	var actionType sql.NullString
	if f.ActionType != nil {
		actionType = nullString(string(*f.ActionType))
	}
	where := ` WHERE user_id = $1
		  AND ($2::text IS NULL OR action_type = $2)
		  AND ($3::uuid IS NULL OR project_id = $3)
		  AND ($4::timestamptz IS NULL OR created_at >= $4)
		  AND ($5::timestamptz IS NULL OR created_at <= $5)`
	args := []any{userID, actionType, nullStringPtr(f.ProjectID), nullTime(f.From), nullTime(f.To)}

	var total int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM history`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	p := f.Pagination.Normalize()
	query := `SELECT ` + historyColumns + ` FROM history` + where +
		` ORDER BY ` + orderBy(historySortColumns, f.SortBy, "created_at DESC, id", f.SortDesc) +
		` LIMIT $6 OFFSET $7`
	rows, err := s.DB.QueryContext(ctx, query, append(args, p.PageSize, p.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	result, err := scanHistoryEntries(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return result, total, nil
}

// RecentHistory возвращает последние записи журнала пользователя.
func (s *Storage) RecentHistory(ctx context.Context, userID string, count int) ([]models.HistoryEntry, error) {
	const op = "storage.RecentHistory"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if !validID(userID) {
		return nil, nil
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT `+historyColumns+` FROM history
		WHERE user_id = $1 ORDER BY created_at DESC, id LIMIT $2`, userID, count)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	result, err := scanHistoryEntries(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// DeleteHistory удаляет записи журнала пользователя. Если olderThan задан,
// удаляются только записи, созданные строго раньше этого момента.
func (s *Storage) DeleteHistory(ctx context.Context, userID string, olderThan *time.Time) (int, error) {
	const op = "storage.DeleteHistory"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if !validID(userID) {
		return 0, nil
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM history
		WHERE user_id = $1 AND ($2::timestamptz IS NULL OR created_at < $2)`, userID, nullTime(olderThan))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}
