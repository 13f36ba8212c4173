package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/content-generator/internal/models"
)

// CommitExport в одной транзакции списывает экспорт из квоты пользователя и помечает проект
// завершённым. Строка пользователя блокируется до конца транзакции, поэтому параллельные
// фиксации одного пользователя выполняются по очереди и не превышают лимит.
func (s *Storage) CommitExport(ctx context.Context, userID, projectID string, exportedAt time.Time) (*models.Project, error) {
	const op = "storage.CommitExport"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if !validID(userID) || !validID(projectID) {
		return nil, models.NotFound("project not found")
	}

	var project *models.Project
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var used, limit int
		err := tx.QueryRowContext(ctx, `SELECT monthly_exports_used, monthly_exports_limit
			FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&used, &limit)
		if err != nil {
			return mapError(op, err, "user not found")
		}
		if used >= limit {
			return models.QuotaExceeded("monthly export limit reached")
		}

		project, err = scanProject(tx.QueryRowContext(ctx, `UPDATE projects
			SET status = $3, exported_at = $4, updated_at = now()
			WHERE id = $1 AND user_id = $2
			RETURNING `+projectColumns, projectID, userID, string(models.ProjectStatusCompleted), exportedAt))
		if err != nil {
			return mapError(op, err, "project not found")
		}

		if _, err := tx.ExecContext(ctx, `UPDATE users
			SET monthly_exports_used = monthly_exports_used + 1, updated_at = now()
			WHERE id = $1`, userID); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	})
	if err != nil {
		if models.KindOf(err) != models.KindInternal {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return project, nil
}
