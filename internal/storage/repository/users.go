package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/content-generator/internal/models"
)

const userColumns = `id, email, username, subscription_tier, subscription_expires_at,
	monthly_exports_used, monthly_exports_limit, is_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var expires sql.NullTime
	if err := row.Scan(&u.ID, &u.Email, &u.Username, &u.Tier, &expires,
		&u.MonthlyExportsUsed, &u.MonthlyExportsLimit, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.SubscriptionExpiresAt = timePtr(expires)
	return &u, nil
}

// CreateUser сохраняет нового пользователя и возвращает его с заполненными идентификатором и метками времени.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (email, username, subscription_tier, subscription_expires_at,
			      monthly_exports_used, monthly_exports_limit, is_active)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING ` + userColumns
	u, err := scanUser(s.DB.QueryRowContext(ctx, query,
		user.Email, user.Username, string(user.Tier), nullTime(user.SubscriptionExpiresAt),
		user.MonthlyExportsUsed, user.MonthlyExportsLimit, user.IsActive))
	if err != nil {
		return nil, mapError(op, err, "user not found")
	}
	return u, nil
}

// GetUser возвращает пользователя по его ID.
func (s *Storage) GetUser(ctx context.Context, id string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if !validID(id) {
		return nil, models.NotFound("user not found")
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(op, err, "user not found")
	}
	return u, nil
}

// IncrementExports увеличивает счётчик экспортов на единицу, только если лимит ещё не исчерпан.
func (s *Storage) IncrementExports(ctx context.Context, id string) (*models.User, error) {
	const op = "storage.IncrementExports"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if !validID(id) {
		return nil, models.NotFound("user not found")
	}

	query := `UPDATE users
			  SET monthly_exports_used = monthly_exports_used + 1, updated_at = now()
			  WHERE id = $1 AND monthly_exports_used < monthly_exports_limit
			  RETURNING ` + userColumns
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, id))
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, mapError(op, err, "user not found")
	}

	var exists bool
	if err := s.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return nil, models.NotFound("user not found")
	}
	return nil, models.QuotaExceeded("monthly export limit reached")
}

// ResetMonthlyExports обнуляет счётчик экспортов пользователя.
func (s *Storage) ResetMonthlyExports(ctx context.Context, id string) error {
	const op = "storage.ResetMonthlyExports"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if !validID(id) {
		return models.NotFound("user not found")
	}

	result, err := s.DB.ExecContext(ctx,
		`UPDATE users SET monthly_exports_used = 0, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return models.NotFound("user not found")
	}
	return nil
}

// ResetAllMonthlyExports обнуляет счётчики всех пользователей и возвращает количество изменённых строк.
func (s *Storage) ResetAllMonthlyExports(ctx context.Context) (int, error) {
	const op = "storage.ResetAllMonthlyExports"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx,
		`UPDATE users SET monthly_exports_used = 0, updated_at = now() WHERE monthly_exports_used <> 0`)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// UpdateSubscription меняет тариф, срок его действия и месячный лимит экспортов.
func (s *Storage) UpdateSubscription(ctx context.Context, id string, tier models.Tier,
	expiresAt *time.Time, exportsLimit int) (*models.User, error) {
	const op = "storage.UpdateSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if !validID(id) {
		return nil, models.NotFound("user not found")
	}

	query := `UPDATE users
			  SET subscription_tier = $2, subscription_expires_at = $3,
			      monthly_exports_limit = $4, updated_at = now()
			  WHERE id = $1
			  RETURNING ` + userColumns
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, id, string(tier), nullTime(expiresAt), exportsLimit))
	if err != nil {
		return nil, mapError(op, err, "user not found")
	}
	return u, nil
}
