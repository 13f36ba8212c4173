// Package history ведёт журнал действий пользователей. Записи только добавляются;
// удалить их можно лишь массовой очисткой.
package history

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/content-generator/internal/lib/sl"
	"github.com/magabrotheeeer/content-generator/internal/models"
)

const (
	defaultRecentCount = 10
	appendTimeout      = 5 * time.Second
)

// Repository определяет методы хранилища журнала.
type Repository interface {
	AppendHistory(ctx context.Context, e models.HistoryEntry) (*models.HistoryEntry, error)
	ListHistory(ctx context.Context, userID string, f models.HistoryFilter) ([]models.HistoryEntry, int, error)
	RecentHistory(ctx context.Context, userID string, count int) ([]models.HistoryEntry, error)
	DeleteHistory(ctx context.Context, userID string, olderThan *time.Time) (int, error)
}

// Metrics учитывает несохранённые записи.
type Metrics interface {
	RecordAuditFailure(actionType string)
}

// Service реализует журнал действий.
type Service struct {
	repo    Repository
	metrics Metrics
	log     *slog.Logger
}

// New создаёт сервис журнала.
func New(repo Repository, metrics Metrics, log *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		metrics: metrics,
		log:     log,
	}
}

// Append добавляет запись в журнал. Запись выполняется даже если контекст запроса
// уже отменён: основная операция к этому моменту зафиксирована.
// Ошибка учитывается в метриках; решение о продолжении принимает вызывающий.
func (s *Service) Append(ctx context.Context, userID string, action models.ActionType,
	projectID *string, data models.Document) error {
	if !action.Valid() {
		return models.InvalidInput("unknown action type %q", action)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), appendTimeout)
	defer cancel()

	_, err := s.repo.AppendHistory(ctx, models.HistoryEntry{
		UserID:     userID,
		ProjectID:  projectID,
		ActionType: action,
		ActionData: data,
	})
	if err != nil {
		s.metrics.RecordAuditFailure(string(action))
		return models.Wrap(err, "failed to append history entry")
	}
	return nil
}

// Query возвращает страницу журнала пользователя.
func (s *Service) Query(ctx context.Context, userID string, f models.HistoryFilter) (*models.Page[models.HistoryEntry], error) {
	const op = "history.Query"

	if f.ActionType != nil && !f.ActionType.Valid() {
		return nil, models.InvalidInput("unknown action type %q", *f.ActionType)
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return nil, models.InvalidInput("date range start is after its end")
	}
	f.Pagination = f.Pagination.Normalize()

	items, total, err := s.repo.ListHistory(ctx, userID, f)
	if err != nil {
		s.log.Error("failed to list history", slog.String("op", op), slog.String("user_id", userID), sl.Err(err))
		return nil, models.Wrap(err, "failed to load history")
	}
	return models.NewPage(items, total, f.Pagination), nil
}

// Recent возвращает последние count записей пользователя.
func (s *Service) Recent(ctx context.Context, userID string, count int) ([]models.HistoryEntry, error) {
	const op = "history.Recent"

	if count <= 0 {
		count = defaultRecentCount
	}
	if count > models.MaxPageSize {
		count = models.MaxPageSize
	}
	items, err := s.repo.RecentHistory(ctx, userID, count)
	if err != nil {
		s.log.Error("failed to load recent history", slog.String("op", op), slog.String("user_id", userID), sl.Err(err))
		return nil, models.Wrap(err, "failed to load history")
	}
	if items == nil {
		items = []models.HistoryEntry{}
	}
	return items, nil
}

// Clear удаляет записи пользователя, созданные раньше olderThan, или все записи, если olderThan не задан.
func (s *Service) Clear(ctx context.Context, userID string, olderThan *time.Time) (int, error) {
	const op = "history.Clear"

	n, err := s.repo.DeleteHistory(ctx, userID, olderThan)
	if err != nil {
		s.log.Error("failed to clear history", slog.String("op", op), slog.String("user_id", userID), sl.Err(err))
		return 0, models.Wrap(err, "failed to clear history")
	}
	s.log.Info("history cleared", slog.String("op", op), slog.String("user_id", userID), slog.Int("removed", n))
	return n, nil
}
