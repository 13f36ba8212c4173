// Package quota ведёт месячный учёт экспортов пользователя и смену тарифов.
package quota

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/content-generator/internal/lib/sl"
	"github.com/magabrotheeeer/content-generator/internal/models"
)

// Repository определяет методы хранилища пользователей.
type Repository interface {
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	IncrementExports(ctx context.Context, id string) (*models.User, error)
	ResetMonthlyExports(ctx context.Context, id string) error
	ResetAllMonthlyExports(ctx context.Context) (int, error)
	UpdateSubscription(ctx context.Context, id string, tier models.Tier, expiresAt *time.Time, exportsLimit int) (*models.User, error)
}

// Auditor записывает действия в журнал.
type Auditor interface {
	Append(ctx context.Context, userID string, action models.ActionType, projectID *string, data models.Document) error
}

// Metrics учитывает массовые сбросы счётчиков.
type Metrics interface {
	RecordQuotaResets(n int)
}

// Service — учёт квоты экспортов.
type Service struct {
	repo    Repository
	audit   Auditor
	metrics Metrics
	limits  models.TierLimits
	log     *slog.Logger
}

// New создаёт сервис квот.
func New(repo Repository, audit Auditor, metrics Metrics, limits models.TierLimits, log *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		audit:   audit,
		metrics: metrics,
		limits:  limits,
		log:     log,
	}
}

// Register заводит пользователя на бесплатном тарифе.
func (s *Service) Register(ctx context.Context, email, username string) (*models.User, error) {
	const op = "quota.Register"

	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)
	if email == "" || username == "" {
		return nil, models.InvalidInput("email and username are required")
	}

	u, err := s.repo.CreateUser(ctx, models.User{
		Email:               email,
		Username:            username,
		Tier:                models.TierFree,
		MonthlyExportsLimit: s.limits.For(models.TierFree),
		IsActive:            true,
	})
	if err != nil {
		return nil, models.Wrap(err, "failed to register user")
	}
	s.log.Info("user registered", slog.String("op", op), slog.String("user_id", u.ID))
	s.appendHistory(ctx, op, u.ID, models.ActionUserRegistered, models.Document{
		"email":    u.Email,
		"username": u.Username,
	})
	return u, nil
}

// GetUser возвращает пользователя.
func (s *Service) GetUser(ctx context.Context, userID string) (*models.User, error) {
	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, models.Wrap(err, "failed to load user")
	}
	return u, nil
}

// CanExport сообщает, остался ли у пользователя экспорт в этом месяце.
func (s *Service) CanExport(ctx context.Context, userID string) (bool, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return u.CanExport(), nil
}

// ConsumeExport списывает один экспорт по решению администратора. Если лимит исчерпан, возвращает QuotaExceeded.
// Экспорт проекта списывает квоту вместе со сменой статуса проекта и этот метод не использует.
func (s *Service) ConsumeExport(ctx context.Context, userID string) (*models.QuotaUsage, error) {
	const op = "quota.ConsumeExport"

	u, err := s.repo.IncrementExports(ctx, userID)
	if err != nil {
		return nil, models.Wrap(err, "failed to consume export")
	}
	s.log.Debug("export consumed", slog.String("op", op), slog.String("user_id", userID),
		slog.Int("used", u.MonthlyExportsUsed), slog.Int("limit", u.MonthlyExportsLimit))
	return usage(u), nil
}

// ResetMonthly обнуляет счётчик экспортов пользователя.
func (s *Service) ResetMonthly(ctx context.Context, userID string) error {
	const op = "quota.ResetMonthly"

	if err := s.repo.ResetMonthlyExports(ctx, userID); err != nil {
		return models.Wrap(err, "failed to reset exports")
	}
	s.log.Info("monthly exports reset", slog.String("op", op), slog.String("user_id", userID))
	return nil
}

// ResetAllMonthly обнуляет счётчики всех пользователей и возвращает число затронутых.
func (s *Service) ResetAllMonthly(ctx context.Context) (int, error) {
	const op = "quota.ResetAllMonthly"

	n, err := s.repo.ResetAllMonthlyExports(ctx)
	if err != nil {
		s.log.Error("failed to reset monthly exports", slog.String("op", op), sl.Err(err))
		return 0, models.Wrap(err, "failed to reset exports")
	}
	s.metrics.RecordQuotaResets(n)
	s.log.Info("monthly exports reset for all users", slog.String("op", op), slog.Int("count", n))
	return n, nil
}

// UpdateSubscription меняет тариф. Лимит по умолчанию берётся из настроек нового тарифа.
func (s *Service) UpdateSubscription(ctx context.Context, userID string, in models.SubscriptionUpdate) (*models.User, error) {
	const op = "quota.UpdateSubscription"

	if err := models.Validate(in); err != nil {
		return nil, err
	}
	if !in.Tier.Valid() {
		return nil, models.InvalidInput("unknown subscription tier %q", in.Tier)
	}

	current, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, models.Wrap(err, "failed to load user")
	}

	limit := s.limits.For(in.Tier)
	if in.ExportsLimit != nil {
		limit = *in.ExportsLimit
	}

	updated, err := s.repo.UpdateSubscription(ctx, userID, in.Tier, in.ExpiresAt, limit)
	if err != nil {
		return nil, models.Wrap(err, "failed to update subscription")
	}
	s.log.Info("subscription updated", slog.String("op", op), slog.String("user_id", userID),
		slog.String("old_tier", string(current.Tier)), slog.String("new_tier", string(updated.Tier)))

	s.appendHistory(ctx, op, userID, subscriptionAction(current.Tier, in.Tier, in.ExpiresAt), models.Document{
		"oldTier": string(current.Tier),
		"newTier": string(in.Tier),
	})
	return updated, nil
}

// Usage возвращает состояние месячной квоты.
func (s *Service) Usage(ctx context.Context, userID string) (*models.QuotaUsage, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return usage(u), nil
}

func (s *Service) appendHistory(ctx context.Context, op, userID string, action models.ActionType, data models.Document) {
	if err := s.audit.Append(ctx, userID, action, nil, data); err != nil {
		s.log.Warn("failed to append history", slog.String("op", op), slog.String("user_id", userID),
			slog.String("action", string(action)), sl.Err(err))
	}
}

func subscriptionAction(from, to models.Tier, expiresAt *time.Time) models.ActionType {
	if to == models.TierFree && expiresAt == nil {
		return models.ActionSubscriptionCanceled
	}
	if to.Rank() < from.Rank() {
		return models.ActionSubscriptionDowngraded
	}
	return models.ActionSubscriptionUpgraded
}

func usage(u *models.User) *models.QuotaUsage {
	remaining := u.MonthlyExportsLimit - u.MonthlyExportsUsed
	if remaining < 0 {
		remaining = 0
	}
	return &models.QuotaUsage{
		Used:      u.MonthlyExportsUsed,
		Limit:     u.MonthlyExportsLimit,
		Remaining: remaining,
	}
}
