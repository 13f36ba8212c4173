// Package scheduler обнуляет месячные счётчики экспортов при смене календарного месяца (UTC).
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/content-generator/internal/lib/sl"
)

// DefaultInterval — период проверки смены месяца.
const DefaultInterval = time.Minute

// Resetter обнуляет счётчики всех пользователей.
type Resetter interface {
	ResetAllMonthly(ctx context.Context) (int, error)
}

// Service периодически проверяет, наступил ли новый месяц.
type Service struct {
	resetter Resetter
	interval time.Duration
	log      *slog.Logger
	now      func() time.Time

	period monthKey
}

type monthKey struct {
	year  int
	month time.Month
}

func keyOf(t time.Time) monthKey {
	t = t.UTC()
	return monthKey{year: t.Year(), month: t.Month()}
}

// New создаёт планировщик. Текущий месяц считается уже обработанным.
func New(resetter Resetter, interval time.Duration, log *slog.Logger) *Service {
	if interval <= 0 {
		interval = DefaultInterval
	}
	s := &Service{
		resetter: resetter,
		interval: interval,
		log:      log,
		now:      time.Now,
	}
	s.period = keyOf(s.now())
	return s
}

// Run проверяет смену месяца каждые interval до отмены ctx.
func (s *Service) Run(ctx context.Context) {
	s.log.Info("monthly quota reset scheduler started", slog.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("monthly quota reset scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick выполняет сброс, если с прошлого успешного сброса сменился месяц.
// При ошибке месяц не отмечается обработанным, и попытка повторится на следующем тике.
func (s *Service) Tick(ctx context.Context) bool {
	const op = "scheduler.Tick"

	current := keyOf(s.now())
	if current == s.period {
		return false
	}

	log := s.log.With(slog.String("op", op), slog.Int("year", current.year), slog.String("month", current.month.String()))
	n, err := s.resetter.ResetAllMonthly(ctx)
	if err != nil {
		log.Error("failed to reset monthly exports", sl.Err(err))
		return false
	}
	s.period = current
	log.Info("monthly exports reset", slog.Int("users", n))
	return true
}
