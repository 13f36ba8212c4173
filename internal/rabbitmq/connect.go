// Package rabbitmq содержит подключение к RabbitMQ, объявление топологии,
// публикацию и потребление сообщений о завершённых экспортах.
package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/content-generator/internal/config"
	"github.com/magabrotheeeer/content-generator/internal/lib/sl"
)

var errNoAttempts = errors.New("no connection attempts configured")

// Connect подключается к брокеру экспортных событий. Неудачные попытки повторяются
// cfg.MaxRetries раз с паузой cfg.RetryDelay; ожидание прерывается отменой ctx.
func Connect(ctx context.Context, cfg config.RabbitMQ, log *slog.Logger) (*amqp.Connection, error) {
	const op = "rabbitmq.Connect"
	log = log.With(slog.String("op", op))

	err := errNoAttempts
	for attempt := 1; attempt <= cfg.MaxRetries; attempt++ {
		var conn *amqp.Connection
		if conn, err = amqp.Dial(cfg.URL); err == nil {
			log.Info("connected to export broker", slog.Int("attempt", attempt))
			return conn, nil
		}
		log.Warn("export broker unavailable", slog.Int("attempt", attempt),
			slog.Int("max_attempts", cfg.MaxRetries), sl.Err(err))
		if attempt == cfg.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(cfg.RetryDelay):
		}
	}

	return nil, fmt.Errorf("%s: %w", op, err)
}
