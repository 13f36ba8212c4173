// Package notificationsender запускает воркер, который отправляет владельцам
// письма о завершённом экспорте.
package notificationsender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/content-generator/internal/config"
	"github.com/magabrotheeeer/content-generator/internal/lib/sl"
	"github.com/magabrotheeeer/content-generator/internal/lib/smtp"
	"github.com/magabrotheeeer/content-generator/internal/rabbitmq"
	"github.com/magabrotheeeer/content-generator/internal/services/sender"
)

// App — воркер уведомлений.
type App struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	sender *sender.Service
	logger *slog.Logger
}

// New подключается к брокеру и объявляет очереди уведомлений.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQ, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, cfg.RabbitMQ.Exchange, rabbitmq.ExportQueues())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	return &App{
		conn:   conn,
		ch:     ch,
		sender: sender.New(smtp.NewTransport(cfg.SMTP, logger), logger),
		logger: logger,
	}, nil
}

// Run читает очередь уведомлений до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumeMessages(ctx, a.ch, rabbitmq.ExportNotificationsQueue, a.sender.HandleExportCompleted, a.logger)
	if err != nil {
		a.logger.Error("failed to start export notifications consumer", sl.Err(err))
		a.close()
		return err
	}

	<-ctx.Done()
	a.logger.Info("notification sender shutting down gracefully")
	a.close()
	return nil
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
}
