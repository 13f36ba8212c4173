// Package sender отправляет владельцу проекта письмо со ссылкой на готовый экспорт.
package sender

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"mime"
	"strings"

	"github.com/magabrotheeeer/content-generator/internal/lib/sl"
	"github.com/magabrotheeeer/content-generator/internal/lib/smtp"
	"github.com/magabrotheeeer/content-generator/internal/models"
)

// Service формирует и отправляет письма об экспортах.
type Service struct {
	transport smtp.Dialer
	log       *slog.Logger
}

// New создаёт сервис отправки писем.
func New(transport smtp.Dialer, log *slog.Logger) *Service {
	return &Service{
		transport: transport,
		log:       log,
	}
}

// HandleExportCompleted обрабатывает сообщение из очереди уведомлений.
// Нераспознанное сообщение отбрасывается: повторная доставка его не исправит.
// Ошибка отправки возвращается, чтобы сообщение вернулось в очередь.
func (s *Service) HandleExportCompleted(body []byte) error {
	const op = "sender.HandleExportCompleted"

	var event models.ExportEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("dropping malformed export event", slog.String("op", op), sl.Err(err))
		return nil
	}
	if event.Email == "" {
		s.log.Warn("dropping export event without recipient", slog.String("op", op),
			slog.String("user_id", event.UserID), slog.String("project_id", event.ProjectID))
		return nil
	}

	subject, text := exportMessage(event)
	if err := s.sendEmail([]string{event.Email}, subject, text); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func exportMessage(e models.ExportEvent) (subject, body string) {
	name := e.Username
	if name == "" {
		name = e.Email
	}
	subject = fmt.Sprintf("Экспорт проекта «%s» готов", e.ProjectName)
	body = fmt.Sprintf("Здравствуйте, %s!\n\n"+
		"Проект «%s» экспортирован в формате %s %s UTC.\n\n"+
		"Скачать файл: %s\n",
		name, e.ProjectName, strings.ToUpper(e.Format), e.ExportedAt.UTC().Format("02.01.2006 15:04"), e.URL)
	return subject, body
}

func (s *Service) sendEmail(to []string, subject, bodyText string) error {
	from := s.transport.Sender()
	msg := strings.Join([]string{
		"From: " + from,
		"To: " + strings.Join(to, ", "),
		"Subject: " + mime.QEncoding.Encode("utf-8", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Dial()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			s.log.Debug("smtp client close", sl.Err(err))
		}
	}()

	if err := client.Mail(from); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", from), sl.Err(err))
		return err
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return err
	}
	if _, err := wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}
	if err := wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return err
	}
	if err := client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent", slog.Any("to", to))
	return nil
}
