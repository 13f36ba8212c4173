// Package smtp доставляет письма о готовых экспортах через SMTP-сервер с обязательным STARTTLS.
package smtp

import "io"

// Client — сессия с почтовым сервером: конверт, тело письма и завершение.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// Dialer открывает аутентифицированную сессию и знает адрес, от имени которого уходят уведомления.
type Dialer interface {
	Dial() (Client, error)
	Sender() string
}
