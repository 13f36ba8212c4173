package models

import (
	"errors"
	"fmt"
)

// Kind — стабильный вид ошибки, по которому вызывающая сторона выбирает реакцию.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindForbidden         Kind = "forbidden"
	KindInvalidInput      Kind = "invalid_input"
	KindQuotaExceeded     Kind = "quota_exceeded"
	KindDependencyFailure Kind = "dependency_failure"
	KindConflict          Kind = "conflict"
	KindInternal          Kind = "internal"
)

// Error — типизированная ошибка ядра.
// Message предназначено для пользователя, Err хранит внутреннюю причину и наружу не отдаётся.
type Error struct {
	Kind    Kind
	Reason  string // уточнение вида, например render_failed
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Reason != "" {
		msg += "/" + e.Reason
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is сравнивает ошибку с шаблоном по виду и, если он задан в шаблоне, по уточнению.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}

// Шаблоны для errors.Is.
var (
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrForbidden         = &Error{Kind: KindForbidden}
	ErrInvalidInput      = &Error{Kind: KindInvalidInput}
	ErrQuotaExceeded     = &Error{Kind: KindQuotaExceeded}
	ErrDependencyFailure = &Error{Kind: KindDependencyFailure}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrInternal          = &Error{Kind: KindInternal}

	ErrRenderFailed = &Error{Kind: KindDependencyFailure, Reason: "render_failed"}
	ErrUploadFailed = &Error{Kind: KindDependencyFailure, Reason: "upload_failed"}
)

// NotFound создаёт ошибку отсутствующего (или чужого) ресурса.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Forbidden создаёт ошибку недостаточного уровня привилегий.
func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// InvalidInput создаёт ошибку нарушения ограничений входных данных.
func InvalidInput(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// QuotaExceeded создаёт ошибку исчерпанного месячного лимита экспортов.
func QuotaExceeded(msg string) *Error {
	return &Error{Kind: KindQuotaExceeded, Message: msg}
}

// Conflict создаёт ошибку проигранной гонки параллельных изменений.
func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

// RenderFailed оборачивает сбой внешнего рендерера.
func RenderFailed(err error) *Error {
	return &Error{Kind: KindDependencyFailure, Reason: "render_failed", Message: "failed to render project", Err: err}
}

// UploadFailed оборачивает сбой внешнего хранилища файлов.
func UploadFailed(err error) *Error {
	return &Error{Kind: KindDependencyFailure, Reason: "upload_failed", Message: "failed to upload exported image", Err: err}
}

// DependencyFailure оборачивает сбой прочих внешних сервисов.
func DependencyFailure(msg string, err error) *Error {
	return &Error{Kind: KindDependencyFailure, Message: msg, Err: err}
}

// Internal оборачивает непредвиденную ошибку, скрывая её текст от пользователя.
func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf возвращает вид ошибки. Ошибки вне таксономии считаются внутренними.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// PublicMessage возвращает безопасный для пользователя текст ошибки.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "internal error"
}

// Wrap приводит произвольную ошибку к типизированной: типизированные возвращаются как есть,
// остальные оборачиваются во внутреннюю с переданным сообщением.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Message == "" {
			return &Error{Kind: e.Kind, Reason: e.Reason, Message: msg, Err: err}
		}
		return err
	}
	return Internal(msg, err)
}
