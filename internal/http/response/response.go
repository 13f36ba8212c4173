// Package response формирует единообразные JSON-ответы обработчиков и переводит
// виды ошибок сервиса в HTTP-статусы.
package response

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/content-generator/internal/lib/sl"
	"github.com/magabrotheeeer/content-generator/internal/models"
)

const (
	// StatusOK — значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError — значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// Response — успешный ответ.
type Response struct {
	Status string `json:"status" example:"OK"`
	Data   any    `json:"data,omitempty"`
}

// ErrorResponse — ответ с ошибкой. Используется и в аннотациях @Failure.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Error  string `json:"error" example:"project not found"`
}

// OKWithData возвращает успешный ответ с данными.
func OKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error возвращает ответ с ошибкой и сообщением msg.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
	}
}

// StatusFor возвращает HTTP-статус для вида ошибки.
func StatusFor(kind models.Kind) int {
	switch kind {
	case models.KindNotFound:
		return http.StatusNotFound
	case models.KindForbidden:
		return http.StatusForbidden
	case models.KindInvalidInput:
		return http.StatusUnprocessableEntity
	case models.KindQuotaExceeded:
		return http.StatusTooManyRequests
	case models.KindDependencyFailure:
		return http.StatusBadGateway
	case models.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WriteError пишет ответ по ошибке сервиса. Внутренние ошибки логируются с причиной,
// пользователь видит только безопасное сообщение.
func WriteError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	kind := models.KindOf(err)
	status := StatusFor(kind)
	switch {
	case status >= http.StatusInternalServerError:
		log.Error("request failed", slog.String("kind", string(kind)), sl.Err(err))
	default:
		log.Info("request rejected", slog.String("kind", string(kind)), sl.Err(err))
	}
	render.Status(r, status)
	render.JSON(w, r, Error(models.PublicMessage(err)))
}

// WriteStatus пишет ответ с ошибкой и заданным статусом.
func WriteStatus(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, Error(msg))
}

// Unauthorized пишет 401 для запроса без проверенного пользователя.
func Unauthorized(w http.ResponseWriter, r *http.Request) {
	WriteStatus(w, r, http.StatusUnauthorized, "unauthorized")
}
