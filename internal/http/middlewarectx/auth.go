// Package middlewarectx содержит HTTP middleware: проверку JWT внешнего провайдера
// идентичности, проверку роли администратора и ограничение частоты запросов.
//
// JWTMiddleware кладёт в контекст запроса идентификатор пользователя и роль,
// обработчики читают их через ActorFrom.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/content-generator/internal/http/response"
	"github.com/magabrotheeeer/content-generator/internal/lib/jwt"
	"github.com/magabrotheeeer/content-generator/internal/lib/sl"
	"github.com/magabrotheeeer/content-generator/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// UserID — ключ для идентификатора пользователя в контексте
	UserID Key = "user_id"
	// Role — ключ для роли пользователя в контексте
	Role Key = "role"
)

// Verifier проверяет токен и возвращает его claims.
type Verifier interface {
	Verify(token string) (*jwt.Claims, error)
}

// JWTMiddleware возвращает middleware, который проверяет токен в заголовке Authorization.
// Без токена или с невалидным токеном запрос получает 401.
func JWTMiddleware(verifier Verifier, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Info("missing or invalid authorization header")
				response.WriteStatus(w, r, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := verifier.Verify(tokenStr)
			if err != nil {
				log.Info("invalid or expired token", sl.Err(err))
				response.WriteStatus(w, r, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			role := models.Role(claims.Role)
			if role != models.RoleAdmin {
				role = models.RoleUser
			}
			ctx := context.WithValue(r.Context(), UserID, claims.Subject)
			ctx = context.WithValue(ctx, Role, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ActorFrom возвращает вызывающего, сохранённого JWTMiddleware.
func ActorFrom(ctx context.Context) (models.Actor, bool) {
	userID, ok := ctx.Value(UserID).(string)
	if !ok || userID == "" {
		return models.Actor{}, false
	}
	role, _ := ctx.Value(Role).(models.Role)
	if role == "" {
		role = models.RoleUser
	}
	return models.Actor{UserID: userID, Role: role}, true
}

// WithActor кладёт вызывающего в контекст. Нужен обработчикам в тестах и фоновым вызовам.
func WithActor(ctx context.Context, actor models.Actor) context.Context {
	ctx = context.WithValue(ctx, UserID, actor.UserID)
	return context.WithValue(ctx, Role, actor.Role)
}

// RequireAdmin пропускает только администраторов.
func RequireAdmin(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFrom(r.Context())
			if !ok {
				response.WriteStatus(w, r, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !actor.IsAdmin() {
				log.Info("administrator privileges required",
					slog.String("user_id", actor.UserID),
					slog.String("request_id", middleware.GetReqID(r.Context())),
				)
				response.WriteStatus(w, r, http.StatusForbidden, "administrator privileges required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
