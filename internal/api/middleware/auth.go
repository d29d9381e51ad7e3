// auth.go — middleware аутентификации по bearer-токену сессии.
// Извлекает токен из заголовка Authorization, находит сессию
// и помещает пользователя в контекст запроса.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	apierrors "github.com/bigkaa/govault/internal/api/errors"
	"github.com/bigkaa/govault/internal/domain/model"
	"github.com/bigkaa/govault/internal/service"
)

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

// ContextKeyUser — аутентифицированный пользователь в контексте запроса.
const ContextKeyUser contextKey = "auth_user"

// Authenticator — проверка токена сессии.
// Реализуется service.UserService.
type Authenticator interface {
	// Authenticate возвращает владельца токена или ошибку аутентификации.
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// TokenAuth — middleware аутентификации по токену сессии.
type TokenAuth struct {
	auth   Authenticator
	logger *slog.Logger
}

// NewTokenAuth создаёт middleware аутентификации.
func NewTokenAuth(auth Authenticator, logger *slog.Logger) *TokenAuth {
	return &TokenAuth{
		auth:   auth,
		logger: logger.With(slog.String("component", "token_auth")),
	}
}

// Middleware возвращает HTTP middleware аутентификации.
// Извлекает Bearer token, находит по нему активную сессию
// и помещает пользователя в контекст.
func (a *TokenAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				apierrors.Unauthorized(w, "Требуется заголовок Authorization: Bearer <token>")
				return
			}

			user, err := a.auth.Authenticate(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, service.ErrUserDisabled):
					apierrors.UserDisabled(w, "Учётная запись заблокирована")
				case errors.Is(err, service.ErrUnauthorized):
					apierrors.Unauthorized(w, "Невалидный токен")
				default:
					a.logger.Error("Ошибка проверки токена",
						slog.String("remote_addr", r.RemoteAddr),
						slog.String("error", err.Error()),
					)
					apierrors.InternalError(w, "Ошибка проверки токена")
				}
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken извлекает bearer-токен из заголовка Authorization.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// UserFromContext извлекает аутентифицированного пользователя из контекста.
// Возвращает nil, если пользователь не найден.
func UserFromContext(ctx context.Context) *model.User {
	user, _ := ctx.Value(ContextKeyUser).(*model.User)
	return user
}
