package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	apierrors "github.com/pribylovaa/go-waste-client/internal/errors"
	logctx "github.com/pribylovaa/go-waste-client/internal/pkg/log"
	"github.com/pribylovaa/go-waste-client/internal/pkg/redact"
)

// Authenticator проверяет access-токен. stub.Service удовлетворяет интерфейсу.
type Authenticator interface {
	Authenticate(accessToken string) (int64, error)
}

type ctxKeyUserID struct{}

// UserIDFrom - id пользователя, положенный AuthBearer.
func UserIDFrom(ctx context.Context) (int64, bool) {
	uid, ok := ctx.Value(ctxKeyUserID{}).(int64)
	return uid, ok
}

// WithUserID кладёт id пользователя в контекст; нужен в тестах хендлеров.
func WithUserID(ctx context.Context, uid int64) context.Context {
	return context.WithValue(ctx, ctxKeyUserID{}, uid)
}

// AuthBearer требует Authorization: Bearer <token>. Отсутствующий,
// невалидный или просроченный токен - 401/unauthenticated.
func AuthBearer(a Authenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const prefix = "Bearer "

			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, prefix) {
				apierrors.WriteError(w, r, apierrors.New(http.StatusUnauthorized))
				return
			}

			token := strings.TrimSpace(auth[len(prefix):])
			if token == "" {
				apierrors.WriteError(w, r, apierrors.New(http.StatusUnauthorized))
				return
			}

			uid, err := a.Authenticate(token)
			if err != nil {
				logctx.From(r.Context()).Debug("auth_rejected",
					slog.String("authorization", redact.Authorization(auth)),
					slog.String("err", err.Error()),
				)
				apierrors.WriteError(w, r, apierrors.New(http.StatusUnauthorized))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), uid)))
		})
	}
}
