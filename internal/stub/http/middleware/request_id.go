package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-waste-client/internal/clients/interceptors"
)

// RequestID берёт X-Request-Id клиента или выдаёт новый uuid и возвращает его
// в ответе. Id кладётся и в заголовок запроса: оттуда его читает errors.WriteError.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(interceptors.HeaderRequestID)
			if id == "" {
				id = uuid.NewString()
				r.Header.Set(interceptors.HeaderRequestID, id)
			}
			w.Header().Set(interceptors.HeaderRequestID, id)

			next.ServeHTTP(w, r.WithContext(interceptors.WithRequestID(r.Context(), id)))
		})
	}
}
