package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/go-waste-client/internal/metrics"
)

// Metrics считает запросы; метка route - шаблон маршрута chi, не сырой путь.
func Metrics(m *metrics.Server) Middleware {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)

			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil {
				if p := rc.RoutePattern(); p != "" {
					route = p
				}
			}

			m.ObserveRequest(r.Method, route, sw.code())
		})
	}
}
