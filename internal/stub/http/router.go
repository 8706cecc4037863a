package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/pribylovaa/go-waste-client/internal/metrics"
	"github.com/pribylovaa/go-waste-client/internal/stub"
	"github.com/pribylovaa/go-waste-client/internal/stub/http/handlers"
	"github.com/pribylovaa/go-waste-client/internal/stub/http/middleware"
)

// Options - параметры сборки HTTP-роутера.
type Options struct {
	Logger  *slog.Logger
	Timeout time.Duration
	// Metrics - nil => метрики не пишутся.
	Metrics *metrics.Server
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc *stub.Service, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),
		middleware.RequestID(), // до логирования
		middleware.Logging(opts.Logger),
		middleware.Metrics(opts.Metrics),
	)
	if opts.Timeout > 0 {
		root.Use(chimw.Timeout(opts.Timeout))
	}

	h := handlers.New(svc)
	registerRoutes(root, h, svc)

	return root
}

// registerRoutes - единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers, auth middleware.Authenticator) {
	// auth - без токена
	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)
	r.Post("/auth/refresh", h.Refresh)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthBearer(auth))

		r.Get("/me", h.Me)

		// waste requests
		r.Get("/waste-requests", h.ListWasteRequests)
		r.Post("/waste-requests", h.CreateWasteRequest)
		r.Get("/waste-requests/{id}", h.GetWasteRequest)
		r.Post("/waste-requests/{id}/cancel", h.CancelWasteRequest)
		r.Post("/waste-requests/{id}/accept", h.AcceptWasteRequest)
		r.Post("/waste-requests/{id}/complete", h.CompleteWasteRequest)

		// payments
		r.Get("/payment-methods", h.ListPaymentMethods)
		r.Post("/payment-methods", h.RegisterPaymentMethod)
		r.Delete("/payment-methods/{id}", h.DeletePaymentMethod)

		r.Get("/addresses/search", h.SearchAddresses)

		// roles
		r.Get("/role-applications", h.ListRoleApplications)
		r.Post("/role-applications", h.SubmitRoleApplication)
		r.Post("/admin/role-applications/{id}/review", h.ReviewRoleApplication)

		// service areas
		r.Get("/admin/service-areas", h.ListServiceAreas)
		r.Post("/admin/service-areas", h.CreateServiceArea)
		r.Put("/admin/service-areas/{id}", h.UpdateServiceArea)
		r.Delete("/admin/service-areas/{id}", h.DeleteServiceArea)
	})
}
