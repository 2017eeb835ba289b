package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Credentials struct {
	User     string
	Password string
}

// NewRouter mounts the webhook openly and the dashboard endpoints behind
// basic auth when a password is configured.
func NewRouter(webhook *WebhookHandler, dashboard *DashboardHandler, creds Credentials) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Method(http.MethodGet, "/webhook", webhook)
	r.Method(http.MethodPost, "/webhook", webhook)

	r.Group(func(r chi.Router) {
		if creds.Password != "" {
			r.Use(middleware.BasicAuth("pagos", map[string]string{creds.User: creds.Password}))
		}

		r.Get("/test", dashboard.TestPayment)
		r.Get("/debug/payment/{id}", dashboard.DebugPayment)
		r.Get("/api/payments", dashboard.Payments)
		r.Get("/api/pagos", dashboard.Payments)
		r.Get("/api/export", dashboard.Export)
		r.Get("/api/exportar", dashboard.Export)
		r.Get("/api/metrics", dashboard.MetricsSnapshot)
	})

	return r
}
