package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shiftledger/internal/platform/metrics"
)

// Registrar is anything that mounts routes on the authenticated subtree.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter assembles the public surface: unauthenticated health and metrics,
// everything else behind bearer auth.
func NewRouter(jwtSecret []byte, m *metrics.Metrics, logger *slog.Logger, handlers ...Registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(m.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(authed chi.Router) {
		authed.Use(Authenticate(jwtSecret, logger))
		for _, h := range handlers {
			h.Register(authed)
		}
	})
	return r
}
