package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	apiBasePath        = "/api"
	deliveriesBasePath = "/deliveries"
	healthBasePath     = "/health"

	paramID = "id"
)

// Router mounts the delivery API behind the standard middleware stack.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route(apiBasePath, func(r chi.Router) {
		r.Route(deliveriesBasePath, func(r chi.Router) {
			r.Post("/", a.makeHandler(a.handleEnqueue))
			r.Get("/", a.makeHandler(a.handleListDeliveries))
			r.Get("/{"+paramID+"}", a.makeHandler(a.handleGetDelivery))
		})
		r.Get(healthBasePath, a.makeHandler(a.handleHealthReport))
	})

	// Liveness probe, no dependencies touched.
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return r
}
