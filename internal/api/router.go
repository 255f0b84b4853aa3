package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/medtrack/notify/internal/api/handler"
	apimw "github.com/medtrack/notify/internal/api/middleware"
	"github.com/medtrack/notify/internal/service"
)

// NewRouter wires the chi router, attaches all middleware, and registers
// every route. It is the single source of truth for the HTTP surface area.
func NewRouter(
	svc *service.ProductService,
	tasks handler.TaskLister,
	broker handler.BrokerProber,
	db handler.DBPinger,
	reg prometheus.Gatherer,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)          // recover panics, return 500
	r.Use(chimw.RealIP)             // trust X-Forwarded-For / X-Real-IP
	r.Use(chimw.RequestSize(1 << 20)) // 1 MB max request body
	r.Use(apimw.CorrelationID)      // X-Correlation-ID inject / echo
	r.Use(apimw.RequestLogger(logger))

	ph := handler.NewProductHandler(svc, logger)
	sh := handler.NewSchedulerHandler(tasks)
	hh := handler.NewHealthHandler(broker, db)

	r.Get("/health", hh.Health)

	// Raw Prometheus scrape endpoint (for Prometheus server / Grafana)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		// /low-stock must be registered before /{id} so chi does not
		// treat the literal string as an ID.
		r.Get("/products/low-stock", ph.LowStock)
		r.Post("/products", ph.Create)
		r.Get("/products", ph.List)
		r.Put("/products/{id}", ph.Update)
		r.Delete("/products/{id}", ph.Delete)
		r.Post("/products/{id}/usage", ph.RecordUsage)

		r.Get("/scheduler", sh.Pending)
	})

	return r
}
