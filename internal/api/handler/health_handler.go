package handler

import (
	"context"
	"net/http"
	"time"
)

// BrokerProber reports whether the message broker accepted a probe
// message. Implemented by the results writer in the kafka package.
type BrokerProber interface {
	HealthCheck() bool
}

// DBPinger reports database connectivity. Satisfied by *pgxpool.Pool.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the readiness probe, including live broker and
// database checks.
type HealthHandler struct {
	broker BrokerProber
	db     DBPinger
}

func NewHealthHandler(broker BrokerProber, db DBPinger) *HealthHandler {
	return &HealthHandler{broker: broker, db: db}
}

// Health handles GET /health
//
// @Summary  Readiness probe with broker and database checks
// @Tags     system
// @Produce  json
// @Success  200  {object}  map[string]string
// @Failure  503  {object}  map[string]string
// @Router   /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	kafkaStatus := "up"
	if !h.broker.HealthCheck() {
		kafkaStatus = "down"
	}

	dbStatus := "up"
	if err := h.db.Ping(ctx); err != nil {
		dbStatus = "down"
	}

	status := http.StatusOK
	overall := "ok"
	if kafkaStatus == "down" || dbStatus == "down" {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}

	respondJSON(w, status, map[string]string{
		"status":   overall,
		"kafka":    kafkaStatus,
		"database": dbStatus,
	})
}
