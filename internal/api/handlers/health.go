package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger checks a backing service
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports service and database health
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check returns 200 when the database answers, 503 otherwise
// GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	body := map[string]interface{}{
		"status":  "ok",
		"service": "instock-api",
	}

	if err := h.db.Ping(ctx); err != nil {
		body["status"] = "degraded"
		body["database"] = err.Error()
		respondJSON(w, http.StatusServiceUnavailable, body)
		return
	}

	body["database"] = "ok"
	respondJSON(w, http.StatusOK, body)
}
