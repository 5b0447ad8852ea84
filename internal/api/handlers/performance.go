package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/wonny/instock/internal/contracts"
	"github.com/wonny/instock/internal/performance"
	"github.com/wonny/instock/pkg/logger"
)

// PerformanceReader reads saved performance results
type PerformanceReader interface {
	ByDate(ctx context.Context, date time.Time) (*performance.Result, error)
}

// PerformanceHandler handles performance API endpoints
type PerformanceHandler struct {
	reader PerformanceReader
	logger *logger.Logger
}

// NewPerformanceHandler creates a new performance handler
func NewPerformanceHandler(reader PerformanceReader, log *logger.Logger) *PerformanceHandler {
	return &PerformanceHandler{
		reader: reader,
		logger: log,
	}
}

// GetByDate returns the performance measured on a date
// GET /api/performance/{date}
func (h *PerformanceHandler) GetByDate(w http.ResponseWriter, r *http.Request) {
	date, ok := pathDate(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
		return
	}

	result, err := h.reader.ByDate(r.Context(), date)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get performance")
		respondError(w, http.StatusInternalServerError, "Failed to get performance")
		return
	}
	if result == nil || len(result.Trades) == 0 {
		respondError(w, http.StatusNotFound, "No performance for "+date.Format(contracts.DateLayout))
		return
	}

	respondJSON(w, http.StatusOK, result)
}
