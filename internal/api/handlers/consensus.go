package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/wonny/instock/internal/consensus"
	"github.com/wonny/instock/internal/contracts"
	"github.com/wonny/instock/pkg/logger"
)

// ConsensusReader reads saved consensus reports
type ConsensusReader interface {
	Latest(ctx context.Context) (time.Time, []contracts.ConsensusEntry, error)
	ByDate(ctx context.Context, date time.Time) ([]contracts.ConsensusEntry, error)
}

// ConsensusHandler handles consensus API endpoints
// ⭐ SSOT: 합병 결과 API 핸들러는 이 구조체에서만
type ConsensusHandler struct {
	reader ConsensusReader
	logger *logger.Logger
}

// NewConsensusHandler creates a new consensus handler
func NewConsensusHandler(reader ConsensusReader, log *logger.Logger) *ConsensusHandler {
	return &ConsensusHandler{
		reader: reader,
		logger: log,
	}
}

// ConsensusItem is one ranked entry in API responses
type ConsensusItem struct {
	Rank       int      `json:"rank"`
	Code       string   `json:"code"`
	Name       string   `json:"name"`
	Count      int      `json:"count"`
	Strategies []string `json:"strategies"`
	Score      string   `json:"score"`
}

// ConsensusResponse is the body of consensus endpoints
type ConsensusResponse struct {
	Date  string          `json:"date"`
	Total int             `json:"total"`
	Items []ConsensusItem `json:"items"`
}

// GetLatest returns the most recently saved consensus
// GET /api/consensus/latest
func (h *ConsensusHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	date, entries, err := h.reader.Latest(r.Context())
	if errors.Is(err, consensus.ErrNoReport) {
		respondError(w, http.StatusNotFound, "No consensus saved yet")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to get latest consensus")
		respondError(w, http.StatusInternalServerError, "Failed to get latest consensus")
		return
	}

	respondJSON(w, http.StatusOK, newConsensusResponse(date, entries))
}

// GetByDate returns the consensus saved for a date
// GET /api/consensus/{date}
func (h *ConsensusHandler) GetByDate(w http.ResponseWriter, r *http.Request) {
	date, ok := pathDate(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
		return
	}

	entries, err := h.reader.ByDate(r.Context(), date)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get consensus")
		respondError(w, http.StatusInternalServerError, "Failed to get consensus")
		return
	}
	if len(entries) == 0 {
		respondError(w, http.StatusNotFound, "No consensus for "+date.Format(contracts.DateLayout))
		return
	}

	respondJSON(w, http.StatusOK, newConsensusResponse(date, entries))
}

func newConsensusResponse(date time.Time, entries []contracts.ConsensusEntry) ConsensusResponse {
	items := make([]ConsensusItem, len(entries))
	for i, e := range entries {
		items[i] = ConsensusItem{
			Rank:       i + 1,
			Code:       e.Code,
			Name:       e.Name,
			Count:      e.Count,
			Strategies: e.Strategies,
			Score:      e.ScoreText(),
		}
	}

	return ConsensusResponse{
		Date:  date.Format(contracts.DateLayout),
		Total: len(items),
		Items: items,
	}
}
