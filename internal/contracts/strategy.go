package contracts

import (
	"strconv"
	"strings"
	"time"
)

// ScoreUnavailable is rendered when the external score could not be resolved
const ScoreUnavailable = "unavailable"

// DateLayout is the run date format shared by every stage
const DateLayout = "2006-01-02"

// StrategyRow is one raw row of a strategy stage output table
type StrategyRow struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// StrategyHit is one (entity, strategy) pairing for a run date
type StrategyHit struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Strategy string `json:"strategy"`
}

// ConsensusEntry aggregates every StrategyHit sharing a code for one run date
// Count == len(Strategies)
type ConsensusEntry struct {
	Code       string   `json:"code"`
	Name       string   `json:"name"`
	Count      int      `json:"count"`
	Strategies []string `json:"strategies"`
	Score      *float64 `json:"score"`
}

// ScoreText renders the external score or "unavailable"
func (e ConsensusEntry) ScoreText() string {
	if e.Score == nil {
		return ScoreUnavailable
	}
	return strconv.FormatFloat(*e.Score, 'f', -1, 64)
}

// StrategyText joins strategy labels for display
func (e ConsensusEntry) StrategyText() string {
	return strings.Join(e.Strategies, ", ")
}

// ConsensusReport is the ranked result of one merge run
type ConsensusReport struct {
	Date      time.Time        `json:"date"`
	Threshold int              `json:"threshold"`
	Sources   []string         `json:"sources"`
	All       []ConsensusEntry `json:"-"`
	Notable   []ConsensusEntry `json:"notable"`
}

// WithThreshold recomputes the notable set from All without refetching.
// Scores already resolved on All are kept.
func (r *ConsensusReport) WithThreshold(threshold int) *ConsensusReport {
	out := &ConsensusReport{
		Date:      r.Date,
		Threshold: threshold,
		Sources:   r.Sources,
		All:       r.All,
		Notable:   make([]ConsensusEntry, 0),
	}
	for _, e := range r.All {
		if e.Count >= threshold {
			out.Notable = append(out.Notable, e)
		}
	}
	return out
}
