package contracts

import (
	"context"
	"time"
)

// StageOutputFetcher returns the rows one strategy stage produced for a date.
// Implementations return an empty slice, never an error, when no data exists.
type StageOutputFetcher interface {
	FetchStageOutput(ctx context.Context, strategy string, date time.Time) []StrategyRow
}

// ScoreFetcher resolves the external score of one code.
// nil means unavailable (network failure, malformed response, missing field).
type ScoreFetcher interface {
	FetchScore(ctx context.Context, code string, date time.Time) *float64
}

// PriceFetcher returns close prices keyed by code for a date
type PriceFetcher interface {
	FetchClosePrices(ctx context.Context, date time.Time, codes []string) (map[string]float64, error)
}

// ConsensusStore persists and reads consensus reports
type ConsensusStore interface {
	Save(ctx context.Context, report *ConsensusReport) error
	ByDate(ctx context.Context, date time.Time) ([]ConsensusEntry, error)
}
