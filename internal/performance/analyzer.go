package performance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/instock/internal/consensus"
	"github.com/wonny/instock/internal/contracts"
	"github.com/wonny/instock/pkg/logger"
)

// ConsensusReader reads saved consensus reports
type ConsensusReader interface {
	LatestDate(ctx context.Context, before time.Time) (time.Time, error)
	ByDate(ctx context.Context, date time.Time) ([]contracts.ConsensusEntry, error)
}

// ResultStore persists analysis results
type ResultStore interface {
	Save(ctx context.Context, result *Result) error
}

// Analyzer measures how the previous recommendation performed
// ⭐ SSOT: 전략 성과 분석은 여기서만
type Analyzer struct {
	consensus ConsensusReader
	prices    contracts.PriceFetcher
	store     ResultStore
	logger    *logger.Logger
}

// NewAnalyzer creates a new analyzer. store may be nil to skip saving.
func NewAnalyzer(reader ConsensusReader, prices contracts.PriceFetcher, store ResultStore, log *logger.Logger) *Analyzer {
	return &Analyzer{
		consensus: reader,
		prices:    prices,
		store:     store,
		logger:    log.WithField("module", "performance"),
	}
}

// Analyze compares the latest recommendation saved before date with the closes of date.
// Missing recommendation or price data returns a nil result without error.
func (a *Analyzer) Analyze(ctx context.Context, date time.Time) (*Result, error) {
	log := a.logger.WithField("date", date.Format(contracts.DateLayout))

	prevDate, err := a.consensus.LatestDate(ctx, date)
	if errors.Is(err, consensus.ErrNoReport) {
		log.Warn("No previous recommendation found")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find previous recommendation: %w", err)
	}

	entries, err := a.consensus.ByDate(ctx, prevDate)
	if err != nil {
		return nil, fmt.Errorf("load recommendation %s: %w", prevDate.Format(contracts.DateLayout), err)
	}
	if len(entries) == 0 {
		log.WithField("prev_date", prevDate.Format(contracts.DateLayout)).Warn("Previous recommendation is empty")
		return nil, nil
	}

	codes := make([]string, len(entries))
	for i, e := range entries {
		codes[i] = e.Code
	}

	prevCloses, err := a.prices.FetchClosePrices(ctx, prevDate, codes)
	if err != nil {
		return nil, fmt.Errorf("load previous closes: %w", err)
	}
	closes, err := a.prices.FetchClosePrices(ctx, date, codes)
	if err != nil {
		return nil, fmt.Errorf("load closes: %w", err)
	}

	trades := make([]Trade, 0, len(entries))
	for _, e := range entries {
		prev, okPrev := prevCloses[e.Code]
		curr, okCurr := closes[e.Code]
		if !okPrev || !okCurr || prev <= 0 {
			continue
		}
		trades = append(trades, NewTrade(e.Code, e.Name, e.Strategies, e.Score, prev, curr))
	}

	if len(trades) == 0 {
		log.Warn("No performance data to analyze")
		return nil, nil
	}

	result := &Result{
		Date:     date,
		PrevDate: prevDate,
		Summary:  Summarize(trades),
		Trades:   trades,
	}

	if a.store != nil {
		if err := a.store.Save(ctx, result); err != nil {
			return nil, fmt.Errorf("save performance: %w", err)
		}
	}

	a.logResult(log, result)
	return result, nil
}

func (a *Analyzer) logResult(log *logger.Logger, r *Result) {
	log.WithFields(map[string]interface{}{
		"prev_date":       r.PrevDate.Format(contracts.DateLayout),
		"average_return":  r.Summary.AverageReturn.String() + "%",
		"win_rate":        r.Summary.WinRate.String() + "%",
		"total_trades":    r.Summary.TotalTrades,
		"positive_trades": r.Summary.PositiveTrades,
		"max_gain":        r.Summary.MaxGain.String() + "%",
		"max_loss":        r.Summary.MaxLoss.String() + "%",
	}).Info("=== 전략 성과 분석 ===")
}
