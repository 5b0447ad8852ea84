package consensus

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wonny/instock/internal/contracts"
	"github.com/wonny/instock/pkg/logger"
)

// Aggregator merges strategy outputs into a ranked consensus report
// ⭐ SSOT: 전략 합병 선별은 여기서만
type Aggregator struct {
	cfg     *Config
	fetcher contracts.StageOutputFetcher
	scorer  contracts.ScoreFetcher
	logger  *logger.Logger
}

// NewAggregator creates an aggregator. scorer may be nil, no scores are resolved then.
func NewAggregator(cfg *Config, fetcher contracts.StageOutputFetcher, scorer contracts.ScoreFetcher, log *logger.Logger) *Aggregator {
	log = log.WithField("module", "consensus")
	if hash, err := Hash(cfg); err == nil {
		log = log.WithField("config_hash", hash[:12])
	}
	return &Aggregator{
		cfg:     cfg,
		fetcher: fetcher,
		scorer:  scorer,
		logger:  log,
	}
}

// Merge fetches every configured source for date and ranks codes by the number
// of distinct strategies flagging them. Ties keep first-appearance order.
func (a *Aggregator) Merge(ctx context.Context, date time.Time) (*contracts.ConsensusReport, error) {
	start := time.Now()
	log := a.logger.WithField("date", date.Format(contracts.DateLayout))

	var (
		index   = make(map[string]int)
		entries = make([]contracts.ConsensusEntry, 0)
	)

	for _, src := range a.cfg.Sources {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("merge %s: %w", date.Format(contracts.DateLayout), err)
		}

		rows := a.fetcher.FetchStageOutput(ctx, src.Table, date)
		log.WithFields(map[string]interface{}{
			"source": src.Table,
			"rows":   len(rows),
		}).Debug("Source fetched")

		for _, row := range rows {
			i, ok := index[row.Code]
			if !ok {
				index[row.Code] = len(entries)
				entries = append(entries, contracts.ConsensusEntry{
					Code: row.Code,
					Name: row.Name,
				})
				i = len(entries) - 1
			}
			addStrategy(&entries[i], src.Label)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})

	if a.cfg.Score.Enabled && a.scorer != nil {
		for i := range entries {
			if entries[i].Count < a.cfg.Threshold {
				continue
			}
			entries[i].Score = a.scorer.FetchScore(ctx, entries[i].Code, date)
		}
	}

	base := &contracts.ConsensusReport{
		Date:    date,
		Sources: a.cfg.Tables(),
		All:     entries,
	}
	report := base.WithThreshold(a.cfg.Threshold)

	log.WithFields(map[string]interface{}{
		"codes":    len(entries),
		"notable":  len(report.Notable),
		"duration": time.Since(start).String(),
	}).Info("Strategy merge completed")
	a.logReport(log, report)

	return report, nil
}

// addStrategy appends label once per code and keeps Count == len(Strategies)
func addStrategy(e *contracts.ConsensusEntry, label string) {
	for _, s := range e.Strategies {
		if s == label {
			return
		}
	}
	e.Strategies = append(e.Strategies, label)
	e.Count = len(e.Strategies)
}

func (a *Aggregator) logReport(log *logger.Logger, report *contracts.ConsensusReport) {
	log.Infof("=== 출현 %d회 이상 종목 ===", report.Threshold)
	for _, e := range report.Notable {
		log.WithFields(map[string]interface{}{
			"code":       e.Code,
			"name":       e.Name,
			"count":      e.Count,
			"strategies": e.StrategyText(),
			"score":      e.ScoreText(),
		}).Info("Consensus entry")
	}
}
