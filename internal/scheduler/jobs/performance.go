package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/instock/internal/contracts"
	"github.com/wonny/instock/internal/performance"
	"github.com/wonny/instock/pkg/logger"
)

// Analyzer measures the previous recommendation
type Analyzer interface {
	Analyze(ctx context.Context, date time.Time) (*performance.Result, error)
}

// PerformanceJob analyzes the previous recommendation during the session
type PerformanceJob struct {
	analyzer Analyzer
	now      func() time.Time
	logger   *logger.Logger
}

// NewPerformanceJob creates a new performance analysis job
func NewPerformanceJob(analyzer Analyzer, log *logger.Logger) *PerformanceJob {
	return &PerformanceJob{
		analyzer: analyzer,
		now:      time.Now,
		logger:   log,
	}
}

// Name returns the job name
func (j *PerformanceJob) Name() string {
	return "strategy_performance"
}

// Schedule returns the cron schedule (weekdays 10:30)
func (j *PerformanceJob) Schedule() string {
	return "0 30 10 * * MON-FRI"
}

// Run executes the analysis. Missing data is not a failure.
func (j *PerformanceJob) Run(ctx context.Context) error {
	date := RunDate(j.now())

	result, err := j.analyzer.Analyze(ctx, date)
	if err != nil {
		return fmt.Errorf("analyze performance: %w", err)
	}
	if result == nil {
		j.logger.WithField("date", date.Format(contracts.DateLayout)).Info("No performance data for today")
	}

	return nil
}
