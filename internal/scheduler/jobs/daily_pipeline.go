package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/instock/internal/contracts"
	"github.com/wonny/instock/internal/remote"
	"github.com/wonny/instock/pkg/logger"
)

// PipelineFunc runs the daily pipeline for one run date
type PipelineFunc func(ctx context.Context, date time.Time) (*contracts.RunReport, error)

// DailyPipelineJob runs the daily pipeline for the current date
// ⭐ SSOT: 일일 파이프라인 스케줄은 이 Job에서만
type DailyPipelineJob struct {
	run      PipelineFunc
	schedule string
	now      func() time.Time
	logger   *logger.Logger
}

// NewDailyPipelineJob creates a new daily pipeline job
func NewDailyPipelineJob(run PipelineFunc, schedule string, log *logger.Logger) *DailyPipelineJob {
	return &DailyPipelineJob{
		run:      run,
		schedule: schedule,
		now:      time.Now,
		logger:   log,
	}
}

// Name returns the job name
func (j *DailyPipelineJob) Name() string {
	return "daily_pipeline"
}

// Schedule returns the cron schedule (PIPELINE_SCHEDULE, weekdays 5 PM by default)
func (j *DailyPipelineJob) Schedule() string {
	return j.schedule
}

// Run executes the pipeline. A failed stage fails the job so it is retried and
// recorded; reruns are safe because initialization and merge results are idempotent.
// Stages failing only because no stage service is configured are reported, not retried.
func (j *DailyPipelineJob) Run(ctx context.Context) error {
	date := RunDate(j.now())
	j.logger.WithField("date", date.Format(contracts.DateLayout)).Info("Starting scheduled daily pipeline")

	report, err := j.run(ctx, date)
	if err != nil {
		return fmt.Errorf("daily pipeline: %w", err)
	}

	failed, unconfigured := splitFailures(report)
	if len(unconfigured) > 0 {
		j.logger.WithField("stages", unconfigured).Warn("Stage service not configured, stages skipped")
	}
	if len(failed) > 0 {
		return fmt.Errorf("daily pipeline: stages failed: %v", failed)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":  report.RunID,
		"elapsed": report.Elapsed.String(),
	}).Info("Scheduled daily pipeline completed")

	return nil
}

// splitFailures separates retryable stage failures from missing stage service configuration
func splitFailures(report *contracts.RunReport) (failed, unconfigured []contracts.StageName) {
	for _, name := range report.Failed() {
		if errors.Is(report.Outcomes[name].Err, remote.ErrNotConfigured) {
			unconfigured = append(unconfigured, name)
			continue
		}
		failed = append(failed, name)
	}
	return failed, unconfigured
}

// RunDate truncates t to its calendar date in t's location
func RunDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
