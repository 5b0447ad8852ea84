package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/instock/internal/contracts"
	"github.com/wonny/instock/pkg/logger"
)

// Runner executes one stage and captures its timing and outcome
type Runner struct {
	logger *logger.Logger
}

// NewRunner creates a new stage runner
func NewRunner(log *logger.Logger) *Runner {
	return &Runner{logger: log}
}

// Run executes the stage action. Errors and panics become a failed outcome,
// nothing propagates to the caller.
func (r *Runner) Run(ctx context.Context, stage contracts.Stage) contracts.StageOutcome {
	outcome := contracts.StageOutcome{
		Stage:     stage.Name,
		StartedAt: time.Now(),
	}

	err := r.invoke(ctx, stage)
	outcome.Elapsed = time.Since(outcome.StartedAt)

	log := r.logger.WithFields(map[string]interface{}{
		"stage":   stage.Name,
		"elapsed": outcome.Elapsed.String(),
	})

	if err != nil {
		outcome.Status = contracts.StageFailed
		outcome.Err = err
		log.WithError(err).Error(fmt.Sprintf("%s 처리 실패", stage.Name.Description()))
		return outcome
	}

	outcome.Status = contracts.StageSuccess
	log.Info(fmt.Sprintf("%s 처리 완료", stage.Name.Description()))
	return outcome
}

func (r *Runner) invoke(ctx context.Context, stage contracts.Stage) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("stage %s panicked: %v", stage.Name, rec)
		}
	}()
	return stage.Action(ctx)
}
