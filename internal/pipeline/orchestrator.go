package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/instock/internal/contracts"
	"github.com/wonny/instock/pkg/logger"
)

// Orchestrator runs a stage graph level by level
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Orchestrator struct {
	graph   *Graph
	runner  *Runner
	workers int
	logger  *logger.Logger
}

// NewOrchestrator creates an orchestrator.
// workers bounds the concurrency of a parallel level.
func NewOrchestrator(graph *Graph, workers int, log *logger.Logger) *Orchestrator {
	if workers < 1 {
		workers = 1
	}
	log = log.WithField("module", "pipeline")
	return &Orchestrator{
		graph:   graph,
		runner:  NewRunner(log),
		workers: workers,
		logger:  log,
	}
}

// Run executes every level in order and returns the report.
// Only a fatal stage failure returns an error; the partial report is returned with it.
func (o *Orchestrator) Run(ctx context.Context) (*contracts.RunReport, error) {
	start := time.Now()
	report := contracts.NewRunReport(uuid.New().String(), start)
	log := o.logger.WithField("run_id", report.RunID)

	log.WithField("stages", o.graph.Len()).Info("######## 일일 작업 시작 ########")

	for i, level := range o.graph.Levels() {
		outcomes := o.runLevel(ctx, level)

		for _, outcome := range outcomes {
			report.Record(outcome)
		}

		log.WithFields(map[string]interface{}{
			"level":      i,
			"stages":     stageNames(level),
			"cumulative": time.Since(start).String(),
		}).Info("Level completed")

		if err := fatalError(level, outcomes); err != nil {
			report.Elapsed = time.Since(start)
			log.WithError(err).WithField("elapsed", report.Elapsed.String()).Error("######## 일일 작업 중단 ########")
			return report, err
		}
	}

	report.Elapsed = time.Since(start)
	log.WithFields(map[string]interface{}{
		"elapsed": report.Elapsed.String(),
		"failed":  report.Failed(),
	}).Info("######## 일일 작업 완료 ########")

	return report, nil
}

// runLevel runs a single stage inline and larger levels on a bounded worker group.
// Outcomes are returned in completion order.
func (o *Orchestrator) runLevel(ctx context.Context, level []contracts.Stage) []contracts.StageOutcome {
	if len(level) == 1 {
		return []contracts.StageOutcome{o.runner.Run(ctx, level[0])}
	}

	var (
		mu       sync.Mutex
		outcomes = make([]contracts.StageOutcome, 0, len(level))
	)

	// no context: a failing member must not cancel its siblings
	var g errgroup.Group
	g.SetLimit(o.workers)

	for _, stage := range level {
		stage := stage
		g.Go(func() error {
			outcome := o.runner.Run(ctx, stage)
			mu.Lock()
			outcomes = append(outcomes, outcome)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func fatalError(level []contracts.Stage, outcomes []contracts.StageOutcome) error {
	fatal := make(map[contracts.StageName]bool, len(level))
	for _, s := range level {
		fatal[s.Name] = s.Fatal
	}
	for _, outcome := range outcomes {
		if !outcome.OK() && fatal[outcome.Stage] {
			return fmt.Errorf("fatal stage %s failed: %w", outcome.Stage, outcome.Err)
		}
	}
	return nil
}

func stageNames(level []contracts.Stage) []string {
	names := make([]string, len(level))
	for i, s := range level {
		names[i] = s.Name.String()
	}
	return names
}
