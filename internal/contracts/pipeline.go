package contracts

import (
	"context"
	"sort"
	"time"
)

// 일일 파이프라인 Stage 정의 (SSOT)
// 모든 로그, 리포트에서 이 상수를 사용해야 함
//
// 파이프라인 흐름:
//   init → base_data → composite_data → {other_base_data, indicator_data, strategy_data}
//        → merge → backtest → after_close

// StageName identifies a pipeline stage
type StageName string

const (
	// StageInit creates the database and applies one-time migrations
	StageInit StageName = "init"

	// StageBaseData builds the daily spot tables
	StageBaseData StageName = "base_data"

	// StageCompositeData builds the composite stock selection table
	StageCompositeData StageName = "composite_data"

	// StageOtherBaseData builds fund flow, bonus, block trade and top list tables
	StageOtherBaseData StageName = "other_base_data"

	// StageIndicatorData builds the technical indicator tables
	StageIndicatorData StageName = "indicator_data"

	// StageStrategyData runs every strategy and writes one table per strategy
	StageStrategyData StageName = "strategy_data"

	// StageMerge aggregates strategy outputs into the consensus report
	StageMerge StageName = "merge"

	// StageBacktest evaluates past selections
	StageBacktest StageName = "backtest"

	// StageAfterClose builds data only available after market close
	StageAfterClose StageName = "after_close"
)

// String returns the stage name
func (s StageName) String() string {
	return string(s)
}

// Description returns a human readable description of the stage
func (s StageName) Description() string {
	switch s {
	case StageInit:
		return "데이터베이스 초기화"
	case StageBaseData:
		return "기초 데이터"
	case StageCompositeData:
		return "종합 종목 데이터"
	case StageOtherBaseData:
		return "기타 기초 데이터"
	case StageIndicatorData:
		return "지표 데이터"
	case StageStrategyData:
		return "전략 데이터"
	case StageMerge:
		return "전략 합병 선별"
	case StageBacktest:
		return "백테스트"
	case StageAfterClose:
		return "장 마감 후 데이터"
	default:
		return string(s)
	}
}

// StageFunc is the unit of work of a stage
type StageFunc func(ctx context.Context) error

// Stage is one named unit of pipeline work with declared dependencies
type Stage struct {
	Name      StageName
	Action    StageFunc
	DependsOn []StageName

	// Fatal stages abort the whole run when they fail
	Fatal bool
}

// StageStatus is the outcome kind of a stage run
type StageStatus string

const (
	StageSuccess StageStatus = "success"
	StageFailed  StageStatus = "failed"
)

// StageOutcome records one Stage Runner call
type StageOutcome struct {
	Stage     StageName     `json:"stage"`
	StartedAt time.Time     `json:"started_at"`
	Elapsed   time.Duration `json:"elapsed"`
	Status    StageStatus   `json:"status"`
	Err       error         `json:"-"`
}

// OK reports whether the stage succeeded
func (o StageOutcome) OK() bool {
	return o.Status == StageSuccess
}

// ErrorText returns the failure message, empty on success
func (o StageOutcome) ErrorText() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// RunReport accumulates stage outcomes across a pipeline run
type RunReport struct {
	RunID     string                     `json:"run_id"`
	StartedAt time.Time                  `json:"started_at"`
	Elapsed   time.Duration              `json:"elapsed"`
	Outcomes  map[StageName]StageOutcome `json:"outcomes"`

	// Order lists stages in the order their runner call returned
	Order []StageName `json:"order"`
}

// NewRunReport creates an empty report
func NewRunReport(runID string, startedAt time.Time) *RunReport {
	return &RunReport{
		RunID:     runID,
		StartedAt: startedAt,
		Outcomes:  make(map[StageName]StageOutcome),
	}
}

// Record stores an outcome
func (r *RunReport) Record(o StageOutcome) {
	r.Outcomes[o.Stage] = o
	r.Order = append(r.Order, o.Stage)
}

// Failed returns the names of failed stages, sorted
func (r *RunReport) Failed() []StageName {
	failed := make([]StageName, 0)
	for name, o := range r.Outcomes {
		if !o.OK() {
			failed = append(failed, name)
		}
	}
	sort.Slice(failed, func(i, j int) bool { return failed[i] < failed[j] })
	return failed
}

// Succeeded reports whether every recorded stage succeeded
func (r *RunReport) Succeeded() bool {
	return len(r.Failed()) == 0
}
