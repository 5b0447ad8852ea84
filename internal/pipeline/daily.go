package pipeline

import (
	"github.com/wonny/instock/internal/contracts"
)

// DailyStages holds the action of every stage of the daily job
type DailyStages struct {
	Init          contracts.StageFunc
	BaseData      contracts.StageFunc
	CompositeData contracts.StageFunc
	OtherBaseData contracts.StageFunc
	IndicatorData contracts.StageFunc
	StrategyData  contracts.StageFunc
	Merge         contracts.StageFunc
	Backtest      contracts.StageFunc
	AfterClose    contracts.StageFunc
}

// NewDailyGraph builds the fixed daily graph:
//
//	init → base_data → composite_data → {other_base_data, indicator_data, strategy_data}
//	     → merge → backtest → after_close
func NewDailyGraph(s DailyStages) (*Graph, error) {
	parallel := []contracts.StageName{
		contracts.StageOtherBaseData,
		contracts.StageIndicatorData,
		contracts.StageStrategyData,
	}

	return NewGraph(
		contracts.Stage{Name: contracts.StageInit, Action: s.Init, Fatal: true},
		contracts.Stage{Name: contracts.StageBaseData, Action: s.BaseData,
			DependsOn: []contracts.StageName{contracts.StageInit}},
		contracts.Stage{Name: contracts.StageCompositeData, Action: s.CompositeData,
			DependsOn: []contracts.StageName{contracts.StageBaseData}},
		contracts.Stage{Name: contracts.StageOtherBaseData, Action: s.OtherBaseData,
			DependsOn: []contracts.StageName{contracts.StageCompositeData}},
		contracts.Stage{Name: contracts.StageIndicatorData, Action: s.IndicatorData,
			DependsOn: []contracts.StageName{contracts.StageCompositeData}},
		contracts.Stage{Name: contracts.StageStrategyData, Action: s.StrategyData,
			DependsOn: []contracts.StageName{contracts.StageCompositeData}},
		contracts.Stage{Name: contracts.StageMerge, Action: s.Merge, DependsOn: parallel},
		contracts.Stage{Name: contracts.StageBacktest, Action: s.Backtest,
			DependsOn: []contracts.StageName{contracts.StageMerge}},
		contracts.Stage{Name: contracts.StageAfterClose, Action: s.AfterClose,
			DependsOn: []contracts.StageName{contracts.StageBacktest}},
	)
}
