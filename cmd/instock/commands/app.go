package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/instock/internal/bootstrap"
	"github.com/wonny/instock/internal/consensus"
	"github.com/wonny/instock/internal/contracts"
	"github.com/wonny/instock/internal/external/eastmoney"
	"github.com/wonny/instock/internal/external/instock"
	"github.com/wonny/instock/internal/performance"
	"github.com/wonny/instock/internal/pipeline"
	"github.com/wonny/instock/internal/remote"
	"github.com/wonny/instock/internal/stageoutput"
	"github.com/wonny/instock/pkg/config"
	"github.com/wonny/instock/pkg/database"
	"github.com/wonny/instock/pkg/httputil"
	"github.com/wonny/instock/pkg/logger"
	"github.com/wonny/instock/pkg/redis"
)

// app holds the shared dependencies of every command
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	db    *database.DB
	redis *redis.Client
	http  *httputil.Client
	merge *consensus.Config
}

// newApp wires the ambient stack. The pool is opened lazily so that the
// initialization stage can still create a missing database.
func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log := logger.New(cfg)

	mergeCfg, err := consensus.LoadConfig(cfg.Pipeline.StrategyConfigPath)
	if err != nil {
		return nil, err
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	redisClient, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, score cache disabled")
		redisClient = redis.Disabled()
	}

	return &app{
		cfg:   cfg,
		log:   log,
		db:    db,
		redis: redisClient,
		http:  httputil.New(cfg, log),
		merge: mergeCfg,
	}, nil
}

func (a *app) Close() {
	_ = a.redis.Close()
	a.db.Close()
}

func (a *app) guard() *bootstrap.Guard {
	store := bootstrap.NewRepository(a.db, a.cfg.Database)
	return bootstrap.NewGuard(store, a.log, bootstrap.DefaultMigrations()...)
}

func (a *app) stageOutputs() contracts.StageOutputFetcher {
	if a.cfg.Pipeline.StageOutputSource == "http" {
		return instock.NewClient(a.http, a.cfg.External.InstockBaseURL, a.log)
	}
	return stageoutput.NewRepository(a.db.Pool, a.merge.Tables(), a.log)
}

func (a *app) scorer() contracts.ScoreFetcher {
	client := eastmoney.NewClient(a.http, a.cfg.External.EastmoneyBaseURL, a.log)
	return eastmoney.NewCachedScorer(client, redis.NewCache(a.redis, "instock"), a.log)
}

func (a *app) aggregator(threshold int) *consensus.Aggregator {
	cfg := *a.merge
	if threshold > 0 {
		cfg.Threshold = threshold
	}
	return consensus.NewAggregator(&cfg, a.stageOutputs(), a.scorer(), a.log)
}

func (a *app) consensusRepo() *consensus.Repository {
	return consensus.NewRepository(a.db.Pool)
}

func (a *app) analyzer() *performance.Analyzer {
	return performance.NewAnalyzer(
		a.consensusRepo(),
		performance.NewPriceRepository(a.db.Pool),
		performance.NewRepository(a.db.Pool),
		a.log,
	)
}

// mergeAndSave is the merge stage action
func (a *app) mergeAndSave(ctx context.Context, date time.Time) error {
	report, err := a.aggregator(0).Merge(ctx, date)
	if err != nil {
		return err
	}
	return a.consensusRepo().Save(ctx, report)
}

// dailyGraph builds the daily stage graph for one run date
func (a *app) dailyGraph(date time.Time) (*pipeline.Graph, error) {
	stages := remote.NewClient(remote.NewHTTPClient(a.cfg, a.log), a.cfg.Pipeline.StageServiceURL, a.log)

	return pipeline.NewDailyGraph(pipeline.DailyStages{
		Init:          a.guard().EnsureDatabaseReady,
		BaseData:      stages.Action(contracts.StageBaseData, date),
		CompositeData: stages.Action(contracts.StageCompositeData, date),
		OtherBaseData: stages.Action(contracts.StageOtherBaseData, date),
		IndicatorData: stages.Action(contracts.StageIndicatorData, date),
		StrategyData:  stages.Action(contracts.StageStrategyData, date),
		Merge: func(ctx context.Context) error {
			return a.mergeAndSave(ctx, date)
		},
		Backtest:   stages.Action(contracts.StageBacktest, date),
		AfterClose: stages.Action(contracts.StageAfterClose, date),
	})
}

// runDaily runs the whole daily pipeline for date
func (a *app) runDaily(ctx context.Context, date time.Time) (*contracts.RunReport, error) {
	graph, err := a.dailyGraph(date)
	if err != nil {
		return nil, fmt.Errorf("build daily graph: %w", err)
	}

	orchestrator := pipeline.NewOrchestrator(graph, a.cfg.Pipeline.Workers, a.log.WithField("date", date.Format(contracts.DateLayout)))
	return orchestrator.Run(ctx)
}
