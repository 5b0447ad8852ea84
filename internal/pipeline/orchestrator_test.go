package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/instock/internal/contracts"
	"github.com/wonny/instock/pkg/logger"
)

// recorder collects start/end events of every stage
type recorder struct {
	mu     sync.Mutex
	starts map[contracts.StageName]time.Time
	ends   map[contracts.StageName]time.Time
	errs   map[contracts.StageName]error
}

func newRecorder() *recorder {
	return &recorder{
		starts: make(map[contracts.StageName]time.Time),
		ends:   make(map[contracts.StageName]time.Time),
		errs:   make(map[contracts.StageName]error),
	}
}

func (r *recorder) action(name contracts.StageName) contracts.StageFunc {
	return func(ctx context.Context) error {
		r.mu.Lock()
		r.starts[name] = time.Now()
		err := r.errs[name]
		r.mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		r.mu.Lock()
		r.ends[name] = time.Now()
		r.mu.Unlock()
		return err
	}
}

func (r *recorder) dailyStages() DailyStages {
	return DailyStages{
		Init:          r.action(contracts.StageInit),
		BaseData:      r.action(contracts.StageBaseData),
		CompositeData: r.action(contracts.StageCompositeData),
		OtherBaseData: r.action(contracts.StageOtherBaseData),
		IndicatorData: r.action(contracts.StageIndicatorData),
		StrategyData:  r.action(contracts.StageStrategyData),
		Merge:         r.action(contracts.StageMerge),
		Backtest:      r.action(contracts.StageBacktest),
		AfterClose:    r.action(contracts.StageAfterClose),
	}
}

func newDailyOrchestrator(t *testing.T, r *recorder, workers int) *Orchestrator {
	t.Helper()
	g, err := NewDailyGraph(r.dailyStages())
	require.NoError(t, err)
	return NewOrchestrator(g, workers, logger.Nop())
}

func TestOrchestrator_Ordering(t *testing.T) {
	r := newRecorder()
	report, err := newDailyOrchestrator(t, r, 3).Run(context.Background())
	require.NoError(t, err)
	require.True(t, report.Succeeded())
	require.Len(t, report.Order, 9)
	assert.NotEmpty(t, report.RunID)

	before := func(a, b contracts.StageName) {
		assert.False(t, r.ends[a].After(r.starts[b]), "%s must finish before %s starts", a, b)
	}

	before(contracts.StageInit, contracts.StageBaseData)
	before(contracts.StageBaseData, contracts.StageCompositeData)
	for _, p := range []contracts.StageName{
		contracts.StageOtherBaseData, contracts.StageIndicatorData, contracts.StageStrategyData,
	} {
		before(contracts.StageCompositeData, p)
		before(p, contracts.StageMerge)
	}
	before(contracts.StageMerge, contracts.StageBacktest)
	before(contracts.StageBacktest, contracts.StageAfterClose)
}

func TestOrchestrator_FailureIsolation(t *testing.T) {
	r := newRecorder()
	r.errs[contracts.StageIndicatorData] = errors.New("indicator table locked")

	report, err := newDailyOrchestrator(t, r, 3).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []contracts.StageName{contracts.StageIndicatorData}, report.Failed())
	assert.True(t, report.Outcomes[contracts.StageOtherBaseData].OK())
	assert.True(t, report.Outcomes[contracts.StageStrategyData].OK())
	assert.True(t, report.Outcomes[contracts.StageMerge].OK())
	assert.True(t, report.Outcomes[contracts.StageAfterClose].OK())
	assert.Equal(t, "indicator table locked", report.Outcomes[contracts.StageIndicatorData].ErrorText())
}

func TestOrchestrator_FatalInitAborts(t *testing.T) {
	r := newRecorder()
	r.errs[contracts.StageInit] = errors.New("connection refused")

	report, err := newDailyOrchestrator(t, r, 3).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	require.NotNil(t, report)
	assert.Equal(t, []contracts.StageName{contracts.StageInit}, report.Order)
	_, started := r.starts[contracts.StageBaseData]
	assert.False(t, started)
}

func TestOrchestrator_NonFatalSequentialFailureContinues(t *testing.T) {
	r := newRecorder()
	r.errs[contracts.StageBaseData] = errors.New("spot fetch failed")

	report, err := newDailyOrchestrator(t, r, 3).Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.Order, 9)
	assert.Equal(t, []contracts.StageName{contracts.StageBaseData}, report.Failed())
}

func TestOrchestrator_ParallelLevelRunsConcurrently(t *testing.T) {
	var running, peak int32
	release := make(chan struct{})
	started := make(chan struct{}, 3)

	parallel := func(ctx context.Context) error {
		n := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		started <- struct{}{}
		<-release
		atomic.AddInt32(&running, -1)
		return nil
	}

	g, err := NewGraph(
		stage("root"),
		contracts.Stage{Name: "p1", Action: parallel, DependsOn: []contracts.StageName{"root"}},
		contracts.Stage{Name: "p2", Action: parallel, DependsOn: []contracts.StageName{"root"}},
		contracts.Stage{Name: "p3", Action: parallel, DependsOn: []contracts.StageName{"root"}},
	)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = NewOrchestrator(g, 3, logger.Nop()).Run(context.Background())
	}()

	for i := 0; i < 3; i++ {
		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Fatal("parallel stages did not start together")
		}
	}
	close(release)
	<-done

	assert.Equal(t, int32(3), atomic.LoadInt32(&peak))
}

func TestOrchestrator_WorkerBound(t *testing.T) {
	var running, peak int32

	bounded := func(ctx context.Context) error {
		n := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return nil
	}

	stages := []contracts.Stage{stage("root")}
	for _, name := range []contracts.StageName{"p1", "p2", "p3", "p4"} {
		stages = append(stages, contracts.Stage{
			Name: name, Action: bounded, DependsOn: []contracts.StageName{"root"},
		})
	}
	g, err := NewGraph(stages...)
	require.NoError(t, err)

	report, err := NewOrchestrator(g, 1, logger.Nop()).Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.Order, 5)
	assert.Equal(t, int32(1), atomic.LoadInt32(&peak))
}
