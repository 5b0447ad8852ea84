package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/instock/internal/api/handlers"
	"github.com/wonny/instock/internal/consensus"
	"github.com/wonny/instock/internal/contracts"
	"github.com/wonny/instock/internal/performance"
	"github.com/wonny/instock/pkg/logger"
)

var savedDate = time.Date(2024, 12, 26, 0, 0, 0, 0, time.UTC)

type fakePinger struct{ err error }

func (p fakePinger) Ping(ctx context.Context) error { return p.err }

type fakeConsensus struct {
	entries map[time.Time][]contracts.ConsensusEntry
	err     error
}

func (f *fakeConsensus) Latest(ctx context.Context) (time.Time, []contracts.ConsensusEntry, error) {
	if f.err != nil {
		return time.Time{}, nil, f.err
	}
	return savedDate, f.entries[savedDate], nil
}

func (f *fakeConsensus) ByDate(ctx context.Context, date time.Time) ([]contracts.ConsensusEntry, error) {
	return f.entries[date], nil
}

type fakePerformance struct {
	results map[time.Time]*performance.Result
}

func (f *fakePerformance) ByDate(ctx context.Context, date time.Time) (*performance.Result, error) {
	return f.results[date], nil
}

type panicPerformance struct{}

func (panicPerformance) ByDate(ctx context.Context, date time.Time) (*performance.Result, error) {
	panic("nil pool")
}

func newTestRouter(c handlers.ConsensusReader, p handlers.PerformanceReader, db handlers.Pinger) http.Handler {
	log := logger.Nop()
	return NewRouter(Handlers{
		Health:      handlers.NewHealthHandler(db),
		Consensus:   handlers.NewConsensusHandler(c, log),
		Performance: handlers.NewPerformanceHandler(p, log),
	}, log)
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	ok := get(t, newTestRouter(&fakeConsensus{}, &fakePerformance{}, fakePinger{}), "/health")
	assert.Equal(t, http.StatusOK, ok.Code)

	down := get(t, newTestRouter(&fakeConsensus{}, &fakePerformance{}, fakePinger{err: errors.New("refused")}), "/health")
	assert.Equal(t, http.StatusServiceUnavailable, down.Code)
}

func TestConsensusRoutes(t *testing.T) {
	score := 57.1
	reader := &fakeConsensus{entries: map[time.Time][]contracts.ConsensusEntry{
		savedDate: {
			{Code: "600519", Name: "贵州茅台", Count: 3, Strategies: []string{"放量上涨", "均线多头", "停机坪"}, Score: &score},
			{Code: "000001", Name: "平安银行", Count: 2, Strategies: []string{"放量上涨", "海龟交易"}},
		},
	}}
	router := newTestRouter(reader, &fakePerformance{}, fakePinger{})

	for _, path := range []string{"/api/consensus/latest", "/api/consensus/2024-12-26"} {
		t.Run(path, func(t *testing.T) {
			rec := get(t, router, path)
			require.Equal(t, http.StatusOK, rec.Code)

			var body handlers.ConsensusResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "2024-12-26", body.Date)
			require.Len(t, body.Items, 2)
			assert.Equal(t, 1, body.Items[0].Rank)
			assert.Equal(t, "57.1", body.Items[0].Score)
			assert.Equal(t, contracts.ScoreUnavailable, body.Items[1].Score)
		})
	}

	assert.Equal(t, http.StatusNotFound, get(t, router, "/api/consensus/2024-12-27").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, router, "/api/consensus/yesterday").Code)
}

func TestConsensusLatest_NothingSaved(t *testing.T) {
	router := newTestRouter(&fakeConsensus{err: consensus.ErrNoReport}, &fakePerformance{}, fakePinger{})
	assert.Equal(t, http.StatusNotFound, get(t, router, "/api/consensus/latest").Code)
}

func TestPerformanceRoute(t *testing.T) {
	trades := []performance.Trade{performance.NewTrade("600519", "贵州茅台", nil, nil, 1500, 1530)}
	reader := &fakePerformance{results: map[time.Time]*performance.Result{
		savedDate: {Date: savedDate, Summary: performance.Summarize(trades), Trades: trades},
	}}
	router := newTestRouter(&fakeConsensus{}, reader, fakePinger{})

	rec := get(t, router, "/api/performance/2024-12-26")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_trades":1`)

	assert.Equal(t, http.StatusNotFound, get(t, router, "/api/performance/2024-12-20").Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	router := newTestRouter(&fakeConsensus{}, panicPerformance{}, fakePinger{})

	rec := get(t, router, "/api/performance/2024-12-26")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
