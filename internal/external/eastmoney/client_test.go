package eastmoney

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/instock/pkg/config"
	"github.com/wonny/instock/pkg/httputil"
	"github.com/wonny/instock/pkg/logger"
	"github.com/wonny/instock/pkg/redis"
)

var runDate = time.Date(2024, 12, 26, 0, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T, body string, status int) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/web/api/data/v1/get", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "RPT_CUSTOM_STOCK_PK", q.Get("reportName"))
		assert.Equal(t, "ALL", q.Get("columns"))
		assert.Equal(t, `(SECURITY_CODE="002292")`, q.Get("filter"))
		assert.Equal(t, "WEB", q.Get("client"))

		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	httpClient := httputil.New(&config.Config{}, logger.Nop()).DisableRetry()
	return NewClient(httpClient, server.URL, logger.Nop())
}

func TestFetchScore(t *testing.T) {
	client := newTestClient(t, `{
		"version": "b1a0",
		"result": {"pages": 1, "data": [{"SECURITY_CODE": "002292", "RISE_1_PROBABILITY": 57.14}], "count": 1},
		"success": true,
		"message": "ok",
		"code": 0
	}`, http.StatusOK)

	score := client.FetchScore(context.Background(), "002292", runDate)
	require.NotNil(t, score)
	assert.InDelta(t, 57.14, *score, 1e-9)
}

func TestFetchScore_Unavailable(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"not successful", `{"success": false, "message": "返回数据为空", "result": null}`, http.StatusOK},
		{"null result", `{"success": true, "result": null}`, http.StatusOK},
		{"empty data", `{"success": true, "result": {"data": []}}`, http.StatusOK},
		{"missing field", `{"success": true, "result": {"data": [{"SECURITY_CODE": "002292"}]}}`, http.StatusOK},
		{"null field", `{"success": true, "result": {"data": [{"RISE_1_PROBABILITY": null}]}}`, http.StatusOK},
		{"string field", `{"success": true, "result": {"data": [{"RISE_1_PROBABILITY": "57.1"}]}}`, http.StatusOK},
		{"malformed json", `{"success": tru`, http.StatusOK},
		{"server error", `{}`, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.body, tt.status)
			assert.Nil(t, client.FetchScore(context.Background(), "002292", runDate))
		})
	}
}

// countingScorer returns a fixed score and counts calls
type countingScorer struct {
	score *float64
	calls int
}

func (s *countingScorer) FetchScore(ctx context.Context, code string, date time.Time) *float64 {
	s.calls++
	return s.score
}

func TestCachedScorer_DisabledCachePassesThrough(t *testing.T) {
	v := 61.0
	next := &countingScorer{score: &v}
	scorer := NewCachedScorer(next, redis.NewCache(redis.Disabled(), "instock"), logger.Nop())

	first := scorer.FetchScore(context.Background(), "600519", runDate)
	second := scorer.FetchScore(context.Background(), "600519", runDate)

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, 61.0, *first)
	assert.Equal(t, 2, next.calls)
}

func TestCachedScorer_Unavailable(t *testing.T) {
	next := &countingScorer{}
	scorer := NewCachedScorer(next, redis.NewCache(redis.Disabled(), "instock"), logger.Nop())

	assert.Nil(t, scorer.FetchScore(context.Background(), "600519", runDate))
	assert.Equal(t, 1, next.calls)
}
