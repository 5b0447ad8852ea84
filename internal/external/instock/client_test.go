package instock

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/instock/internal/contracts"
	"github.com/wonny/instock/pkg/config"
	"github.com/wonny/instock/pkg/httputil"
	"github.com/wonny/instock/pkg/logger"
)

var runDate = time.Date(2024, 12, 26, 0, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	httpClient := httputil.New(&config.Config{}, logger.Nop()).DisableRetry()
	return NewClient(httpClient, server.URL+"/", logger.Nop())
}

func TestFetchStageOutput(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/instock/api_data", r.URL.Path)
		assert.Equal(t, "cn_stock_strategy_enter", r.URL.Query().Get("name"))
		assert.Equal(t, "2024-12-26", r.URL.Query().Get("date"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"date": "2024-12-26", "code": "000001", "name": "平安银行", "volume": 1200},
			{"date": "2024-12-26", "code": "600519", "name": "贵州茅台"}
		]`))
	})

	rows := client.FetchStageOutput(context.Background(), "cn_stock_strategy_enter", runDate)

	assert.Equal(t, []contracts.StrategyRow{
		{Code: "000001", Name: "平安银行"},
		{Code: "600519", Name: "贵州茅台"},
	}, rows)
}

func TestFetchStageOutput_DropsMalformedRows(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"code": "000001", "name": "平安银行"},
			{"code": 600519, "name": "numeric code"},
			{"name": "no code"},
			{"code": "12", "name": "short code"},
			"not an object",
			{"code": " 300750 "}
		]`))
	})

	rows := client.FetchStageOutput(context.Background(), "cn_stock_strategy_enter", runDate)

	assert.Equal(t, []contracts.StrategyRow{
		{Code: "000001", Name: "平安银行"},
		{Code: "300750"},
	}, rows)
}

func TestFetchStageOutput_FailuresYieldEmpty(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "not json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`<html>error</html>`))
			},
		},
		{
			name: "object instead of array",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"error": "table not found"}`))
			},
		},
		{
			name: "null",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`null`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)
			rows := client.FetchStageOutput(context.Background(), "cn_stock_strategy_enter", runDate)
			assert.NotNil(t, rows)
			assert.Empty(t, rows)
		})
	}
}
