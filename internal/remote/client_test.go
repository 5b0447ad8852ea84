package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/instock/internal/contracts"
	"github.com/wonny/instock/pkg/config"
	"github.com/wonny/instock/pkg/httputil"
	"github.com/wonny/instock/pkg/logger"
)

var runDate = time.Date(2024, 12, 26, 0, 0, 0, 0, time.UTC)

func newHTTPClient() *httputil.Client {
	return httputil.New(&config.Config{}, logger.Nop()).DisableRetry()
}

func TestTrigger(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/jobs/indicator_data", r.URL.Path)
		assert.Equal(t, "2024-12-26", r.URL.Query().Get("date"))

		var body triggerRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, triggerRequest{Stage: "indicator_data", Date: "2024-12-26"}, body)

		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := NewClient(newHTTPClient(), server.URL+"/", logger.Nop())
	require.NoError(t, client.Action(contracts.StageIndicatorData, runDate)(context.Background()))
}

func TestTrigger_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte("stage already running\n"))
	}))
	defer server.Close()

	client := NewClient(newHTTPClient(), server.URL, logger.Nop())
	err := client.Trigger(context.Background(), contracts.StageBaseData, runDate)
	require.Error(t, err)

	var statusErr *httputil.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusConflict, statusErr.StatusCode)
	assert.Contains(t, err.Error(), "stage already running")
}

func TestTrigger_NotConfigured(t *testing.T) {
	client := NewClient(newHTTPClient(), "", logger.Nop())

	err := client.Trigger(context.Background(), contracts.StageBaseData, runDate)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestStageTransport_SlowStagePostedOnce(t *testing.T) {
	var posts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts.Add(1)
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(NewHTTPClient(&config.Config{}, logger.Nop()), server.URL, logger.Nop())
	require.NoError(t, client.Trigger(context.Background(), contracts.StageBaseData, runDate))
	assert.Equal(t, int32(1), posts.Load())
}

func TestStageTransport_FailureNotResent(t *testing.T) {
	var posts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(NewHTTPClient(&config.Config{}, logger.Nop()), server.URL, logger.Nop())
	err := client.Trigger(context.Background(), contracts.StageBaseData, runDate)

	var statusErr *httputil.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, int32(1), posts.Load())
}
