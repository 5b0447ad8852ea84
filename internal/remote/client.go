package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/instock/internal/contracts"
	"github.com/wonny/instock/pkg/config"
	"github.com/wonny/instock/pkg/httputil"
	"github.com/wonny/instock/pkg/logger"
)

// ErrNotConfigured is returned when no stage service URL is set
var ErrNotConfigured = errors.New("stage service not configured")

// maxErrorBody bounds the response text kept in errors
const maxErrorBody = 512

// Client triggers data-prep stages on the stage service
// ⭐ SSOT: 데이터 준비 Stage 원격 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new stage service client. An empty baseURL makes every trigger fail with ErrNotConfigured.
func NewClient(httpClient *httputil.Client, baseURL string, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("client", "stage_service"),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// NewHTTPClient returns the transport for stage triggers: no client timeout and no retry.
// A trigger returns when the stage finishes, so the caller's ctx is the only bound and
// a resent POST would run the stage twice.
func NewHTTPClient(cfg *config.Config, log *logger.Logger) *httputil.Client {
	return httputil.NewWithTimeout(cfg, log, 0).DisableRetry()
}

type triggerRequest struct {
	Stage string `json:"stage"`
	Date  string `json:"date"`
}

// Trigger runs one stage for date: POST {base}/jobs/{stage}?date=YYYY-MM-DD.
// Any 2xx response is success.
func (c *Client) Trigger(ctx context.Context, stage contracts.StageName, date time.Time) error {
	if c.baseURL == "" {
		return fmt.Errorf("%w: %s", ErrNotConfigured, stage)
	}

	day := date.Format(contracts.DateLayout)
	fullURL := fmt.Sprintf("%s/jobs/%s?%s", c.baseURL, url.PathEscape(stage.String()), url.Values{"date": {day}}.Encode())

	resp, err := c.httpClient.PostJSON(ctx, fullURL, triggerRequest{Stage: stage.String(), Date: day})
	if err != nil {
		return fmt.Errorf("trigger %s: %w", stage, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("trigger %s: %w: %s", stage,
			&httputil.StatusError{URL: fullURL, StatusCode: resp.StatusCode},
			strings.TrimSpace(string(body)))
	}

	c.logger.WithFields(map[string]interface{}{
		"stage": stage,
		"date":  day,
	}).Debug("Stage triggered")

	return nil
}

// Action binds stage and date into a pipeline stage action
func (c *Client) Action(stage contracts.StageName, date time.Time) contracts.StageFunc {
	return func(ctx context.Context) error {
		return c.Trigger(ctx, stage, date)
	}
}
