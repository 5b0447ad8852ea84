package instock

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/wonny/instock/internal/contracts"
	"github.com/wonny/instock/pkg/httputil"
	"github.com/wonny/instock/pkg/logger"
)

var codePattern = regexp.MustCompile(`^[0-9]{6}$`)

// Client reads strategy stage outputs from the instock web service
// ⭐ SSOT: instock api_data 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new instock web client
func NewClient(httpClient *httputil.Client, baseURL string, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("client", "instock"),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// apiRow is the subset of an api_data row the merge needs
type apiRow struct {
	Code *string `json:"code"`
	Name *string `json:"name"`
}

// FetchStageOutput calls GET /instock/api_data?name=<table>&date=<date>.
// Transport failures and malformed payloads yield an empty slice. Malformed rows are dropped.
func (c *Client) FetchStageOutput(ctx context.Context, strategy string, date time.Time) []contracts.StrategyRow {
	params := url.Values{}
	params.Set("name", strategy)
	params.Set("date", date.Format(contracts.DateLayout))
	fullURL := fmt.Sprintf("%s/instock/api_data?%s", c.baseURL, params.Encode())

	log := c.logger.WithFields(map[string]interface{}{
		"strategy": strategy,
		"date":     date.Format(contracts.DateLayout),
	})

	var raw []json.RawMessage
	if err := c.httpClient.GetJSON(ctx, fullURL, &raw); err != nil {
		log.WithError(err).Warn("Failed to fetch stage output")
		return []contracts.StrategyRow{}
	}

	rows, dropped := parseRows(raw)
	if dropped > 0 {
		log.WithField("dropped", dropped).Warn("Malformed stage output rows dropped")
	}

	return rows
}

func parseRows(raw []json.RawMessage) ([]contracts.StrategyRow, int) {
	rows := make([]contracts.StrategyRow, 0, len(raw))
	dropped := 0

	for _, msg := range raw {
		var r apiRow
		if err := json.Unmarshal(msg, &r); err != nil || r.Code == nil {
			dropped++
			continue
		}

		code := strings.TrimSpace(*r.Code)
		if !codePattern.MatchString(code) {
			dropped++
			continue
		}

		row := contracts.StrategyRow{Code: code}
		if r.Name != nil {
			row.Name = strings.TrimSpace(*r.Name)
		}
		rows = append(rows, row)
	}

	return rows, dropped
}
