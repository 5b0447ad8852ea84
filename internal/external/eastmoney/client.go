package eastmoney

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/instock/pkg/httputil"
	"github.com/wonny/instock/pkg/logger"
)

const (
	reportName = "RPT_CUSTOM_STOCK_PK"
	scoreField = "RISE_1_PROBABILITY"
)

// Client fetches the next-day rise probability from the Eastmoney data center
// ⭐ SSOT: 동방재부(Eastmoney) API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new Eastmoney client
func NewClient(httpClient *httputil.Client, baseURL string, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("client", "eastmoney"),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// reportResponse is the data center envelope
type reportResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Result  *reportResult `json:"result"`
}

type reportResult struct {
	Data []reportRow `json:"data"`
}

type reportRow struct {
	SecurityCode     string   `json:"SECURITY_CODE"`
	Rise1Probability *float64 `json:"RISE_1_PROBABILITY"`
}

// FetchScore returns RISE_1_PROBABILITY of code, nil when unavailable.
// The report always holds the latest statistics, date is not sent.
func (c *Client) FetchScore(ctx context.Context, code string, date time.Time) *float64 {
	log := c.logger.WithField("code", code)

	var resp reportResponse
	if err := c.httpClient.GetJSON(ctx, c.reportURL(code), &resp); err != nil {
		log.WithError(err).Warn("Failed to fetch score")
		return nil
	}

	score, err := resp.score()
	if err != nil {
		log.WithError(err).Warn("No valid score")
		return nil
	}

	return score
}

func (c *Client) reportURL(code string) string {
	params := url.Values{}
	params.Set("reportName", reportName)
	params.Set("columns", "ALL")
	params.Set("filter", fmt.Sprintf(`(SECURITY_CODE="%s")`, code))
	params.Set("client", "WEB")
	return fmt.Sprintf("%s/web/api/data/v1/get?%s", c.baseURL, params.Encode())
}

func (r *reportResponse) score() (*float64, error) {
	if !r.Success {
		return nil, fmt.Errorf("unsuccessful response: %s", r.Message)
	}
	if r.Result == nil || len(r.Result.Data) == 0 {
		return nil, fmt.Errorf("empty result")
	}
	if r.Result.Data[0].Rise1Probability == nil {
		return nil, fmt.Errorf("missing %s", scoreField)
	}
	return r.Result.Data[0].Rise1Probability, nil
}
