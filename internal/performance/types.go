package performance

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade is the next-day result of one recommended stock
type Trade struct {
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Strategies  []string        `json:"strategies"`
	Score       *float64        `json:"rise_probability"`
	PrevClose   decimal.Decimal `json:"prev_price"`
	Close       decimal.Decimal `json:"current_price"`
	PriceChange decimal.Decimal `json:"price_change"` // 소수점 3자리
	ChangePct   decimal.Decimal `json:"change_pct"`   // 소수점 2자리
}

// Summary aggregates trade results, percentages rounded to 2 places
type Summary struct {
	AverageReturn  decimal.Decimal `json:"average_return"`
	WinRate        decimal.Decimal `json:"win_rate"`
	TotalTrades    int             `json:"total_trades"`
	PositiveTrades int             `json:"positive_trades"`
	MaxGain        decimal.Decimal `json:"max_gain"`
	MaxLoss        decimal.Decimal `json:"max_loss"`
}

// Result is the performance of the previous recommendation measured on Date
type Result struct {
	Date     time.Time `json:"current_date"`
	PrevDate time.Time `json:"prev_date"`
	Summary  Summary   `json:"summary"`
	Trades   []Trade   `json:"trades"`
}

var hundred = decimal.NewFromInt(100)

// NewTrade computes change and change% from the two closes
func NewTrade(code, name string, strategies []string, score *float64, prevClose, close float64) Trade {
	prev := decimal.NewFromFloat(prevClose)
	curr := decimal.NewFromFloat(close)
	change := curr.Sub(prev)

	return Trade{
		Code:        code,
		Name:        name,
		Strategies:  strategies,
		Score:       score,
		PrevClose:   prev,
		Close:       curr,
		PriceChange: change.Round(3),
		ChangePct:   change.Div(prev).Mul(hundred).Round(2),
	}
}

// Summarize computes the summary of trades. Empty input yields a zero summary.
func Summarize(trades []Trade) Summary {
	s := Summary{TotalTrades: len(trades)}
	if len(trades) == 0 {
		return s
	}

	sum := decimal.Zero
	s.MaxGain = trades[0].ChangePct
	s.MaxLoss = trades[0].ChangePct

	for _, t := range trades {
		sum = sum.Add(t.ChangePct)
		if t.ChangePct.IsPositive() {
			s.PositiveTrades++
		}
		if t.ChangePct.GreaterThan(s.MaxGain) {
			s.MaxGain = t.ChangePct
		}
		if t.ChangePct.LessThan(s.MaxLoss) {
			s.MaxLoss = t.ChangePct
		}
	}

	total := decimal.NewFromInt(int64(len(trades)))
	s.AverageReturn = sum.Div(total).Round(2)
	s.WinRate = decimal.NewFromInt(int64(s.PositiveTrades)).Div(total).Mul(hundred).Round(2)

	return s
}
