package performance

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository handles performance result persistence
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new performance repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Save replaces the trades measured on result.Date
func (r *Repository) Save(ctx context.Context, result *Result) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM cn_stock_strategy_performance WHERE date = $1`, result.Date); err != nil {
			return fmt.Errorf("failed to clear performance: %w", err)
		}

		rows := make([][]interface{}, len(result.Trades))
		for i, t := range result.Trades {
			rows[i] = []interface{}{
				result.Date, t.Code, t.Name, t.Strategies,
				t.PrevClose.InexactFloat64(), t.Close.InexactFloat64(),
				t.PriceChange.InexactFloat64(), t.ChangePct.InexactFloat64(),
			}
		}

		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"cn_stock_strategy_performance"},
			[]string{"date", "code", "name", "strategies", "prev_close", "close", "price_change", "change_rate"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("failed to insert performance: %w", err)
		}
		return nil
	})
}

// ByDate loads the trades measured on date and recomputes the summary
func (r *Repository) ByDate(ctx context.Context, date time.Time) (*Result, error) {
	query := `
		SELECT code, name, strategies, prev_close, close, price_change, change_rate
		FROM cn_stock_strategy_performance
		WHERE date = $1
		ORDER BY code
	`

	rows, err := r.pool.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query performance: %w", err)
	}
	defer rows.Close()

	trades := make([]Trade, 0)
	for rows.Next() {
		var (
			t                                   Trade
			prevClose, closePrice, change, rate float64
		)
		if err := rows.Scan(&t.Code, &t.Name, &t.Strategies, &prevClose, &closePrice, &change, &rate); err != nil {
			return nil, fmt.Errorf("failed to scan performance: %w", err)
		}
		t.PrevClose = decimal.NewFromFloat(prevClose)
		t.Close = decimal.NewFromFloat(closePrice)
		t.PriceChange = decimal.NewFromFloat(change).Round(3)
		t.ChangePct = decimal.NewFromFloat(rate).Round(2)
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &Result{
		Date:    date,
		Summary: Summarize(trades),
		Trades:  trades,
	}, nil
}

// PriceRepository reads close prices from the daily spot table
type PriceRepository struct {
	pool *pgxpool.Pool
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

// FetchClosePrices returns close prices of codes on date. Codes without a row are absent.
func (r *PriceRepository) FetchClosePrices(ctx context.Context, date time.Time, codes []string) (map[string]float64, error) {
	prices := make(map[string]float64, len(codes))
	if len(codes) == 0 {
		return prices, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT code, close FROM cn_stock_spot WHERE date = $1 AND code = ANY($2) AND close IS NOT NULL`,
		date, codes,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query close prices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var code string
		var closePrice float64
		if err := rows.Scan(&code, &closePrice); err != nil {
			return nil, fmt.Errorf("failed to scan close price: %w", err)
		}
		prices[code] = closePrice
	}

	return prices, rows.Err()
}
