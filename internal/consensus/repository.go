package consensus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/instock/internal/contracts"
)

// ErrNoReport is returned when no consensus was saved for the requested date
var ErrNoReport = errors.New("consensus report not found")

// Repository handles consensus persistence
// ⭐ SSOT: 합병 결과 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

var _ contracts.ConsensusStore = (*Repository)(nil)

// NewRepository creates a new consensus repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Save replaces the notable entries of the report date
func (r *Repository) Save(ctx context.Context, report *contracts.ConsensusReport) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM cn_stock_strategy_consensus WHERE date = $1`, report.Date); err != nil {
		return fmt.Errorf("failed to clear consensus: %w", err)
	}

	query := `
		INSERT INTO cn_stock_strategy_consensus (
			date, code, name, rank, hit_count, strategies, score
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	batch := &pgx.Batch{}
	for i, e := range report.Notable {
		batch.Queue(query, report.Date, e.Code, e.Name, i+1, e.Count, e.Strategies, e.Score)
	}

	br := tx.SendBatch(ctx, batch)
	for range report.Notable {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("failed to insert consensus entry: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit consensus: %w", err)
	}

	return nil
}

// ByDate returns the saved entries of date in rank order
func (r *Repository) ByDate(ctx context.Context, date time.Time) ([]contracts.ConsensusEntry, error) {
	query := `
		SELECT code, name, hit_count, strategies, score
		FROM cn_stock_strategy_consensus
		WHERE date = $1
		ORDER BY rank
	`

	rows, err := r.pool.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query consensus: %w", err)
	}
	defer rows.Close()

	entries := make([]contracts.ConsensusEntry, 0)
	for rows.Next() {
		var e contracts.ConsensusEntry
		if err := rows.Scan(&e.Code, &e.Name, &e.Count, &e.Strategies, &e.Score); err != nil {
			return nil, fmt.Errorf("failed to scan consensus: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// LatestDate returns the most recent saved date strictly before the given date.
// A zero before means no upper bound.
func (r *Repository) LatestDate(ctx context.Context, before time.Time) (time.Time, error) {
	query := `SELECT MAX(date) FROM cn_stock_strategy_consensus`
	args := []interface{}{}
	if !before.IsZero() {
		query += ` WHERE date < $1`
		args = append(args, before)
	}

	var latest *time.Time
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&latest); err != nil {
		return time.Time{}, fmt.Errorf("failed to get latest consensus date: %w", err)
	}
	if latest == nil {
		return time.Time{}, ErrNoReport
	}

	return *latest, nil
}

// Latest returns the most recently saved report
func (r *Repository) Latest(ctx context.Context) (time.Time, []contracts.ConsensusEntry, error) {
	date, err := r.LatestDate(ctx, time.Time{})
	if err != nil {
		return time.Time{}, nil, err
	}

	entries, err := r.ByDate(ctx, date)
	if err != nil {
		return time.Time{}, nil, err
	}

	return date, entries, nil
}
