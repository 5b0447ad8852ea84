package stageoutput

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/instock/internal/contracts"
	"github.com/wonny/instock/pkg/logger"
)

const codeUndefinedTable = "42P01"

// Repository reads strategy stage output tables directly
// ⭐ SSOT: 전략 결과 테이블 조회는 여기서만
type Repository struct {
	pool    *pgxpool.Pool
	allowed map[string]bool
	logger  *logger.Logger
}

// NewRepository creates a repository restricted to the given tables
func NewRepository(pool *pgxpool.Pool, tables []string, log *logger.Logger) *Repository {
	allowed := make(map[string]bool, len(tables))
	for _, t := range tables {
		allowed[t] = true
	}
	return &Repository{
		pool:    pool,
		allowed: allowed,
		logger:  log.WithField("module", "stageoutput"),
	}
}

// FetchStageOutput returns the rows of one strategy table for date.
// Unknown, missing or unreadable tables yield an empty slice.
func (r *Repository) FetchStageOutput(ctx context.Context, strategy string, date time.Time) []contracts.StrategyRow {
	log := r.logger.WithFields(map[string]interface{}{
		"strategy": strategy,
		"date":     date.Format(contracts.DateLayout),
	})

	rows, err := r.query(ctx, strategy, date)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == codeUndefinedTable {
			log.Warn("Stage output table does not exist yet")
		} else {
			log.WithError(err).Warn("Failed to read stage output")
		}
		return []contracts.StrategyRow{}
	}

	return rows
}

func (r *Repository) query(ctx context.Context, strategy string, date time.Time) ([]contracts.StrategyRow, error) {
	if !r.allowed[strategy] {
		return nil, fmt.Errorf("table %s is not a configured strategy source", strategy)
	}

	query := fmt.Sprintf(
		`SELECT code, COALESCE(name, '') FROM %s WHERE date = $1 ORDER BY code`,
		pgx.Identifier{strategy}.Sanitize(),
	)

	rows, err := r.pool.Query(ctx, query, date)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (contracts.StrategyRow, error) {
		var s contracts.StrategyRow
		err := row.Scan(&s.Code, &s.Name)
		return s, err
	})
}
