package stageoutput

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/instock/pkg/logger"
)

func TestFetchStageOutput_UnknownTableIsEmpty(t *testing.T) {
	repo := NewRepository(nil, []string{"cn_stock_strategy_enter"}, logger.Nop())

	rows := repo.FetchStageOutput(context.Background(), "pg_shadow", time.Now())
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

// Integration test - requires a running database
func TestFetchStageOutput_Integration(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	repo := NewRepository(pool, []string{"cn_stock_strategy_missing"}, logger.Nop())
	rows := repo.FetchStageOutput(ctx, "cn_stock_strategy_missing", time.Now())
	assert.Empty(t, rows, "missing table reads as no data")
}
