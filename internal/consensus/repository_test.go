package consensus

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/instock/internal/bootstrap"
	"github.com/wonny/instock/internal/contracts"
	"github.com/wonny/instock/pkg/config"
	"github.com/wonny/instock/pkg/database"
	"github.com/wonny/instock/pkg/logger"
)

// Integration test - requires a running database
func TestRepository_SaveReplacesDate(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	store := bootstrap.NewRepository(&database.DB{Pool: pool}, config.DatabaseConfig{})
	require.NoError(t, bootstrap.NewGuard(store, logger.Nop(), bootstrap.DefaultMigrations()...).EnsureDatabaseReady(ctx))

	date := time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC)
	t.Cleanup(func() {
		_, _ = pool.Exec(ctx, `DELETE FROM cn_stock_strategy_consensus WHERE date = $1`, date)
	})

	repo := NewRepository(pool)
	score := 55.5

	first := &contracts.ConsensusReport{Date: date, Threshold: 2, Notable: []contracts.ConsensusEntry{
		{Code: "600519", Name: "贵州茅台", Count: 3, Strategies: []string{"A", "B", "C"}, Score: &score},
		{Code: "000001", Name: "平安银行", Count: 2, Strategies: []string{"A", "B"}},
	}}
	require.NoError(t, repo.Save(ctx, first))

	entries, err := repo.ByDate(ctx, date)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "600519", entries[0].Code)
	require.NotNil(t, entries[0].Score)
	assert.InDelta(t, 55.5, *entries[0].Score, 1e-9)
	assert.Nil(t, entries[1].Score)

	// a failing insert rolls back the delete too
	broken := &contracts.ConsensusReport{Date: date, Threshold: 2, Notable: []contracts.ConsensusEntry{
		{Code: "000002", Name: "万科A", Count: 2, Strategies: []string{"A", "B"}},
		{Code: "000002", Name: "万科A", Count: 2, Strategies: []string{"A", "B"}},
	}}
	require.Error(t, repo.Save(ctx, broken))

	entries, err = repo.ByDate(ctx, date)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	second := &contracts.ConsensusReport{Date: date, Threshold: 3, Notable: first.Notable[:1]}
	require.NoError(t, repo.Save(ctx, second))

	entries, err = repo.ByDate(ctx, date)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "600519", entries[0].Code)
}
