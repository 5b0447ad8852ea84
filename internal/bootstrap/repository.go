package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/instock/pkg/config"
	"github.com/wonny/instock/pkg/database"
)

// Repository is the PostgreSQL Store
type Repository struct {
	db  *database.DB
	cfg config.DatabaseConfig
}

// NewRepository creates a new Repository instance
func NewRepository(db *database.DB, cfg config.DatabaseConfig) *Repository {
	return &Repository{db: db, cfg: cfg}
}

// Probe checks connectivity with SELECT 1
func (r *Repository) Probe(ctx context.Context) error {
	var one int
	err := r.db.Pool.QueryRow(ctx, "SELECT 1").Scan(&one)
	if err == nil {
		return nil
	}
	if database.IsMissingDatabase(err) {
		return fmt.Errorf("%w: %v", ErrDatabaseMissing, err)
	}
	return err
}

// CreateDatabase creates the configured database
func (r *Repository) CreateDatabase(ctx context.Context) error {
	return database.CreateDatabase(ctx, r.cfg)
}

// EnsureBaseTables creates cn_stock_attention and system_init_status
func (r *Repository) EnsureBaseTables(ctx context.Context) error {
	for _, stmt := range baseTableStatements {
		if _, err := r.db.Pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// IsApplied reads the init status of key
func (r *Repository) IsApplied(ctx context.Context, key string) (bool, error) {
	var status bool
	err := r.db.Pool.QueryRow(ctx,
		`SELECT status FROM system_init_status WHERE "key" = $1`, key,
	).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return status, nil
}

// Apply runs the migration statements and marks it complete in one transaction.
// PostgreSQL DDL is transactional, so a failing statement rolls back the earlier ones too.
func (r *Repository) Apply(ctx context.Context, m Migration) (bool, error) {
	applied := false

	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		// serialize concurrent pipeline runs on the same key
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", m.Key); err != nil {
			return fmt.Errorf("lock init status: %w", err)
		}

		var status bool
		err := tx.QueryRow(ctx, `SELECT status FROM system_init_status WHERE "key" = $1`, m.Key).Scan(&status)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("read init status: %w", err)
		}
		if status {
			return nil
		}

		for i, stmt := range m.Statements {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("statement %d (%s): %w", i+1, stmt, err)
			}
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO system_init_status ("key", status, updated_at)
			VALUES ($1, true, NOW())
			ON CONFLICT ("key") DO UPDATE SET status = true, updated_at = NOW()
		`, m.Key); err != nil {
			return fmt.Errorf("mark init status: %w", err)
		}

		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return applied, nil
}
