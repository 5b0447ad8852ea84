package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/instock/pkg/logger"
)

// ErrDatabaseMissing is wrapped by Store.Probe when the target database does not exist
var ErrDatabaseMissing = errors.New("database does not exist")

// Migration is a one-time schema change guarded by a stable key
type Migration struct {
	Key        string
	Statements []string
}

// Store is the persistence the guard needs
type Store interface {
	// Probe runs a trivial query against the target database
	Probe(ctx context.Context) error

	// CreateDatabase creates the target database
	CreateDatabase(ctx context.Context) error

	// EnsureBaseTables creates the base tables when missing
	EnsureBaseTables(ctx context.Context) error

	// IsApplied reads the init record of key
	IsApplied(ctx context.Context, key string) (bool, error)

	// Apply executes every statement and marks key complete in one transaction.
	// applied is false when another process completed key first.
	Apply(ctx context.Context, m Migration) (applied bool, err error)
}

// Guard makes one-time database initialization idempotent
// ⭐ SSOT: 스키마 초기화/마이그레이션은 여기서만
type Guard struct {
	store      Store
	migrations []Migration
	logger     *logger.Logger
}

// NewGuard creates a guard over the given migrations, in registration order
func NewGuard(store Store, log *logger.Logger, migrations ...Migration) *Guard {
	return &Guard{
		store:      store,
		migrations: migrations,
		logger:     log.WithField("module", "bootstrap"),
	}
}

// EnsureDatabaseReady creates the database when missing and applies pending migrations.
// Safe to call on every pipeline invocation. Every returned error is fatal.
func (g *Guard) EnsureDatabaseReady(ctx context.Context) error {
	if err := g.validate(); err != nil {
		return err
	}

	if err := g.store.Probe(ctx); err != nil {
		if !errors.Is(err, ErrDatabaseMissing) {
			return fmt.Errorf("probe database: %w", err)
		}

		g.logger.WithError(err).Warn("Database does not exist, creating")
		if err := g.store.CreateDatabase(ctx); err != nil {
			return fmt.Errorf("create database: %w", err)
		}
	}

	if err := g.store.EnsureBaseTables(ctx); err != nil {
		return fmt.Errorf("create base tables: %w", err)
	}

	for _, m := range g.migrations {
		if err := g.applyOnce(ctx, m); err != nil {
			return err
		}
	}

	return nil
}

func (g *Guard) applyOnce(ctx context.Context, m Migration) error {
	log := g.logger.WithField("migration", m.Key)

	done, err := g.store.IsApplied(ctx, m.Key)
	if err != nil {
		return fmt.Errorf("read init status %s: %w", m.Key, err)
	}
	if done {
		log.Info("Migration already applied, skipping")
		return nil
	}

	start := time.Now()
	applied, err := g.store.Apply(ctx, m)
	if err != nil {
		return fmt.Errorf("apply migration %s: %w", m.Key, err)
	}
	if !applied {
		log.Info("Migration completed by another process, skipping")
		return nil
	}

	log.WithFields(map[string]interface{}{
		"statements": len(m.Statements),
		"duration":   time.Since(start),
	}).Info("Migration applied")

	return nil
}

func (g *Guard) validate() error {
	seen := make(map[string]bool, len(g.migrations))
	for _, m := range g.migrations {
		if m.Key == "" {
			return fmt.Errorf("migration with empty key")
		}
		if seen[m.Key] {
			return fmt.Errorf("duplicate migration key %s", m.Key)
		}
		seen[m.Key] = true
	}
	return nil
}
