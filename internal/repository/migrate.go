package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

// Migrator applies the embedded goose migrations.
type Migrator struct {
	pool *pgxpool.Pool
}

// NewMigrator creates a Migrator over pool.
func NewMigrator(pool *pgxpool.Pool) (*Migrator, error) {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("goose dialect: %w", err)
	}
	return &Migrator{pool: pool}, nil
}

// Up applies all pending migrations.
func (m *Migrator) Up(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(m.pool)
	defer db.Close()

	if err := goose.UpContext(ctx, db, migrationsDir); err != nil && !isNoMigration(err) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// Down rolls back steps migrations (at least one).
func (m *Migrator) Down(ctx context.Context, steps int) error {
	db := stdlib.OpenDBFromPool(m.pool)
	defer db.Close()

	if steps <= 0 {
		steps = 1
	}
	for i := 0; i < steps; i++ {
		if err := goose.DownContext(ctx, db, migrationsDir); err != nil {
			if isNoMigration(err) {
				return nil
			}
			return fmt.Errorf("migrate down: %w", err)
		}
	}
	return nil
}

// Version returns the current schema version.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	db := stdlib.OpenDBFromPool(m.pool)
	defer db.Close()

	return goose.GetDBVersionContext(ctx, db)
}

func isNoMigration(err error) bool {
	return errors.Is(err, goose.ErrNoNextVersion) || errors.Is(err, goose.ErrNoMigrationFiles)
}
