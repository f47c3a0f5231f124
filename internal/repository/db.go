package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"tracknow/internal/domain"
)

// NewPool creates and pings a new pgx connection pool.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// LoadStatusCatalog resolves the order_statuses table. It fails when any
// lifecycle state is missing.
func LoadStatusCatalog(ctx context.Context, db *pgxpool.Pool) (*domain.StatusCatalog, error) {
	rows, err := db.Query(ctx, `SELECT id, name FROM order_statuses`)
	if err != nil {
		return nil, fmt.Errorf("load status catalog: %w", err)
	}
	defer rows.Close()

	byName := make(map[string]int)
	for rows.Next() {
		var (
			id   int
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan status: %w", err)
		}
		byName[name] = id
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return domain.NewStatusCatalog(byName)
}
