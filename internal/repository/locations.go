package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tracknow/internal/domain"
)

// LocationRepo stores courier positions per order.
type LocationRepo struct {
	db *pgxpool.Pool
}

// NewLocationRepo creates a new LocationRepo.
func NewLocationRepo(db *pgxpool.Pool) *LocationRepo {
	return &LocationRepo{db: db}
}

// Record upserts the current position and appends the route point in one
// transaction. The last report to arrive becomes current regardless of its
// timestamp; replaying a route point is a no-op.
func (r *LocationRepo) Record(ctx context.Context, loc domain.Location) (err error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := r.record(ctx, tx, loc); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback tx: %w (original error: %s)", rbErr, err.Error())
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *LocationRepo) record(ctx context.Context, tx pgx.Tx, loc domain.Location) error {
	_, err := tx.Exec(ctx, `
        INSERT INTO order_locations (order_id, kind, lat, lon, recorded_at)
        VALUES ($1, 'current', $2, $3, $4)
        ON CONFLICT (order_id) WHERE kind = 'current'
        DO UPDATE SET lat = EXCLUDED.lat, lon = EXCLUDED.lon, recorded_at = EXCLUDED.recorded_at
    `, loc.OrderID, loc.Lat, loc.Lon, loc.RecordedAt)
	if err != nil {
		return fmt.Errorf("upsert current location %d: %w", loc.OrderID, err)
	}

	_, err = tx.Exec(ctx, `
        INSERT INTO order_locations (order_id, kind, lat, lon, recorded_at)
        VALUES ($1, 'route', $2, $3, $4)
        ON CONFLICT (order_id, recorded_at) WHERE kind = 'route' DO NOTHING
    `, loc.OrderID, loc.Lat, loc.Lon, loc.RecordedAt)
	if err != nil {
		return fmt.Errorf("append route point %d: %w", loc.OrderID, err)
	}
	return nil
}

// Current returns the latest position, or nil when none was reported.
func (r *LocationRepo) Current(ctx context.Context, orderID int64) (*domain.Location, error) {
	loc := domain.Location{OrderID: orderID, Kind: domain.LocationCurrent}
	err := r.db.QueryRow(ctx, `
        SELECT lat, lon, recorded_at FROM order_locations
        WHERE order_id = $1 AND kind = 'current'
    `, orderID).Scan(&loc.Lat, &loc.Lon, &loc.RecordedAt)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("current location %d: %w", orderID, err)
	}
	return &loc, nil
}

// Route returns the route history in chronological order.
func (r *LocationRepo) Route(ctx context.Context, orderID int64) ([]domain.Location, error) {
	rows, err := r.db.Query(ctx, `
        SELECT lat, lon, recorded_at FROM order_locations
        WHERE order_id = $1 AND kind = 'route'
        ORDER BY recorded_at
    `, orderID)
	if err != nil {
		return nil, fmt.Errorf("route %d: %w", orderID, err)
	}
	defer rows.Close()

	out := make([]domain.Location, 0)
	for rows.Next() {
		loc := domain.Location{OrderID: orderID, Kind: domain.LocationRoute}
		if err := rows.Scan(&loc.Lat, &loc.Lon, &loc.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}
