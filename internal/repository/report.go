package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"tracknow/internal/domain"
)

// ReportRepo runs the performance aggregations.
type ReportRepo struct {
	db      *pgxpool.Pool
	catalog *domain.StatusCatalog
}

// NewReportRepo creates a new ReportRepo.
func NewReportRepo(db *pgxpool.Pool, catalog *domain.StatusCatalog) *ReportRepo {
	return &ReportRepo{db: db, catalog: catalog}
}

// $1 delivered, $2 pending-like ids, $3 in transit, $4 cancelled, $5 from, $6 to, $7 courier
const reportFilter = `
    ($5::timestamptz IS NULL OR o.created_at >= $5)
    AND ($6::timestamptz IS NULL OR o.created_at <= $6)
    AND ($7::bigint IS NULL OR o.courier_id = $7)`

// Performance aggregates order outcomes matching f.
func (r *ReportRepo) Performance(ctx context.Context, f domain.PerformanceFilter) (domain.PerformanceReport, error) {
	args := []any{
		r.catalog.ID(domain.StatusDelivered),
		r.catalog.IDs([]domain.Status{domain.StatusPending, domain.StatusAssigned}),
		r.catalog.ID(domain.StatusInTransit),
		r.catalog.ID(domain.StatusCancelled),
		f.From, f.To, f.CourierID,
	}

	var rep domain.PerformanceReport
	err := r.db.QueryRow(ctx, `
        SELECT
            count(*),
            count(*) FILTER (WHERE o.status_id = $1),
            count(*) FILTER (WHERE o.status_id = ANY($2)),
            count(*) FILTER (WHERE o.status_id = $3),
            count(*) FILTER (WHERE o.status_id = $4),
            COALESCE(avg(EXTRACT(EPOCH FROM (o.delivered_at - o.created_at)) / 3600)
                FILTER (WHERE o.status_id = $1 AND o.delivered_at IS NOT NULL), 0)::float8,
            COALESCE((SELECT avg(rt.score) FROM ratings rt JOIN orders o ON o.id = rt.order_id
                WHERE `+reportFilter+`), 0)::float8
        FROM orders o
        WHERE `+reportFilter,
		args...,
	).Scan(&rep.Total, &rep.Delivered, &rep.Pending, &rep.InTransit, &rep.Cancelled,
		&rep.AvgDeliveryHours, &rep.AvgRating)
	if err != nil {
		return domain.PerformanceReport{}, fmt.Errorf("performance totals: %w", err)
	}

	rows, err := r.db.Query(ctx, `
        SELECT
            o.courier_id,
            COALESCE(u.name, ''),
            count(*),
            count(*) FILTER (WHERE o.status_id = $1),
            count(*) FILTER (WHERE o.status_id = ANY($2) OR o.status_id = $3),
            count(*) FILTER (WHERE o.status_id = $4),
            COALESCE(avg(EXTRACT(EPOCH FROM (o.delivered_at - o.created_at)) / 3600)
                FILTER (WHERE o.status_id = $1 AND o.delivered_at IS NOT NULL), 0)::float8,
            COALESCE(avg(rt.score), 0)::float8
        FROM orders o
        LEFT JOIN users u ON u.id = o.courier_id
        LEFT JOIN ratings rt ON rt.order_id = o.id
        WHERE o.courier_id IS NOT NULL AND `+reportFilter+`
        GROUP BY o.courier_id, u.name
        ORDER BY o.courier_id`,
		args...,
	)
	if err != nil {
		return domain.PerformanceReport{}, fmt.Errorf("performance by courier: %w", err)
	}
	defer rows.Close()

	rep.Couriers = make([]domain.CourierPerformance, 0)
	for rows.Next() {
		var c domain.CourierPerformance
		if err := rows.Scan(&c.CourierID, &c.Name, &c.Total, &c.Delivered, &c.Active, &c.Cancelled,
			&c.AvgDeliveryHours, &c.AvgRating); err != nil {
			return domain.PerformanceReport{}, err
		}
		rep.Couriers = append(rep.Couriers, c)
	}
	return rep, rows.Err()
}
