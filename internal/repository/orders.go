package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tracknow/internal/apperr"
	"tracknow/internal/domain"
)

const orderColumns = `id, client_id, courier_id, seller_id, origin_address, destination_address,
	origin_lat, origin_lon, destination_lat, destination_lon, status_id, payment_status,
	payment_tx_id, amount, delivery_token, created_at, paid_at, delivered_at`

// OrderRepo persists orders. Every status change goes through Apply.
type OrderRepo struct {
	db      *pgxpool.Pool
	catalog *domain.StatusCatalog
}

// NewOrderRepo creates a new OrderRepo.
func NewOrderRepo(db *pgxpool.Pool, catalog *domain.StatusCatalog) *OrderRepo {
	return &OrderRepo{db: db, catalog: catalog}
}

// Create inserts o and fills its ID and CreatedAt.
func (r *OrderRepo) Create(ctx context.Context, o *domain.Order) error {
	var oLat, oLon, dLat, dLon *float64
	if o.Origin != nil {
		oLat, oLon = &o.Origin.Lat, &o.Origin.Lon
	}
	if o.Destination != nil {
		dLat, dLon = &o.Destination.Lat, &o.Destination.Lon
	}
	err := r.db.QueryRow(ctx, `
        INSERT INTO orders (client_id, seller_id, origin_address, destination_address,
            origin_lat, origin_lon, destination_lat, destination_lon,
            status_id, payment_status, amount)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING id, created_at
    `, o.ClientID, o.SellerID, o.OriginAddress, o.DestinationAddress,
		oLat, oLon, dLat, dLon,
		r.catalog.ID(o.Status), string(o.PaymentStatus), o.Amount,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		if IsForeignKey(err) {
			return fmt.Errorf("create order: %w", apperr.ErrNotFound)
		}
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

// Get returns the order by id, or nil when it does not exist.
func (r *OrderRepo) Get(ctx context.Context, id int64) (*domain.Order, error) {
	row := r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := r.scan(row)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order %d: %w", id, err)
	}
	return o, nil
}

// Apply performs t as a single conditional UPDATE. It returns the updated
// order, or nil when a guard no longer held (or the order is missing).
func (r *OrderRepo) Apply(ctx context.Context, t domain.Transition) (*domain.Order, error) {
	q := &updateBuilder{}
	q.args = append(q.args, t.OrderID)

	q.set("status_id", r.catalog.ID(t.To))
	if t.SetCourier != nil {
		q.set("courier_id", *t.SetCourier)
	}
	if t.ClearToken && t.SetToken == nil {
		q.sets = append(q.sets, "delivery_token = NULL")
	}
	if t.SetToken != nil {
		q.set("delivery_token", *t.SetToken)
	}
	if t.SetPayment != nil {
		q.set("payment_status", string(*t.SetPayment))
	}
	if t.SetPaymentTxID != nil {
		q.set("payment_tx_id", *t.SetPaymentTxID)
	}
	if t.SetPaidAt != nil {
		q.set("paid_at", *t.SetPaidAt)
	}
	if t.SetDeliveredAt != nil {
		q.set("delivered_at", *t.SetDeliveredAt)
	}
	q.sets = append(q.sets, "updated_at = now()")

	q.where("status_id = ANY(%s)", r.catalog.IDs(t.From))
	if t.RequireNoCourier {
		q.conds = append(q.conds, "courier_id IS NULL")
	}
	if t.RequireCourier != nil {
		q.where("courier_id = %s", *t.RequireCourier)
	}
	if t.ExpectToken != nil {
		q.where("delivery_token = %s", *t.ExpectToken)
	}
	if len(t.RequirePayment) > 0 {
		ps := make([]string, 0, len(t.RequirePayment))
		for _, p := range t.RequirePayment {
			ps = append(ps, string(p))
		}
		q.where("payment_status = ANY(%s)", ps)
	}

	sql := fmt.Sprintf(`UPDATE orders SET %s WHERE id = $1 AND %s RETURNING %s`,
		strings.Join(q.sets, ", "), strings.Join(q.conds, " AND "), orderColumns)

	o, err := r.scan(r.db.QueryRow(ctx, sql, q.args...))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("apply %s to order %d: %w", t.Name, t.OrderID, err)
	}
	return o, nil
}

// ListAvailable returns unclaimed pending orders, oldest first.
func (r *OrderRepo) ListAvailable(ctx context.Context, page domain.Page) ([]domain.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders
        WHERE courier_id IS NULL AND status_id = $1
        ORDER BY created_at, id`
	args := []any{r.catalog.ID(domain.StatusPending)}
	q, args = paginate(q, args, page)
	return r.list(ctx, q, args)
}

// ListForActor returns the orders the actor is a party of, newest first.
func (r *OrderRepo) ListForActor(ctx context.Context, actor domain.Actor, page domain.Page) ([]domain.Order, error) {
	var (
		q    = `SELECT ` + orderColumns + ` FROM orders`
		args []any
	)
	switch actor.Role {
	case domain.RoleClient:
		q += ` WHERE client_id = $1`
		args = append(args, actor.ID)
	case domain.RoleCourier:
		q += ` WHERE courier_id = $1`
		args = append(args, actor.ID)
	case domain.RoleSeller:
		q += ` WHERE seller_id = $1`
		args = append(args, actor.ID)
	case domain.RoleAdmin:
	default:
		return nil, fmt.Errorf("list orders: %w", apperr.ErrForbidden)
	}
	q += ` ORDER BY created_at DESC, id DESC`
	q, args = paginate(q, args, page)
	return r.list(ctx, q, args)
}

// ListUnrated returns the client's delivered orders without a rating, latest delivery first.
func (r *OrderRepo) ListUnrated(ctx context.Context, clientID int64, page domain.Page) ([]domain.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders
        WHERE id IN (
            SELECT o.id FROM orders o
            LEFT JOIN ratings rt ON rt.order_id = o.id
            WHERE o.client_id = $1 AND o.status_id = $2 AND rt.id IS NULL
        )
        ORDER BY delivered_at DESC NULLS LAST, id DESC`
	args := []any{clientID, r.catalog.ID(domain.StatusDelivered)}
	q, args = paginate(q, args, page)
	return r.list(ctx, q, args)
}

func (r *OrderRepo) list(ctx context.Context, q string, args []any) ([]domain.Order, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Order, 0)
	for rows.Next() {
		o, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *OrderRepo) scan(row pgx.Row) (*domain.Order, error) {
	var (
		o                      domain.Order
		oLat, oLon, dLat, dLon *float64
		statusID               int
		payment                string
	)
	err := row.Scan(&o.ID, &o.ClientID, &o.CourierID, &o.SellerID, &o.OriginAddress, &o.DestinationAddress,
		&oLat, &oLon, &dLat, &dLon, &statusID, &payment,
		&o.PaymentTxID, &o.Amount, &o.DeliveryToken, &o.CreatedAt, &o.PaidAt, &o.DeliveredAt)
	if err != nil {
		return nil, err
	}
	s, ok := r.catalog.Status(statusID)
	if !ok {
		return nil, fmt.Errorf("order %d: unknown status id %d", o.ID, statusID)
	}
	o.Status = s
	o.PaymentStatus = domain.PaymentStatus(payment)
	if oLat != nil && oLon != nil {
		o.Origin = &domain.Point{Lat: *oLat, Lon: *oLon}
	}
	if dLat != nil && dLon != nil {
		o.Destination = &domain.Point{Lat: *dLat, Lon: *dLon}
	}
	return &o, nil
}

type updateBuilder struct {
	sets  []string
	conds []string
	args  []any
}

func (b *updateBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *updateBuilder) set(col string, v any) {
	b.sets = append(b.sets, col+" = "+b.arg(v))
}

func (b *updateBuilder) where(format string, v any) {
	b.conds = append(b.conds, fmt.Sprintf(format, b.arg(v)))
}

func paginate(q string, args []any, page domain.Page) (string, []any) {
	if page.Limit != nil {
		args = append(args, *page.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if page.Offset != nil {
		args = append(args, *page.Offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return q, args
}
