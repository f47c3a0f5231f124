package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"tracknow/internal/domain"
)

// NotificationRepo persists in-app notifications.
type NotificationRepo struct{ db *pgxpool.Pool }

// NewNotificationRepo creates a new NotificationRepo.
func NewNotificationRepo(db *pgxpool.Pool) *NotificationRepo { return &NotificationRepo{db: db} }

// Insert stores n.
func (r *NotificationRepo) Insert(ctx context.Context, n domain.Notification) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO notifications (id, order_id, user_id, type, message, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, n.ID, n.OrderID, n.UserID, string(n.Type), n.Message, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// ListForUser returns a user's notifications, newest first.
func (r *NotificationRepo) ListForUser(ctx context.Context, userID int64, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
        SELECT id, order_id, user_id, type, message, created_at
        FROM notifications WHERE user_id = $1
        ORDER BY created_at DESC LIMIT $2
    `, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Notification, 0)
	for rows.Next() {
		var (
			n   domain.Notification
			typ string
		)
		if err := rows.Scan(&n.ID, &n.OrderID, &n.UserID, &typ, &n.Message, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.Type = domain.NotificationType(typ)
		out = append(out, n)
	}
	return out, rows.Err()
}
