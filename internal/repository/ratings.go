package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"tracknow/internal/apperr"
	"tracknow/internal/domain"
)

// RatingRepo persists ratings, at most one per order.
type RatingRepo struct{ db *pgxpool.Pool }

// NewRatingRepo creates a new RatingRepo.
func NewRatingRepo(db *pgxpool.Pool) *RatingRepo { return &RatingRepo{db: db} }

// Create inserts rt. A second rating for the same order yields apperr.ErrConflict.
func (r *RatingRepo) Create(ctx context.Context, rt *domain.Rating) error {
	err := r.db.QueryRow(ctx, `
        INSERT INTO ratings (order_id, client_id, courier_id, score, comment)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at
    `, rt.OrderID, rt.ClientID, rt.CourierID, rt.Score, rt.Comment).Scan(&rt.ID, &rt.CreatedAt)
	if err != nil {
		if IsDuplicate(err) {
			return fmt.Errorf("%w: order %d already rated", apperr.ErrConflict, rt.OrderID)
		}
		return fmt.Errorf("create rating: %w", err)
	}
	return nil
}

// GetByOrder returns the rating of an order, or nil.
func (r *RatingRepo) GetByOrder(ctx context.Context, orderID int64) (*domain.Rating, error) {
	var rt domain.Rating
	err := r.db.QueryRow(ctx, `
        SELECT id, order_id, client_id, courier_id, score, comment, created_at
        FROM ratings WHERE order_id = $1
    `, orderID).Scan(&rt.ID, &rt.OrderID, &rt.ClientID, &rt.CourierID, &rt.Score, &rt.Comment, &rt.CreatedAt)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get rating %d: %w", orderID, err)
	}
	return &rt, nil
}
