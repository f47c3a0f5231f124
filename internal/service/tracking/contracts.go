package tracking

import (
	"context"

	"tracknow/internal/domain"
)

type orderReader interface {
	Get(ctx context.Context, id int64) (*domain.Order, error)
}

type locationStore interface {
	Record(ctx context.Context, loc domain.Location) error
	Current(ctx context.Context, orderID int64) (*domain.Location, error)
	Route(ctx context.Context, orderID int64) ([]domain.Location, error)
}
