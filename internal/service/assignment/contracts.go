package assignment

import (
	"context"

	"tracknow/internal/domain"
)

type orderReader interface {
	Get(ctx context.Context, id int64) (*domain.Order, error)
	ListAvailable(ctx context.Context, page domain.Page) ([]domain.Order, error)
}

type userReader interface {
	Get(ctx context.Context, id int64) (*domain.User, error)
}

// transitioner applies a transition and runs its side effects.
type transitioner interface {
	Apply(ctx context.Context, t domain.Transition, kind domain.NotificationType) (*domain.Order, error)
}
