//go:generate mockgen -source=contracts.go -destination=orders_mocks_test.go -package=orders_test

package orders

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"tracknow/internal/domain"
	"tracknow/internal/service/proof"
)

// OrderStore persists orders. Apply returns nil when a guard no longer holds.
type OrderStore interface {
	Create(ctx context.Context, o *domain.Order) error
	Get(ctx context.Context, id int64) (*domain.Order, error)
	Apply(ctx context.Context, t domain.Transition) (*domain.Order, error)
	ListForActor(ctx context.Context, actor domain.Actor, page domain.Page) ([]domain.Order, error)
}

// UserReader looks up accounts.
type UserReader interface {
	Get(ctx context.Context, id int64) (*domain.User, error)
}

// Prover mints delivery tokens and renders their proof.
type Prover interface {
	Mint() (string, error)
	Build(ctx context.Context, orderID int64, token string) proof.QR
}

// Dispatcher sends notifications about an order. It must not block.
type Dispatcher interface {
	Notify(ctx context.Context, o domain.Order, t domain.NotificationType)
}

type counterVec interface {
	WithLabelValues(lvs ...string) prometheus.Counter
}
