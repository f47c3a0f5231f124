package assignment

import (
	"context"
	"fmt"
	"time"

	"tracknow/internal/apperr"
	"tracknow/internal/domain"
	"tracknow/internal/logx"
)

// Service binds couriers to pending orders. Claim and Assign converge on a
// single conditional write, so an order gets at most one courier.
type Service struct {
	orders           orderReader
	users            userReader
	lifecycle        transitioner
	operationTimeout time.Duration
	logger           logx.Logger
}

// NewService creates a new assignment Service.
func NewService(orders orderReader, users userReader, lifecycle transitioner, timeout time.Duration, logger logx.Logger) *Service {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &Service{
		orders:           orders,
		users:            users,
		lifecycle:        lifecycle,
		operationTimeout: timeout,
		logger:           logger,
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

// Claim assigns a pending order to the calling courier.
func (s *Service) Claim(ctx context.Context, actor domain.Actor, orderID int64) (*domain.Order, error) {
	if !actor.Is(domain.RoleCourier) {
		return nil, fmt.Errorf("%w: only couriers claim orders", apperr.ErrForbidden)
	}
	if orderID <= 0 {
		return nil, fmt.Errorf("%w: order id must be positive", apperr.ErrInvalid)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	o, err := s.bind(ctx, "claim", orderID, actor.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("courier assigned",
		logx.String("event", "courier_claimed"),
		logx.Int64("order_id", o.ID),
		logx.Int64("courier_id", actor.ID),
	)
	return o, nil
}

// Assign lets an admin bind a courier to a pending order.
func (s *Service) Assign(ctx context.Context, actor domain.Actor, req domain.AssignRequest) (*domain.Order, error) {
	if !actor.Is(domain.RoleAdmin) {
		return nil, fmt.Errorf("%w: only admins assign orders", apperr.ErrForbidden)
	}
	if req.OrderID <= 0 || req.CourierID <= 0 {
		return nil, fmt.Errorf("%w: order and courier ids must be positive", apperr.ErrInvalid)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	courier, err := s.users.Get(ctx, req.CourierID)
	if err != nil {
		return nil, err
	}
	if courier == nil {
		return nil, fmt.Errorf("user %d: %w", req.CourierID, apperr.ErrNotFound)
	}
	if courier.Role != domain.RoleCourier {
		return nil, fmt.Errorf("%w: not a courier", apperr.ErrInvalid)
	}

	o, err := s.bind(ctx, "assign", req.OrderID, req.CourierID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("courier assigned",
		logx.String("event", "courier_assigned"),
		logx.Int64("order_id", o.ID),
		logx.Int64("courier_id", req.CourierID),
		logx.Int64("admin_id", actor.ID),
	)
	return o, nil
}

func (s *Service) bind(ctx context.Context, name string, orderID, courierID int64) (*domain.Order, error) {
	return s.lifecycle.Apply(ctx, domain.Transition{
		Name:             name,
		OrderID:          orderID,
		From:             []domain.Status{domain.StatusPending},
		To:               domain.StatusAssigned,
		RequireNoCourier: true,
		SetCourier:       &courierID,
	}, domain.NotifyOrderAssigned)
}

// ListAvailable returns unclaimed pending orders, oldest first.
func (s *Service) ListAvailable(ctx context.Context, actor domain.Actor, page domain.Page) ([]domain.Order, error) {
	switch actor.Role {
	case domain.RoleCourier, domain.RoleAdmin:
	case domain.RoleClient, domain.RoleSeller:
		return nil, fmt.Errorf("%w: role %s cannot list available orders", apperr.ErrForbidden, actor.Role)
	default:
		return nil, fmt.Errorf("%w: unknown role", apperr.ErrForbidden)
	}
	if (page.Limit != nil && *page.Limit < 0) || (page.Offset != nil && *page.Offset < 0) {
		return nil, fmt.Errorf("%w: limit and offset must not be negative", apperr.ErrInvalid)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.orders.ListAvailable(ctx, page)
}
