package rating

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tracknow/internal/apperr"
	"tracknow/internal/domain"
	"tracknow/internal/logx"
)

const maxCommentLen = 1000

type orderReader interface {
	Get(ctx context.Context, id int64) (*domain.Order, error)
	ListUnrated(ctx context.Context, clientID int64, page domain.Page) ([]domain.Order, error)
}

type ratingStore interface {
	Create(ctx context.Context, r *domain.Rating) error
	GetByOrder(ctx context.Context, orderID int64) (*domain.Rating, error)
}

// Service records client ratings of delivered orders.
type Service struct {
	orders           orderReader
	ratings          ratingStore
	operationTimeout time.Duration
	logger           logx.Logger
	now              func() time.Time
}

// NewService creates a new rating Service.
func NewService(orders orderReader, ratings ratingStore, timeout time.Duration, logger logx.Logger) *Service {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &Service{
		orders:           orders,
		ratings:          ratings,
		operationTimeout: timeout,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// Rate stores the client's single rating of a delivered order.
func (s *Service) Rate(ctx context.Context, actor domain.Actor, req domain.RateRequest) (*domain.Rating, error) {
	if !actor.Is(domain.RoleClient) {
		return nil, fmt.Errorf("%w: only clients rate orders", apperr.ErrForbidden)
	}
	if req.Score < 1 || req.Score > 5 {
		return nil, fmt.Errorf("%w: score must be between 1 and 5", apperr.ErrInvalid)
	}
	comment := strings.TrimSpace(req.Comment)
	if len(comment) > maxCommentLen {
		return nil, fmt.Errorf("%w: comment is too long", apperr.ErrInvalid)
	}

	ctx, cancel := context.WithTimeout(ctx, s.operationTimeout)
	defer cancel()

	o, err := s.orders.Get(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, fmt.Errorf("order %d: %w", req.OrderID, apperr.ErrNotFound)
	}
	if o.ClientID != actor.ID {
		return nil, fmt.Errorf("%w: not the client of order %d", apperr.ErrForbidden, o.ID)
	}
	if o.Status != domain.StatusDelivered || o.CourierID == nil {
		return nil, fmt.Errorf("%w: order %d is not delivered", apperr.ErrConflict, o.ID)
	}

	r := &domain.Rating{
		OrderID:   o.ID,
		ClientID:  actor.ID,
		CourierID: *o.CourierID,
		Score:     req.Score,
		Comment:   comment,
		CreatedAt: s.now(),
	}
	if err := s.ratings.Create(ctx, r); err != nil {
		return nil, err
	}

	s.logger.Info("order rated",
		logx.String("event", "order_rated"),
		logx.Int64("order_id", o.ID),
		logx.Int64("courier_id", r.CourierID),
		logx.Int("score", r.Score),
	)
	return r, nil
}

// Get returns the rating of an order the actor is party of.
func (s *Service) Get(ctx context.Context, actor domain.Actor, orderID int64) (*domain.Rating, error) {
	ctx, cancel := context.WithTimeout(ctx, s.operationTimeout)
	defer cancel()

	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, fmt.Errorf("order %d: %w", orderID, apperr.ErrNotFound)
	}
	if !o.Involves(actor) {
		return nil, fmt.Errorf("%w: not a party of order %d", apperr.ErrForbidden, orderID)
	}
	r, err := s.ratings.GetByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("rating of order %d: %w", orderID, apperr.ErrNotFound)
	}
	return r, nil
}

// Pending lists the client's delivered orders that still await a rating.
func (s *Service) Pending(ctx context.Context, actor domain.Actor, page domain.Page) ([]domain.Order, error) {
	if !actor.Is(domain.RoleClient) {
		return nil, fmt.Errorf("%w: only clients rate orders", apperr.ErrForbidden)
	}
	ctx, cancel := context.WithTimeout(ctx, s.operationTimeout)
	defer cancel()

	return s.orders.ListUnrated(ctx, actor.ID, page)
}
