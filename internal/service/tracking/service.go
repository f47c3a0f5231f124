package tracking

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"tracknow/internal/apperr"
	"tracknow/internal/domain"
	"tracknow/internal/logx"
	"tracknow/internal/realtime"
)

// Service records courier positions per order.
type Service struct {
	orders           orderReader
	locations        locationStore
	notifier         realtime.Notifier
	reports          prometheus.Counter
	operationTimeout time.Duration
	logger           logx.Logger
	now              func() time.Time
}

// NewService creates a new tracking Service. reports may be nil.
func NewService(
	orders orderReader,
	locations locationStore,
	notifier realtime.Notifier,
	reports prometheus.Counter,
	timeout time.Duration,
	logger logx.Logger,
) *Service {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if logger == nil {
		logger = logx.Nop()
	}
	if notifier == nil {
		notifier = realtime.Discard{}
	}
	return &Service{
		orders:           orders,
		locations:        locations,
		notifier:         notifier,
		reports:          reports,
		operationTimeout: timeout,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

// ReportLocation stores the assigned courier's position and broadcasts it.
func (s *Service) ReportLocation(ctx context.Context, actor domain.Actor, r domain.LocationReport) (domain.Location, error) {
	if !actor.Is(domain.RoleCourier) {
		return domain.Location{}, fmt.Errorf("%w: only couriers report locations", apperr.ErrForbidden)
	}
	if r.OrderID <= 0 {
		return domain.Location{}, fmt.Errorf("%w: order id must be positive", apperr.ErrInvalid)
	}
	if !(domain.Point{Lat: r.Lat, Lon: r.Lon}).Valid() {
		return domain.Location{}, fmt.Errorf("%w: coordinates out of range", apperr.ErrInvalid)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	o, err := s.orders.Get(ctx, r.OrderID)
	if err != nil {
		return domain.Location{}, err
	}
	if o == nil {
		return domain.Location{}, fmt.Errorf("order %d: %w", r.OrderID, apperr.ErrNotFound)
	}
	if !o.IsCourier(actor.ID) {
		return domain.Location{}, fmt.Errorf("%w: not the assigned courier", apperr.ErrForbidden)
	}
	if o.Status != domain.StatusAssigned && o.Status != domain.StatusInTransit {
		return domain.Location{}, fmt.Errorf("%w: order %d is %s", apperr.ErrConflict, o.ID, o.Status)
	}

	at := r.Timestamp
	if at.IsZero() {
		at = s.now()
	}
	loc := domain.Location{
		OrderID:    o.ID,
		Kind:       domain.LocationCurrent,
		Lat:        r.Lat,
		Lon:        r.Lon,
		RecordedAt: at.UTC(),
	}
	if err := s.locations.Record(ctx, loc); err != nil {
		return domain.Location{}, err
	}
	if s.reports != nil {
		s.reports.Inc()
	}

	s.logger.Debug("location recorded",
		logx.String("event", "location_recorded"),
		logx.Int64("order_id", o.ID),
		logx.Int64("courier_id", actor.ID),
	)
	s.notifier.Publish(context.WithoutCancel(ctx), realtime.NewLocationEvent(loc))
	return loc, nil
}

// GetLocation returns the latest position of an order the actor is party of.
func (s *Service) GetLocation(ctx context.Context, actor domain.Actor, orderID int64) (*domain.Location, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.authorize(ctx, actor, orderID); err != nil {
		return nil, err
	}
	loc, err := s.locations.Current(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, fmt.Errorf("location of order %d: %w", orderID, apperr.ErrNotFound)
	}
	return loc, nil
}

// Route returns the recorded positions of an order, oldest first.
func (s *Service) Route(ctx context.Context, actor domain.Actor, orderID int64) ([]domain.Location, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.authorize(ctx, actor, orderID); err != nil {
		return nil, err
	}
	return s.locations.Route(ctx, orderID)
}

func (s *Service) authorize(ctx context.Context, actor domain.Actor, orderID int64) error {
	if orderID <= 0 {
		return fmt.Errorf("%w: order id must be positive", apperr.ErrInvalid)
	}
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if o == nil {
		return fmt.Errorf("order %d: %w", orderID, apperr.ErrNotFound)
	}
	if !o.Involves(actor) {
		return fmt.Errorf("%w: not a party of order %d", apperr.ErrForbidden, orderID)
	}
	return nil
}
