package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tracknow/internal/apperr"
	"tracknow/internal/domain"
	"tracknow/internal/logx"
	"tracknow/internal/realtime"
	"tracknow/internal/service/proof"
)

// Service is the order lifecycle state machine. Every status change is a
// conditional write in the store; side effects run after it commits.
type Service struct {
	store       OrderStore
	users       UserReader
	proofs      Prover
	notifier    realtime.Notifier
	dispatcher  Dispatcher
	transitions counterVec
	policy      Policy

	operationTimeout time.Duration
	logger           logx.Logger
	now              func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithTransitionCounter counts transitions by name and result.
func WithTransitionCounter(c counterVec) Option {
	return func(s *Service) { s.transitions = c }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates the order Service.
func NewService(
	store OrderStore,
	users UserReader,
	proofs Prover,
	notifier realtime.Notifier,
	dispatcher Dispatcher,
	policy Policy,
	timeout time.Duration,
	logger logx.Logger,
	opts ...Option,
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
	s := &Service{
		store:            store,
		users:            users,
		proofs:           proofs,
		notifier:         notifier,
		dispatcher:       dispatcher,
		policy:           policy,
		operationTimeout: timeout,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

// Apply runs t against the store. When a guard fails it reloads the order
// and returns the classified error. On success the status event and the
// notification of kind (if any) are dispatched.
func (s *Service) Apply(ctx context.Context, t domain.Transition, kind domain.NotificationType) (*domain.Order, error) {
	o, err := s.store.Apply(ctx, t)
	if err != nil {
		s.observe(t.Name, "error")
		return nil, err
	}
	if o == nil {
		current, err := s.store.Get(ctx, t.OrderID)
		if err != nil {
			s.observe(t.Name, "error")
			return nil, err
		}
		s.observe(t.Name, "rejected")
		return nil, t.Explain(current)
	}
	s.observe(t.Name, "ok")

	fields := []logx.Field{
		logx.String("event", "order_"+t.Name),
		logx.Int64("order_id", o.ID),
		logx.String("status", o.Status.String()),
	}
	if o.CourierID != nil {
		fields = append(fields, logx.Int64("courier_id", *o.CourierID))
	}
	s.logger.Info("order transitioned", fields...)

	s.afterCommit(ctx, o, kind)
	return o, nil
}

func (s *Service) afterCommit(ctx context.Context, o *domain.Order, kind domain.NotificationType) {
	ctx = context.WithoutCancel(ctx)
	s.notifier.Publish(ctx, realtime.NewStatusEvent(o, s.now()))
	if kind != "" && s.dispatcher != nil {
		s.dispatcher.Notify(ctx, *o, kind)
	}
}

func (s *Service) observe(name, result string) {
	if s.transitions != nil {
		s.transitions.WithLabelValues(name, result).Inc()
	}
}

func (s *Service) load(ctx context.Context, id int64) (*domain.Order, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: order id must be positive", apperr.ErrInvalid)
	}
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, fmt.Errorf("order %d: %w", id, apperr.ErrNotFound)
	}
	return o, nil
}

// Create registers a new order. Clients create their own orders; sellers
// and admins create them on behalf of a client.
func (s *Service) Create(ctx context.Context, actor domain.Actor, req domain.CreateOrderRequest) (*domain.Order, error) {
	o, err := s.buildOrder(actor, req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	client, err := s.users.Get(ctx, o.ClientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("client %d: %w", o.ClientID, apperr.ErrNotFound)
	}
	if client.Role != domain.RoleClient {
		return nil, fmt.Errorf("%w: user %d is not a client", apperr.ErrInvalid, o.ClientID)
	}

	if err := s.store.Create(ctx, o); err != nil {
		return nil, err
	}
	s.observe("create", "ok")

	s.logger.Info("order created",
		logx.String("event", "order_created"),
		logx.Int64("order_id", o.ID),
		logx.Int64("client_id", o.ClientID),
		logx.String("status", o.Status.String()),
	)
	s.afterCommit(ctx, o, domain.NotifyOrderCreated)
	return o, nil
}

func (s *Service) buildOrder(actor domain.Actor, req domain.CreateOrderRequest) (*domain.Order, error) {
	origin := strings.TrimSpace(req.OriginAddress)
	dest := strings.TrimSpace(req.DestinationAddress)
	if origin == "" || dest == "" {
		return nil, fmt.Errorf("%w: origin and destination addresses are required", apperr.ErrInvalid)
	}
	if req.Origin != nil && !req.Origin.Valid() {
		return nil, fmt.Errorf("%w: origin coordinates out of range", apperr.ErrInvalid)
	}
	if req.Destination != nil && !req.Destination.Valid() {
		return nil, fmt.Errorf("%w: destination coordinates out of range", apperr.ErrInvalid)
	}
	if req.Amount.Valid && req.Amount.Decimal.IsNegative() {
		return nil, fmt.Errorf("%w: amount must not be negative", apperr.ErrInvalid)
	}

	o := &domain.Order{
		ClientID:           req.ClientID,
		OriginAddress:      origin,
		DestinationAddress: dest,
		Origin:             req.Origin,
		Destination:        req.Destination,
		Amount:             req.Amount,
		Status:             domain.StatusPending,
		PaymentStatus:      domain.PaymentPaid,
	}
	if s.policy.PaymentRequired {
		o.Status, o.PaymentStatus = domain.StatusUnpaid, domain.PaymentUnpaid
	}

	switch actor.Role {
	case domain.RoleClient:
		if req.ClientID != 0 && req.ClientID != actor.ID {
			return nil, fmt.Errorf("%w: clients create only their own orders", apperr.ErrForbidden)
		}
		o.ClientID = actor.ID
	case domain.RoleSeller:
		if req.ClientID <= 0 {
			return nil, fmt.Errorf("%w: client id is required", apperr.ErrInvalid)
		}
		sellerID := actor.ID
		o.SellerID = &sellerID
	case domain.RoleAdmin:
		if req.ClientID <= 0 {
			return nil, fmt.Errorf("%w: client id is required", apperr.ErrInvalid)
		}
	case domain.RoleCourier:
		return nil, fmt.Errorf("%w: couriers cannot create orders", apperr.ErrForbidden)
	default:
		return nil, fmt.Errorf("%w: unknown role", apperr.ErrForbidden)
	}
	return o, nil
}

// Get returns an order the actor may see.
func (s *Service) Get(ctx context.Context, actor domain.Actor, id int64) (*domain.Order, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	o, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.VisibleTo(actor) {
		return nil, fmt.Errorf("%w: order %d", apperr.ErrForbidden, id)
	}
	return o, nil
}

// ListForActor returns the orders the actor is a party of.
func (s *Service) ListForActor(ctx context.Context, actor domain.Actor, page domain.Page) ([]domain.Order, error) {
	if err := validatePage(page); err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.store.ListForActor(ctx, actor, page)
}

func validatePage(p domain.Page) error {
	if p.Limit != nil && *p.Limit < 0 {
		return fmt.Errorf("%w: limit must not be negative", apperr.ErrInvalid)
	}
	if p.Offset != nil && *p.Offset < 0 {
		return fmt.Errorf("%w: offset must not be negative", apperr.ErrInvalid)
	}
	return nil
}

// ConfirmPayment moves an unpaid order to Pending. Confirming an order that
// is already paid returns it unchanged.
func (s *Service) ConfirmPayment(ctx context.Context, p domain.PaymentOutcome) (*domain.Order, error) {
	if err := validateOutcome(p, domain.PaymentApproved); err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	paid := domain.PaymentPaid
	now := s.now()
	o, err := s.Apply(ctx, domain.Transition{
		Name:           "confirm_payment",
		OrderID:        p.OrderID,
		From:           []domain.Status{domain.StatusUnpaid},
		To:             domain.StatusPending,
		SetPayment:     &paid,
		SetPaymentTxID: &p.TransactionID,
		SetPaidAt:      &now,
	}, domain.NotifyPaymentConfirmed)
	if errors.Is(err, apperr.ErrConflict) {
		if current, ok := s.alreadyPaid(ctx, p.OrderID); ok {
			return current, nil
		}
	}
	return o, err
}

// MarkPaymentFailed records a rejected payment. The order stays Unpaid.
func (s *Service) MarkPaymentFailed(ctx context.Context, p domain.PaymentOutcome) (*domain.Order, error) {
	if err := validateOutcome(p, domain.PaymentRejected); err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	failed := domain.PaymentFailed
	o, err := s.Apply(ctx, domain.Transition{
		Name:           "payment_failed",
		OrderID:        p.OrderID,
		From:           []domain.Status{domain.StatusUnpaid},
		To:             domain.StatusUnpaid,
		SetPayment:     &failed,
		SetPaymentTxID: &p.TransactionID,
	}, domain.NotifyPaymentFailed)
	if errors.Is(err, apperr.ErrConflict) {
		if _, ok := s.alreadyPaid(ctx, p.OrderID); ok {
			return nil, fmt.Errorf("%w: payment already confirmed", apperr.ErrConflict)
		}
	}
	return o, err
}

// MarkPaymentPending records that the provider is still processing the
// payment. It is a no-op for paid orders.
func (s *Service) MarkPaymentPending(ctx context.Context, p domain.PaymentOutcome) (*domain.Order, error) {
	if err := validateOutcome(p, domain.PaymentWaiting); err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	pending := domain.PaymentPending
	o, err := s.Apply(ctx, domain.Transition{
		Name:           "payment_pending",
		OrderID:        p.OrderID,
		From:           []domain.Status{domain.StatusUnpaid},
		To:             domain.StatusUnpaid,
		SetPayment:     &pending,
		SetPaymentTxID: &p.TransactionID,
	}, "")
	if errors.Is(err, apperr.ErrConflict) {
		if current, ok := s.alreadyPaid(ctx, p.OrderID); ok {
			return current, nil
		}
	}
	return o, err
}

func (s *Service) alreadyPaid(ctx context.Context, id int64) (*domain.Order, bool) {
	current, err := s.store.Get(ctx, id)
	if err != nil || current == nil {
		return nil, false
	}
	return current, current.PaymentStatus == domain.PaymentPaid
}

func validateOutcome(p domain.PaymentOutcome, want domain.PaymentResult) error {
	if p.OrderID <= 0 {
		return fmt.Errorf("%w: order id must be positive", apperr.ErrInvalid)
	}
	if p.Result != want {
		return fmt.Errorf("%w: outcome %q", apperr.ErrInvalid, p.Result)
	}
	return nil
}

// Refund returns a paid order that no courier has taken yet to Unpaid.
// Admins and the seller who registered the order may refund it.
func (s *Service) Refund(ctx context.Context, actor domain.Actor, id int64) (*domain.Order, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	o, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleSeller:
		if !o.IsSeller(actor.ID) {
			return nil, fmt.Errorf("%w: not the seller of order %d", apperr.ErrForbidden, id)
		}
	case domain.RoleClient, domain.RoleCourier:
		return nil, fmt.Errorf("%w: role %s cannot refund", apperr.ErrForbidden, actor.Role)
	default:
		return nil, fmt.Errorf("%w: unknown role", apperr.ErrForbidden)
	}

	refunded := domain.PaymentRefunded
	return s.Apply(ctx, domain.Transition{
		Name:             "refund",
		OrderID:          id,
		From:             []domain.Status{domain.StatusPending},
		To:               domain.StatusUnpaid,
		RequireNoCourier: true,
		RequirePayment:   []domain.PaymentStatus{domain.PaymentPaid},
		SetPayment:       &refunded,
	}, domain.NotifyPaymentRefunded)
}

// Depart marks an assigned order as on the way. A fresh delivery token
// replaces any previous one; the returned proof carries its QR rendering.
func (s *Service) Depart(ctx context.Context, actor domain.Actor, id int64) (*domain.Order, proof.QR, error) {
	if !actor.Is(domain.RoleCourier) {
		return nil, proof.QR{}, fmt.Errorf("%w: only couriers depart", apperr.ErrForbidden)
	}
	if id <= 0 {
		return nil, proof.QR{}, fmt.Errorf("%w: order id must be positive", apperr.ErrInvalid)
	}
	token, err := s.proofs.Mint()
	if err != nil {
		return nil, proof.QR{}, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	courierID := actor.ID
	o, err := s.Apply(ctx, domain.Transition{
		Name:           "depart",
		OrderID:        id,
		From:           []domain.Status{domain.StatusAssigned},
		To:             domain.StatusInTransit,
		RequireCourier: &courierID,
		SetToken:       &token,
	}, domain.NotifyOrderInTransit)
	if err != nil {
		return nil, proof.QR{}, err
	}
	return o, s.proofs.Build(ctx, o.ID, token), nil
}

// Deliver confirms the delivery of an in-transit order against its token.
func (s *Service) Deliver(ctx context.Context, actor domain.Actor, req domain.DeliverRequest) (*domain.Order, error) {
	if !s.policy.canDeliver(actor.Role) {
		return nil, fmt.Errorf("%w: role %s cannot confirm delivery", apperr.ErrForbidden, actor.Role)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	o, err := s.load(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	t := domain.Transition{
		Name:       "deliver",
		OrderID:    o.ID,
		From:       []domain.Status{domain.StatusInTransit},
		To:         domain.StatusDelivered,
		ClearToken: true,
	}
	switch actor.Role {
	case domain.RoleCourier:
		if !o.IsCourier(actor.ID) {
			return nil, fmt.Errorf("%w: not the assigned courier", apperr.ErrForbidden)
		}
		courierID := actor.ID
		t.RequireCourier = &courierID
	case domain.RoleClient:
		if o.ClientID != actor.ID {
			return nil, fmt.Errorf("%w: not the client of order %d", apperr.ErrForbidden, o.ID)
		}
	}

	token := strings.TrimSpace(req.Token)
	if !proof.Equal(o.DeliveryToken, token) {
		s.observe(t.Name, "rejected")
		s.logger.Warn("delivery token rejected",
			logx.String("event", "delivery_token_rejected"),
			logx.Int64("order_id", o.ID),
			logx.Int64("actor_id", actor.ID),
		)
		return nil, fmt.Errorf("order %d: %w", o.ID, apperr.ErrInvalidToken)
	}

	now := s.now()
	t.ExpectToken = &token
	t.SetDeliveredAt = &now
	return s.Apply(ctx, t, domain.NotifyOrderDelivered)
}

// Cancel moves a non-terminal order to Cancelled under the cancel policy.
func (s *Service) Cancel(ctx context.Context, actor domain.Actor, id int64) (*domain.Order, error) {
	if !s.policy.canCancel(actor.Role) {
		return nil, fmt.Errorf("%w: role %s cannot cancel orders", apperr.ErrForbidden, actor.Role)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	o, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.Involves(actor) {
		return nil, fmt.Errorf("%w: not a party of order %d", apperr.ErrForbidden, id)
	}

	from := []domain.Status{domain.StatusUnpaid, domain.StatusPending, domain.StatusAssigned}
	if s.policy.CancelInTransit && actor.Is(domain.RoleAdmin) {
		from = append(from, domain.StatusInTransit)
	}
	return s.Apply(ctx, domain.Transition{
		Name:       "cancel",
		OrderID:    id,
		From:       from,
		To:         domain.StatusCancelled,
		ClearToken: true,
	}, domain.NotifyOrderCancelled)
}

// TransitionTo dispatches a status name to its named transition.
func (s *Service) TransitionTo(ctx context.Context, actor domain.Actor, id int64, status, token string) (*domain.Order, error) {
	target, ok := domain.ParseStatus(status)
	if !ok {
		return nil, fmt.Errorf("%w: unknown status %q", apperr.ErrInvalid, status)
	}
	switch target {
	case domain.StatusInTransit:
		o, _, err := s.Depart(ctx, actor, id)
		return o, err
	case domain.StatusDelivered:
		return s.Deliver(ctx, actor, domain.DeliverRequest{OrderID: id, Token: token})
	case domain.StatusCancelled:
		return s.Cancel(ctx, actor, id)
	case domain.StatusUnpaid, domain.StatusPending, domain.StatusAssigned:
		return nil, fmt.Errorf("%w: illegal transition to %s", apperr.ErrConflict, target)
	default:
		return nil, fmt.Errorf("%w: unknown status %q", apperr.ErrInvalid, status)
	}
}
