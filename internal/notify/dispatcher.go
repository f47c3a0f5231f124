package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tracknow/internal/apperr"
	"tracknow/internal/domain"
	"tracknow/internal/logx"
)

type notificationStore interface {
	Insert(ctx context.Context, n domain.Notification) error
	ListForUser(ctx context.Context, userID int64, limit int) ([]domain.Notification, error)
}

type userDirectory interface {
	Get(ctx context.Context, id int64) (*domain.User, error)
	ListAdmins(ctx context.Context) ([]domain.User, error)
}

type job struct {
	order domain.Order
	kind  domain.NotificationType
}

// Dispatcher records in-app notifications and fans them out to senders.
// Notify only enqueues; Run does the work.
type Dispatcher struct {
	store   notificationStore
	users   userDirectory
	senders []Sender
	queue   chan job
	timeout time.Duration
	dropped counter
	logger  logx.Logger
	now     func() time.Time
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(
	store notificationStore,
	users userDirectory,
	senders []Sender,
	queueSize int,
	timeout time.Duration,
	dropped counter,
	logger logx.Logger,
) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logx.Nop()
	}
	active := make([]Sender, 0, len(senders))
	for _, s := range senders {
		if s != nil {
			active = append(active, s)
		}
	}
	return &Dispatcher{
		store:   store,
		users:   users,
		senders: active,
		queue:   make(chan job, queueSize),
		timeout: timeout,
		dropped: dropped,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Notify enqueues a notification about o. It never blocks: when the queue is
// full the notification is dropped and logged.
func (d *Dispatcher) Notify(_ context.Context, o domain.Order, kind domain.NotificationType) {
	select {
	case d.queue <- job{order: o, kind: kind}:
	default:
		if d.dropped != nil {
			d.dropped.Inc()
		}
		d.logger.Warn("notification dropped",
			logx.String("event", "notification_dropped"),
			logx.Int64("order_id", o.ID),
			logx.String("type", string(kind)),
		)
	}
}

// Run drains the queue until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case j := <-d.queue:
			d.dispatch(ctx, j)
		}
	}
}

func (d *Dispatcher) dispatch(parent context.Context, j job) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), d.timeout)
	defer cancel()

	recipients, err := d.recipients(ctx, j)
	if err != nil {
		d.logger.Error("notification recipients lookup failed",
			logx.Int64("order_id", j.order.ID),
			logx.String("type", string(j.kind)),
			logx.Err(err),
		)
		return
	}

	subject, body := render(j.order, j.kind)
	for _, u := range recipients {
		n := domain.Notification{
			ID:        uuid.New(),
			OrderID:   j.order.ID,
			UserID:    u.ID,
			Type:      j.kind,
			Message:   body,
			CreatedAt: d.now(),
		}
		if err := d.store.Insert(ctx, n); err != nil {
			d.logger.Error("notification persist failed",
				logx.Int64("order_id", j.order.ID),
				logx.Int64("user_id", u.ID),
				logx.Err(err),
			)
		}

		msg := Message{OrderID: j.order.ID, Type: j.kind, User: u, Subject: subject, Body: body}
		for _, s := range d.senders {
			if err := s.Send(ctx, msg); err != nil {
				d.logger.Warn("notification send failed",
					logx.String("channel", s.Name()),
					logx.Int64("order_id", j.order.ID),
					logx.Int64("user_id", u.ID),
					logx.Err(err),
				)
			}
		}
	}
	d.logger.Debug("notification dispatched",
		logx.Int64("order_id", j.order.ID),
		logx.String("type", string(j.kind)),
		logx.Int("recipients", len(recipients)),
	)
}

func (d *Dispatcher) recipients(ctx context.Context, j job) ([]domain.User, error) {
	o := j.order
	var ids []int64
	switch j.kind {
	case domain.NotifyOrderAssigned:
		ids = append(ids, o.ClientID)
		if o.CourierID != nil {
			ids = append(ids, *o.CourierID)
		}
	case domain.NotifyOrderInTransit, domain.NotifyPaymentFailed:
		ids = append(ids, o.ClientID)
	case domain.NotifyOrderCancelled:
		ids = append(ids, o.ClientID)
		if o.CourierID != nil {
			ids = append(ids, *o.CourierID)
		}
		if o.SellerID != nil {
			ids = append(ids, *o.SellerID)
		}
	default:
		ids = append(ids, o.ClientID)
		if o.SellerID != nil {
			ids = append(ids, *o.SellerID)
		}
	}

	seen := make(map[int64]bool, len(ids))
	out := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		u, err := d.users.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if u != nil {
			out = append(out, *u)
		}
	}

	if j.kind == domain.NotifyOrderCreated || j.kind == domain.NotifyOrderDelivered {
		admins, err := d.users.ListAdmins(ctx)
		if err != nil {
			return nil, err
		}
		for _, a := range admins {
			if !seen[a.ID] {
				seen[a.ID] = true
				out = append(out, a)
			}
		}
	}
	return out, nil
}

func render(o domain.Order, kind domain.NotificationType) (subject, body string) {
	switch kind {
	case domain.NotifyOrderCreated:
		return fmt.Sprintf("Order #%d created", o.ID),
			fmt.Sprintf("Order #%d to %s has been created.", o.ID, o.DestinationAddress)
	case domain.NotifyOrderAssigned:
		return fmt.Sprintf("Order #%d assigned", o.ID),
			fmt.Sprintf("A courier has been assigned to order #%d.", o.ID)
	case domain.NotifyOrderInTransit:
		return fmt.Sprintf("Order #%d is on its way", o.ID),
			fmt.Sprintf("Order #%d is in transit to %s.", o.ID, o.DestinationAddress)
	case domain.NotifyOrderDelivered:
		return fmt.Sprintf("Order #%d delivered", o.ID),
			fmt.Sprintf("Order #%d has been delivered.", o.ID)
	case domain.NotifyOrderCancelled:
		return fmt.Sprintf("Order #%d cancelled", o.ID),
			fmt.Sprintf("Order #%d has been cancelled.", o.ID)
	case domain.NotifyPaymentConfirmed:
		return fmt.Sprintf("Payment received for order #%d", o.ID),
			fmt.Sprintf("Payment for order #%d was confirmed.", o.ID)
	case domain.NotifyPaymentFailed:
		return fmt.Sprintf("Payment failed for order #%d", o.ID),
			fmt.Sprintf("Payment for order #%d was rejected. Please try again.", o.ID)
	case domain.NotifyPaymentRefunded:
		return fmt.Sprintf("Order #%d refunded", o.ID),
			fmt.Sprintf("Payment for order #%d has been refunded.", o.ID)
	default:
		return fmt.Sprintf("Order #%d updated", o.ID),
			fmt.Sprintf("Order #%d is now %s.", o.ID, o.Status)
	}
}

// List returns the actor's notifications, newest first.
func (d *Dispatcher) List(ctx context.Context, actor domain.Actor, limit int) ([]domain.Notification, error) {
	if actor.ID <= 0 {
		return nil, apperr.ErrForbidden
	}
	if limit < 0 || limit > 200 {
		return nil, fmt.Errorf("%w: limit must be between 0 and 200", apperr.ErrInvalid)
	}
	return d.store.ListForUser(ctx, actor.ID, limit)
}
