package realtime

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tracknow/internal/domain"
)

// EventKind names a realtime event.
type EventKind string

// List of realtime events
const (
	StatusChanged   EventKind = "status_changed"
	LocationUpdated EventKind = "location_updated"
)

// Event is pushed to everyone watching an order.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Kind      EventKind `json:"kind"`
	OrderID   int64     `json:"order_id"`
	Status    string    `json:"status,omitempty"`
	CourierID *int64    `json:"courier_id,omitempty"`
	Lat       *float64  `json:"lat,omitempty"`
	Lon       *float64  `json:"lon,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewStatusEvent describes o after a transition.
func NewStatusEvent(o *domain.Order, at time.Time) Event {
	return Event{
		ID:        uuid.New(),
		Kind:      StatusChanged,
		OrderID:   o.ID,
		Status:    o.Status.String(),
		CourierID: o.CourierID,
		Timestamp: at,
	}
}

// NewLocationEvent describes a courier position.
func NewLocationEvent(loc domain.Location) Event {
	lat, lon := loc.Lat, loc.Lon
	return Event{
		ID:        uuid.New(),
		Kind:      LocationUpdated,
		OrderID:   loc.OrderID,
		Lat:       &lat,
		Lon:       &lon,
		Timestamp: loc.RecordedAt,
	}
}

// Notifier delivers events to order subscribers. Publish never blocks the
// caller on slow consumers and never reports delivery failures.
type Notifier interface {
	Publish(ctx context.Context, e Event)
}

type counter interface {
	Inc()
}

// Fanout publishes every event to each notifier in order.
type Fanout []Notifier

// Publish implements Notifier.
func (f Fanout) Publish(ctx context.Context, e Event) {
	for _, n := range f {
		if n != nil {
			n.Publish(ctx, e)
		}
	}
}

// Discard drops every event.
type Discard struct{}

// Publish implements Notifier.
func (Discard) Publish(context.Context, Event) {}
