package realtime

import (
	"context"
	"sync"

	"tracknow/internal/logx"
)

const defaultSubscriberBuffer = 16

// Hub fans events out to in-process subscribers of an order channel.
// Delivery is at-most-once: a subscriber whose buffer is full misses the event.
type Hub struct {
	mu      sync.RWMutex
	subs    map[int64]map[*Subscription]struct{}
	buffer  int
	dropped counter
	logger  logx.Logger
}

// NewHub creates a Hub. dropped may be nil.
func NewHub(buffer int, dropped counter, logger logx.Logger) *Hub {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &Hub{
		subs:    make(map[int64]map[*Subscription]struct{}),
		buffer:  buffer,
		dropped: dropped,
		logger:  logger,
	}
}

// Subscription is a live view of one order channel.
type Subscription struct {
	C       <-chan Event
	OrderID int64

	ch   chan Event
	hub  *Hub
	once sync.Once
}

// Subscribe joins the channel of orderID. Past events are not replayed.
func (h *Hub) Subscribe(orderID int64) *Subscription {
	ch := make(chan Event, h.buffer)
	s := &Subscription{C: ch, OrderID: orderID, ch: ch, hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[orderID]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[orderID] = set
	}
	set[s] = struct{}{}
	return s
}

// Close leaves the channel and closes C. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		h := s.hub
		h.mu.Lock()
		defer h.mu.Unlock()
		if set, ok := h.subs[s.OrderID]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(h.subs, s.OrderID)
			}
		}
		close(s.ch)
	})
}

// Publish implements Notifier.
func (h *Hub) Publish(_ context.Context, e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs[e.OrderID] {
		select {
		case s.ch <- e:
		default:
			if h.dropped != nil {
				h.dropped.Inc()
			}
			h.logger.Debug("realtime subscriber lagging, event dropped",
				logx.Int64("order_id", e.OrderID),
				logx.String("kind", string(e.Kind)),
			)
		}
	}
}

// Subscribers returns the number of live subscriptions on orderID.
func (h *Hub) Subscribers(orderID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[orderID])
}
