package orders_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"tracknow/internal/config"
	"tracknow/internal/domain"
	"tracknow/internal/logx"
	"tracknow/internal/realtime"
	"tracknow/internal/service/orders"
	"tracknow/internal/service/proof"
	"tracknow/internal/testutil/memstore"
)

const (
	clientID      int64 = 1
	otherClientID int64 = 2
	sellerID      int64 = 5
	courierA      int64 = 7
	courierB      int64 = 8
	adminID       int64 = 100
)

var (
	client      = domain.Actor{ID: clientID, Role: domain.RoleClient}
	otherClient = domain.Actor{ID: otherClientID, Role: domain.RoleClient}
	seller      = domain.Actor{ID: sellerID, Role: domain.RoleSeller}
	otherSeller = domain.Actor{ID: 6, Role: domain.RoleSeller}
	courierOne  = domain.Actor{ID: courierA, Role: domain.RoleCourier}
	courierTwo  = domain.Actor{ID: courierB, Role: domain.RoleCourier}
	admin       = domain.Actor{ID: adminID, Role: domain.RoleAdmin}

	fixedNow = time.Date(2025, 5, 4, 10, 30, 0, 0, time.UTC)
)

func ptr[T any](v T) *T { return &v }

type recordingNotifier struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (r *recordingNotifier) Publish(_ context.Context, e realtime.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingNotifier) Events() []realtime.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]realtime.Event(nil), r.events...)
}

type recordingDispatcher struct {
	mu    sync.Mutex
	kinds []domain.NotificationType
}

func (d *recordingDispatcher) Notify(_ context.Context, _ domain.Order, t domain.NotificationType) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.kinds = append(d.kinds, t)
}

func (d *recordingDispatcher) Kinds() []domain.NotificationType {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]domain.NotificationType(nil), d.kinds...)
}

type harness struct {
	svc         *orders.Service
	store       *memstore.Orders
	notifier    *recordingNotifier
	dispatcher  *recordingDispatcher
	transitions *prometheus.CounterVec
}

func defaultPolicy() orders.Policy {
	return orders.PolicyFromConfig(config.DefaultOrders())
}

func newHarness(t *testing.T, policy orders.Policy) *harness {
	t.Helper()

	store := memstore.NewOrders()
	users := memstore.NewUsers(
		domain.User{ID: clientID, Name: "ana", Role: domain.RoleClient},
		domain.User{ID: otherClientID, Name: "bea", Role: domain.RoleClient},
		domain.User{ID: sellerID, Name: "shop", Role: domain.RoleSeller},
		domain.User{ID: courierA, Name: "carlos", Role: domain.RoleCourier},
		domain.User{ID: courierB, Name: "diego", Role: domain.RoleCourier},
		domain.User{ID: adminID, Name: "root", Role: domain.RoleAdmin},
	)
	prover := proof.NewService(store, proof.NewIssuer("http://localhost:8080"), nil, time.Second, logx.Nop())
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "order_transitions_total"},
		[]string{"transition", "result"})

	h := &harness{
		store:       store,
		notifier:    &recordingNotifier{},
		dispatcher:  &recordingDispatcher{},
		transitions: vec,
	}
	h.svc = orders.NewService(store, users, prover, h.notifier, h.dispatcher, policy, time.Second, logx.Nop(),
		orders.WithTransitionCounter(vec),
		orders.WithClock(func() time.Time { return fixedNow }),
	)
	return h
}

func (h *harness) put(o domain.Order) {
	if o.ClientID == 0 {
		o.ClientID = clientID
	}
	if o.PaymentStatus == "" {
		o.PaymentStatus = domain.PaymentPaid
	}
	h.store.Put(o)
}

func (h *harness) get(t *testing.T, id int64) *domain.Order {
	t.Helper()
	o, err := h.store.Get(context.Background(), id)
	if err != nil || o == nil {
		t.Fatalf("order %d not in store: %v", id, err)
	}
	return o
}
