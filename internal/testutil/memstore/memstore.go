// Package memstore provides in-memory stores with the same conditional
// write semantics as the PostgreSQL repositories, for service tests.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"tracknow/internal/apperr"
	"tracknow/internal/domain"
)

// Orders is an in-memory order store.
type Orders struct {
	mu      sync.Mutex
	nextID  int64
	orders  map[int64]*domain.Order
	ratings *Ratings
}

// NewOrders returns an empty store.
func NewOrders() *Orders {
	return &Orders{orders: make(map[int64]*domain.Order)}
}

// Put stores o as-is, keeping its ID.
func (s *Orders) Put(o domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := clone(&o)
	s.orders[o.ID] = c
	if o.ID > s.nextID {
		s.nextID = o.ID
	}
}

// Create implements the order store.
func (s *Orders) Create(_ context.Context, o *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	o.ID = s.nextID
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	s.orders[o.ID] = clone(o)
	return nil
}

// Get implements the order store.
func (s *Orders) Get(_ context.Context, id int64) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	return clone(o), nil
}

// Apply implements the order store.
func (s *Orders) Apply(_ context.Context, t domain.Transition) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[t.OrderID]
	if !ok || !t.Allows(o) {
		return nil, nil
	}
	t.ApplyTo(o)
	return clone(o), nil
}

// ListForActor implements the order store.
func (s *Orders) ListForActor(_ context.Context, a domain.Actor, page domain.Page) ([]domain.Order, error) {
	if !a.Role.Valid() {
		return nil, fmt.Errorf("list orders: %w", apperr.ErrForbidden)
	}
	out := s.filter(func(o *domain.Order) bool { return o.Involves(a) })
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, page), nil
}

// ListAvailable implements the order store.
func (s *Orders) ListAvailable(_ context.Context, page domain.Page) ([]domain.Order, error) {
	out := s.filter(func(o *domain.Order) bool {
		return o.Status == domain.StatusPending && !o.HasCourier()
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, page), nil
}

// UseRatings links the rating store consulted by ListUnrated.
func (s *Orders) UseRatings(r *Ratings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratings = r
}

// ListUnrated implements the order store.
func (s *Orders) ListUnrated(_ context.Context, clientID int64, page domain.Page) ([]domain.Order, error) {
	out := s.filter(func(o *domain.Order) bool {
		return o.ClientID == clientID && o.Status == domain.StatusDelivered && !s.ratings.has(o.ID)
	})
	sort.Slice(out, func(i, j int) bool {
		ti, tj := deliveredAt(out[i]), deliveredAt(out[j])
		if ti.Equal(tj) {
			return out[i].ID > out[j].ID
		}
		return ti.After(tj)
	})
	return paginate(out, page), nil
}

func deliveredAt(o domain.Order) time.Time {
	if o.DeliveredAt == nil {
		return time.Time{}
	}
	return *o.DeliveredAt
}

func (s *Orders) filter(keep func(*domain.Order) bool) []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Order, 0)
	for _, o := range s.orders {
		if keep(o) {
			out = append(out, *clone(o))
		}
	}
	return out
}

func paginate(in []domain.Order, page domain.Page) []domain.Order {
	if page.Offset != nil {
		if *page.Offset >= len(in) {
			return []domain.Order{}
		}
		in = in[*page.Offset:]
	}
	if page.Limit != nil && *page.Limit < len(in) {
		in = in[:*page.Limit]
	}
	return in
}

func clone(o *domain.Order) *domain.Order {
	c := *o
	if o.CourierID != nil {
		v := *o.CourierID
		c.CourierID = &v
	}
	if o.SellerID != nil {
		v := *o.SellerID
		c.SellerID = &v
	}
	if o.DeliveryToken != nil {
		v := *o.DeliveryToken
		c.DeliveryToken = &v
	}
	if o.PaidAt != nil {
		v := *o.PaidAt
		c.PaidAt = &v
	}
	if o.DeliveredAt != nil {
		v := *o.DeliveredAt
		c.DeliveredAt = &v
	}
	if o.Origin != nil {
		v := *o.Origin
		c.Origin = &v
	}
	if o.Destination != nil {
		v := *o.Destination
		c.Destination = &v
	}
	return &c
}

// Users is an in-memory user directory.
type Users struct {
	mu    sync.Mutex
	users map[int64]domain.User
}

// NewUsers returns a directory holding us.
func NewUsers(us ...domain.User) *Users {
	s := &Users{users: make(map[int64]domain.User)}
	for _, u := range us {
		s.users[u.ID] = u
	}
	return s
}

// Get returns the user or nil.
func (s *Users) Get(_ context.Context, id int64) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// ListAdmins returns admin accounts ordered by id.
func (s *Users) ListAdmins(_ context.Context) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.User
	for _, u := range s.users {
		if u.Role == domain.RoleAdmin {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Locations keeps one current row per order plus the route history.
type Locations struct {
	mu      sync.Mutex
	current map[int64]domain.Location
	route   map[int64][]domain.Location
}

// NewLocations returns an empty store.
func NewLocations() *Locations {
	return &Locations{
		current: make(map[int64]domain.Location),
		route:   make(map[int64][]domain.Location),
	}
}

// Record replaces the current position and appends it to the route.
func (s *Locations) Record(_ context.Context, loc domain.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := loc
	c.Kind = domain.LocationCurrent
	s.current[loc.OrderID] = c

	exists := slices.ContainsFunc(s.route[loc.OrderID], func(l domain.Location) bool {
		return l.RecordedAt.Equal(loc.RecordedAt)
	})
	if !exists {
		r := loc
		r.Kind = domain.LocationRoute
		s.route[loc.OrderID] = append(s.route[loc.OrderID], r)
	}
	return nil
}

// Current returns the latest position or nil.
func (s *Locations) Current(_ context.Context, orderID int64) (*domain.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.current[orderID]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

// CurrentRows returns how many current rows exist for the order.
func (s *Locations) CurrentRows(orderID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.current[orderID]; ok {
		return 1
	}
	return 0
}

// Route returns the history ordered by time.
func (s *Locations) Route(_ context.Context, orderID int64) ([]domain.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := slices.Clone(s.route[orderID])
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.Before(out[j].RecordedAt) })
	if out == nil {
		out = []domain.Location{}
	}
	return out, nil
}

// Ratings enforces one rating per order.
type Ratings struct {
	mu      sync.Mutex
	nextID  int64
	byOrder map[int64]domain.Rating
}

// NewRatings returns an empty store.
func NewRatings() *Ratings {
	return &Ratings{byOrder: make(map[int64]domain.Rating)}
}

// Create stores r or fails with ErrConflict when the order is rated.
func (s *Ratings) Create(_ context.Context, r *domain.Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byOrder[r.OrderID]; ok {
		return fmt.Errorf("%w: order %d already rated", apperr.ErrConflict, r.OrderID)
	}
	s.nextID++
	r.ID = s.nextID
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	s.byOrder[r.OrderID] = *r
	return nil
}

func (s *Ratings) has(orderID int64) bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byOrder[orderID]
	return ok
}

// GetByOrder returns the rating or nil.
func (s *Ratings) GetByOrder(_ context.Context, orderID int64) (*domain.Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byOrder[orderID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}
