package domain

import (
	"fmt"
	"strings"
)

// Status is a lifecycle state of an order.
type Status int

// Order lifecycle states.
const (
	StatusUnpaid Status = iota + 1
	StatusPending
	StatusAssigned
	StatusInTransit
	StatusDelivered
	StatusCancelled
)

var allStatuses = [...]Status{
	StatusUnpaid, StatusPending, StatusAssigned, StatusInTransit, StatusDelivered, StatusCancelled,
}

var statusCodes = map[Status]string{
	StatusUnpaid:    "unpaid",
	StatusPending:   "pending",
	StatusAssigned:  "assigned",
	StatusInTransit: "in_transit",
	StatusDelivered: "delivered",
	StatusCancelled: "cancelled",
}

// catalog names as seeded into order_statuses
var statusCatalogNames = map[Status]string{
	StatusUnpaid:    "No pagado",
	StatusPending:   "Pendiente",
	StatusAssigned:  "Asignado",
	StatusInTransit: "En camino",
	StatusDelivered: "Entregado",
	StatusCancelled: "Cancelado",
}

// Statuses returns every lifecycle state in lifecycle order.
func Statuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses[:])
	return out
}

// String returns the API code of the status.
func (s Status) String() string {
	if c, ok := statusCodes[s]; ok {
		return c
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// CatalogName returns the display name stored in the status catalog.
func (s Status) CatalogName() string {
	return statusCatalogNames[s]
}

// Valid checks if the Status is one of the known states.
func (s Status) Valid() bool {
	_, ok := statusCodes[s]
	return ok
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// ParseStatus resolves an API code ("in_transit") or a catalog name ("En camino").
func ParseStatus(name string) (Status, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return 0, false
	}
	for _, s := range allStatuses {
		if n == statusCodes[s] || n == strings.ToLower(statusCatalogNames[s]) {
			return s, true
		}
	}
	if n == "canceled" {
		return StatusCancelled, true
	}
	return 0, false
}

// MarshalText encodes the status as its API code.
func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("unknown status %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes an API code or catalog name.
func (s *Status) UnmarshalText(b []byte) error {
	v, ok := ParseStatus(string(b))
	if !ok {
		return fmt.Errorf("unknown status %q", string(b))
	}
	*s = v
	return nil
}

// StatusCatalog maps lifecycle states to the persisted catalog ids.
type StatusCatalog struct {
	ids      map[Status]int
	statuses map[int]Status
}

// NewStatusCatalog builds a catalog from catalog name -> id rows.
// Every lifecycle state must be present.
func NewStatusCatalog(rows map[string]int) (*StatusCatalog, error) {
	c := &StatusCatalog{
		ids:      make(map[Status]int, len(allStatuses)),
		statuses: make(map[int]Status, len(allStatuses)),
	}
	for name, id := range rows {
		s, ok := ParseStatus(name)
		if !ok {
			continue
		}
		c.ids[s] = id
		c.statuses[id] = s
	}
	for _, s := range allStatuses {
		if _, ok := c.ids[s]; !ok {
			return nil, fmt.Errorf("status catalog: missing %q", s.CatalogName())
		}
	}
	return c, nil
}

// ID returns the catalog id of s.
func (c *StatusCatalog) ID(s Status) int {
	return c.ids[s]
}

// IDs returns the catalog ids of ss.
func (c *StatusCatalog) IDs(ss []Status) []int {
	out := make([]int, 0, len(ss))
	for _, s := range ss {
		out = append(out, c.ids[s])
	}
	return out
}

// Status resolves a catalog id.
func (c *StatusCatalog) Status(id int) (Status, bool) {
	s, ok := c.statuses[id]
	return s, ok
}
