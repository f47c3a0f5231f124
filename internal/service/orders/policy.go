package orders

import (
	"slices"

	"tracknow/internal/config"
	"tracknow/internal/domain"
)

// Policy holds the configurable lifecycle rules.
type Policy struct {
	// PaymentRequired makes new orders start Unpaid.
	PaymentRequired bool
	// DeliverAllowClient lets the order's client confirm delivery with the token.
	DeliverAllowClient bool
	CancelRoles        []domain.Role
	// CancelInTransit lets admins cancel orders already on the way.
	CancelInTransit bool
}

// PolicyFromConfig converts the orders config section. Unknown role names
// are skipped.
func PolicyFromConfig(c config.Orders) Policy {
	p := Policy{
		PaymentRequired:    c.PaymentRequired,
		DeliverAllowClient: c.DeliverAllowClient,
		CancelInTransit:    c.CancelInTransit,
	}
	for _, name := range c.CancelRoles {
		if r, ok := domain.ParseRole(name); ok && !slices.Contains(p.CancelRoles, r) {
			p.CancelRoles = append(p.CancelRoles, r)
		}
	}
	return p
}

func (p Policy) canCancel(r domain.Role) bool {
	return slices.Contains(p.CancelRoles, r)
}

func (p Policy) canDeliver(r domain.Role) bool {
	switch r {
	case domain.RoleCourier:
		return true
	case domain.RoleClient:
		return p.DeliverAllowClient
	case domain.RoleSeller, domain.RoleAdmin:
		return false
	default:
		return false
	}
}
