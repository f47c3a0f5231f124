package domain

import (
	"fmt"
	"slices"
	"time"

	"tracknow/internal/apperr"
)

// Transition describes a conditional order update. The store applies it
// atomically and only when every guard still holds.
type Transition struct {
	Name    string
	OrderID int64
	From    []Status
	To      Status

	// guards
	RequireNoCourier bool
	RequireCourier   *int64
	ExpectToken      *string
	RequirePayment   []PaymentStatus

	// effects
	SetCourier     *int64
	SetToken       *string
	ClearToken     bool
	SetPayment     *PaymentStatus
	SetPaymentTxID *string
	SetPaidAt      *time.Time
	SetDeliveredAt *time.Time
}

// Allows reports whether o currently satisfies every guard.
func (t Transition) Allows(o *Order) bool {
	if o == nil || o.ID != t.OrderID {
		return false
	}
	if !slices.Contains(t.From, o.Status) {
		return false
	}
	if t.RequireNoCourier && o.HasCourier() {
		return false
	}
	if t.RequireCourier != nil && !o.IsCourier(*t.RequireCourier) {
		return false
	}
	if t.ExpectToken != nil && (o.DeliveryToken == nil || *o.DeliveryToken != *t.ExpectToken) {
		return false
	}
	if len(t.RequirePayment) > 0 && !slices.Contains(t.RequirePayment, o.PaymentStatus) {
		return false
	}
	return true
}

// ApplyTo mutates o with the transition effects.
func (t Transition) ApplyTo(o *Order) {
	o.Status = t.To
	if t.SetCourier != nil {
		id := *t.SetCourier
		o.CourierID = &id
	}
	if t.ClearToken {
		o.DeliveryToken = nil
	}
	if t.SetToken != nil {
		tok := *t.SetToken
		o.DeliveryToken = &tok
	}
	if t.SetPayment != nil {
		o.PaymentStatus = *t.SetPayment
	}
	if t.SetPaymentTxID != nil {
		o.PaymentTxID = *t.SetPaymentTxID
	}
	if t.SetPaidAt != nil {
		at := *t.SetPaidAt
		o.PaidAt = &at
	}
	if t.SetDeliveredAt != nil {
		at := *t.SetDeliveredAt
		o.DeliveredAt = &at
	}
}

// Explain classifies why the transition did not apply to current.
// A nil current means the order does not exist.
func (t Transition) Explain(current *Order) error {
	switch {
	case current == nil:
		return fmt.Errorf("order %d: %w", t.OrderID, apperr.ErrNotFound)
	case t.RequireNoCourier && current.HasCourier():
		return fmt.Errorf("%w: already assigned", apperr.ErrConflict)
	case !slices.Contains(t.From, current.Status):
		return fmt.Errorf("%w: illegal transition %s from %s", apperr.ErrConflict, t.Name, current.Status)
	case t.RequireCourier != nil && !current.IsCourier(*t.RequireCourier):
		return fmt.Errorf("%w: not the assigned courier", apperr.ErrForbidden)
	case t.ExpectToken != nil:
		return fmt.Errorf("order %d: %w", t.OrderID, apperr.ErrInvalidToken)
	case len(t.RequirePayment) > 0 && !slices.Contains(t.RequirePayment, current.PaymentStatus):
		return fmt.Errorf("%w: payment is %s", apperr.ErrConflict, current.PaymentStatus)
	default:
		return fmt.Errorf("%w: concurrent update of order %d", apperr.ErrConflict, t.OrderID)
	}
}
