package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus represents the payment state of an order.
type PaymentStatus string

// List of payment states
const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// Valid checks if the PaymentStatus is valid
func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentUnpaid, PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	default:
		return false
	}
}

// Point is a geographic coordinate pair.
type Point struct {
	Lat float64
	Lon float64
}

// Valid reports whether the point lies within WGS84 bounds.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Order is a delivery request tracked from creation to a terminal state.
type Order struct {
	ID                 int64
	ClientID           int64
	CourierID          *int64
	SellerID           *int64
	OriginAddress      string
	DestinationAddress string
	Origin             *Point
	Destination        *Point
	Status             Status
	PaymentStatus      PaymentStatus
	PaymentTxID        string
	Amount             decimal.NullDecimal
	DeliveryToken      *string
	CreatedAt          time.Time
	PaidAt             *time.Time
	DeliveredAt        *time.Time
}

// HasCourier reports whether a courier has been bound to the order.
func (o *Order) HasCourier() bool { return o.CourierID != nil }

// IsCourier reports whether id is the assigned courier.
func (o *Order) IsCourier(id int64) bool { return o.CourierID != nil && *o.CourierID == id }

// IsSeller reports whether id registered the order.
func (o *Order) IsSeller(id int64) bool { return o.SellerID != nil && *o.SellerID == id }

// Involves reports whether the actor is a party of the order.
func (o *Order) Involves(a Actor) bool {
	switch a.Role {
	case RoleAdmin:
		return true
	case RoleClient:
		return o.ClientID == a.ID
	case RoleCourier:
		return o.IsCourier(a.ID)
	case RoleSeller:
		return o.IsSeller(a.ID)
	default:
		return false
	}
}

// VisibleTo reports whether the actor may read the order.
// Couriers can also see unclaimed pending orders.
func (o *Order) VisibleTo(a Actor) bool {
	if o.Involves(a) {
		return true
	}
	return a.Role == RoleCourier && o.Status == StatusPending && !o.HasCourier()
}

// CreateOrderRequest carries the input of order creation.
type CreateOrderRequest struct {
	ClientID           int64
	OriginAddress      string
	DestinationAddress string
	Origin             *Point
	Destination        *Point
	Amount             decimal.NullDecimal
}

// DeliverRequest carries the proof presented to confirm a delivery.
type DeliverRequest struct {
	OrderID int64
	Token   string
}

// AssignRequest carries an admin assignment.
type AssignRequest struct {
	OrderID   int64
	CourierID int64
}

// PaymentResult is the outcome reported by the payment provider.
type PaymentResult string

// List of payment provider outcomes
const (
	PaymentApproved PaymentResult = "approved"
	PaymentRejected PaymentResult = "rejected"
	PaymentWaiting  PaymentResult = "pending"
)

// PaymentOutcome is a payment notification for an order.
type PaymentOutcome struct {
	OrderID       int64
	TransactionID string
	Result        PaymentResult
}

// Page is an optional limit/offset window.
type Page struct {
	Limit  *int
	Offset *int
}
