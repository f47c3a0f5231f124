package domain

import (
	"time"

	"github.com/google/uuid"
)

// LocationKind distinguishes the latest position from the route history.
type LocationKind string

// List of location kinds
const (
	LocationCurrent LocationKind = "current"
	LocationRoute   LocationKind = "route"
)

// Location is a courier position recorded against an order.
type Location struct {
	OrderID    int64
	Kind       LocationKind
	Lat        float64
	Lon        float64
	RecordedAt time.Time
}

// LocationReport is a position sent by the assigned courier.
type LocationReport struct {
	OrderID   int64
	Lat       float64
	Lon       float64
	Timestamp time.Time
}

// Rating is the client's score for a delivered order.
type Rating struct {
	ID        int64
	OrderID   int64
	ClientID  int64
	CourierID int64
	Score     int
	Comment   string
	CreatedAt time.Time
}

// RateRequest carries a client's rating.
type RateRequest struct {
	OrderID int64
	Score   int
	Comment string
}

// NotificationType tags in-app notifications.
type NotificationType string

// List of notification types
const (
	NotifyOrderCreated     NotificationType = "order_created"
	NotifyOrderAssigned    NotificationType = "order_assigned"
	NotifyOrderInTransit   NotificationType = "order_in_transit"
	NotifyOrderDelivered   NotificationType = "order_delivered"
	NotifyOrderCancelled   NotificationType = "order_cancelled"
	NotifyPaymentConfirmed NotificationType = "payment_confirmed"
	NotifyPaymentFailed    NotificationType = "payment_failed"
	NotifyPaymentRefunded  NotificationType = "payment_refunded"
)

// Notification is a persisted in-app notification.
type Notification struct {
	ID        uuid.UUID
	OrderID   int64
	UserID    int64
	Type      NotificationType
	Message   string
	CreatedAt time.Time
}

// PerformanceFilter narrows the performance report.
type PerformanceFilter struct {
	From      *time.Time
	To        *time.Time
	CourierID *int64
}

// PerformanceReport aggregates delivery outcomes.
type PerformanceReport struct {
	Total            int64
	Delivered        int64
	Pending          int64
	InTransit        int64
	Cancelled        int64
	AvgDeliveryHours float64
	AvgRating        float64
	Couriers         []CourierPerformance
	GeneratedAt      time.Time
}

// CourierPerformance is the per-courier slice of the report.
type CourierPerformance struct {
	CourierID        int64
	Name             string
	Total            int64
	Delivered        int64
	Active           int64
	Cancelled        int64
	AvgDeliveryHours float64
	AvgRating        float64
}
