package handlers

import (
	"time"

	"github.com/shopspring/decimal"
)

type pointDTO struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type orderResponse struct {
	ID                 int64            `json:"id"`
	ClientID           int64            `json:"client_id"`
	CourierID          *int64           `json:"courier_id"`
	SellerID           *int64           `json:"seller_id,omitempty"`
	OriginAddress      string           `json:"origin_address"`
	DestinationAddress string           `json:"destination_address"`
	Origin             *pointDTO        `json:"origin,omitempty"`
	Destination        *pointDTO        `json:"destination,omitempty"`
	Status             string           `json:"status"`
	PaymentStatus      string           `json:"payment_status"`
	PaymentTxID        string           `json:"payment_tx_id,omitempty"`
	Amount             *decimal.Decimal `json:"amount,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	PaidAt             *time.Time       `json:"paid_at,omitempty"`
	DeliveredAt        *time.Time       `json:"delivered_at,omitempty"`
}

type createOrderRequest struct {
	ClientID           int64               `json:"client_id"`
	OriginAddress      string              `json:"origin_address"`
	DestinationAddress string              `json:"destination_address"`
	Origin             *pointDTO           `json:"origin"`
	Destination        *pointDTO           `json:"destination"`
	Amount             decimal.NullDecimal `json:"amount"`
}

type qrResponse struct {
	OrderID int64  `json:"order_id"`
	URL     string `json:"url"`
	Image   string `json:"image,omitempty"`
}

type departResponse struct {
	Order orderResponse `json:"order"`
	QR    qrResponse    `json:"qr"`
}

type deliverRequest struct {
	Token string `json:"token"`
}

type assignRequest struct {
	CourierID int64 `json:"courier_id"`
}

type transitionRequest struct {
	Status string `json:"status"`
	Token  string `json:"token,omitempty"`
}

type locationRequest struct {
	Lat       float64    `json:"lat"`
	Lon       float64    `json:"lon"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

type locationResponse struct {
	OrderID    int64     `json:"order_id"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	RecordedAt time.Time `json:"recorded_at"`
}

type verifyResponse struct {
	OrderID int64 `json:"order_id"`
	Valid   bool  `json:"valid"`
}

type rateRequest struct {
	Score   int    `json:"score"`
	Comment string `json:"comment"`
}

type ratingResponse struct {
	ID        int64     `json:"id"`
	OrderID   int64     `json:"order_id"`
	ClientID  int64     `json:"client_id"`
	CourierID int64     `json:"courier_id"`
	Score     int       `json:"score"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type paymentWebhookRequest struct {
	OrderID       int64  `json:"order_id"`
	TransactionID string `json:"transaction_id"`
	Outcome       string `json:"outcome"`
}

type courierPerformanceDTO struct {
	CourierID        int64   `json:"courier_id"`
	Name             string  `json:"name"`
	Total            int64   `json:"total"`
	Delivered        int64   `json:"delivered"`
	Active           int64   `json:"active"`
	Cancelled        int64   `json:"cancelled"`
	AvgDeliveryHours float64 `json:"avg_delivery_hours"`
	AvgRating        float64 `json:"avg_rating"`
}

type performanceResponse struct {
	Total            int64                   `json:"total"`
	Delivered        int64                   `json:"delivered"`
	Pending          int64                   `json:"pending"`
	InTransit        int64                   `json:"in_transit"`
	Cancelled        int64                   `json:"cancelled"`
	AvgDeliveryHours float64                 `json:"avg_delivery_hours"`
	AvgRating        float64                 `json:"avg_rating"`
	Couriers         []courierPerformanceDTO `json:"couriers"`
	GeneratedAt      time.Time               `json:"generated_at"`
}

type notificationResponse struct {
	ID        string    `json:"id"`
	OrderID   int64     `json:"order_id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
