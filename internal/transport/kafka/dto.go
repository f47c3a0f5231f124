package kafka

import (
	"strings"

	"tracknow/internal/domain"
)

// PaymentDTO is the payment outcome message published by the payments gateway.
type PaymentDTO struct {
	OrderID       int64  `json:"order_id"`
	TransactionID string `json:"transaction_id"`
	Outcome       string `json:"outcome"`
}

// ToDomain converts PaymentDTO to domain.PaymentOutcome.
func ToDomain(dto PaymentDTO) domain.PaymentOutcome {
	return domain.PaymentOutcome{
		OrderID:       dto.OrderID,
		TransactionID: strings.TrimSpace(dto.TransactionID),
		Result:        domain.PaymentResult(strings.ToLower(strings.TrimSpace(dto.Outcome))),
	}
}
