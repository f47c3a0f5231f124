package payment

import (
	"context"
	"strings"

	"tracknow/internal/domain"
)

type actionFunc func(context.Context, domain.PaymentOutcome) (*domain.Order, error)

type actionFactory struct {
	byResult map[string]actionFunc
}

func newActionFactory(onApproved, onRejected, onPending actionFunc) *actionFactory {
	return &actionFactory{
		byResult: map[string]actionFunc{
			"approved": onApproved,
			// provider-side cancellation means the charge never happened
			"rejected":   onRejected,
			"cancelled":  onRejected,
			"pending":    onPending,
			"in_process": onPending,
		},
	}
}

func (f *actionFactory) get(result domain.PaymentResult) (actionFunc, domain.PaymentResult, bool) {
	key := strings.ToLower(strings.TrimSpace(string(result)))
	fn, ok := f.byResult[key]
	if !ok {
		return nil, "", false
	}
	switch key {
	case "approved":
		return fn, domain.PaymentApproved, true
	case "rejected", "cancelled":
		return fn, domain.PaymentRejected, true
	default:
		return fn, domain.PaymentWaiting, true
	}
}
