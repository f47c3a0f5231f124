//go:generate mockgen -source=processor.go -destination=payment_mocks_test.go -package=payment_test

package payment

import (
	"context"
	"fmt"

	"tracknow/internal/apperr"
	"tracknow/internal/domain"
	"tracknow/internal/logx"
)

// Lifecycle is the subset of the order state machine payments drive.
type Lifecycle interface {
	ConfirmPayment(ctx context.Context, p domain.PaymentOutcome) (*domain.Order, error)
	MarkPaymentFailed(ctx context.Context, p domain.PaymentOutcome) (*domain.Order, error)
	MarkPaymentPending(ctx context.Context, p domain.PaymentOutcome) (*domain.Order, error)
}

// Processor routes payment provider outcomes to order transitions. It is
// shared by the webhook endpoint and the Kafka consumer.
type Processor struct {
	orders  Lifecycle
	factory *actionFactory
	logger  logx.Logger
}

// NewProcessor creates a new Processor.
func NewProcessor(orders Lifecycle, logger logx.Logger) *Processor {
	if logger == nil {
		logger = logx.Nop()
	}
	p := &Processor{orders: orders, logger: logger}
	p.factory = newActionFactory(orders.ConfirmPayment, orders.MarkPaymentFailed, orders.MarkPaymentPending)
	return p
}

// Handle applies a single payment outcome.
func (p *Processor) Handle(ctx context.Context, out domain.PaymentOutcome) (*domain.Order, error) {
	if out.OrderID <= 0 {
		return nil, fmt.Errorf("%w: order id must be positive", apperr.ErrInvalid)
	}
	fn, result, ok := p.factory.get(out.Result)
	if !ok {
		return nil, fmt.Errorf("%w: unknown payment outcome %q", apperr.ErrInvalid, out.Result)
	}
	out.Result = result

	o, err := fn(ctx, out)
	if err != nil {
		p.logger.Warn("payment outcome rejected",
			logx.String("event", "payment_outcome_rejected"),
			logx.Int64("order_id", out.OrderID),
			logx.String("outcome", string(result)),
			logx.Err(err),
		)
		return nil, err
	}
	p.logger.Info("payment outcome applied",
		logx.String("event", "payment_"+string(result)),
		logx.Int64("order_id", o.ID),
		logx.String("transaction_id", out.TransactionID),
		logx.String("payment_status", string(o.PaymentStatus)),
	)
	return o, nil
}
