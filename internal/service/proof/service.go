package proof

import (
	"context"
	"fmt"
	"time"

	"tracknow/internal/apperr"
	"tracknow/internal/domain"
	"tracknow/internal/logx"
)

// QR is the delivery proof presented to the recipient.
type QR struct {
	OrderID int64
	URL     string
	Image   string // empty when rendering failed
}

// Service exposes the delivery proof of in-transit orders.
type Service struct {
	orders           orderReader
	issuer           *Issuer
	renderer         Renderer
	operationTimeout time.Duration
	logger           logx.Logger
}

// NewService creates a new proof Service.
func NewService(orders orderReader, issuer *Issuer, renderer Renderer, timeout time.Duration, logger logx.Logger) *Service {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &Service{
		orders:           orders,
		issuer:           issuer,
		renderer:         renderer,
		operationTimeout: timeout,
		logger:           logger,
	}
}

// Issuer returns the token issuer.
func (s *Service) Issuer() *Issuer { return s.issuer }

// Build renders the proof for token. Rendering failures leave Image empty.
func (s *Service) Build(ctx context.Context, orderID int64, token string) QR {
	qr := QR{OrderID: orderID, URL: s.issuer.VerificationURL(orderID, token)}
	if s.renderer == nil {
		return qr
	}
	img, err := s.renderer.Render(ctx, qr.URL)
	if err != nil {
		s.logger.Warn("qr render failed",
			logx.Int64("order_id", orderID),
			logx.Err(err),
		)
		return qr
	}
	qr.Image = img
	return qr
}

// QR returns the current proof of an in-transit order. Only its client,
// its courier and admins may see it.
func (s *Service) QR(ctx context.Context, actor domain.Actor, orderID int64) (QR, error) {
	ctx, cancel := context.WithTimeout(ctx, s.operationTimeout)
	defer cancel()

	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return QR{}, err
	}
	if o == nil {
		return QR{}, fmt.Errorf("order %d: %w", orderID, apperr.ErrNotFound)
	}
	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleClient, domain.RoleCourier:
		if !o.Involves(actor) {
			return QR{}, fmt.Errorf("%w: not a party of order %d", apperr.ErrForbidden, orderID)
		}
	default:
		return QR{}, fmt.Errorf("%w: role %s cannot view delivery proof", apperr.ErrForbidden, actor.Role)
	}
	if o.DeliveryToken == nil {
		return QR{}, fmt.Errorf("order %d has no active delivery proof: %w", orderID, apperr.ErrNotFound)
	}
	return s.Build(ctx, orderID, *o.DeliveryToken), nil
}

// Verify reports whether token is the current proof of the order.
func (s *Service) Verify(ctx context.Context, orderID int64, token string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.operationTimeout)
	defer cancel()

	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return false, err
	}
	if o == nil {
		return false, fmt.Errorf("order %d: %w", orderID, apperr.ErrNotFound)
	}
	return Equal(o.DeliveryToken, token), nil
}

// Mint returns a fresh delivery token.
func (s *Service) Mint() (string, error) { return s.issuer.Mint() }
