package handlers

import (
	"context"

	"tracknow/internal/domain"
	"tracknow/internal/realtime"
	"tracknow/internal/service/proof"
)

type orderUsecase interface {
	Create(ctx context.Context, actor domain.Actor, req domain.CreateOrderRequest) (*domain.Order, error)
	Get(ctx context.Context, actor domain.Actor, id int64) (*domain.Order, error)
	ListForActor(ctx context.Context, actor domain.Actor, page domain.Page) ([]domain.Order, error)
	Depart(ctx context.Context, actor domain.Actor, id int64) (*domain.Order, proof.QR, error)
	Deliver(ctx context.Context, actor domain.Actor, req domain.DeliverRequest) (*domain.Order, error)
	Cancel(ctx context.Context, actor domain.Actor, id int64) (*domain.Order, error)
	Refund(ctx context.Context, actor domain.Actor, id int64) (*domain.Order, error)
	TransitionTo(ctx context.Context, actor domain.Actor, id int64, status, token string) (*domain.Order, error)
}

type assignmentUsecase interface {
	Claim(ctx context.Context, actor domain.Actor, orderID int64) (*domain.Order, error)
	Assign(ctx context.Context, actor domain.Actor, req domain.AssignRequest) (*domain.Order, error)
	ListAvailable(ctx context.Context, actor domain.Actor, page domain.Page) ([]domain.Order, error)
}

type trackingUsecase interface {
	ReportLocation(ctx context.Context, actor domain.Actor, r domain.LocationReport) (domain.Location, error)
	GetLocation(ctx context.Context, actor domain.Actor, orderID int64) (*domain.Location, error)
	Route(ctx context.Context, actor domain.Actor, orderID int64) ([]domain.Location, error)
}

type proofUsecase interface {
	QR(ctx context.Context, actor domain.Actor, orderID int64) (proof.QR, error)
	Verify(ctx context.Context, orderID int64, token string) (bool, error)
}

type ratingUsecase interface {
	Rate(ctx context.Context, actor domain.Actor, req domain.RateRequest) (*domain.Rating, error)
	Get(ctx context.Context, actor domain.Actor, orderID int64) (*domain.Rating, error)
	Pending(ctx context.Context, actor domain.Actor, page domain.Page) ([]domain.Order, error)
}

type reportUsecase interface {
	Performance(ctx context.Context, actor domain.Actor, f domain.PerformanceFilter) (domain.PerformanceReport, error)
}

type paymentUsecase interface {
	Handle(ctx context.Context, out domain.PaymentOutcome) (*domain.Order, error)
}

type notificationUsecase interface {
	List(ctx context.Context, actor domain.Actor, limit int) ([]domain.Notification, error)
}

// subscriber opens an order-scoped realtime channel.
type subscriber interface {
	Subscribe(orderID int64) *realtime.Subscription
}
