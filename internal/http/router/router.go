package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tracknow/internal/http/handlers"
	appmw "tracknow/internal/http/middleware"
	"tracknow/internal/logx"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Base          *handlers.Handlers
	Orders        *handlers.OrderHandler
	Tracking      *handlers.TrackingHandler
	Proof         *handlers.ProofHandler
	Rating        *handlers.RatingHandler
	Report        *handlers.ReportHandler
	Payments      *handlers.PaymentHandler
	Notifications *handlers.NotificationHandler
	Live          *handlers.LiveHandler
}

// Middlewares are the request guards applied to routes.
type Middlewares struct {
	// Authenticate resolves the bearer token into an actor.
	Authenticate func(http.Handler) http.Handler
	// RateLimit runs after Authenticate on protected routes and by IP on public ones.
	RateLimit func(http.Handler) http.Handler
}

// New constructs a chi-based http.Handler with base middleware and routes.
func New(h Handlers, mw Middlewares, logger logx.Logger) http.Handler {
	if mw.Authenticate == nil {
		mw.Authenticate = passthrough
	}
	if mw.RateLimit == nil {
		mw.RateLimit = passthrough
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(appmw.Observability(logger))

	r.Get("/ping", h.Base.Ping)
	r.Method(http.MethodHead, "/healthcheck", http.HandlerFunc(h.Base.HealthcheckHead))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(mw.RateLimit)
		r.Get("/orders/{id}/verify", h.Proof.Verify)
		r.Post("/payments/webhook", h.Payments.Webhook)
	})

	// The websocket handler manages its own deadlines.
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate)
		r.Use(mw.RateLimit)
		r.Get("/orders/{id}/live", h.Live.Subscribe)
	})

	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate)
		r.Use(mw.RateLimit)
		r.Use(middleware.Timeout(10 * time.Second))

		r.Post("/orders", h.Orders.Create)
		r.Get("/orders", h.Orders.List)
		r.Get("/orders/available", h.Orders.Available)
		r.Get("/orders/{id}", h.Orders.Get)

		r.Post("/orders/{id}/claim", h.Orders.Claim)
		r.Post("/orders/{id}/assign", h.Orders.Assign)
		r.Post("/orders/{id}/depart", h.Orders.Depart)
		r.Post("/orders/{id}/deliver", h.Orders.Deliver)
		r.Post("/orders/{id}/cancel", h.Orders.Cancel)
		r.Post("/orders/{id}/refund", h.Orders.Refund)
		r.Put("/orders/{id}/status", h.Orders.TransitionTo)

		r.Post("/orders/{id}/location", h.Tracking.Report)
		r.Get("/orders/{id}/location", h.Tracking.Get)
		r.Get("/orders/{id}/route", h.Tracking.Route)

		r.Get("/orders/{id}/qr", h.Proof.QR)
		r.Get("/orders/unrated", h.Rating.Unrated)
		r.Post("/orders/{id}/rating", h.Rating.Rate)
		r.Get("/orders/{id}/rating", h.Rating.Get)

		r.Get("/reports/performance", h.Report.Performance)
		r.Get("/notifications", h.Notifications.List)
	})

	r.NotFound(http.HandlerFunc(h.Base.NotFound))
	return r
}

func passthrough(next http.Handler) http.Handler { return next }
