package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/dig"

	"tracknow/internal/auth"
	"tracknow/internal/config"
	"tracknow/internal/grpcserver"
	"tracknow/internal/http/handlers"
	"tracknow/internal/http/middleware"
	"tracknow/internal/http/middleware/ratelimit"
	"tracknow/internal/http/router"
	"tracknow/internal/logx"
	"tracknow/internal/notify"
	"tracknow/internal/realtime"
	"tracknow/internal/service/assignment"
	"tracknow/internal/service/orders"
	"tracknow/internal/service/payment"
	"tracknow/internal/service/proof"
	"tracknow/internal/service/rating"
	"tracknow/internal/service/report"
	"tracknow/internal/service/tracking"
)

func registerHTTP(container *dig.Container) error {
	serverProvider := func(cfg *config.Config, mux http.Handler) *http.Server {
		return &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
	}
	return provideAll(container,
		func(cfg *config.Config) *auth.Verifier { return auth.NewVerifier(cfg.Auth.JWTSecret) },
		newRateLimiter,
		newRateLimitMiddleware,
		handlers.New,
		func(l logx.Logger, o *orders.Service, a *assignment.Service) *handlers.OrderHandler {
			return handlers.NewOrderHandler(l, o, a)
		},
		func(l logx.Logger, s *tracking.Service) *handlers.TrackingHandler {
			return handlers.NewTrackingHandler(l, s)
		},
		func(l logx.Logger, s *proof.Service) *handlers.ProofHandler {
			return handlers.NewProofHandler(l, s)
		},
		func(l logx.Logger, s *rating.Service) *handlers.RatingHandler {
			return handlers.NewRatingHandler(l, s)
		},
		func(l logx.Logger, s *report.Service) *handlers.ReportHandler {
			return handlers.NewReportHandler(l, s)
		},
		func(cfg *config.Config, l logx.Logger, p *payment.Processor) *handlers.PaymentHandler {
			return handlers.NewPaymentHandler(l, p, cfg.Webhook.Secret)
		},
		func(l logx.Logger, d *notify.Dispatcher) *handlers.NotificationHandler {
			return handlers.NewNotificationHandler(l, d)
		},
		func(l logx.Logger, o *orders.Service, hub *realtime.Hub) *handlers.LiveHandler {
			return handlers.NewLiveHandler(l, o, hub)
		},
		newRouter,
		serverProvider,
	)
}

type routerIn struct {
	dig.In

	Logger        logx.Logger
	Verifier      *auth.Verifier
	RateLimit     *ratelimit.Middleware
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

func newRouter(in routerIn) http.Handler {
	return router.New(router.Handlers{
		Base:          in.Base,
		Orders:        in.Orders,
		Tracking:      in.Tracking,
		Proof:         in.Proof,
		Rating:        in.Rating,
		Report:        in.Report,
		Payments:      in.Payments,
		Notifications: in.Notifications,
		Live:          in.Live,
	}, router.Middlewares{
		Authenticate: middleware.Authenticate(in.Verifier, in.Logger),
		RateLimit:    in.RateLimit.Handler(),
	}, in.Logger)
}

func registerGRPC(container *dig.Container) error {
	return provideAll(container, func(logger logx.Logger, pool *pgxpool.Pool) *grpcserver.Server {
		var check grpcserver.Check
		if pool != nil {
			check = pool.Ping
		}
		return grpcserver.New(logger, check, 10*time.Second)
	})
}
