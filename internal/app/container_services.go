package app

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"tracknow/internal/cache"
	"tracknow/internal/config"
	"tracknow/internal/logx"
	"tracknow/internal/notify"
	"tracknow/internal/qrcode"
	"tracknow/internal/realtime"
	"tracknow/internal/repository"
	"tracknow/internal/service/assignment"
	"tracknow/internal/service/orders"
	"tracknow/internal/service/payment"
	"tracknow/internal/service/proof"
	"tracknow/internal/service/rating"
	"tracknow/internal/service/report"
	"tracknow/internal/service/tracking"
)

func registerDomainServices(container *dig.Container) error {
	return provideAll(container,
		func(cfg *config.Config) *qrcode.Renderer {
			return qrcode.NewRenderer(cfg.Proof.QRSize)
		},
		func(cfg *config.Config) *proof.Issuer {
			return proof.NewIssuer(cfg.Proof.PublicBaseURL)
		},
		func(cfg *config.Config, repo *repository.OrderRepo, issuer *proof.Issuer, r *qrcode.Renderer, logger logx.Logger) *proof.Service {
			return proof.NewService(repo, issuer, r, cfg.Orders.OperationTimeout, logger)
		},
		newOrderService,
		func(cfg *config.Config, repo *repository.OrderRepo, users *repository.UserRepo, svc *orders.Service, logger logx.Logger) *assignment.Service {
			return assignment.NewService(repo, users, svc, cfg.Orders.OperationTimeout, logger)
		},
		newTrackingService,
		func(cfg *config.Config, repo *repository.OrderRepo, ratings *repository.RatingRepo, logger logx.Logger) *rating.Service {
			return rating.NewService(repo, ratings, cfg.Orders.OperationTimeout, logger)
		},
		func(cfg *config.Config, repo *repository.ReportRepo, store cache.Store, logger logx.Logger) *report.Service {
			return report.NewService(repo, store, cfg.Report.CacheTTL, cfg.Orders.OperationTimeout, logger)
		},
		func(svc *orders.Service, logger logx.Logger) *payment.Processor {
			return payment.NewProcessor(svc, logger)
		},
	)
}

type orderServiceIn struct {
	dig.In

	Config      *config.Config
	Logger      logx.Logger
	Store       *repository.OrderRepo
	Users       *repository.UserRepo
	Proofs      *proof.Service
	Notifier    realtime.Notifier
	Dispatcher  *notify.Dispatcher
	Transitions *prometheus.CounterVec
}

func newOrderService(in orderServiceIn) *orders.Service {
	return orders.NewService(
		in.Store,
		in.Users,
		in.Proofs,
		in.Notifier,
		in.Dispatcher,
		orders.PolicyFromConfig(in.Config.Orders),
		in.Config.Orders.OperationTimeout,
		in.Logger,
		orders.WithTransitionCounter(in.Transitions),
	)
}

type trackingIn struct {
	dig.In

	Config    *config.Config
	Logger    logx.Logger
	Orders    *repository.OrderRepo
	Locations *repository.LocationRepo
	Notifier  realtime.Notifier
	Reports   prometheus.Counter `name:"location_reports_total"`
}

func newTrackingService(in trackingIn) *tracking.Service {
	return tracking.NewService(in.Orders, in.Locations, in.Notifier, in.Reports, in.Config.Orders.OperationTimeout, in.Logger)
}

type notifyIn struct {
	dig.In

	Config  *config.Config
	Logger  logx.Logger
	Store   *repository.NotificationRepo
	Users   *repository.UserRepo
	Retries prometheus.Counter `name:"notify_retries_total"`
	Dropped prometheus.Counter `name:"notifications_dropped_total"`
}

func registerNotify(container *dig.Container) error {
	return provideAll(container, newDispatcher)
}

func newDispatcher(in notifyIn) *notify.Dispatcher {
	cfg := in.Config.Notify
	return notify.NewDispatcher(
		in.Store,
		in.Users,
		newSenders(cfg, in.Logger, in.Retries),
		cfg.QueueSize,
		cfg.Timeout,
		in.Dropped,
		in.Logger,
	)
}

// newSenders returns the configured providers, each behind retries.
// Providers without credentials are left out.
func newSenders(cfg config.Notify, logger logx.Logger, retries prometheus.Counter) []notify.Sender {
	client := &http.Client{Timeout: cfg.Timeout}
	retry := notify.RetryConfig{
		MaxAttempts: cfg.MaxAttempts,
		BaseDelay:   cfg.BaseDelay,
		MaxDelay:    cfg.MaxDelay,
	}

	senders := make([]notify.Sender, 0, 2)
	if email := notify.NewEmailSender(client, cfg.SendGridURL, cfg.SendGridAPIKey, cfg.SendGridFrom); email != nil {
		senders = append(senders, notify.NewRetryingSender(email, logger, retries, retry))
	}
	if push := notify.NewPushSender(client, cfg.ExpoURL); push != nil {
		senders = append(senders, notify.NewRetryingSender(push, logger, retries, retry))
	}
	return senders
}
