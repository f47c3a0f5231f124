package app

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"tracknow/internal/metrics"
)

type metricsOut struct {
	dig.Out

	RateLimitExceededTotal     prometheus.Counter `name:"rate_limit_exceeded_total"`
	NotifyRetriesTotal         prometheus.Counter `name:"notify_retries_total"`
	NotificationsDroppedTotal  prometheus.Counter `name:"notifications_dropped_total"`
	RealtimeEventsDroppedTotal prometheus.Counter `name:"realtime_events_dropped_total"`
	LocationReportsTotal       prometheus.Counter `name:"location_reports_total"`
	OrderTransitionsTotal      *prometheus.CounterVec
}

func registerMetrics(container *dig.Container) error {
	return provideAll(container, provideMetrics)
}

// provideMetrics registers the service collectors on the default registerer.
// Collectors already registered (a second container in one process) are reused.
func provideMetrics() (metricsOut, error) {
	var (
		out metricsOut
		err error
	)
	counters := []struct {
		name string
		dst  *prometheus.Counter
		make func() prometheus.Counter
	}{
		{"rate_limit_exceeded_total", &out.RateLimitExceededTotal, metrics.NewRateLimitExceededTotal},
		{"notify_retries_total", &out.NotifyRetriesTotal, metrics.NewNotifyRetriesTotal},
		{"notifications_dropped_total", &out.NotificationsDroppedTotal, metrics.NewNotificationsDroppedTotal},
		{"realtime_events_dropped_total", &out.RealtimeEventsDroppedTotal, metrics.NewRealtimeEventsDroppedTotal},
		{"location_reports_total", &out.LocationReportsTotal, metrics.NewLocationReportsTotal},
	}
	for _, c := range counters {
		if *c.dst, err = register(c.name, c.make()); err != nil {
			return metricsOut{}, err
		}
	}
	if out.OrderTransitionsTotal, err = register("order_transitions_total", metrics.NewOrderTransitionsTotal()); err != nil {
		return metricsOut{}, err
	}
	return out, nil
}

func register[T prometheus.Collector](name string, c T) (T, error) {
	if err := prometheus.DefaultRegisterer.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		var zero T
		return zero, fmt.Errorf("register %s: %w", name, err)
	}
	return c, nil
}
