package metrics

import "github.com/prometheus/client_golang/prometheus"

// NewRateLimitExceededTotal returns a Prometheus counter for the number of rejected HTTP requests due to rate limiting
func NewRateLimitExceededTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rate_limit_exceeded_total",
		Help: "Total number of rejected HTTP requests due to rate limiting",
	})
}

// NewNotifyRetriesTotal returns a Prometheus counter for retry attempts performed by notification senders
func NewNotifyRetriesTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notify_retries_total",
		Help: "Total number of retry attempts performed by notification senders",
	})
}

// NewNotificationsDroppedTotal returns a Prometheus counter for notifications dropped on a full queue
func NewNotificationsDroppedTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifications_dropped_total",
		Help: "Total number of notifications dropped because the dispatch queue was full",
	})
}

// NewOrderTransitionsTotal returns a counter vector of order transitions by name and result
func NewOrderTransitionsTotal() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Total number of attempted order transitions",
	}, []string{"transition", "result"})
}

// NewRealtimeEventsDroppedTotal returns a counter for realtime events dropped on slow subscribers or a full queue
func NewRealtimeEventsDroppedTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "realtime_events_dropped_total",
		Help: "Total number of realtime events dropped",
	})
}

// NewLocationReportsTotal returns a counter for accepted courier location reports
func NewLocationReportsTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "location_reports_total",
		Help: "Total number of accepted courier location reports",
	})
}
