package app

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/dig"

	"tracknow/internal/config"
	"tracknow/internal/logx"
	"tracknow/internal/realtime"
	"tracknow/internal/transport/kafka"
)

const (
	subscriberBuffer = 64
	publishQueueSize = 1024
	publishTimeout   = 2 * time.Second
)

type realtimeIn struct {
	dig.In

	Config  *config.Config
	Logger  logx.Logger
	Redis   *goredis.Client
	Dropped prometheus.Counter `name:"realtime_events_dropped_total"`
}

type realtimeOut struct {
	dig.Out

	Hub      *realtime.Hub
	Bridge   *realtime.RedisBridge
	Producer *kafka.Producer
	Async    *realtime.Async
	Notifier realtime.Notifier
}

func registerRealtime(container *dig.Container) error {
	return provideAll(container, newRealtime)
}

// newRealtime builds the publish path used by services:
// Async -> (Redis bridge | local hub) + Kafka order events.
// With Redis enabled the hub is fed by the bridge subscription, so every
// instance sees events published by any other one.
func newRealtime(in realtimeIn) (realtimeOut, error) {
	hub := realtime.NewHub(subscriberBuffer, in.Dropped, in.Logger)

	var (
		local  realtime.Notifier = hub
		bridge *realtime.RedisBridge
	)
	if in.Redis != nil {
		bridge = realtime.NewRedisBridge(in.Redis, hub, in.Logger)
		local = bridge
	}

	producer, err := kafka.NewProducer(in.Logger, in.Config.Kafka.Brokers, in.Config.Kafka.EventsTopic)
	if err != nil {
		return realtimeOut{}, fmt.Errorf("kafka producer: %w", err)
	}

	transports := realtime.Fanout{local}
	if producer != nil {
		transports = append(transports, producer)
	}
	async := realtime.NewAsync(transports, publishQueueSize, publishTimeout, in.Dropped, in.Logger)

	return realtimeOut{
		Hub:      hub,
		Bridge:   bridge,
		Producer: producer,
		Async:    async,
		Notifier: async,
	}, nil
}
