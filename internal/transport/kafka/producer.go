package kafka

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/IBM/sarama"

	"tracknow/internal/logx"
	"tracknow/internal/realtime"
)

var newSyncProducer = sarama.NewSyncProducer

// Producer publishes realtime events to a Kafka topic keyed by order id, so
// downstream consumers see per-order ordering. It implements realtime.Notifier.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
	logger   logx.Logger
}

// NewProducer creates a new Producer. It returns nil, nil when Kafka is not configured.
func NewProducer(logger logx.Logger, brokers []string, topic string) (*Producer, error) {
	if len(brokers) == 0 || strings.TrimSpace(topic) == "" {
		return nil, nil
	}
	if logger == nil {
		logger = logx.Nop()
	}

	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	cfg.Producer.Retry.Max = 3

	p, err := newSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return &Producer{producer: p, topic: topic, logger: logger}, nil
}

// Publish implements realtime.Notifier. Failures are logged and dropped.
func (p *Producer) Publish(_ context.Context, e realtime.Event) {
	if p == nil {
		return
	}
	b, err := json.Marshal(e)
	if err != nil {
		p.logger.Error("kafka encode event failed", logx.Int64("order_id", e.OrderID), logx.Err(err))
		return
	}
	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(strconv.FormatInt(e.OrderID, 10)),
		Value: sarama.ByteEncoder(b),
	})
	if err != nil {
		p.logger.Warn("kafka publish failed",
			logx.Int64("order_id", e.OrderID),
			logx.String("kind", string(e.Kind)),
			logx.Err(err),
		)
	}
}

// Close flushes and closes the producer.
func (p *Producer) Close() error {
	if p == nil {
		return nil
	}
	return p.producer.Close()
}
