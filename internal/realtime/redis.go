package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"tracknow/internal/logx"
)

const channelPrefix = "tracknow:order:"

// Channel returns the Redis channel of an order.
func Channel(orderID int64) string {
	return channelPrefix + strconv.FormatInt(orderID, 10)
}

// RedisBridge shares order channels between service instances. Publish sends
// to Redis; Run relays every order channel into the local hub.
type RedisBridge struct {
	client *goredis.Client
	local  Notifier
	logger logx.Logger
}

// NewRedisBridge creates a bridge relaying into local.
func NewRedisBridge(client *goredis.Client, local Notifier, logger logx.Logger) *RedisBridge {
	if logger == nil {
		logger = logx.Nop()
	}
	return &RedisBridge{client: client, local: local, logger: logger}
}

// Publish implements Notifier. When Redis is unreachable the event still
// reaches local subscribers.
func (b *RedisBridge) Publish(ctx context.Context, e Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		b.logger.Error("realtime encode failed", logx.Int64("order_id", e.OrderID), logx.Err(err))
		return
	}
	if err := b.client.Publish(ctx, Channel(e.OrderID), payload).Err(); err != nil {
		b.logger.Warn("redis publish failed, delivering locally",
			logx.Int64("order_id", e.OrderID),
			logx.Err(err),
		)
		b.local.Publish(ctx, e)
	}
}

// Run relays Redis messages to the local hub until ctx is done.
func (b *RedisBridge) Run(ctx context.Context) error {
	ps := b.client.PSubscribe(ctx, channelPrefix+"*")
	defer func() {
		if err := ps.Close(); err != nil {
			b.logger.Warn("redis pubsub close failed", logx.Err(err))
		}
	}()

	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("redis psubscribe: %w", err)
	}
	b.logger.Info("realtime redis bridge subscribed", logx.String("pattern", channelPrefix+"*"))

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.relay(ctx, msg)
		}
	}
}

func (b *RedisBridge) relay(ctx context.Context, msg *goredis.Message) {
	var e Event
	if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
		b.logger.Warn("realtime bad payload", logx.String("channel", msg.Channel), logx.Err(err))
		return
	}
	if id, err := strconv.ParseInt(strings.TrimPrefix(msg.Channel, channelPrefix), 10, 64); err != nil || id != e.OrderID {
		b.logger.Warn("realtime channel mismatch", logx.String("channel", msg.Channel))
		return
	}
	b.local.Publish(ctx, e)
}
