package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBus distributes reconciliation events over Redis pub/sub, one channel
// per institute.
type RedisBus struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewRedisBus constructs a Redis-backed event bus.
func NewRedisBus(client *redis.Client, prefix string, logger *zap.Logger) *RedisBus {
	if prefix == "" {
		prefix = "fees:reconciled"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBus{client: client, prefix: prefix, logger: logger}
}

func (b *RedisBus) channel(instituteID string) string {
	return fmt.Sprintf("%s:%s", b.prefix, instituteID)
}

// Publish serialises the event and pushes it onto the institute channel.
func (b *RedisBus) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel(event.InstituteID), payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Subscribe consumes events for one institute until the context is cancelled.
// Subscribing with InstituteAll pattern-matches every institute channel.
// Malformed payloads are logged and skipped.
func (b *RedisBus) Subscribe(ctx context.Context, instituteID string, handler Handler) error {
	var sub *redis.PubSub
	if instituteID == InstituteAll {
		sub = b.client.PSubscribe(ctx, b.channel("*"))
	} else {
		sub = b.client.Subscribe(ctx, b.channel(instituteID))
	}
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", instituteID, err)
	}

	go func() {
		defer sub.Close() //nolint:errcheck
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					b.logger.Warn("malformed reconciliation event", zap.String("payload", msg.Payload), zap.Error(err))
					continue
				}
				handler(event)
			}
		}
	}()

	return nil
}
