package eventbus

import (
	"context"
	"encoding/json"

	"santai/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// EventChannel is the Redis pub/sub channel external consumers subscribe to.
const EventChannel = "santai:events"

// RedisBus publishes the JSON event envelope on a Redis channel so the
// notification and chat collaborators can consume transitions out of process.
type RedisBus struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisBus(client *redis.Client, logger *zap.Logger) *RedisBus {
	return &RedisBus{client: client, logger: logger}
}

func (b *RedisBus) Publish(ctx context.Context, event models.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("failed to marshal event", zap.String("type", string(event.Type)), zap.Error(err))
		return
	}
	if err := b.client.Publish(ctx, EventChannel, payload).Err(); err != nil {
		b.logger.Error("failed to publish event", zap.String("type", string(event.Type)), zap.Error(err))
	}
}

// Fanout publishes to several buses in order. It lets the engine feed the
// in-process subscribers and Redis consumers from one Publish call.
type Fanout []Bus

func (f Fanout) Publish(ctx context.Context, event models.Event) {
	for _, b := range f {
		b.Publish(ctx, event)
	}
}
