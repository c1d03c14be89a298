package eventbus

import (
	"context"
	"sync"

	"santai/models"

	"go.uber.org/zap"
)

// Bus fans out domain events to notification/UI consumers. Events for a given
// booking are published in the order its state transitioned; cross-booking
// ordering is not guaranteed and consumers must not assume it.
type Bus interface {
	Publish(ctx context.Context, event models.Event)
}

// MemoryBus delivers events in-process. Each subscriber gets its own buffered
// channel; a slow subscriber drops events rather than blocking the publisher.
type MemoryBus struct {
	mu     sync.RWMutex
	subs   []chan models.Event
	logger *zap.Logger
}

func NewMemoryBus(logger *zap.Logger) *MemoryBus {
	return &MemoryBus{logger: logger}
}

// Subscribe registers a consumer and returns its event channel.
func (b *MemoryBus) Subscribe(buffer int) <-chan models.Event {
	ch := make(chan models.Event, buffer)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()
	return ch
}

// Publish delivers the event to every subscriber in registration order.
func (b *MemoryBus) Publish(_ context.Context, event models.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
			b.logger.Warn("event dropped: subscriber buffer full",
				zap.String("type", string(event.Type)))
		}
	}
}

// LogEvents drains a subscription and writes one structured log line per
// event, until the channel is closed. main runs it against the in-process bus
// as the audit-trail consumer.
func LogEvents(ch <-chan models.Event, logger *zap.Logger) {
	for event := range ch {
		fields := []zap.Field{
			zap.String("type", string(event.Type)),
			zap.Time("occurredAt", event.OccurredAt),
		}
		if event.Booking != nil {
			fields = append(fields,
				zap.String("bookingID", event.Booking.ID),
				zap.String("providerID", event.Booking.ProviderID))
		}
		if event.Commission != nil {
			fields = append(fields,
				zap.String("commissionID", event.Commission.ID),
				zap.String("providerID", event.Commission.ProviderID))
		}
		if event.Reason != "" {
			fields = append(fields, zap.String("reason", event.Reason))
		}
		logger.Info("domain event", fields...)
	}
}
