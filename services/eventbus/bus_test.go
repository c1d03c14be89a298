package eventbus

import (
	"context"
	"testing"

	"santai/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMemoryBus_DeliversInPublishOrder(t *testing.T) {
	bus := NewMemoryBus(zap.NewNop())
	ch := bus.Subscribe(8)

	booking := &models.Booking{ID: "B1"}
	bus.Publish(context.Background(), models.Event{Type: models.EventBookingOffered, Booking: booking})
	bus.Publish(context.Background(), models.Event{Type: models.EventBookingConfirmed, Booking: booking})

	first := <-ch
	second := <-ch
	assert.Equal(t, models.EventBookingOffered, first.Type)
	assert.Equal(t, models.EventBookingConfirmed, second.Type)
	require.NotNil(t, first.Booking)
	assert.Equal(t, "B1", first.Booking.ID)
}

func TestMemoryBus_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	bus := NewMemoryBus(zap.NewNop())
	ch := bus.Subscribe(1)

	bus.Publish(context.Background(), models.Event{Type: models.EventBookingOffered})
	bus.Publish(context.Background(), models.Event{Type: models.EventBookingConfirmed})

	// The first event fills the buffer; the second is dropped.
	got := <-ch
	assert.Equal(t, models.EventBookingOffered, got.Type)
	select {
	case unexpected := <-ch:
		t.Fatalf("expected no further events, got %s", unexpected.Type)
	default:
	}
}

func TestLogEvents_DrainsSubscriptionIntoLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ch := make(chan models.Event, 4)

	ch <- models.Event{
		Type:    models.EventBookingOffered,
		Booking: &models.Booking{ID: "B1", ProviderID: "P1"},
	}
	ch <- models.Event{
		Type:       models.EventCommissionOverdue,
		Commission: &models.CommissionRecord{ID: "C1", ProviderID: "P1"},
		Reason:     "payment deadline elapsed",
	}
	close(ch)
	LogEvents(ch, zap.New(core))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "domain event", entries[0].Message)
	assert.Equal(t, "BookingOffered", entries[0].ContextMap()["type"])
	assert.Equal(t, "B1", entries[0].ContextMap()["bookingID"])
	assert.Equal(t, "CommissionOverdue", entries[1].ContextMap()["type"])
	assert.Equal(t, "C1", entries[1].ContextMap()["commissionID"])
	assert.Equal(t, "payment deadline elapsed", entries[1].ContextMap()["reason"])
}

func TestMemoryBus_FanOutToAllSubscribers(t *testing.T) {
	bus := NewMemoryBus(zap.NewNop())
	a := bus.Subscribe(4)
	b := bus.Subscribe(4)

	bus.Publish(context.Background(), models.Event{Type: models.EventCommissionOpened})

	assert.Equal(t, models.EventCommissionOpened, (<-a).Type)
	assert.Equal(t, models.EventCommissionOpened, (<-b).Type)
}
