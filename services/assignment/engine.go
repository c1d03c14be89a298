package assignment

import (
	"context"
	"sync"
	"time"

	bookingRepo "santai/database/repository/booking"
	"santai/models"
	"santai/services/eventbus"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ObligationOpener is the slice of the commission ledger the engine needs when
// a booking completes.
type ObligationOpener interface {
	OpenObligation(ctx context.Context, booking *models.Booking, hotelVillaID string, serviceAmount, commissionRate int64) (*models.CommissionRecord, error)
}

// Engine owns the booking assignment lifecycle: it creates bookings, offers
// them to providers, enforces the response deadline and reassigns to fallback
// providers on timeout or decline.
type Engine struct {
	Repo   bookingRepo.BookingRepository
	Ledger ObligationOpener
	Timer  ResponseTimer
	Bus    eventbus.Bus
	Logger *zap.Logger

	OfferWindow      time.Duration
	MinAdvanceNotice time.Duration

	// Clock is injectable for tests; defaults to time.Now.
	Clock func() time.Time

	// locks serializes all mutating operations per booking aggregate.
	// Operations on different bookings proceed in parallel.
	locks sync.Map // bookingID -> *sync.Mutex
}

func (e *Engine) now() time.Time {
	if e.Clock != nil {
		return e.Clock()
	}
	return time.Now()
}

// nextDeadline mints an offer deadline at millisecond precision. The Mongo
// driver stores timestamps at milliseconds, so anything finer would never
// compare equal to the stored value when the timer fires.
func (e *Engine) nextDeadline(now time.Time) time.Time {
	return now.Add(e.OfferWindow).Truncate(time.Millisecond)
}

// lockBooking acquires the single-writer lock for one booking aggregate.
func (e *Engine) lockBooking(bookingID string) func() {
	mu, _ := e.locks.LoadOrStore(bookingID, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

// publish emits a domain event while the booking's lock is held, so events for
// a given booking leave in transition order.
func (e *Engine) publish(ctx context.Context, eventType models.EventType, booking *models.Booking, reason string) {
	snapshot := *booking
	e.Bus.Publish(ctx, models.Event{
		Type:       eventType,
		OccurredAt: e.now(),
		Booking:    &snapshot,
		Reason:     reason,
	})
}

// CreateBookingRequest carries a guest's service request.
type CreateBookingRequest struct {
	ProviderID          string    `json:"provider_id"`
	ProviderType        string    `json:"provider_type"`
	GuestID             string    `json:"guest_id"`
	GuestName           string    `json:"guest_name"`
	ServiceDuration     int       `json:"service_duration"`
	StartTime           time.Time `json:"start_time"`
	FallbackProviderIDs []string  `json:"fallback_provider_ids"`
}

// CreateBooking validates the request, persists the booking in Pending status
// with an outstanding offer, registers the response deadline and emits
// BookingOffered.
func (e *Engine) CreateBooking(ctx context.Context, req CreateBookingRequest) (*models.Booking, error) {
	providerType, err := models.ParseProviderType(req.ProviderType)
	if err != nil {
		return nil, err
	}
	if req.ProviderID == "" {
		return nil, models.NewValidationError("provider_id is required")
	}
	if req.GuestID == "" {
		return nil, models.NewValidationError("guest_id is required")
	}
	if !models.ValidServiceDuration(req.ServiceDuration) {
		return nil, models.NewValidationError("service duration must be 60, 90 or 120 minutes, got %d", req.ServiceDuration)
	}
	now := e.now()
	if !req.StartTime.After(now.Add(e.MinAdvanceNotice)) {
		return nil, models.NewValidationError("start time must be at least %s in the future", e.MinAdvanceNotice)
	}

	deadline := e.nextDeadline(now)
	booking := &models.Booking{
		ID:                   uuid.New().String(),
		ProviderID:           req.ProviderID,
		ProviderType:         providerType,
		GuestID:              req.GuestID,
		GuestName:            req.GuestName,
		ServiceDuration:      req.ServiceDuration,
		StartTime:            req.StartTime,
		Status:               models.BookingPending,
		ResponseStatus:       models.ResponseAwaiting,
		ConfirmationDeadline: deadline,
		FallbackProviderIDs:  append([]string(nil), req.FallbackProviderIDs...),
		CreatedAt:            now,
		UpdatedAt:            now,
		Version:              1,
	}

	if err := e.Repo.Create(ctx, booking); err != nil {
		return nil, err
	}
	if err := e.Timer.Schedule(booking.ID, deadline); err != nil {
		e.Logger.Error("failed to schedule offer deadline",
			zap.String("bookingID", booking.ID), zap.Error(err))
		// The recovery sweep re-derives timers from persisted deadlines, so
		// the booking stands even though scheduling failed.
	}

	e.Logger.Info("booking offered",
		zap.String("bookingID", booking.ID),
		zap.String("providerID", booking.ProviderID),
		zap.Time("deadline", deadline))
	e.publish(ctx, models.EventBookingOffered, booking, "")
	return booking, nil
}

// GetBooking returns the booking by ID.
func (e *Engine) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	return e.Repo.GetByID(ctx, bookingID)
}
