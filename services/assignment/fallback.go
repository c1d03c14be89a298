package assignment

import (
	"context"
	"time"

	"santai/models"

	"go.uber.org/zap"
)

const (
	causeTimeout  = "timeout"
	causeDeclined = "declined"
)

// HandleDeadline is the timer callback. It verifies the firing still matches
// the stored deadline before reassigning, because the offer may have been
// resolved, cancelled or re-issued between scheduling and delivery. Stale
// firings return nil so the queue does not retry them.
func (e *Engine) HandleDeadline(ctx context.Context, bookingID string, scheduledDeadline time.Time) error {
	unlock := e.lockBooking(bookingID)
	defer unlock()

	booking, err := e.Repo.GetByID(ctx, bookingID)
	if err != nil {
		if models.IsNotFound(err) {
			return nil
		}
		return err
	}
	if !booking.HasOutstandingOffer() || booking.Status != models.BookingPending {
		e.Logger.Debug("deadline firing ignored: offer already resolved",
			zap.String("bookingID", bookingID))
		return nil
	}
	if !booking.ConfirmationDeadline.Equal(scheduledDeadline) {
		e.Logger.Debug("deadline firing ignored: offer was re-issued",
			zap.String("bookingID", bookingID),
			zap.Time("scheduled", scheduledDeadline),
			zap.Time("current", booking.ConfirmationDeadline))
		return nil
	}

	booking.ResponseStatus = models.ResponseTimedOut
	e.Logger.Info("offer timed out",
		zap.String("bookingID", bookingID), zap.String("providerID", booking.ProviderID))
	_, err = e.fallbackLocked(ctx, booking, causeTimeout, "")
	return err
}

// AttemptFallback reassigns a booking whose offer elapsed, for callers outside
// the timer path (e.g. the crash-recovery sweep).
func (e *Engine) AttemptFallback(ctx context.Context, bookingID string) (*models.Booking, error) {
	unlock := e.lockBooking(bookingID)
	defer unlock()

	booking, err := e.Repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.HasOutstandingOffer() || booking.Status != models.BookingPending {
		return nil, models.NewInvalidStateError("booking %s has no offer to fall back from", bookingID)
	}
	if e.now().Before(booking.ConfirmationDeadline) {
		return nil, models.NewInvalidStateError("offer for booking %s has not expired yet", bookingID)
	}

	booking.ResponseStatus = models.ResponseTimedOut
	return e.fallbackLocked(ctx, booking, causeTimeout, "")
}

// fallbackLocked pops the next fallback provider and re-offers, or exhausts
// the booking. The caller holds the booking lock and has already set the
// response status for the outgoing provider.
func (e *Engine) fallbackLocked(ctx context.Context, booking *models.Booking, cause, reason string) (*models.Booking, error) {
	now := e.now()
	expected := booking.Version

	if len(booking.FallbackProviderIDs) == 0 {
		booking.Status = models.BookingTimedOut
		booking.ResponseStatus = models.ResponseTimedOut
		booking.ConfirmationDeadline = time.Time{}
		booking.UpdatedAt = now
		if err := e.Repo.UpdateVersioned(ctx, booking, expected); err != nil {
			return nil, err
		}
		e.Logger.Warn("booking expired: fallback providers exhausted",
			zap.String("bookingID", booking.ID))
		e.publish(ctx, models.EventBookingExpired, booking, "no provider available")
		return booking, nil
	}

	next := booking.FallbackProviderIDs[0]
	booking.FallbackProviderIDs = booking.FallbackProviderIDs[1:]
	deadline := e.nextDeadline(now)

	// Status passes through Reassigned and settles back on Pending for the
	// fresh offer; the guest keeps seeing a pending booking.
	booking.Status = models.BookingPending
	booking.ProviderID = next
	booking.ResponseStatus = models.ResponseAwaiting
	booking.ConfirmationDeadline = deadline
	booking.IsReassigned = true
	booking.UpdatedAt = now
	if err := e.Repo.UpdateVersioned(ctx, booking, expected); err != nil {
		return nil, err
	}
	if err := e.Timer.Schedule(booking.ID, deadline); err != nil {
		e.Logger.Error("failed to schedule fallback deadline",
			zap.String("bookingID", booking.ID), zap.Error(err))
	}

	e.Logger.Info("booking reassigned",
		zap.String("bookingID", booking.ID),
		zap.String("providerID", next),
		zap.String("cause", cause),
		zap.Time("deadline", deadline))
	if reason == "" {
		reason = cause
	}
	e.publish(ctx, models.EventBookingReassigned, booking, reason)
	return booking, nil
}

// RecoverTimers re-derives deadline timers after a restart: future deadlines
// are re-scheduled, elapsed ones fall back immediately before normal
// operation resumes.
func (e *Engine) RecoverTimers(ctx context.Context) error {
	bookings, err := e.Repo.FindAwaitingResponse(ctx)
	if err != nil {
		return err
	}

	now := e.now()
	recovered, expired := 0, 0
	for i := range bookings {
		b := bookings[i]
		if b.ConfirmationDeadline.After(now) {
			if err := e.Timer.Schedule(b.ID, b.ConfirmationDeadline); err != nil {
				e.Logger.Error("failed to re-schedule deadline",
					zap.String("bookingID", b.ID), zap.Error(err))
				continue
			}
			recovered++
			continue
		}
		if err := e.HandleDeadline(ctx, b.ID, b.ConfirmationDeadline); err != nil {
			e.Logger.Error("failed to resolve elapsed deadline",
				zap.String("bookingID", b.ID), zap.Error(err))
			continue
		}
		expired++
	}

	e.Logger.Info("offer deadline recovery complete",
		zap.Int("rescheduled", recovered), zap.Int("expiredResolved", expired))
	return nil
}
