package assignment

import (
	"context"
	"time"

	"santai/models"

	"go.uber.org/zap"
)

// RecordProviderResponse applies a provider's answer to its outstanding offer.
// Once the deadline has elapsed the timer is authoritative: the response fails
// with a stale-offer error rather than silently succeeding, so a booking can
// never be simultaneously confirmed and reassigned.
func (e *Engine) RecordProviderResponse(ctx context.Context, bookingID, providerID string, action models.ProviderAction, reason string) (*models.Booking, error) {
	if _, err := models.ParseProviderAction(string(action)); err != nil {
		return nil, err
	}

	unlock := e.lockBooking(bookingID)
	defer unlock()

	booking, err := e.Repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status.Terminal() {
		return nil, models.NewInvalidStateError("booking %s is %s; no response possible", bookingID, booking.Status)
	}
	if booking.ProviderID != providerID {
		return nil, models.NewStaleOfferError("booking %s is no longer offered to provider %s", bookingID, providerID)
	}

	switch action {
	case models.ActionConfirm:
		return e.confirm(ctx, booking)
	case models.ActionSetOnTheWay:
		return e.setOnTheWay(ctx, booking)
	default: // Decline converges on the same fallback path as a timeout.
		return e.decline(ctx, booking, reason)
	}
}

// requireLiveOffer enforces the offer-window check shared by confirm and
// decline.
func (e *Engine) requireLiveOffer(booking *models.Booking) error {
	if !booking.HasOutstandingOffer() {
		return models.NewStaleOfferError("booking %s has no outstanding offer", booking.ID)
	}
	if !e.now().Before(booking.ConfirmationDeadline) {
		return models.NewStaleOfferError("offer for booking %s expired at %s", booking.ID, booking.ConfirmationDeadline)
	}
	return nil
}

func (e *Engine) confirm(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	if err := e.requireLiveOffer(booking); err != nil {
		return nil, err
	}

	now := e.now()
	expected := booking.Version
	offerDeadline := booking.ConfirmationDeadline
	booking.Status = models.BookingConfirmed
	booking.ResponseStatus = models.ResponseConfirmed
	booking.ConfirmationDeadline = time.Time{}
	booking.ConfirmedAt = &now
	booking.UpdatedAt = now
	if err := e.Repo.UpdateVersioned(ctx, booking, expected); err != nil {
		return nil, err
	}
	if err := e.Timer.Cancel(booking.ID, offerDeadline); err != nil {
		e.Logger.Warn("failed to cancel offer deadline", zap.String("bookingID", booking.ID), zap.Error(err))
	}

	e.Logger.Info("booking confirmed",
		zap.String("bookingID", booking.ID), zap.String("providerID", booking.ProviderID))
	e.publish(ctx, models.EventBookingConfirmed, booking, "")
	return booking, nil
}

func (e *Engine) setOnTheWay(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	// Legal straight from an outstanding offer, or as progression after a
	// confirm (deadline already cleared).
	switch booking.ResponseStatus {
	case models.ResponseAwaiting:
		if err := e.requireLiveOffer(booking); err != nil {
			return nil, err
		}
	case models.ResponseConfirmed:
	default:
		return nil, models.NewInvalidStateError("booking %s cannot move to on-the-way from response status %s", booking.ID, booking.ResponseStatus)
	}

	now := e.now()
	expected := booking.Version
	offerDeadline := booking.ConfirmationDeadline
	booking.Status = models.BookingOnTheWay
	booking.ResponseStatus = models.ResponseOnTheWay
	booking.ConfirmationDeadline = time.Time{}
	if booking.ConfirmedAt == nil {
		booking.ConfirmedAt = &now
	}
	booking.UpdatedAt = now
	if err := e.Repo.UpdateVersioned(ctx, booking, expected); err != nil {
		return nil, err
	}
	if !offerDeadline.IsZero() {
		if err := e.Timer.Cancel(booking.ID, offerDeadline); err != nil {
			e.Logger.Warn("failed to cancel offer deadline", zap.String("bookingID", booking.ID), zap.Error(err))
		}
	}

	e.Logger.Info("provider en route",
		zap.String("bookingID", booking.ID), zap.String("providerID", booking.ProviderID))
	e.publish(ctx, models.EventBookingEnRoute, booking, "")
	return booking, nil
}

func (e *Engine) decline(ctx context.Context, booking *models.Booking, reason string) (*models.Booking, error) {
	if err := e.requireLiveOffer(booking); err != nil {
		return nil, err
	}
	if err := e.Timer.Cancel(booking.ID, booking.ConfirmationDeadline); err != nil {
		e.Logger.Warn("failed to cancel offer deadline", zap.String("bookingID", booking.ID), zap.Error(err))
	}

	booking.ResponseStatus = models.ResponseDeclined
	booking.DeclineReason = reason
	e.Logger.Info("offer declined",
		zap.String("bookingID", booking.ID),
		zap.String("providerID", booking.ProviderID),
		zap.String("reason", reason))
	return e.fallbackLocked(ctx, booking, causeDeclined, reason)
}

// CompleteBooking closes out a delivered service and opens the commission
// obligation owed to the hosting venue. Legal from Confirmed or OnTheWay; a
// booking already Completed is the retry path for a completion whose
// obligation open failed transiently, so the obligation is re-attempted
// instead of erroring (OpenObligation is idempotent per booking).
func (e *Engine) CompleteBooking(ctx context.Context, bookingID, hotelVillaID string, serviceAmount, commissionRate int64) (*models.Booking, error) {
	unlock := e.lockBooking(bookingID)
	defer unlock()

	booking, err := e.Repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	switch booking.Status {
	case models.BookingConfirmed, models.BookingOnTheWay:
		now := e.now()
		expected := booking.Version
		booking.Status = models.BookingCompleted
		booking.CompletedAt = &now
		booking.UpdatedAt = now
		if err := e.Repo.UpdateVersioned(ctx, booking, expected); err != nil {
			return nil, err
		}
		e.Logger.Info("booking completed",
			zap.String("bookingID", booking.ID), zap.String("providerID", booking.ProviderID))
		e.publish(ctx, models.EventBookingCompleted, booking, "")
	case models.BookingCompleted:
	default:
		return nil, models.NewInvalidStateError("booking %s cannot be completed from status %s", bookingID, booking.Status)
	}

	if _, err := e.Ledger.OpenObligation(ctx, booking, hotelVillaID, serviceAmount, commissionRate); err != nil {
		return nil, err
	}
	return booking, nil
}

// CancelBooking voids a non-terminal booking and synchronously cancels its
// deadline timer, so a cancelled booking never fires a fallback.
func (e *Engine) CancelBooking(ctx context.Context, bookingID, reason string) (*models.Booking, error) {
	unlock := e.lockBooking(bookingID)
	defer unlock()

	booking, err := e.Repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status.Terminal() {
		return nil, models.NewInvalidStateError("booking %s is already %s", bookingID, booking.Status)
	}

	now := e.now()
	expected := booking.Version
	offerDeadline := booking.ConfirmationDeadline
	booking.Status = models.BookingCancelled
	booking.ConfirmationDeadline = time.Time{}
	booking.CancelReason = reason
	booking.CancelledAt = &now
	booking.UpdatedAt = now
	if err := e.Repo.UpdateVersioned(ctx, booking, expected); err != nil {
		return nil, err
	}
	if !offerDeadline.IsZero() {
		if err := e.Timer.Cancel(booking.ID, offerDeadline); err != nil {
			e.Logger.Warn("failed to cancel offer deadline", zap.String("bookingID", booking.ID), zap.Error(err))
		}
	}

	e.Logger.Info("booking cancelled",
		zap.String("bookingID", booking.ID), zap.String("reason", reason))
	return booking, nil
}
