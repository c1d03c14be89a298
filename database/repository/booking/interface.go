package bookingRepo

import (
	"context"

	"santai/models"
)

// BookingRepository defines the persistence surface for booking aggregates.
type BookingRepository interface {
	// Create persists a new booking document.
	Create(ctx context.Context, booking *models.Booking) error
	// GetByID retrieves a booking by its unique ID.
	GetByID(ctx context.Context, bookingID string) (*models.Booking, error)
	// UpdateVersioned replaces the booking document if its stored version
	// matches expectedVersion, bumping the version on success. A mismatch
	// returns a conflict error and leaves the document untouched.
	UpdateVersioned(ctx context.Context, booking *models.Booking, expectedVersion int64) error
	// FindAwaitingResponse returns every Pending booking with an outstanding
	// confirmation deadline. It feeds the crash-recovery sweep.
	FindAwaitingResponse(ctx context.Context) ([]models.Booking, error)
	// FindByGuest returns a guest's bookings, newest first.
	FindByGuest(ctx context.Context, guestID string, limit int64) ([]models.Booking, error)
	// FindByProvider returns a provider's bookings, newest first.
	FindByProvider(ctx context.Context, providerID string, limit int64) ([]models.Booking, error)
}
