package commissionRepo

import (
	"context"
	"time"

	"santai/models"
)

// CommissionRepository defines the persistence surface for commission records.
// Records are never deleted; every lifecycle change is an update.
type CommissionRepository interface {
	// Create persists a new commission record.
	Create(ctx context.Context, record *models.CommissionRecord) error
	// GetByID retrieves a commission record by its unique ID.
	GetByID(ctx context.Context, recordID string) (*models.CommissionRecord, error)
	// GetByBookingID retrieves the record opened for a booking, if any.
	GetByBookingID(ctx context.Context, bookingID string) (*models.CommissionRecord, error)
	// UpdateVersioned replaces the record if its stored version matches
	// expectedVersion, bumping the version on success.
	UpdateVersioned(ctx context.Context, record *models.CommissionRecord, expectedVersion int64) error
	// FindOutstandingByProvider returns every record still gating the provider
	// (all statuses except Verified and Cancelled).
	FindOutstandingByProvider(ctx context.Context, providerID string) ([]models.CommissionRecord, error)
	// FindPendingPastDeadline returns Pending records whose payment deadline
	// elapsed before the given instant.
	FindPendingPastDeadline(ctx context.Context, now time.Time) ([]models.CommissionRecord, error)
	// FindByProvider returns a provider's records, newest first.
	FindByProvider(ctx context.Context, providerID string, limit int64) ([]models.CommissionRecord, error)
}
