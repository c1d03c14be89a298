package providerRepo

import (
	"context"
	"time"

	"santai/models"
)

// ProviderRepository exposes the slice of provider state this core reads and
// writes. The full provider profile is owned by an external collaborator.
type ProviderRepository interface {
	// GetByID retrieves a provider by its unique ID.
	GetByID(ctx context.Context, providerID string) (*models.Provider, error)
	// SetBusyUntil sets or clears (zero time) the timed busy window.
	SetBusyUntil(ctx context.Context, providerID string, until time.Time) error
	// SetManualStatus sets the operator toggle (Available or Offline only).
	SetManualStatus(ctx context.Context, providerID string, status models.ProviderStatus) error
}
