package availability

import (
	"context"
	"time"

	providerRepo "santai/database/repository/provider"
	"santai/models"

	"go.uber.org/zap"
)

// OutstandingSource is the single ledger query the gate depends on.
type OutstandingSource interface {
	OutstandingFor(ctx context.Context, providerID string) ([]models.CommissionRecord, error)
}

// Gate derives a provider's externally visible status. The derivation is
// pure: a live busy window forces Busy, then any outstanding commission
// forces Busy, and only then does the operator's manual toggle apply. The
// manual toggle is a floor on availability, never a ceiling.
type Gate struct {
	Providers providerRepo.ProviderRepository
	Ledger    OutstandingSource
	Logger    *zap.Logger

	// Clock is injectable for tests; defaults to time.Now.
	Clock func() time.Time
}

func (g *Gate) now() time.Time {
	if g.Clock != nil {
		return g.Clock()
	}
	return time.Now()
}

// Status computes the provider's visible status from a fresh read of the
// busy window and the outstanding obligations. It is idempotent and safe to
// recompute on demand.
func (g *Gate) Status(ctx context.Context, providerID string) (models.ProviderStatus, error) {
	provider, err := g.Providers.GetByID(ctx, providerID)
	if err != nil {
		return "", err
	}

	if provider.BusyUntil.After(g.now()) {
		return models.ProviderBusy, nil
	}

	outstanding, err := g.Ledger.OutstandingFor(ctx, providerID)
	if err != nil {
		return "", err
	}
	if len(outstanding) > 0 {
		return models.ProviderBusy, nil
	}

	switch provider.ManualStatus {
	case models.ProviderAvailable, models.ProviderOffline:
		return provider.ManualStatus, nil
	}
	return "", models.NewValidationError("provider %s has no manual status set", providerID)
}

// Recheck recomputes the derived status after a ledger transition or busy
// window change and logs the result. Consumers watching the event stream see
// the transition that triggered it; the recompute itself has no side effects.
func (g *Gate) Recheck(ctx context.Context, providerID string) {
	status, err := g.Status(ctx, providerID)
	if err != nil {
		g.Logger.Warn("availability recheck failed",
			zap.String("providerID", providerID), zap.Error(err))
		return
	}
	g.Logger.Info("availability rechecked",
		zap.String("providerID", providerID), zap.String("status", string(status)))
}
