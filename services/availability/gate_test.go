package availability

import (
	"context"
	"sync"
	"testing"
	"time"

	"santai/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeProviderRepo struct {
	mu        sync.Mutex
	providers map[string]models.Provider
}

func newFakeProviderRepo() *fakeProviderRepo {
	return &fakeProviderRepo{providers: make(map[string]models.Provider)}
}

func (r *fakeProviderRepo) put(p models.Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.ID] = p
}

func (r *fakeProviderRepo) GetByID(_ context.Context, providerID string) (*models.Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.providers[providerID]
	if !ok {
		return nil, models.NewNotFoundError("provider %s not found", providerID)
	}
	copy := p
	return &copy, nil
}

func (r *fakeProviderRepo) SetBusyUntil(_ context.Context, providerID string, until time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.providers[providerID]
	if !ok {
		return models.NewNotFoundError("provider %s not found", providerID)
	}
	p.BusyUntil = until
	r.providers[providerID] = p
	return nil
}

func (r *fakeProviderRepo) SetManualStatus(_ context.Context, providerID string, status models.ProviderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.providers[providerID]
	if !ok {
		return models.NewNotFoundError("provider %s not found", providerID)
	}
	p.ManualStatus = status
	r.providers[providerID] = p
	return nil
}

// fakeOutstanding returns a settable list of gating records.
type fakeOutstanding struct {
	mu      sync.Mutex
	records map[string][]models.CommissionRecord
}

func newFakeOutstanding() *fakeOutstanding {
	return &fakeOutstanding{records: make(map[string][]models.CommissionRecord)}
}

func (s *fakeOutstanding) set(providerID string, records ...models.CommissionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[providerID] = records
}

func (s *fakeOutstanding) OutstandingFor(_ context.Context, providerID string) ([]models.CommissionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[providerID], nil
}

type gateFixture struct {
	gate      *Gate
	providers *fakeProviderRepo
	ledger    *fakeOutstanding
	now       time.Time
}

func newGateFixture(t *testing.T) *gateFixture {
	t.Helper()
	f := &gateFixture{
		providers: newFakeProviderRepo(),
		ledger:    newFakeOutstanding(),
		now:       time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC),
	}
	f.gate = &Gate{
		Providers: f.providers,
		Ledger:    f.ledger,
		Logger:    zap.NewNop(),
		Clock:     func() time.Time { return f.now },
	}
	return f
}

func TestStatus_ManualToggleWhenUnobstructed(t *testing.T) {
	f := newGateFixture(t)
	f.providers.put(models.Provider{ID: "P1", Type: models.ProviderTherapist, ManualStatus: models.ProviderAvailable})

	status, err := f.gate.Status(context.Background(), "P1")
	require.NoError(t, err)
	assert.Equal(t, models.ProviderAvailable, status)

	require.NoError(t, f.providers.SetManualStatus(context.Background(), "P1", models.ProviderOffline))
	status, err = f.gate.Status(context.Background(), "P1")
	require.NoError(t, err)
	assert.Equal(t, models.ProviderOffline, status)
}

func TestStatus_BusyWindowOverridesManual(t *testing.T) {
	f := newGateFixture(t)
	f.providers.put(models.Provider{
		ID:           "P1",
		Type:         models.ProviderTherapist,
		ManualStatus: models.ProviderAvailable,
		BusyUntil:    f.now.Add(90 * time.Minute),
	})

	status, err := f.gate.Status(context.Background(), "P1")
	require.NoError(t, err)
	assert.Equal(t, models.ProviderBusy, status)

	// The window expires on its own, no write needed.
	f.now = f.now.Add(2 * time.Hour)
	status, err = f.gate.Status(context.Background(), "P1")
	require.NoError(t, err)
	assert.Equal(t, models.ProviderAvailable, status)
}

func TestStatus_OutstandingCommissionForcesBusy(t *testing.T) {
	f := newGateFixture(t)
	f.providers.put(models.Provider{ID: "P1", Type: models.ProviderPlace, ManualStatus: models.ProviderAvailable})

	// Every unpaid status gates, including under-verification and overdue.
	for _, status := range []models.CommissionStatus{
		models.CommissionPending,
		models.CommissionAwaitingVerification,
		models.CommissionRejected,
		models.CommissionOverdue,
	} {
		f.ledger.set("P1", models.CommissionRecord{ID: "C1", ProviderID: "P1", Status: status})
		got, err := f.gate.Status(context.Background(), "P1")
		require.NoError(t, err)
		assert.Equal(t, models.ProviderBusy, got, "status %s must gate", status)
	}

	// Clearing the last record flips back to the manual toggle.
	f.ledger.set("P1")
	got, err := f.gate.Status(context.Background(), "P1")
	require.NoError(t, err)
	assert.Equal(t, models.ProviderAvailable, got)
}

func TestStatus_ManualToggleNeverOverridesObligation(t *testing.T) {
	f := newGateFixture(t)
	f.providers.put(models.Provider{ID: "P1", Type: models.ProviderTherapist, ManualStatus: models.ProviderOffline})
	f.ledger.set("P1", models.CommissionRecord{ID: "C1", ProviderID: "P1", Status: models.CommissionPending})

	// Flipping the toggle while gated changes nothing visible.
	require.NoError(t, f.providers.SetManualStatus(context.Background(), "P1", models.ProviderAvailable))
	status, err := f.gate.Status(context.Background(), "P1")
	require.NoError(t, err)
	assert.Equal(t, models.ProviderBusy, status)
}

func TestStatus_UnknownProvider(t *testing.T) {
	f := newGateFixture(t)

	_, err := f.gate.Status(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, models.IsNotFound(err))
}

func TestParseManualStatus_CaseInsensitiveCanonical(t *testing.T) {
	// Clients send lowercase status strings; either casing parses to the
	// canonical value, Busy is rejected in any casing.
	for _, input := range []string{"available", "Available"} {
		status, err := models.ParseManualStatus(input)
		require.NoError(t, err)
		assert.Equal(t, models.ProviderAvailable, status)
	}
	for _, input := range []string{"offline", "Offline"} {
		status, err := models.ParseManualStatus(input)
		require.NoError(t, err)
		assert.Equal(t, models.ProviderOffline, status)
	}
	for _, input := range []string{"busy", "Busy", "away"} {
		_, err := models.ParseManualStatus(input)
		require.Error(t, err)
		assert.Equal(t, models.ErrCodeValidation, models.ErrorCode(err))
	}
}
