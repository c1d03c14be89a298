package commission

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

// fakeCommissionRepo is an in-memory CommissionRepository mirroring the
// unique booking_id index of the real collection.
type fakeCommissionRepo struct {
	mu      sync.Mutex
	records map[string]models.CommissionRecord
}

func newFakeCommissionRepo() *fakeCommissionRepo {
	return &fakeCommissionRepo{records: make(map[string]models.CommissionRecord)}
}

func (r *fakeCommissionRepo) Create(_ context.Context, record *models.CommissionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.records {
		if existing.BookingID == record.BookingID {
			return models.NewInvalidStateError("a commission record already exists for booking %s", record.BookingID)
		}
	}
	r.records[record.ID] = *record
	return nil
}

func (r *fakeCommissionRepo) GetByID(_ context.Context, recordID string) (*models.CommissionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[recordID]
	if !ok {
		return nil, models.NewNotFoundError("commission record %s not found", recordID)
	}
	copy := record
	return &copy, nil
}

func (r *fakeCommissionRepo) GetByBookingID(_ context.Context, bookingID string) (*models.CommissionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, record := range r.records {
		if record.BookingID == bookingID {
			copy := record
			return &copy, nil
		}
	}
	return nil, models.NewNotFoundError("no commission record for booking %s", bookingID)
}

func (r *fakeCommissionRepo) UpdateVersioned(_ context.Context, record *models.CommissionRecord, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.records[record.ID]
	if !ok {
		return models.NewNotFoundError("commission record %s not found", record.ID)
	}
	if stored.Version != expectedVersion {
		return models.NewConflictError("commission record %s version mismatch", record.ID)
	}
	record.Version = expectedVersion + 1
	r.records[record.ID] = *record
	return nil
}

func (r *fakeCommissionRepo) FindOutstandingByProvider(_ context.Context, providerID string) ([]models.CommissionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.CommissionRecord
	for _, record := range r.records {
		if record.ProviderID == providerID && record.Status.Outstanding() {
			out = append(out, record)
		}
	}
	return out, nil
}

func (r *fakeCommissionRepo) FindPendingPastDeadline(_ context.Context, now time.Time) ([]models.CommissionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.CommissionRecord
	for _, record := range r.records {
		if record.Status == models.CommissionPending && record.PaymentDeadline.Before(now) {
			out = append(out, record)
		}
	}
	return out, nil
}

func (r *fakeCommissionRepo) FindByProvider(_ context.Context, providerID string, _ int64) ([]models.CommissionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.CommissionRecord
	for _, record := range r.records {
		if record.ProviderID == providerID {
			out = append(out, record)
		}
	}
	return out, nil
}

type recordBus struct {
	mu     sync.Mutex
	events []models.Event
}

func (b *recordBus) Publish(_ context.Context, e models.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordBus) last() (models.Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.events) == 0 {
		return models.Event{}, false
	}
	return b.events[len(b.events)-1], true
}

// recordGate records recheck pokes per provider.
type recordGate struct {
	mu       sync.Mutex
	rechecks []string
}

func (g *recordGate) Recheck(_ context.Context, providerID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rechecks = append(g.rechecks, providerID)
}

type ledgerFixture struct {
	ledger *Ledger
	repo   *fakeCommissionRepo
	bus    *recordBus
	gate   *recordGate
	now    time.Time
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	f := &ledgerFixture{
		repo: newFakeCommissionRepo(),
		bus:  &recordBus{},
		gate: &recordGate{},
		now:  time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC),
	}
	f.ledger = &Ledger{
		Repo:            f.repo,
		Bus:             f.bus,
		Gate:            f.gate,
		Logger:          zap.NewNop(),
		DefaultRate:     30,
		Rounding:        models.RoundHalfUp,
		PaymentDeadline: 5 * time.Hour,
		LateFee:         50000,
		Clock:           func() time.Time { return f.now },
	}
	return f
}

func completedBooking(id string) *models.Booking {
	return &models.Booking{
		ID:           id,
		ProviderID:   "P1",
		ProviderType: models.ProviderTherapist,
		GuestID:      "G1",
		Status:       models.BookingCompleted,
	}
}

func (f *ledgerFixture) open(t *testing.T, bookingID string, amount, rate int64) *models.CommissionRecord {
	t.Helper()
	record, err := f.ledger.OpenObligation(context.Background(), completedBooking(bookingID), "H1", amount, rate)
	require.NoError(t, err)
	return record
}

func TestOpenObligation_ComputesCommission(t *testing.T) {
	f := newLedgerFixture(t)

	record := f.open(t, "B1", 250000, 20)

	assert.Equal(t, models.CommissionPending, record.Status)
	assert.Equal(t, int64(50000), record.CommissionAmount)
	assert.Equal(t, int64(50000), record.TotalDue)
	assert.Equal(t, int64(0), record.LateFee)
	assert.Equal(t, f.now.Add(5*time.Hour), record.PaymentDeadline)
	assert.Equal(t, []string{"P1"}, f.gate.rechecks)

	last, ok := f.bus.last()
	require.True(t, ok)
	assert.Equal(t, models.EventCommissionOpened, last.Type)
}

func TestOpenObligation_DefaultRateAndHalfUpRounding(t *testing.T) {
	f := newLedgerFixture(t)

	// Rate 0 falls back to the configured 30%.
	record := f.open(t, "B1", 100000, 0)
	assert.Equal(t, int64(30), record.CommissionRate)
	assert.Equal(t, int64(30000), record.CommissionAmount)

	// 333*30% = 99.9, rounds half-up to 100.
	record = f.open(t, "B2", 333, 0)
	assert.Equal(t, int64(100), record.CommissionAmount)

	// 335*30% = 100.5, rounds half-up to 101.
	record = f.open(t, "B3", 335, 0)
	assert.Equal(t, int64(101), record.CommissionAmount)
}

func TestOpenObligation_Validation(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	_, err := f.ledger.OpenObligation(ctx, &models.Booking{ID: "B1", Status: models.BookingConfirmed}, "H1", 100000, 20)
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeInvalidState, models.ErrorCode(err))

	_, err = f.ledger.OpenObligation(ctx, completedBooking("B1"), "H1", 0, 20)
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeValidation, models.ErrorCode(err))

	_, err = f.ledger.OpenObligation(ctx, completedBooking("B1"), "H1", 100000, 120)
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeValidation, models.ErrorCode(err))

	_, err = f.ledger.OpenObligation(ctx, completedBooking("B1"), "", 100000, 20)
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeValidation, models.ErrorCode(err))
}

func TestOpenObligation_IdempotentPerBooking(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	first := f.open(t, "B1", 100000, 20)

	// A completion retry re-opens the same booking and gets the existing
	// record back instead of an error or a duplicate.
	again, err := f.ledger.OpenObligation(ctx, completedBooking("B1"), "H1", 100000, 20)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, first.CommissionAmount, again.CommissionAmount)

	outstanding, err := f.ledger.OutstandingFor(ctx, "P1")
	require.NoError(t, err)
	assert.Len(t, outstanding, 1)
}

func TestUploadProof_MovesToAwaitingVerification(t *testing.T) {
	f := newLedgerFixture(t)
	record := f.open(t, "B1", 100000, 20)

	updated, err := f.ledger.UploadProof(context.Background(), record.ID, "proof://receipt-1", "bank_transfer")
	require.NoError(t, err)

	assert.Equal(t, models.CommissionAwaitingVerification, updated.Status)
	assert.Equal(t, "proof://receipt-1", updated.PaymentProofRef)
	require.NotNil(t, updated.ProofUploadedAt)

	// Still gating: under verification is not paid.
	outstanding, err := f.ledger.OutstandingFor(context.Background(), "P1")
	require.NoError(t, err)
	assert.Len(t, outstanding, 1)
}

func TestUploadProof_RequiresRefAndLegalState(t *testing.T) {
	f := newLedgerFixture(t)
	record := f.open(t, "B1", 100000, 20)
	ctx := context.Background()

	_, err := f.ledger.UploadProof(ctx, record.ID, "", "bank_transfer")
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeValidation, models.ErrorCode(err))

	_, err = f.ledger.UploadProof(ctx, record.ID, "proof://receipt-1", "bank_transfer")
	require.NoError(t, err)

	// Double upload while under verification is rejected.
	_, err = f.ledger.UploadProof(ctx, record.ID, "proof://receipt-2", "bank_transfer")
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeInvalidState, models.ErrorCode(err))
}

func TestVerify_ApproveIsTerminalAndIdempotent(t *testing.T) {
	f := newLedgerFixture(t)
	record := f.open(t, "B1", 100000, 20)
	ctx := context.Background()

	_, err := f.ledger.UploadProof(ctx, record.ID, "proof://receipt-1", "bank_transfer")
	require.NoError(t, err)

	verified, err := f.ledger.Verify(ctx, record.ID, "H1", true, "")
	require.NoError(t, err)
	assert.Equal(t, models.CommissionVerified, verified.Status)
	assert.Equal(t, "H1", verified.VerifiedBy)

	// Repeat delivery of the same decision returns the final record.
	again, err := f.ledger.Verify(ctx, record.ID, "H1", true, "")
	require.NoError(t, err)
	assert.Equal(t, models.CommissionVerified, again.Status)
	assert.Equal(t, verified.Version, again.Version)

	// Paid: nothing gates the provider anymore.
	outstanding, err := f.ledger.OutstandingFor(ctx, "P1")
	require.NoError(t, err)
	assert.Empty(t, outstanding)
}

func TestVerify_RejectNeedsReasonAndAllowsReupload(t *testing.T) {
	f := newLedgerFixture(t)
	record := f.open(t, "B1", 100000, 20)
	ctx := context.Background()

	_, err := f.ledger.UploadProof(ctx, record.ID, "proof://receipt-1", "bank_transfer")
	require.NoError(t, err)

	_, err = f.ledger.Verify(ctx, record.ID, "H1", false, "")
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeValidation, models.ErrorCode(err))

	rejected, err := f.ledger.Verify(ctx, record.ID, "H1", false, "amount mismatch")
	require.NoError(t, err)
	assert.Equal(t, models.CommissionRejected, rejected.Status)
	assert.Equal(t, "amount mismatch", rejected.RejectionReason)

	// A rejected record keeps gating and accepts a fresh proof.
	outstanding, err := f.ledger.OutstandingFor(ctx, "P1")
	require.NoError(t, err)
	assert.Len(t, outstanding, 1)

	reuploaded, err := f.ledger.UploadProof(ctx, record.ID, "proof://receipt-2", "bank_transfer")
	require.NoError(t, err)
	assert.Equal(t, models.CommissionAwaitingVerification, reuploaded.Status)
	assert.Empty(t, reuploaded.RejectionReason)

	final, err := f.ledger.Verify(ctx, record.ID, "H1", true, "")
	require.NoError(t, err)
	assert.Equal(t, models.CommissionVerified, final.Status)
}

func TestVerify_RequiresUploadedProof(t *testing.T) {
	f := newLedgerFixture(t)
	record := f.open(t, "B1", 100000, 20)

	_, err := f.ledger.Verify(context.Background(), record.ID, "H1", true, "")
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeInvalidState, models.ErrorCode(err))
}

func TestSweepOverdue_AppliesLateFeeOnce(t *testing.T) {
	f := newLedgerFixture(t)
	record := f.open(t, "B1", 250000, 20)
	ctx := context.Background()

	// Not yet due.
	require.NoError(t, f.ledger.SweepOverdue(ctx))
	fetched, err := f.ledger.GetRecord(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CommissionPending, fetched.Status)

	f.now = f.now.Add(5*time.Hour + time.Minute)
	require.NoError(t, f.ledger.SweepOverdue(ctx))

	fetched, err = f.ledger.GetRecord(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CommissionOverdue, fetched.Status)
	assert.Equal(t, int64(50000), fetched.LateFee)
	assert.Equal(t, int64(100000), fetched.TotalDue)

	last, ok := f.bus.last()
	require.True(t, ok)
	assert.Equal(t, models.EventCommissionOverdue, last.Type)

	// A second sweep leaves the record alone.
	f.now = f.now.Add(time.Hour)
	require.NoError(t, f.ledger.SweepOverdue(ctx))
	again, err := f.ledger.GetRecord(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, fetched.Version, again.Version)
	assert.Equal(t, int64(100000), again.TotalDue)

	// Overdue still accepts a proof and the full amount clears on approval.
	uploaded, err := f.ledger.UploadProof(ctx, record.ID, "proof://late-receipt", "cash")
	require.NoError(t, err)
	assert.Equal(t, models.CommissionAwaitingVerification, uploaded.Status)
	assert.Equal(t, int64(100000), uploaded.TotalDue)
}

func TestCancelObligation_StopsGating(t *testing.T) {
	f := newLedgerFixture(t)
	record := f.open(t, "B1", 100000, 20)
	ctx := context.Background()

	cancelled, err := f.ledger.CancelObligation(ctx, record.ID, "booking reversed")
	require.NoError(t, err)
	assert.Equal(t, models.CommissionCancelled, cancelled.Status)

	outstanding, err := f.ledger.OutstandingFor(ctx, "P1")
	require.NoError(t, err)
	assert.Empty(t, outstanding)

	// Verified and cancelled records are immutable.
	_, err = f.ledger.UploadProof(ctx, record.ID, "proof://receipt-1", "cash")
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeInvalidState, models.ErrorCode(err))
}

func TestUnpaidAmountFor_SumsOutstandingTotals(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	f.open(t, "B1", 100000, 20) // 20000
	f.open(t, "B2", 250000, 20) // 50000
	paid := f.open(t, "B3", 100000, 20)

	_, err := f.ledger.UploadProof(ctx, paid.ID, "proof://receipt-1", "cash")
	require.NoError(t, err)
	_, err = f.ledger.Verify(ctx, paid.ID, "H1", true, "")
	require.NoError(t, err)

	total, err := f.ledger.UnpaidAmountFor(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, int64(70000), total)
}
