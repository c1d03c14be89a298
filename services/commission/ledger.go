package commission

import (
	"context"
	"sync"
	"time"

	commissionRepo "santai/database/repository/commission"
	"santai/models"
	"santai/services/eventbus"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StatusRechecker re-derives a provider's visible status. The ledger pokes it
// after every record transition so gating never lags an obligation change.
type StatusRechecker interface {
	Recheck(ctx context.Context, providerID string)
}

// Ledger tracks per-booking commission obligations and their payment-proof
// lifecycle. Obligations gate the owing provider's availability until a venue
// verifies the uploaded proof.
type Ledger struct {
	Repo   commissionRepo.CommissionRepository
	Bus    eventbus.Bus
	Gate   StatusRechecker
	Logger *zap.Logger

	DefaultRate     int64
	Rounding        models.RoundingPolicy
	PaymentDeadline time.Duration
	LateFee         int64

	// Clock is injectable for tests; defaults to time.Now.
	Clock func() time.Time

	locks sync.Map // recordID -> *sync.Mutex
}

func (l *Ledger) now() time.Time {
	if l.Clock != nil {
		return l.Clock()
	}
	return time.Now()
}

func (l *Ledger) lockRecord(recordID string) func() {
	mu, _ := l.locks.LoadOrStore(recordID, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

func (l *Ledger) publish(ctx context.Context, eventType models.EventType, record *models.CommissionRecord, reason string) {
	snapshot := *record
	l.Bus.Publish(ctx, models.Event{
		Type:       eventType,
		OccurredAt: l.now(),
		Commission: &snapshot,
		Reason:     reason,
	})
}

func (l *Ledger) recheck(ctx context.Context, providerID string) {
	if l.Gate != nil {
		l.Gate.Recheck(ctx, providerID)
	}
}

// OpenObligation creates the commission record for a completed booking. The
// unique index on booking_id enforces exactly one record per booking, and the
// operation is idempotent: if a record already exists for the booking it is
// returned unchanged, so a completion retry never loses or duplicates the
// obligation.
func (l *Ledger) OpenObligation(ctx context.Context, booking *models.Booking, hotelVillaID string, serviceAmount, commissionRate int64) (*models.CommissionRecord, error) {
	if booking == nil || booking.Status != models.BookingCompleted {
		return nil, models.NewInvalidStateError("commission obligations open only for completed bookings")
	}
	if serviceAmount <= 0 {
		return nil, models.NewValidationError("service amount must be positive, got %d", serviceAmount)
	}
	if commissionRate == 0 {
		commissionRate = l.DefaultRate
	}
	if commissionRate < 0 || commissionRate > 100 {
		return nil, models.NewValidationError("commission rate must be within [0,100], got %d", commissionRate)
	}
	if hotelVillaID == "" {
		return nil, models.NewValidationError("hotel_villa_id is required")
	}

	if existing, err := l.Repo.GetByBookingID(ctx, booking.ID); err == nil {
		return existing, nil
	} else if !models.IsNotFound(err) {
		return nil, err
	}

	now := l.now()
	amount := models.CommissionAmount(serviceAmount, commissionRate, l.Rounding)
	record := &models.CommissionRecord{
		ID:               uuid.New().String(),
		BookingID:        booking.ID,
		HotelVillaID:     hotelVillaID,
		ProviderID:       booking.ProviderID,
		ProviderType:     booking.ProviderType,
		ServiceAmount:    serviceAmount,
		CommissionRate:   commissionRate,
		CommissionAmount: amount,
		TotalDue:         amount,
		Status:           models.CommissionPending,
		PaymentDeadline:  now.Add(l.PaymentDeadline),
		CreatedAt:        now,
		UpdatedAt:        now,
		Version:          1,
	}
	if err := l.Repo.Create(ctx, record); err != nil {
		// The unique index reports a concurrent open; the winner's record is
		// the obligation.
		if models.ErrorCode(err) == models.ErrCodeInvalidState {
			return l.Repo.GetByBookingID(ctx, booking.ID)
		}
		return nil, err
	}

	l.Logger.Info("commission obligation opened",
		zap.String("recordID", record.ID),
		zap.String("bookingID", booking.ID),
		zap.String("providerID", booking.ProviderID),
		zap.Int64("commissionAmount", amount))
	l.publish(ctx, models.EventCommissionOpened, record, "")
	l.recheck(ctx, record.ProviderID)
	return record, nil
}

// UploadProof attaches a payment-proof artifact reference to an unpaid record
// and moves it to AwaitingVerification. Legal from Pending, Rejected and
// Overdue; re-uploading onto a record already under or past verification is
// an invalid-state error.
func (l *Ledger) UploadProof(ctx context.Context, recordID, proofRef, method string) (*models.CommissionRecord, error) {
	if proofRef == "" {
		return nil, models.NewValidationError("payment proof reference is required")
	}

	unlock := l.lockRecord(recordID)
	defer unlock()

	record, err := l.Repo.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	switch record.Status {
	case models.CommissionPending, models.CommissionRejected, models.CommissionOverdue:
	default:
		return nil, models.NewInvalidStateError("cannot upload proof onto a %s commission record", record.Status)
	}

	now := l.now()
	expected := record.Version
	record.Status = models.CommissionAwaitingVerification
	record.PaymentProofRef = proofRef
	record.PaymentMethod = method
	record.ProofUploadedAt = &now
	record.RejectionReason = ""
	record.UpdatedAt = now
	if err := l.Repo.UpdateVersioned(ctx, record, expected); err != nil {
		return nil, err
	}

	l.Logger.Info("payment proof uploaded",
		zap.String("recordID", record.ID), zap.String("providerID", record.ProviderID))
	l.publish(ctx, models.EventCommissionProofUploaded, record, "")
	l.recheck(ctx, record.ProviderID)
	return record, nil
}

// Verify records the venue's decision on an uploaded proof. Approval is
// terminal and irreversible; re-verifying an already-Verified record returns
// the final record unchanged, since verification retries are expected from
// at-least-once delivery. Rejection requires a non-empty reason and keeps the
// provider gated until a new proof passes.
func (l *Ledger) Verify(ctx context.Context, recordID, verifierID string, approve bool, reason string) (*models.CommissionRecord, error) {
	unlock := l.lockRecord(recordID)
	defer unlock()

	record, err := l.Repo.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record.Status == models.CommissionVerified {
		return record, nil
	}
	if record.Status != models.CommissionAwaitingVerification {
		return nil, models.NewInvalidStateError("cannot verify a %s commission record", record.Status)
	}
	if !approve && reason == "" {
		return nil, models.NewValidationError("a rejection reason is required")
	}

	now := l.now()
	expected := record.Version
	record.VerifiedBy = verifierID
	record.VerifiedAt = &now
	record.UpdatedAt = now
	if approve {
		record.Status = models.CommissionVerified
		record.RejectionReason = ""
	} else {
		record.Status = models.CommissionRejected
		record.RejectionReason = reason
	}
	if err := l.Repo.UpdateVersioned(ctx, record, expected); err != nil {
		return nil, err
	}

	if approve {
		l.Logger.Info("commission verified",
			zap.String("recordID", record.ID), zap.String("verifiedBy", verifierID))
		l.publish(ctx, models.EventCommissionVerified, record, "")
	} else {
		l.Logger.Info("commission rejected",
			zap.String("recordID", record.ID),
			zap.String("verifiedBy", verifierID),
			zap.String("reason", reason))
		l.publish(ctx, models.EventCommissionRejected, record, reason)
	}
	l.recheck(ctx, record.ProviderID)
	return record, nil
}

// CancelObligation voids an unpaid record (operator action when a completed
// booking is reversed). The record stays in the collection as audit trail.
func (l *Ledger) CancelObligation(ctx context.Context, recordID, reason string) (*models.CommissionRecord, error) {
	unlock := l.lockRecord(recordID)
	defer unlock()

	record, err := l.Repo.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	switch record.Status {
	case models.CommissionPending, models.CommissionOverdue, models.CommissionRejected:
	default:
		return nil, models.NewInvalidStateError("cannot cancel a %s commission record", record.Status)
	}

	now := l.now()
	expected := record.Version
	record.Status = models.CommissionCancelled
	record.RejectionReason = reason
	record.UpdatedAt = now
	if err := l.Repo.UpdateVersioned(ctx, record, expected); err != nil {
		return nil, err
	}

	l.Logger.Info("commission obligation cancelled",
		zap.String("recordID", record.ID), zap.String("reason", reason))
	l.recheck(ctx, record.ProviderID)
	return record, nil
}

// OutstandingFor returns every record still gating the provider. This is the
// sole input the availability gate needs.
func (l *Ledger) OutstandingFor(ctx context.Context, providerID string) ([]models.CommissionRecord, error) {
	return l.Repo.FindOutstandingByProvider(ctx, providerID)
}

// UnpaidAmountFor sums the total due across a provider's outstanding records.
func (l *Ledger) UnpaidAmountFor(ctx context.Context, providerID string) (int64, error) {
	records, err := l.Repo.FindOutstandingByProvider(ctx, providerID)
	if err != nil {
		return 0, err
	}
	var total int64
	for i := range records {
		total += records[i].TotalDue
	}
	return total, nil
}

// HistoryFor returns a provider's records, newest first.
func (l *Ledger) HistoryFor(ctx context.Context, providerID string, limit int64) ([]models.CommissionRecord, error) {
	return l.Repo.FindByProvider(ctx, providerID, limit)
}

// GetRecord returns the record by ID.
func (l *Ledger) GetRecord(ctx context.Context, recordID string) (*models.CommissionRecord, error) {
	return l.Repo.GetByID(ctx, recordID)
}
