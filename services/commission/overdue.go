package commission

import (
	"context"

	"santai/models"

	"go.uber.org/zap"
)

// SweepOverdue marks every Pending record past its payment deadline as
// Overdue and applies the late fee exactly once. Overdue records keep gating
// the provider and still accept a proof upload.
func (l *Ledger) SweepOverdue(ctx context.Context) error {
	records, err := l.Repo.FindPendingPastDeadline(ctx, l.now())
	if err != nil {
		return err
	}
	for i := range records {
		l.markOverdue(ctx, records[i].ID)
	}
	if len(records) > 0 {
		l.Logger.Info("overdue commission sweep", zap.Int("marked", len(records)))
	}
	return nil
}

func (l *Ledger) markOverdue(ctx context.Context, recordID string) {
	unlock := l.lockRecord(recordID)
	defer unlock()

	record, err := l.Repo.GetByID(ctx, recordID)
	if err != nil {
		l.Logger.Error("overdue sweep: fetch failed", zap.String("recordID", recordID), zap.Error(err))
		return
	}
	// A proof upload or cancellation may have won the race since the query.
	if record.Status != models.CommissionPending {
		return
	}

	now := l.now()
	expected := record.Version
	record.Status = models.CommissionOverdue
	record.LateFee = l.LateFee
	record.TotalDue = record.CommissionAmount + l.LateFee
	record.UpdatedAt = now
	if err := l.Repo.UpdateVersioned(ctx, record, expected); err != nil {
		// A concurrent transition wins; the next sweep re-evaluates.
		l.Logger.Warn("overdue sweep: update skipped", zap.String("recordID", recordID), zap.Error(err))
		return
	}

	l.Logger.Warn("commission overdue",
		zap.String("recordID", record.ID),
		zap.String("providerID", record.ProviderID),
		zap.Int64("totalDue", record.TotalDue))
	l.publish(ctx, models.EventCommissionOverdue, record, "payment deadline elapsed")
	l.recheck(ctx, record.ProviderID)
}
