package models

import "time"

// CommissionStatus is the payment-proof lifecycle state of a commission record.
type CommissionStatus string

const (
	CommissionPending              CommissionStatus = "Pending"
	CommissionAwaitingVerification CommissionStatus = "AwaitingVerification"
	CommissionVerified             CommissionStatus = "Verified"
	CommissionRejected             CommissionStatus = "Rejected"
	CommissionCancelled            CommissionStatus = "Cancelled"
	CommissionOverdue              CommissionStatus = "Overdue"
)

func ParseCommissionStatus(s string) (CommissionStatus, error) {
	switch CommissionStatus(s) {
	case CommissionPending, CommissionAwaitingVerification, CommissionVerified,
		CommissionRejected, CommissionCancelled, CommissionOverdue:
		return CommissionStatus(s), nil
	}
	return "", NewValidationError("unknown commission status %q", s)
}

// Outstanding reports whether the record still gates its provider.
// Rejected and Overdue records keep gating until a proof is verified.
func (s CommissionStatus) Outstanding() bool {
	return s != CommissionVerified && s != CommissionCancelled
}

// CommissionRecord tracks the commission a provider owes a hosting venue for
// one completed booking. Records are never deleted, only state-transitioned,
// so the collection doubles as an audit trail.
type CommissionRecord struct {
	ID           string       `bson:"id" json:"id"`
	BookingID    string       `bson:"booking_id" json:"booking_id"`
	HotelVillaID string       `bson:"hotel_villa_id" json:"hotel_villa_id"`
	ProviderID   string       `bson:"provider_id" json:"provider_id"`
	ProviderType ProviderType `bson:"provider_type" json:"provider_type"`

	// Amounts are integer minor currency units.
	ServiceAmount    int64 `bson:"service_amount" json:"service_amount"`
	CommissionRate   int64 `bson:"commission_rate" json:"commission_rate"` // percent
	CommissionAmount int64 `bson:"commission_amount" json:"commission_amount"`
	LateFee          int64 `bson:"late_fee,omitempty" json:"late_fee,omitempty"`
	TotalDue         int64 `bson:"total_due" json:"total_due"`

	Status CommissionStatus `bson:"status" json:"status"`

	// PaymentProofRef is an opaque pointer to the uploaded artifact; this core
	// never interprets it.
	PaymentProofRef string     `bson:"payment_proof_ref,omitempty" json:"payment_proof_ref,omitempty"`
	PaymentMethod   string     `bson:"payment_method,omitempty" json:"payment_method,omitempty"`
	ProofUploadedAt *time.Time `bson:"proof_uploaded_at,omitempty" json:"proof_uploaded_at,omitempty"`

	RejectionReason string     `bson:"rejection_reason,omitempty" json:"rejection_reason,omitempty"`
	VerifiedBy      string     `bson:"verified_by,omitempty" json:"verified_by,omitempty"`
	VerifiedAt      *time.Time `bson:"verified_at,omitempty" json:"verified_at,omitempty"`

	PaymentDeadline time.Time `bson:"payment_deadline" json:"payment_deadline"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`

	Version int64 `bson:"version" json:"version"`
}
