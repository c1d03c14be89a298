package models

import "time"

// BookingStatus is the guest-facing lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending    BookingStatus = "Pending"
	BookingConfirmed  BookingStatus = "Confirmed"
	BookingOnTheWay   BookingStatus = "OnTheWay"
	BookingCancelled  BookingStatus = "Cancelled"
	BookingCompleted  BookingStatus = "Completed"
	BookingTimedOut   BookingStatus = "TimedOut"
	BookingReassigned BookingStatus = "Reassigned"
)

// ParseBookingStatus rejects unknown input instead of falling back to a default.
func ParseBookingStatus(s string) (BookingStatus, error) {
	switch BookingStatus(s) {
	case BookingPending, BookingConfirmed, BookingOnTheWay, BookingCancelled,
		BookingCompleted, BookingTimedOut, BookingReassigned:
		return BookingStatus(s), nil
	}
	return "", NewValidationError("unknown booking status %q", s)
}

// Terminal reports whether no further transition is permitted from s.
func (s BookingStatus) Terminal() bool {
	return s == BookingCancelled || s == BookingCompleted || s == BookingTimedOut
}

// ResponseStatus tracks the current offer, distinct from the booking status:
// a booking can be re-offered to a new provider after a timeout while staying
// Pending from the guest's view.
type ResponseStatus string

const (
	ResponseAwaiting  ResponseStatus = "AwaitingResponse"
	ResponseConfirmed ResponseStatus = "Confirmed"
	ResponseOnTheWay  ResponseStatus = "OnTheWay"
	ResponseDeclined  ResponseStatus = "Declined"
	ResponseTimedOut  ResponseStatus = "TimedOut"
)

func ParseResponseStatus(s string) (ResponseStatus, error) {
	switch ResponseStatus(s) {
	case ResponseAwaiting, ResponseConfirmed, ResponseOnTheWay, ResponseDeclined, ResponseTimedOut:
		return ResponseStatus(s), nil
	}
	return "", NewValidationError("unknown provider response status %q", s)
}

// ProviderAction is a provider's answer to an outstanding offer.
type ProviderAction string

const (
	ActionConfirm     ProviderAction = "Confirm"
	ActionSetOnTheWay ProviderAction = "SetOnTheWay"
	ActionDecline     ProviderAction = "Decline"
)

func ParseProviderAction(s string) (ProviderAction, error) {
	switch ProviderAction(s) {
	case ActionConfirm, ActionSetOnTheWay, ActionDecline:
		return ProviderAction(s), nil
	}
	return "", NewValidationError("unknown provider action %q", s)
}

// Booking represents one service request and the offer currently attached to it.
type Booking struct {
	ID           string       `bson:"id" json:"id"`
	ProviderID   string       `bson:"provider_id" json:"provider_id"`
	ProviderType ProviderType `bson:"provider_type" json:"provider_type"`
	GuestID      string       `bson:"guest_id" json:"guest_id"`
	GuestName    string       `bson:"guest_name" json:"guest_name"`

	ServiceDuration int       `bson:"service_duration" json:"service_duration"` // minutes: 60, 90 or 120
	StartTime       time.Time `bson:"start_time" json:"start_time"`

	Status         BookingStatus  `bson:"status" json:"status"`
	ResponseStatus ResponseStatus `bson:"provider_response_status" json:"provider_response_status"`

	// ConfirmationDeadline is set whenever an offer is issued and zeroed once
	// the offer resolves. The zero time means "no offer outstanding".
	ConfirmationDeadline time.Time `bson:"confirmation_deadline,omitempty" json:"confirmation_deadline,omitempty"`

	// FallbackProviderIDs is supplied by the caller pre-ordered and consumed
	// front-to-back on timeout or decline.
	FallbackProviderIDs []string `bson:"fallback_provider_ids,omitempty" json:"fallback_provider_ids,omitempty"`
	IsReassigned        bool     `bson:"is_reassigned" json:"is_reassigned"`

	DeclineReason string `bson:"decline_reason,omitempty" json:"decline_reason,omitempty"`
	CancelReason  string `bson:"cancel_reason,omitempty" json:"cancel_reason,omitempty"`

	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
	ConfirmedAt *time.Time `bson:"confirmed_at,omitempty" json:"confirmed_at,omitempty"`
	CompletedAt *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	CancelledAt *time.Time `bson:"cancelled_at,omitempty" json:"cancelled_at,omitempty"`

	// Version guards concurrent updates (optimistic concurrency).
	Version int64 `bson:"version" json:"version"`
}

// HasOutstandingOffer reports whether a provider is currently on the clock.
func (b *Booking) HasOutstandingOffer() bool {
	return b.ResponseStatus == ResponseAwaiting && !b.ConfirmationDeadline.IsZero()
}

// ValidServiceDuration reports whether minutes is one of the bookable lengths.
func ValidServiceDuration(minutes int) bool {
	return minutes == 60 || minutes == 90 || minutes == 120
}
