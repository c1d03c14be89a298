package models

import "time"

// EventType enumerates the domain events published to collaborators.
type EventType string

const (
	EventBookingOffered    EventType = "BookingOffered"
	EventBookingConfirmed  EventType = "BookingConfirmed"
	EventBookingEnRoute    EventType = "BookingEnRoute"
	EventBookingReassigned EventType = "BookingReassigned"
	EventBookingExpired    EventType = "BookingExpired"
	EventBookingCompleted  EventType = "BookingCompleted"

	EventCommissionOpened        EventType = "CommissionOpened"
	EventCommissionProofUploaded EventType = "CommissionProofUploaded"
	EventCommissionVerified      EventType = "CommissionVerified"
	EventCommissionRejected      EventType = "CommissionRejected"
	EventCommissionOverdue       EventType = "CommissionOverdue"
)

// Event is the envelope handed to notification/UI consumers. It carries the
// full updated entity so consumers never need a follow-up read.
type Event struct {
	Type       EventType         `json:"type"`
	OccurredAt time.Time         `json:"occurred_at"`
	Booking    *Booking          `json:"booking,omitempty"`
	Commission *CommissionRecord `json:"commission,omitempty"`
	Reason     string            `json:"reason,omitempty"`
}
