package models

import (
	"strings"
	"time"
)

// ProviderType distinguishes independent therapists from massage places.
type ProviderType string

const (
	ProviderTherapist ProviderType = "therapist"
	ProviderPlace     ProviderType = "place"
)

func ParseProviderType(s string) (ProviderType, error) {
	switch ProviderType(s) {
	case ProviderTherapist, ProviderPlace:
		return ProviderType(s), nil
	}
	return "", NewValidationError("unknown provider type %q", s)
}

// ProviderStatus is the externally visible availability of a provider. It is
// always derived (busy window, then outstanding commissions, then the manual
// toggle) and never stored as independent truth.
type ProviderStatus string

const (
	ProviderAvailable ProviderStatus = "Available"
	ProviderBusy      ProviderStatus = "Busy"
	ProviderOffline   ProviderStatus = "Offline"
)

// ParseManualStatus accepts only the operator-settable statuses, in any case,
// and returns the canonical value. Busy is a derived state and cannot be set
// manually.
func ParseManualStatus(s string) (ProviderStatus, error) {
	switch strings.ToLower(s) {
	case "available":
		return ProviderAvailable, nil
	case "offline":
		return ProviderOffline, nil
	}
	return "", NewValidationError("manual status must be Available or Offline, got %q", s)
}

// Provider is the slice of the provider profile this core reads. The full
// profile is owned by an external collaborator.
type Provider struct {
	ID   string       `bson:"id" json:"id"`
	Type ProviderType `bson:"type" json:"type"`
	Name string       `bson:"name,omitempty" json:"name,omitempty"`

	// BusyUntil is an explicit timed busy window, independent of bookings.
	// The zero time means no window is active.
	BusyUntil time.Time `bson:"busy_until,omitempty" json:"busy_until,omitempty"`

	// ManualStatus is the operator-set floor: Available or Offline.
	ManualStatus ProviderStatus `bson:"manual_status" json:"manual_status"`

	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
	Version   int64     `bson:"version" json:"version"`
}
