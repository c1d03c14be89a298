package models

// RoundingPolicy fixes how fractional minor units are resolved when computing
// a commission. The policy is set once at startup and applied consistently,
// since the result is checked against a human-entered proof amount downstream.
type RoundingPolicy string

const (
	RoundHalfUp RoundingPolicy = "half-up"
	RoundDown   RoundingPolicy = "down"
	RoundUp     RoundingPolicy = "up"
)

func ParseRoundingPolicy(s string) (RoundingPolicy, error) {
	switch RoundingPolicy(s) {
	case RoundHalfUp, RoundDown, RoundUp:
		return RoundingPolicy(s), nil
	}
	return "", NewValidationError("unknown rounding policy %q", s)
}

// CommissionAmount computes serviceAmount * rate / 100 in integer minor units
// under the given policy. Both inputs must be non-negative.
func CommissionAmount(serviceAmount, rate int64, policy RoundingPolicy) int64 {
	raw := serviceAmount * rate
	switch policy {
	case RoundUp:
		return (raw + 99) / 100
	case RoundDown:
		return raw / 100
	default: // half-up
		return (raw + 50) / 100
	}
}
