package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommissionAmount(t *testing.T) {
	cases := []struct {
		name   string
		amount int64
		rate   int64
		policy RoundingPolicy
		want   int64
	}{
		{"exact half-up", 250000, 20, RoundHalfUp, 50000},
		{"below half rounds down", 333, 30, RoundHalfUp, 100},  // 99.9
		{"at half rounds up", 335, 30, RoundHalfUp, 101},       // 100.5
		{"down truncates", 335, 30, RoundDown, 100},
		{"up always ceils", 333, 30, RoundUp, 100},
		{"up on exact stays", 200, 50, RoundUp, 100},
		{"zero rate", 250000, 0, RoundHalfUp, 0},
		{"full rate", 250000, 100, RoundHalfUp, 250000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CommissionAmount(tc.amount, tc.rate, tc.policy))
		})
	}
}

func TestParseRoundingPolicy(t *testing.T) {
	policy, err := ParseRoundingPolicy("half-up")
	require.NoError(t, err)
	assert.Equal(t, RoundHalfUp, policy)

	_, err = ParseRoundingPolicy("banker")
	require.Error(t, err)
	assert.Equal(t, ErrCodeValidation, ErrorCode(err))
}
