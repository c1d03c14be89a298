package tasks

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOfferTaskID_UniquePerOffer(t *testing.T) {
	first := time.Date(2025, 6, 1, 10, 25, 0, 0, time.UTC)
	second := first.Add(25 * time.Minute)

	// A re-offer gets its own task ID, so enqueueing it never conflicts with
	// the previous offer's task, even while that task is still active.
	assert.NotEqual(t, OfferTaskID("B1", first), OfferTaskID("B1", second))
	assert.NotEqual(t, OfferTaskID("B1", first), OfferTaskID("B2", first))

	// Same offer, same ID: the recovery sweep can re-schedule idempotently.
	assert.Equal(t, OfferTaskID("B1", first), OfferTaskID("B1", first))
}

func TestNewOfferDeadlineTask_PayloadCarriesDeadline(t *testing.T) {
	deadline := time.Date(2025, 6, 1, 10, 25, 0, 0, time.UTC)

	task, opts, err := NewOfferDeadlineTask("B1", deadline)
	require.NoError(t, err)
	assert.Equal(t, TypeOfferDeadline, task.Type())
	assert.NotEmpty(t, opts)

	var p OfferDeadlinePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &p))
	assert.Equal(t, "B1", p.BookingID)
	assert.True(t, p.Deadline.Equal(deadline))
}
