package assignment

import (
	"errors"
	"fmt"
	"time"

	"santai/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// ResponseTimer fires exactly one deadline callback per outstanding offer,
// without busy-polling, and allows cancellation when an offer resolves early.
type ResponseTimer interface {
	// Schedule registers a cancellable timer and returns immediately; the
	// firing runs asynchronously on its own schedule.
	Schedule(bookingID string, deadline time.Time) error
	// Cancel removes the scheduled firing for the offer identified by the
	// booking and its deadline. Idempotent: cancelling an already-fired or
	// already-cancelled timer is a no-op, never an error.
	Cancel(bookingID string, deadline time.Time) error
}

// AsynqResponseTimer schedules deadline firings as delayed asynq tasks. The
// task ID covers the booking ID and the deadline, so scheduling the next
// offer's timer from inside a firing handler never collides with the active
// task, and an early-resolved offer can be deleted by its own ID. Firings
// survive process restarts because the queue lives in Redis; the engine's
// recovery sweep covers lost entries.
type AsynqResponseTimer struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	queue     string
	logger    *zap.Logger
}

func NewAsynqResponseTimer(redisOpt asynq.RedisClientOpt, logger *zap.Logger) *AsynqResponseTimer {
	return &AsynqResponseTimer{
		client:    asynq.NewClient(redisOpt),
		inspector: asynq.NewInspector(redisOpt),
		queue:     "default",
		logger:    logger,
	}
}

func (t *AsynqResponseTimer) Schedule(bookingID string, deadline time.Time) error {
	task, opts, err := tasks.NewOfferDeadlineTask(bookingID, deadline)
	if err != nil {
		return fmt.Errorf("failed to build deadline task for booking %s: %w", bookingID, err)
	}
	if _, err := t.client.Enqueue(task, opts...); err != nil {
		// The recovery sweep re-schedules deadlines that may still sit in
		// Redis; the existing entry is the same offer.
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return fmt.Errorf("failed to schedule deadline for booking %s: %w", bookingID, err)
	}
	t.logger.Debug("offer deadline scheduled",
		zap.String("bookingID", bookingID), zap.Time("deadline", deadline))
	return nil
}

func (t *AsynqResponseTimer) Cancel(bookingID string, deadline time.Time) error {
	err := t.inspector.DeleteTask(t.queue, tasks.OfferTaskID(bookingID, deadline))
	if err == nil ||
		errors.Is(err, asynq.ErrTaskNotFound) ||
		errors.Is(err, asynq.ErrQueueNotFound) {
		return nil
	}
	return fmt.Errorf("failed to cancel deadline for booking %s: %w", bookingID, err)
}

// Close releases the underlying Redis connections.
func (t *AsynqResponseTimer) Close() error {
	return t.client.Close()
}
