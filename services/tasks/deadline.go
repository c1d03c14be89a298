package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const TypeOfferDeadline = "offer:deadline"

// OfferDeadlinePayload carries the deadline the task was scheduled for, so the
// handler can detect that the offer has since been resolved or re-issued.
type OfferDeadlinePayload struct {
	BookingID string    `json:"booking_id"`
	Deadline  time.Time `json:"deadline"`
}

// OfferTaskID derives the stable task ID for one offer. The deadline is part
// of the ID so a re-offer never collides with the previous offer's task, which
// may still be active while its firing is being handled.
func OfferTaskID(bookingID string, deadline time.Time) string {
	return fmt.Sprintf("offer:%s:%d", bookingID, deadline.UnixMilli())
}

// NewOfferDeadlineTask builds the delayed task that fires a booking's
// confirmation deadline.
func NewOfferDeadlineTask(bookingID string, deadline time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(OfferDeadlinePayload{BookingID: bookingID, Deadline: deadline})
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeOfferDeadline, b)
	opts := []asynq.Option{
		asynq.ProcessAt(deadline),
		asynq.TaskID(OfferTaskID(bookingID, deadline)),
		asynq.MaxRetry(3),
	}
	return task, opts, nil
}
