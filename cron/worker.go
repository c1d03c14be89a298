package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"santai/config"
	"santai/services/assignment"
	"santai/services/commission"
	"santai/services/tasks"

	"github.com/hibiken/asynq"
)

// InitDispatchWorker runs the async worker that delivers offer-deadline
// firings into the assignment engine.
func InitDispatchWorker(engine *assignment.Engine) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisDispatchQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeOfferDeadline, handleOfferDeadline(engine))

	// Start async worker with retry logic
	go func() {
		log.Println("[DispatchWorker] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[DispatchWorker] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[DispatchWorker] max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()
}

func handleOfferDeadline(engine *assignment.Engine) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p tasks.OfferDeadlinePayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[DispatchWorker] invalid deadline payload: %v", err)
			return err
		}
		return engine.HandleDeadline(ctx, p.BookingID, p.Deadline)
	}
}

// RunOverdueSweep periodically moves unpaid commissions past their deadline
// to Overdue. It blocks until ctx is cancelled.
func RunOverdueSweep(ctx context.Context, ledger *commission.Ledger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("[OverdueSweep] checking overdue commissions every %s", interval)

	for {
		select {
		case <-ctx.Done():
			log.Println("[OverdueSweep] stopped.")
			return
		case <-ticker.C:
			if err := ledger.SweepOverdue(ctx); err != nil {
				log.Printf("[OverdueSweep] sweep failed: %v", err)
			}
		}
	}
}
