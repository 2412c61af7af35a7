package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"manmitra/models"
)

// Task types handled by the worker.
const (
	TypeSendReminder = "booking:reminder"
	TypeExpireHold   = "booking:expire-hold"
	TypeSweepHolds   = "booking:sweep-holds"
)

func NewReminderTask(payload models.ReminderPayload, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeSendReminder, b)
	opts := []asynq.Option{
		asynq.ProcessAt(fireAt),
		asynq.TaskID("reminder:" + payload.BookingID),
		asynq.MaxRetry(3),
	}
	return task, opts, nil
}

// NewHoldExpiryTask fires at the moment a pending hold lapses.
func NewHoldExpiryTask(payload models.HoldExpiryPayload, expiresAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeExpireHold, b)
	opts := []asynq.Option{
		asynq.ProcessAt(expiresAt),
		asynq.TaskID("expire:" + payload.BookingID),
	}
	return task, opts, nil
}

func NewSweepTask() *asynq.Task {
	return asynq.NewTask(TypeSweepHolds, nil)
}
