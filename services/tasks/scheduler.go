package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"manmitra/models"
)

// Enqueuer is the part of *asynq.Client the scheduler needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqTaskScheduler queues delayed booking work on Redis.
type AsynqTaskScheduler struct {
	Client Enqueuer
	Logger *zap.Logger
}

func NewAsynqTaskScheduler(client Enqueuer, logger *zap.Logger) *AsynqTaskScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AsynqTaskScheduler{Client: client, Logger: logger}
}

func (s *AsynqTaskScheduler) ScheduleHoldExpiry(ctx context.Context, bookingID string, at time.Time) error {
	task, opts, err := NewHoldExpiryTask(models.HoldExpiryPayload{BookingID: bookingID}, at)
	if err != nil {
		return fmt.Errorf("failed to build hold expiry task: %w", err)
	}
	return s.enqueue(ctx, task, opts)
}

func (s *AsynqTaskScheduler) ScheduleReminder(ctx context.Context, bookingID string, at time.Time) error {
	payload := models.ReminderPayload{BookingID: bookingID, FireDate: at.UTC().Format(time.RFC3339)}
	task, opts, err := NewReminderTask(payload, at)
	if err != nil {
		return fmt.Errorf("failed to build reminder task: %w", err)
	}
	return s.enqueue(ctx, task, opts)
}

func (s *AsynqTaskScheduler) enqueue(ctx context.Context, task *asynq.Task, opts []asynq.Option) error {
	info, err := s.Client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", task.Type(), err)
	}
	s.Logger.Debug("task enqueued",
		zap.String("type", task.Type()),
		zap.String("id", info.ID),
		zap.Time("processAt", info.NextProcessAt))
	return nil
}
