package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"manmitra/models"
	"manmitra/services/booking"
	"manmitra/services/tasks"
)

// DefaultSweepSpec releases lapsed holds every five minutes.
const DefaultSweepSpec = "@every 5m"

// Worker runs the booking task handlers and the periodic hold sweep.
type Worker struct {
	srv       *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	logger    *zap.Logger
}

// WorkerConfig controls the queue server.
type WorkerConfig struct {
	Redis       asynq.RedisClientOpt
	Concurrency int
	SweepSpec   string
}

func NewWorker(cfg WorkerConfig, svc booking.BookingService, logger *zap.Logger) (*Worker, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 10
	}
	if cfg.SweepSpec == "" {
		cfg.SweepSpec = DefaultSweepSpec
	}

	srv := asynq.NewServer(cfg.Redis, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues: map[string]int{
			"default": 1,
		},
		Logger: newAsynqLogger(logger),
	})

	scheduler := asynq.NewScheduler(cfg.Redis, &asynq.SchedulerOpts{
		Location: time.UTC,
		Logger:   newAsynqLogger(logger),
	})
	if _, err := scheduler.Register(cfg.SweepSpec, tasks.NewSweepTask(), asynq.TaskID(tasks.TypeSweepHolds)); err != nil {
		return nil, fmt.Errorf("failed to register hold sweep: %w", err)
	}

	return &Worker{
		srv:       srv,
		scheduler: scheduler,
		mux:       NewHandlerMux(svc, logger),
		logger:    logger,
	}, nil
}

// Start launches the server and scheduler, retrying with backoff while Redis
// is unreachable.
func (w *Worker) Start() error {
	const maxAttempts = 5
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = w.srv.Start(w.mux); err == nil {
			break
		}
		w.logger.Warn("task worker failed to start",
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", maxAttempts),
			zap.Error(err))
		time.Sleep(time.Duration(attempt*2) * time.Second)
	}
	if err != nil {
		return fmt.Errorf("task worker did not start: %w", err)
	}
	if err := w.scheduler.Start(); err != nil {
		w.srv.Shutdown()
		return fmt.Errorf("task scheduler did not start: %w", err)
	}
	w.logger.Info("task worker started")
	return nil
}

func (w *Worker) Shutdown() {
	w.scheduler.Shutdown()
	w.srv.Shutdown()
	w.logger.Info("task worker stopped")
}

// NewHandlerMux routes booking task types to the booking service.
func NewHandlerMux(svc booking.BookingService, logger *zap.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeExpireHold, handleExpireHold(svc, logger))
	mux.HandleFunc(tasks.TypeSendReminder, handleReminder(svc, logger))
	mux.HandleFunc(tasks.TypeSweepHolds, handleSweep(svc, logger))
	return mux
}

func handleExpireHold(svc booking.BookingService, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.HoldExpiryPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("invalid hold expiry payload", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		expired, err := svc.ExpireHold(ctx, p.BookingID)
		if err != nil {
			return err
		}
		logger.Debug("hold expiry processed", zap.String("bookingId", p.BookingID), zap.Bool("expired", expired))
		return nil
	}
}

func handleReminder(svc booking.BookingService, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("invalid reminder payload", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		report, err := svc.SendReminder(ctx, p.BookingID)
		if err != nil {
			logger.Warn("reminder failed", zap.String("bookingId", p.BookingID), zap.Error(err))
			return err
		}
		logger.Info("reminder processed",
			zap.String("bookingId", p.BookingID),
			zap.Int("delivered", report.Delivered),
			zap.Int("attempted", report.Attempted))
		return nil
	}
}

func handleSweep(svc booking.BookingService, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		n, err := svc.SweepExpiredHolds(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info("released expired holds", zap.Int64("count", n))
		}
		return nil
	}
}

// newAsynqLogger routes queue internals through zap.
func newAsynqLogger(logger *zap.Logger) asynq.Logger {
	return logger.Named("asynq").Sugar()
}
