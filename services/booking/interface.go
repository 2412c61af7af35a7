package booking

import (
	"context"
	"time"

	"manmitra/models"
	"manmitra/services/notification"
)

// BookingService is the booking lifecycle: create a hold, confirm it,
// cancel it, and let lapsed holds expire.
type BookingService interface {
	Create(ctx context.Context, studentID string, req models.BookingRequest) (*models.Booking, error)
	Confirm(ctx context.Context, bookingID string) (*ConfirmResult, error)
	Cancel(ctx context.Context, bookingID, studentID string) (*models.Booking, error)
	ListForStudent(ctx context.Context, studentID string) ([]models.Booking, error)

	// ExpireHold cancels one lapsed hold. It is a no-op for anything else.
	ExpireHold(ctx context.Context, bookingID string) (bool, error)
	// SweepExpiredHolds cancels every lapsed hold.
	SweepExpiredHolds(ctx context.Context) (int64, error)
	// SendReminder emails both parties about an upcoming confirmed session.
	SendReminder(ctx context.Context, bookingID string) (notification.DeliveryReport, error)
}

// ConfirmResult is a confirmed booking and the outcome of notifying both
// parties about it. A failed delivery never undoes the confirmation.
type ConfirmResult struct {
	Booking  *models.Booking             `json:"booking"`
	Delivery notification.DeliveryReport `json:"delivery"`
}

// TaskScheduler enqueues delayed background work for a booking.
type TaskScheduler interface {
	ScheduleHoldExpiry(ctx context.Context, bookingID string, at time.Time) error
	ScheduleReminder(ctx context.Context, bookingID string, at time.Time) error
}
