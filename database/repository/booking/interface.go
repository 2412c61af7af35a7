// File: database/repository/booking/interface.go
package bookingRepo

import (
	"context"
	"errors"
	"time"

	"manmitra/models"
)

var (
	ErrNotFound = errors.New("booking not found")
	// ErrSlotTaken: another active booking holds the same therapist/date/time.
	ErrSlotTaken = errors.New("slot already held by an active booking")
	// ErrRelationshipTaken: the student already has an active booking with the therapist.
	ErrRelationshipTaken = errors.New("student already has an active booking with this therapist")
	// ErrStaleState: the booking was not in the expected state when written.
	ErrStaleState = errors.New("booking state changed concurrently")
)

// HoldScope narrows ReleaseExpiredHolds. Zero fields are not filtered on.
type HoldScope struct {
	StudentID   string
	TherapistID string
	Date        *time.Time
	Time        string
}

// Ledger is the persistent record of booking attempts. It owns both
// exclusivity invariants: one active booking per (therapist, date, time)
// and one per (student, therapist). The insert is the authority; the Find*
// lookups are pre-checks only.
type Ledger interface {
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Booking, error)

	// FindActiveConflict returns the active booking on the slot, or nil.
	FindActiveConflict(ctx context.Context, therapistID string, date time.Time, timeLabel, excludeID string, now time.Time) (*models.Booking, error)
	// FindActiveRelationship returns the active booking between the pair, or nil.
	FindActiveRelationship(ctx context.Context, studentID, therapistID, excludeID string, now time.Time) (*models.Booking, error)

	// InsertPendingHold releases lapsed holds on the same keys, then inserts b.
	InsertPendingHold(ctx context.Context, b *models.Booking, now time.Time) error
	// TransitionState moves a booking from expected to next and clears its expiry.
	// Moving to confirmed additionally requires the hold to be alive at now.
	TransitionState(ctx context.Context, id string, expected, next models.BookingStatus, now time.Time) (*models.Booking, error)
	// ExpireHold cancels a pending booking whose hold lapsed at or before now.
	ExpireHold(ctx context.Context, id string, now time.Time) (*models.Booking, error)
	// ReleaseExpiredHolds cancels every lapsed pending hold in scope.
	ReleaseExpiredHolds(ctx context.Context, scope HoldScope, now time.Time) (int64, error)

	EnsureIndexes(ctx context.Context) error
}
