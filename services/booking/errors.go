package booking

import (
	"errors"
	"fmt"
)

// Error codes carried by BookingError. Handlers map them to HTTP status codes.
const (
	CodeValidation           = "validation"
	CodeNotFound             = "not_found"
	CodeUnavailableSlot      = "unavailable_slot"
	CodeRelationshipConflict = "relationship_conflict"
	CodeSlotConflict         = "slot_conflict"
	CodeInvalidState         = "invalid_state"
	CodeExpiredHold          = "expired_hold"
	CodeCancellationWindow   = "cancellation_window"
	CodeAuthorization        = "authorization"
)

// BookingError is a rule violation with a message safe to show to the caller.
type BookingError struct {
	Code    string
	Message string
}

func (e *BookingError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any BookingError with the same code, so callers can write
// errors.Is(err, booking.ErrSlotConflict).
func (e *BookingError) Is(target error) bool {
	t, ok := target.(*BookingError)
	return ok && t.Code == e.Code
}

func newError(code, msg string) *BookingError {
	return &BookingError{Code: code, Message: msg}
}

// Sentinels for errors.Is comparisons; their messages are not used.
var (
	ErrValidation           = newError(CodeValidation, "")
	ErrNotFound             = newError(CodeNotFound, "")
	ErrUnavailableSlot      = newError(CodeUnavailableSlot, "")
	ErrRelationshipConflict = newError(CodeRelationshipConflict, "")
	ErrSlotConflict         = newError(CodeSlotConflict, "")
	ErrInvalidState         = newError(CodeInvalidState, "")
	ErrExpiredHold          = newError(CodeExpiredHold, "")
	ErrCancellationWindow   = newError(CodeCancellationWindow, "")
	ErrAuthorization        = newError(CodeAuthorization, "")
)

// User-facing messages.
const (
	MsgMissingFields        = "therapistId, date, time, sessionType and topic are required"
	MsgInvalidTopic         = "Invalid topic"
	MsgInvalidSessionType   = "Invalid sessionType"
	MsgInvalidIDs           = "Invalid studentId/therapistId"
	MsgInvalidDate          = "Invalid date format (expected YYYY-MM-DD)"
	MsgInvalidTime          = "Invalid time format (expected HH:MM AM/PM)"
	MsgRelationshipConflict = "You already have an active booking with this therapist."
	MsgSlotConflict         = "This time slot is already booked."
	MsgBookingIDRequired    = "bookingId is required"
	MsgInvalidBookingID     = "Invalid bookingId"
	MsgBookingNotFound      = "Booking not found"
	MsgTherapistNotFound    = "Therapist not found"
	MsgExpired              = "Booking expired"
	MsgNotOwner             = "You can only cancel your own booking"
	MsgCancellationWindow   = "Booking can only be cancelled at least 24 hours before the session."
)

// AsBookingError unwraps err into a *BookingError if it is one.
func AsBookingError(err error) (*BookingError, bool) {
	var be *BookingError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}
