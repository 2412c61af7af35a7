package notification

import (
	"context"
	"fmt"
	"strings"
)

// Recipient roles for booking emails.
const (
	RecipientStudent   = "student"
	RecipientTherapist = "therapist"
)

// BookingNotice carries everything a booking email needs about both parties
// and the session. Missing emails are skipped, not treated as failures.
type BookingNotice struct {
	StudentEmail   string
	StudentName    string
	TherapistEmail string
	TherapistName  string
	DateLabel      string
	TimeLabel      string
	Timezone       string
	SessionType    string
	Online         bool
	Topic          string
	JoinLink       string
	Location       string
	ManageLink     string
}

// DeliveryFailure records one recipient that could not be reached.
type DeliveryFailure struct {
	Recipient string `json:"recipient"`
	Reason    string `json:"reason"`
}

// DeliveryReport is the outcome of a dispatch. Dispatch never returns an
// error; callers inspect the report instead.
type DeliveryReport struct {
	Attempted int               `json:"attempted"`
	Delivered int               `json:"delivered"`
	Failures  []DeliveryFailure `json:"failures,omitempty"`
}

// OK reports whether every attempted message was delivered.
func (r DeliveryReport) OK() bool {
	return len(r.Failures) == 0
}

func (r DeliveryReport) String() string {
	if r.OK() {
		return fmt.Sprintf("%d/%d delivered", r.Delivered, r.Attempted)
	}
	parts := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		parts = append(parts, f.Recipient+": "+f.Reason)
	}
	return fmt.Sprintf("%d/%d delivered (%s)", r.Delivered, r.Attempted, strings.Join(parts, "; "))
}

// NotificationService sends booking emails to both parties.
type NotificationService interface {
	SendBookingConfirmation(ctx context.Context, notice BookingNotice) DeliveryReport
	SendSessionReminder(ctx context.Context, notice BookingNotice) DeliveryReport
}
