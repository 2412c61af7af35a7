package models

// ReminderPayload is the queued body of a session reminder task.
type ReminderPayload struct {
	BookingID string `json:"bookingId"`
	FireDate  string `json:"fireDate,omitempty"`
}

// HoldExpiryPayload is the queued body of a hold expiry task.
type HoldExpiryPayload struct {
	BookingID string `json:"bookingId"`
}

// Roles carried in auth tokens.
const (
	RoleStudent   = "student"
	RoleTherapist = "therapist"
	RoleAdmin     = "admin"
)
