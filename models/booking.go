package models

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

// HoldsSlot reports whether a booking in this state occupies its slot.
func (s BookingStatus) HoldsSlot() bool {
	return s == StatusPending || s == StatusConfirmed
}

// SessionType is how the counselling session takes place.
type SessionType string

const (
	SessionVideo   SessionType = "video"
	SessionChat    SessionType = "chat"
	SessionOffline SessionType = "offline"
	SessionCall    SessionType = "call"
)

var SessionTypes = []SessionType{SessionVideo, SessionChat, SessionOffline, SessionCall}

// Valid reports whether s is one of the offered session types.
func (s SessionType) Valid() bool {
	for _, v := range SessionTypes {
		if s == v {
			return true
		}
	}
	return false
}

// Online is true for every session type that happens remotely.
func (s SessionType) Online() bool {
	return s != SessionOffline
}

// BookingTopics is the fixed list of counselling topics a student can pick.
var BookingTopics = []string{
	"Academic",
	"Stress / Anxiety",
	"Depression / Low mood",
	"Relationships",
	"Family",
	"Career",
	"Sleep",
	"Self-esteem",
	"Other",
}

// ValidTopic reports whether topic is one of BookingTopics.
func ValidTopic(topic string) bool {
	for _, t := range BookingTopics {
		if t == topic {
			return true
		}
	}
	return false
}

// Booking is one attempt by a student to hold a therapist's time slot.
// Records are never deleted; cancelled and expired holds stay for audit.
type Booking struct {
	ID          string        `bson:"id" json:"id"`
	StudentID   string        `bson:"studentId" json:"studentId"`
	TherapistID string        `bson:"therapistId" json:"therapistId"`
	Date        time.Time     `bson:"date" json:"date"` // UTC midnight
	Time        string        `bson:"time" json:"time"` // canonical "H:MM AM"
	SessionType SessionType   `bson:"sessionType" json:"sessionType"`
	Topic       string        `bson:"topic" json:"topic"`
	Status      BookingStatus `bson:"status" json:"status"`

	// Active mirrors Status.HoldsSlot() and backs the partial unique indexes.
	Active    bool       `bson:"active" json:"-"`
	ExpiresAt *time.Time `bson:"expiresAt,omitempty" json:"expiresAt,omitempty"`

	Timezone    string `bson:"timezone,omitempty" json:"timezone,omitempty"`
	MeetingLink string `bson:"meetingLink,omitempty" json:"meetingLink,omitempty"`
	Location    string `bson:"location,omitempty" json:"location,omitempty"`

	BookedAt  time.Time `bson:"bookedAt" json:"bookedAt"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// HoldLapsed reports whether a pending hold has expired at now.
// An expiry equal to now counts as lapsed.
func (b *Booking) HoldLapsed(now time.Time) bool {
	return b.Status == StatusPending && b.ExpiresAt != nil && !b.ExpiresAt.After(now)
}

// IsActive reports whether the booking currently occupies its slot.
func (b *Booking) IsActive(now time.Time) bool {
	if !b.Status.HoldsSlot() {
		return false
	}
	return b.ExpiresAt == nil || b.ExpiresAt.After(now)
}

// BookingRequest is the body of a booking request. Validation happens in the
// booking service so every failure carries its own message.
type BookingRequest struct {
	TherapistID string `json:"therapistId"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	SessionType string `json:"sessionType"`
	Topic       string `json:"topic"`
	Timezone    string `json:"timezone,omitempty"`
}

// BookingIDRequest is the body of confirm and cancel.
type BookingIDRequest struct {
	BookingID string `json:"bookingId"`
}
