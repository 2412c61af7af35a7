package models

import "time"

// TherapistStatus is the admin approval state of a therapist account.
type TherapistStatus string

const (
	TherapistPending  TherapistStatus = "pending"
	TherapistApproved TherapistStatus = "approved"
	TherapistRejected TherapistStatus = "rejected"
)

// Valid reports whether s is a known approval state.
func (s TherapistStatus) Valid() bool {
	switch s {
	case TherapistPending, TherapistApproved, TherapistRejected:
		return true
	}
	return false
}

// DateAvailability is a legacy per-date schedule entry.
type DateAvailability struct {
	Date  time.Time `bson:"date" json:"date"`   // UTC midnight
	Times []string  `bson:"times" json:"times"` // canonical labels
}

// Therapist is a counsellor profile. DailyTimes applies to every day and wins
// over Availability when non-empty.
type Therapist struct {
	ID             string             `bson:"id" json:"id"`
	Name           string             `bson:"name" json:"name"`
	Email          string             `bson:"email" json:"email"`
	PasswordHash   string             `bson:"passwordHash" json:"-"`
	Specialization string             `bson:"specialization,omitempty" json:"specialization,omitempty"`
	Experience     string             `bson:"experience,omitempty" json:"experience,omitempty"`
	Status         TherapistStatus    `bson:"status" json:"status"`
	Rating         float64            `bson:"rating" json:"rating"`
	DailyTimes     []string           `bson:"dailyTimes" json:"dailyTimes"`
	Availability   []DateAvailability `bson:"availability" json:"availability"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// TherapistSignupRequest is the onboarding payload.
type TherapistSignupRequest struct {
	Name           string                 `json:"name" binding:"required"`
	Email          string                 `json:"email" binding:"required,email"`
	Password       string                 `json:"password" binding:"required,min=8"`
	Specialization string                 `json:"specialization"`
	Experience     string                 `json:"experience"`
	DailyTimes     []string               `json:"dailyTimes"`
	Availability   []AvailabilityInputDTO `json:"availability"`
}

// ScheduleUpdateRequest replaces a therapist's schedule.
type ScheduleUpdateRequest struct {
	DailyTimes   []string               `json:"dailyTimes" binding:"omitempty,dive,timelabel"`
	Availability []AvailabilityInputDTO `json:"availability" binding:"omitempty,dive"`
}

// AvailabilityInputDTO is a raw legacy schedule entry as sent by clients.
type AvailabilityInputDTO struct {
	Date  string   `json:"date"`
	Times []string `json:"times"`
}

// TherapistStatusRequest is the admin approval payload.
type TherapistStatusRequest struct {
	Status TherapistStatus `json:"status" binding:"required,oneof=pending approved rejected"`
}

// PublicTherapist is the listing view of an approved therapist.
type PublicTherapist struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Specialization string             `json:"specialization,omitempty"`
	Experience     string             `json:"experience,omitempty"`
	Rating         float64            `json:"rating"`
	DailyTimes     []string           `json:"dailyTimes"`
	Availability   []DateAvailability `json:"availability"`
}

// Public strips private fields.
func (t *Therapist) Public() PublicTherapist {
	return PublicTherapist{
		ID:             t.ID,
		Name:           t.Name,
		Specialization: t.Specialization,
		Experience:     t.Experience,
		Rating:         t.Rating,
		DailyTimes:     t.DailyTimes,
		Availability:   t.Availability,
	}
}
