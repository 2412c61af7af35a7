package therapistRepo

import (
	"context"
	"errors"

	"manmitra/models"
)

var (
	ErrNotFound   = errors.New("therapist not found")
	ErrEmailTaken = errors.New("email already registered")
)

// TherapistRepository defines methods for therapist profile access.
type TherapistRepository interface {
	GetByID(ctx context.Context, id string) (*models.Therapist, error)
	// GetByEmail returns nil, nil when no therapist uses the email.
	GetByEmail(ctx context.Context, email string) (*models.Therapist, error)
	Create(ctx context.Context, t *models.Therapist) error
	// ListByStatus returns therapists in the given state, best rated first.
	ListByStatus(ctx context.Context, status models.TherapistStatus) ([]models.Therapist, error)
	// UpdateSchedule replaces both schedule representations.
	UpdateSchedule(ctx context.Context, id string, dailyTimes []string, availability []models.DateAvailability) (*models.Therapist, error)
	UpdateStatus(ctx context.Context, id string, status models.TherapistStatus) (*models.Therapist, error)
	EnsureIndexes(ctx context.Context) error
}
