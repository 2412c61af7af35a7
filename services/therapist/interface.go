package therapist

import (
	"context"
	"errors"

	therapistRepo "manmitra/database/repository/therapist"
	"manmitra/models"
	"manmitra/utils"

	"go.uber.org/zap"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotApproved        = errors.New("your account is not approved yet")
	ErrAlreadyExists      = errors.New("therapist already exists")
	ErrInvalidStatus      = errors.New("invalid status")
)

// TherapistService covers onboarding, login and schedule management.
type TherapistService interface {
	Signup(ctx context.Context, req models.TherapistSignupRequest) (*models.Therapist, error)
	Authenticate(ctx context.Context, email, password string) (*models.AuthResponse, error)
	ListApproved(ctx context.Context) ([]models.PublicTherapist, error)
	ListPending(ctx context.Context) ([]models.Therapist, error)
	UpdateSchedule(ctx context.Context, therapistID string, req models.ScheduleUpdateRequest) (*models.Therapist, error)
	SetStatus(ctx context.Context, therapistID string, status models.TherapistStatus) (*models.Therapist, error)
}

// DefaultTherapistService is the production implementation.
type DefaultTherapistService struct {
	Repo   therapistRepo.TherapistRepository
	Tokens *utils.TokenIssuer
	Logger *zap.Logger

	// Cache is optional. Schedule and status changes invalidate it.
	Cache DirectoryCache
}
