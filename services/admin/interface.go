package admin

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"manmitra/models"
	"manmitra/services/therapist"
	"manmitra/utils"
)

var (
	ErrInvalidCredentials = errors.New("invalid admin credentials")
	// ErrDisabled is returned when no admin credentials are configured.
	ErrDisabled = errors.New("admin login disabled")
)

// AdminService covers therapist approval.
type AdminService interface {
	Authenticate(ctx context.Context, email, password string) (*models.AuthResponse, error)
	PendingTherapists(ctx context.Context) ([]models.Therapist, error)
	ReviewTherapist(ctx context.Context, therapistID string, status models.TherapistStatus) (*models.Therapist, error)
}

// DefaultAdminService checks a single configured admin account.
type DefaultAdminService struct {
	Email      string
	Password   string
	Tokens     *utils.TokenIssuer
	Therapists therapist.TherapistService
	Logger     *zap.Logger
}
