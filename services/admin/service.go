package admin

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"manmitra/models"
	"manmitra/services/therapist"
	"manmitra/utils"
)

// AdminSubject is the token subject for the configured admin.
const AdminSubject = "admin"

func NewDefaultAdminService(email, password string, tokens *utils.TokenIssuer, therapists therapist.TherapistService, logger *zap.Logger) *DefaultAdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultAdminService{
		Email:      strings.ToLower(strings.TrimSpace(email)),
		Password:   password,
		Tokens:     tokens,
		Therapists: therapists,
		Logger:     logger,
	}
}

func (s *DefaultAdminService) Authenticate(_ context.Context, email, password string) (*models.AuthResponse, error) {
	if s.Email == "" || s.Password == "" {
		return nil, ErrDisabled
	}
	emailOK := subtle.ConstantTimeCompare([]byte(strings.ToLower(strings.TrimSpace(email))), []byte(s.Email)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.Password)) == 1
	if !emailOK || !passOK {
		s.Logger.Warn("admin login rejected")
		return nil, ErrInvalidCredentials
	}

	token, err := s.Tokens.GenerateToken(AdminSubject, models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("authentication failed, please try again")
	}
	return &models.AuthResponse{Token: token, ID: AdminSubject, Role: models.RoleAdmin}, nil
}

func (s *DefaultAdminService) PendingTherapists(ctx context.Context) ([]models.Therapist, error) {
	return s.Therapists.ListPending(ctx)
}

func (s *DefaultAdminService) ReviewTherapist(ctx context.Context, therapistID string, status models.TherapistStatus) (*models.Therapist, error) {
	t, err := s.Therapists.SetStatus(ctx, therapistID, status)
	if err != nil {
		return nil, err
	}
	s.Logger.Info("therapist reviewed", zap.String("therapistId", therapistID), zap.String("status", string(status)))
	return t, nil
}
