package therapist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	therapistRepo "manmitra/database/repository/therapist"
	"manmitra/models"
	"manmitra/utils"
)

func NewDefaultTherapistService(repo therapistRepo.TherapistRepository, tokens *utils.TokenIssuer, logger *zap.Logger) *DefaultTherapistService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultTherapistService{Repo: repo, Tokens: tokens, Logger: logger}
}

// Signup stores a new therapist in the pending state. Rating and status are
// never taken from the client.
func (s *DefaultTherapistService) Signup(ctx context.Context, req models.TherapistSignupRequest) (*models.Therapist, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	existing, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("signup failed: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	t := &models.Therapist{
		ID:             uuid.NewString(),
		Name:           strings.TrimSpace(req.Name),
		Email:          email,
		PasswordHash:   string(hash),
		Specialization: req.Specialization,
		Experience:     req.Experience,
		Status:         models.TherapistPending,
		DailyTimes:     NormalizeDailyTimes(req.DailyTimes),
		Availability:   NormalizeAvailability(req.Availability),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.Repo.Create(ctx, t); err != nil {
		if errors.Is(err, therapistRepo.ErrEmailTaken) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("signup failed: %w", err)
	}
	s.Logger.Info("therapist signed up", zap.String("therapistId", t.ID))
	return t, nil
}

// Authenticate only admits approved therapists.
func (s *DefaultTherapistService) Authenticate(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	t, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		s.Logger.Error("therapist lookup failed", zap.Error(err))
		return nil, fmt.Errorf("authentication failed, please try again")
	}
	if t == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(t.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if t.Status != models.TherapistApproved {
		return nil, ErrNotApproved
	}

	token, err := s.Tokens.GenerateToken(t.ID, models.RoleTherapist)
	if err != nil {
		return nil, fmt.Errorf("authentication failed, please try again")
	}
	return &models.AuthResponse{Token: token, ID: t.ID, Role: models.RoleTherapist}, nil
}

func (s *DefaultTherapistService) ListApproved(ctx context.Context) ([]models.PublicTherapist, error) {
	if s.Cache != nil {
		list, ok, err := s.Cache.Get(ctx)
		if err != nil {
			s.Logger.Warn("therapist directory cache read failed", zap.Error(err))
		} else if ok {
			return list, nil
		}
	}

	list, err := s.Repo.ListByStatus(ctx, models.TherapistApproved)
	if err != nil {
		return nil, err
	}
	out := make([]models.PublicTherapist, 0, len(list))
	for i := range list {
		out = append(out, list[i].Public())
	}

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, out); err != nil {
			s.Logger.Warn("therapist directory cache write failed", zap.Error(err))
		}
	}
	return out, nil
}

func (s *DefaultTherapistService) invalidateDirectory(ctx context.Context) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Invalidate(ctx); err != nil {
		s.Logger.Warn("therapist directory cache invalidation failed", zap.Error(err))
	}
}

func (s *DefaultTherapistService) ListPending(ctx context.Context) ([]models.Therapist, error) {
	return s.Repo.ListByStatus(ctx, models.TherapistPending)
}

// UpdateSchedule replaces the therapist's schedule with the normalized request.
func (s *DefaultTherapistService) UpdateSchedule(ctx context.Context, therapistID string, req models.ScheduleUpdateRequest) (*models.Therapist, error) {
	t, err := s.Repo.UpdateSchedule(ctx, therapistID,
		NormalizeDailyTimes(req.DailyTimes),
		NormalizeAvailability(req.Availability))
	if err != nil {
		return nil, err
	}
	s.invalidateDirectory(ctx)
	return t, nil
}

func (s *DefaultTherapistService) SetStatus(ctx context.Context, therapistID string, status models.TherapistStatus) (*models.Therapist, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	t, err := s.Repo.UpdateStatus(ctx, therapistID, status)
	if err != nil {
		return nil, err
	}
	s.invalidateDirectory(ctx)
	s.Logger.Info("therapist status changed", zap.String("therapistId", therapistID), zap.String("status", string(status)))
	return t, nil
}
