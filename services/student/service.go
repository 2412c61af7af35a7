package student

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	studentRepo "manmitra/database/repository/student"
	"manmitra/models"
	"manmitra/utils"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAlreadyExists      = errors.New("student already exists")
)

// StudentService registers and authenticates students.
type StudentService interface {
	Register(ctx context.Context, req models.StudentRegistrationRequest) (*models.AuthResponse, error)
	Authenticate(ctx context.Context, email, password string) (*models.AuthResponse, error)
}

// DefaultStudentService is the production implementation.
type DefaultStudentService struct {
	Repo   studentRepo.StudentRepository
	Tokens *utils.TokenIssuer
	Logger *zap.Logger
}

func NewDefaultStudentService(repo studentRepo.StudentRepository, tokens *utils.TokenIssuer, logger *zap.Logger) *DefaultStudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultStudentService{Repo: repo, Tokens: tokens, Logger: logger}
}

// Register creates the account and logs the student in.
func (s *DefaultStudentService) Register(ctx context.Context, req models.StudentRegistrationRequest) (*models.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	st := &models.Student{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
		CollegeName:  req.CollegeName,
	}
	if err := s.Repo.Create(ctx, st); err != nil {
		if errors.Is(err, studentRepo.ErrEmailTaken) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("registration failed: %w", err)
	}
	s.Logger.Info("student registered", zap.String("studentId", st.ID), zap.String("college", st.CollegeName))
	return s.issue(st.ID)
}

func (s *DefaultStudentService) Authenticate(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	st, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		s.Logger.Error("student lookup failed", zap.Error(err))
		return nil, fmt.Errorf("authentication failed, please try again")
	}
	if st == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(st.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(st.ID)
}

func (s *DefaultStudentService) issue(id string) (*models.AuthResponse, error) {
	token, err := s.Tokens.GenerateToken(id, models.RoleStudent)
	if err != nil {
		return nil, fmt.Errorf("authentication failed, please try again")
	}
	return &models.AuthResponse{Token: token, ID: id, Role: models.RoleStudent}, nil
}
