package studentRepo

import (
	"context"
	"errors"

	"manmitra/models"
)

var (
	ErrNotFound   = errors.New("student not found")
	ErrEmailTaken = errors.New("email already registered")
)

// StudentRepository defines methods for student data access.
type StudentRepository interface {
	// GetByID retrieves a student by its unique ID.
	GetByID(ctx context.Context, id string) (*models.Student, error)
	// GetByEmail retrieves a student by email. Returns nil, nil when absent.
	GetByEmail(ctx context.Context, email string) (*models.Student, error)
	// Create inserts a new student record.
	Create(ctx context.Context, student *models.Student) error
	EnsureIndexes(ctx context.Context) error
}
