package studentRepo

import (
	"context"
	"strings"
	"sync"
	"time"

	"manmitra/models"
)

// MemoryStudentRepo keeps students in process memory.
type MemoryStudentRepo struct {
	mu       sync.RWMutex
	students map[string]models.Student
}

func NewMemoryStudentRepo() *MemoryStudentRepo {
	return &MemoryStudentRepo{students: make(map[string]models.Student)}
}

func (m *MemoryStudentRepo) GetByID(_ context.Context, id string) (*models.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.students[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *MemoryStudentRepo) GetByEmail(_ context.Context, email string) (*models.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	email = strings.ToLower(email)
	for _, s := range m.students {
		if s.Email == email {
			s := s
			return &s, nil
		}
	}
	return nil, nil
}

func (m *MemoryStudentRepo) Create(_ context.Context, student *models.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.students {
		if s.Email == student.Email {
			return ErrEmailTaken
		}
	}
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now
	m.students[student.ID] = *student
	return nil
}

func (m *MemoryStudentRepo) EnsureIndexes(context.Context) error { return nil }
