package therapistRepo

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"manmitra/models"
)

// MemoryTherapistRepo keeps therapists in process memory.
type MemoryTherapistRepo struct {
	mu         sync.RWMutex
	therapists map[string]models.Therapist
}

func NewMemoryTherapistRepo() *MemoryTherapistRepo {
	return &MemoryTherapistRepo{therapists: make(map[string]models.Therapist)}
}

func (m *MemoryTherapistRepo) GetByID(_ context.Context, id string) (*models.Therapist, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.therapists[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (m *MemoryTherapistRepo) GetByEmail(_ context.Context, email string) (*models.Therapist, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	email = strings.ToLower(email)
	for _, t := range m.therapists {
		if t.Email == email {
			t := t
			return &t, nil
		}
	}
	return nil, nil
}

func (m *MemoryTherapistRepo) Create(_ context.Context, t *models.Therapist) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.therapists {
		if existing.Email == t.Email {
			return ErrEmailTaken
		}
	}
	m.therapists[t.ID] = *t
	return nil
}

func (m *MemoryTherapistRepo) ListByStatus(_ context.Context, status models.TherapistStatus) ([]models.Therapist, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Therapist{}
	for _, t := range m.therapists {
		if t.Status == status {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *MemoryTherapistRepo) UpdateSchedule(_ context.Context, id string, dailyTimes []string, availability []models.DateAvailability) (*models.Therapist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.therapists[id]
	if !ok {
		return nil, ErrNotFound
	}
	t.DailyTimes = dailyTimes
	t.Availability = availability
	t.UpdatedAt = time.Now().UTC()
	m.therapists[id] = t
	return &t, nil
}

func (m *MemoryTherapistRepo) UpdateStatus(_ context.Context, id string, status models.TherapistStatus) (*models.Therapist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.therapists[id]
	if !ok {
		return nil, ErrNotFound
	}
	t.Status = status
	t.UpdatedAt = time.Now().UTC()
	m.therapists[id] = t
	return &t, nil
}

func (m *MemoryTherapistRepo) EnsureIndexes(context.Context) error { return nil }
