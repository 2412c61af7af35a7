package bookingRepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"manmitra/models"
)

// MemoryLedger is an in-process Ledger. A single mutex serialises every
// check-then-insert, which gives the same exclusivity guarantees as the
// partial unique indexes of MongoLedger.
type MemoryLedger struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{bookings: make(map[string]*models.Booking)}
}

func clone(b *models.Booking) *models.Booking {
	c := *b
	if b.ExpiresAt != nil {
		t := *b.ExpiresAt
		c.ExpiresAt = &t
	}
	return &c
}

func (m *MemoryLedger) GetByID(_ context.Context, id string) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(b), nil
}

func (m *MemoryLedger) ListByStudent(_ context.Context, studentID string) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []models.Booking{}
	for _, b := range m.bookings {
		if b.StudentID == studentID {
			out = append(out, *clone(b))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryLedger) FindActiveConflict(_ context.Context, therapistID string, date time.Time, timeLabel, excludeID string, now time.Time) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b := m.slotHolder(therapistID, date, timeLabel, excludeID, now); b != nil {
		return clone(b), nil
	}
	return nil, nil
}

func (m *MemoryLedger) FindActiveRelationship(_ context.Context, studentID, therapistID, excludeID string, now time.Time) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b := m.relationshipHolder(studentID, therapistID, excludeID, now); b != nil {
		return clone(b), nil
	}
	return nil, nil
}

func (m *MemoryLedger) slotHolder(therapistID string, date time.Time, timeLabel, excludeID string, now time.Time) *models.Booking {
	for id, b := range m.bookings {
		if id == excludeID || !b.IsActive(now) {
			continue
		}
		if b.TherapistID == therapistID && b.Date.Equal(date) && b.Time == timeLabel {
			return b
		}
	}
	return nil
}

func (m *MemoryLedger) relationshipHolder(studentID, therapistID, excludeID string, now time.Time) *models.Booking {
	for id, b := range m.bookings {
		if id == excludeID || !b.IsActive(now) {
			continue
		}
		if b.StudentID == studentID && b.TherapistID == therapistID {
			return b
		}
	}
	return nil
}

func (m *MemoryLedger) InsertPendingHold(_ context.Context, b *models.Booking, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.bookings {
		sameSlot := existing.TherapistID == b.TherapistID && existing.Date.Equal(b.Date) && existing.Time == b.Time
		samePair := existing.StudentID == b.StudentID && existing.TherapistID == b.TherapistID
		if (sameSlot || samePair) && existing.HoldLapsed(now) && existing.Active {
			expire(existing, now)
		}
	}

	if m.relationshipHolder(b.StudentID, b.TherapistID, "", now) != nil {
		return ErrRelationshipTaken
	}
	if m.slotHolder(b.TherapistID, b.Date, b.Time, "", now) != nil {
		return ErrSlotTaken
	}
	b.Active = b.Status.HoldsSlot()
	m.bookings[b.ID] = clone(b)
	return nil
}

func expire(b *models.Booking, now time.Time) {
	b.Status = models.StatusCancelled
	b.Active = false
	b.UpdatedAt = now
}

func (m *MemoryLedger) TransitionState(_ context.Context, id string, expected, next models.BookingStatus, now time.Time) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	if b.Status != expected {
		return nil, ErrStaleState
	}
	if next == models.StatusConfirmed && b.ExpiresAt != nil && !b.ExpiresAt.After(now) {
		return nil, ErrStaleState
	}
	b.Status = next
	b.Active = next.HoldsSlot()
	b.ExpiresAt = nil
	b.UpdatedAt = now
	return clone(b), nil
}

func (m *MemoryLedger) ExpireHold(_ context.Context, id string, now time.Time) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !b.HoldLapsed(now) {
		return nil, ErrStaleState
	}
	expire(b, now)
	return clone(b), nil
}

func (m *MemoryLedger) ReleaseExpiredHolds(_ context.Context, scope HoldScope, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, b := range m.bookings {
		if !b.Active || !b.HoldLapsed(now) {
			continue
		}
		if scope.StudentID != "" && b.StudentID != scope.StudentID {
			continue
		}
		if scope.TherapistID != "" && b.TherapistID != scope.TherapistID {
			continue
		}
		if scope.Date != nil && !b.Date.Equal(*scope.Date) {
			continue
		}
		if scope.Time != "" && b.Time != scope.Time {
			continue
		}
		expire(b, now)
		n++
	}
	return n, nil
}

func (m *MemoryLedger) EnsureIndexes(context.Context) error { return nil }
