package bookingRepo

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"manmitra/models"
)

var (
	t0      = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	session = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
)

func hold(id, student, therapist, label string, now time.Time) *models.Booking {
	exp := now.Add(10 * time.Minute)
	return &models.Booking{
		ID:          id,
		StudentID:   student,
		TherapistID: therapist,
		Date:        session,
		Time:        label,
		SessionType: models.SessionChat,
		Topic:       "Sleep",
		Status:      models.StatusPending,
		ExpiresAt:   &exp,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestMemoryLedger_InsertEnforcesSlotAndRelationship(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()

	require.NoError(t, l.InsertPendingHold(ctx, hold("a", "s1", "t1", "10:00 AM", t0), t0))

	err := l.InsertPendingHold(ctx, hold("b", "s2", "t1", "10:00 AM", t0), t0)
	assert.ErrorIs(t, err, ErrSlotTaken)

	err = l.InsertPendingHold(ctx, hold("c", "s1", "t1", "11:00 AM", t0), t0)
	assert.ErrorIs(t, err, ErrRelationshipTaken)

	// another therapist is unaffected
	assert.NoError(t, l.InsertPendingHold(ctx, hold("d", "s1", "t2", "10:00 AM", t0), t0))
}

func TestMemoryLedger_LapsedHoldIsReleasedOnInsert(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	require.NoError(t, l.InsertPendingHold(ctx, hold("a", "s1", "t1", "10:00 AM", t0), t0))

	// expiry equal to now counts as lapsed
	later := t0.Add(10 * time.Minute)
	require.NoError(t, l.InsertPendingHold(ctx, hold("b", "s2", "t1", "10:00 AM", later), later))

	old, err := l.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, old.Status)
	assert.False(t, old.Active)
	assert.NotNil(t, old.ExpiresAt)
}

func TestMemoryLedger_FindActive(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	require.NoError(t, l.InsertPendingHold(ctx, hold("a", "s1", "t1", "10:00 AM", t0), t0))

	got, err := l.FindActiveConflict(ctx, "t1", session, "10:00 AM", "", t0)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a", got.ID)

	got, err = l.FindActiveConflict(ctx, "t1", session, "10:00 AM", "a", t0)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = l.FindActiveRelationship(ctx, "s1", "t1", "", t0.Add(10*time.Minute))
	require.NoError(t, err)
	assert.Nil(t, got, "lapsed hold is not active")
}

func TestMemoryLedger_TransitionState(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	require.NoError(t, l.InsertPendingHold(ctx, hold("a", "s1", "t1", "10:00 AM", t0), t0))

	b, err := l.TransitionState(ctx, "a", models.StatusPending, models.StatusConfirmed, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, b.Status)
	assert.Nil(t, b.ExpiresAt)
	assert.True(t, b.Active)

	_, err = l.TransitionState(ctx, "a", models.StatusPending, models.StatusConfirmed, t0.Add(time.Minute))
	assert.ErrorIs(t, err, ErrStaleState)

	_, err = l.TransitionState(ctx, "missing", models.StatusPending, models.StatusConfirmed, t0)
	assert.ErrorIs(t, err, ErrNotFound)

	b, err = l.TransitionState(ctx, "a", models.StatusConfirmed, models.StatusCancelled, t0.Add(2*time.Minute))
	require.NoError(t, err)
	assert.False(t, b.Active)
}

func TestMemoryLedger_ConfirmRejectsLapsedHold(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	require.NoError(t, l.InsertPendingHold(ctx, hold("a", "s1", "t1", "10:00 AM", t0), t0))

	_, err := l.TransitionState(ctx, "a", models.StatusPending, models.StatusConfirmed, t0.Add(10*time.Minute))
	assert.ErrorIs(t, err, ErrStaleState)

	b, err := l.ExpireHold(ctx, "a", t0.Add(10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, b.Status)
}

func TestMemoryLedger_ReleaseExpiredHolds(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	require.NoError(t, l.InsertPendingHold(ctx, hold("a", "s1", "t1", "10:00 AM", t0), t0))
	require.NoError(t, l.InsertPendingHold(ctx, hold("b", "s2", "t1", "11:00 AM", t0), t0))
	require.NoError(t, l.InsertPendingHold(ctx, hold("c", "s1", "t2", "11:00 AM", t0.Add(5*time.Minute)), t0.Add(5*time.Minute)))

	n, err := l.ReleaseExpiredHolds(ctx, HoldScope{StudentID: "s1"}, t0.Add(11*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = l.ReleaseExpiredHolds(ctx, HoldScope{}, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestMemoryLedger_ListByStudentOrder(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()

	early := hold("a", "s1", "t1", "10:00 AM", t0)
	early.Date = session.AddDate(0, 0, -3)
	late := hold("b", "s1", "t2", "10:00 AM", t0)
	sameDayNewer := hold("c", "s1", "t3", "9:00 AM", t0.Add(time.Minute))
	require.NoError(t, l.InsertPendingHold(ctx, early, t0))
	require.NoError(t, l.InsertPendingHold(ctx, late, t0))
	require.NoError(t, l.InsertPendingHold(ctx, sameDayNewer, t0))
	require.NoError(t, l.InsertPendingHold(ctx, hold("x", "s2", "t4", "9:00 AM", t0), t0))

	list, err := l.ListByStudent(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{list[0].ID, list[1].ID, list[2].ID})

	empty, err := l.ListByStudent(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestMemoryLedger_ConcurrentInsertsOneWinner(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()

	const n = 50
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b := hold(fmt.Sprintf("b%d", i), fmt.Sprintf("s%d", i), "t1", "4:00 PM", t0)
			if err := l.InsertPendingHold(ctx, b, t0); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, ErrSlotTaken)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, accepted)
}
