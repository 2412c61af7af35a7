package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookingRepo "manmitra/database/repository/booking"
	studentRepo "manmitra/database/repository/student"
	therapistRepo "manmitra/database/repository/therapist"
	"manmitra/models"
	"manmitra/services/notification"
)

type fakeNotifier struct {
	mu            sync.Mutex
	confirmations []notification.BookingNotice
	reminders     []notification.BookingNotice
	fail          bool
}

func (f *fakeNotifier) report() notification.DeliveryReport {
	if f.fail {
		return notification.DeliveryReport{
			Attempted: 2,
			Failures: []notification.DeliveryFailure{
				{Recipient: "student", Reason: "smtp down"},
				{Recipient: "therapist", Reason: "smtp down"},
			},
		}
	}
	return notification.DeliveryReport{Attempted: 2, Delivered: 2}
}

func (f *fakeNotifier) SendBookingConfirmation(_ context.Context, n notification.BookingNotice) notification.DeliveryReport {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmations = append(f.confirmations, n)
	return f.report()
}

func (f *fakeNotifier) SendSessionReminder(_ context.Context, n notification.BookingNotice) notification.DeliveryReport {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reminders = append(f.reminders, n)
	return f.report()
}

type fakeTasks struct {
	mu        sync.Mutex
	expiries  map[string]time.Time
	reminders map[string]time.Time
}

func newFakeTasks() *fakeTasks {
	return &fakeTasks{expiries: map[string]time.Time{}, reminders: map[string]time.Time{}}
}

func (f *fakeTasks) ScheduleHoldExpiry(_ context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expiries[id] = at
	return nil
}

func (f *fakeTasks) ScheduleReminder(_ context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reminders[id] = at
	return nil
}

// countingLedger records store lookups.
type countingLedger struct {
	bookingRepo.Ledger
	lookups int
}

func (l *countingLedger) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	l.lookups++
	return l.Ledger.GetByID(ctx, id)
}

type testEnv struct {
	engine      *DefaultBookingEngine
	ledger      *bookingRepo.MemoryLedger
	notifier    *fakeNotifier
	tasks       *fakeTasks
	now         time.Time
	therapistID string
	studentA    string
	studentB    string
}

func (env *testEnv) advance(d time.Duration) { env.now = env.now.Add(d) }

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	env := &testEnv{
		ledger:      bookingRepo.NewMemoryLedger(),
		notifier:    &fakeNotifier{},
		tasks:       newFakeTasks(),
		now:         time.Date(2025, 10, 31, 9, 0, 0, 0, time.UTC),
		therapistID: uuid.NewString(),
		studentA:    uuid.NewString(),
		studentB:    uuid.NewString(),
	}

	therapists := therapistRepo.NewMemoryTherapistRepo()
	require.NoError(t, therapists.Create(ctx, &models.Therapist{
		ID:         env.therapistID,
		Name:       "Dr. Ravi",
		Email:      "ravi@example.com",
		Status:     models.TherapistApproved,
		DailyTimes: []string{"8:00 AM", "9:00 AM", "10:00 AM", "4:00 PM"},
	}))
	students := studentRepo.NewMemoryStudentRepo()
	require.NoError(t, students.Create(ctx, &models.Student{ID: env.studentA, Name: "Asha", Email: "asha@example.com", CollegeName: "MIT"}))
	require.NoError(t, students.Create(ctx, &models.Student{ID: env.studentB, Name: "Bala", Email: "bala@example.com", CollegeName: "BITS"}))

	env.engine = &DefaultBookingEngine{
		Ledger:        env.ledger,
		Gate:          NewScheduleGate(therapists),
		Therapists:    therapists,
		Students:      students,
		Notifications: env.notifier,
		Tasks:         env.tasks,
		JoinLinkBase:  "https://app.example.com/",
		Now:           func() time.Time { return env.now },
	}
	return env
}

func (env *testEnv) request(label string) models.BookingRequest {
	return models.BookingRequest{
		TherapistID: env.therapistID,
		Date:        "2025-11-01",
		Time:        label,
		SessionType: "video",
		Topic:       "Academic",
	}
}

func assertCode(t *testing.T, err error, code string) *BookingError {
	t.Helper()
	require.Error(t, err)
	be, ok := AsBookingError(err)
	require.True(t, ok, "expected BookingError, got %v", err)
	assert.Equal(t, code, be.Code)
	return be
}

func TestCreate_PendingHold(t *testing.T) {
	env := newTestEnv(t)

	b, err := env.engine.Create(context.Background(), env.studentA, env.request("10:00 am"))
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, b.Status)
	assert.Equal(t, "10:00 AM", b.Time)
	assert.Equal(t, time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC), b.Date)
	require.NotNil(t, b.ExpiresAt)
	assert.Equal(t, env.now.Add(HoldDuration), *b.ExpiresAt)
	assert.Equal(t, "UTC", b.Timezone)
	assert.Equal(t, "https://app.example.com/sessions/"+b.ID, b.MeetingLink)
	assert.Equal(t, *b.ExpiresAt, env.tasks.expiries[b.ID])
}

func TestCreate_SlotConflictForSecondStudent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.engine.Create(ctx, env.studentA, env.request("10:00 AM"))
	require.NoError(t, err)

	_, err = env.engine.Create(ctx, env.studentB, env.request("10:00 AM"))
	be := assertCode(t, err, CodeSlotConflict)
	assert.Equal(t, MsgSlotConflict, be.Message)
	assert.True(t, errors.Is(err, ErrSlotConflict))
}

func TestCreate_RelationshipConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.engine.Create(ctx, env.studentA, env.request("10:00 AM"))
	require.NoError(t, err)

	_, err = env.engine.Create(ctx, env.studentA, env.request("4:00 PM"))
	be := assertCode(t, err, CodeRelationshipConflict)
	assert.Equal(t, MsgRelationshipConflict, be.Message)
}

func TestCreate_ExpiredHoldFreesSlot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.engine.Create(ctx, env.studentA, env.request("10:00 AM"))
	require.NoError(t, err)

	env.advance(HoldDuration)
	second, err := env.engine.Create(ctx, env.studentB, env.request("10:00 AM"))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	old, err := env.ledger.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, old.Status)
}

func TestCreate_Validation(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name    string
		student string
		mutate  func(r *models.BookingRequest)
		msg     string
	}{
		{"missing topic", env.studentA, func(r *models.BookingRequest) { r.Topic = "" }, MsgMissingFields},
		{"missing therapist", env.studentA, func(r *models.BookingRequest) { r.TherapistID = " " }, MsgMissingFields},
		{"unknown topic", env.studentA, func(r *models.BookingRequest) { r.Topic = "Astrology" }, MsgInvalidTopic},
		{"unknown session type", env.studentA, func(r *models.BookingRequest) { r.SessionType = "carrier pigeon" }, MsgInvalidSessionType},
		{"bad student id", "not-a-uuid", func(r *models.BookingRequest) {}, MsgInvalidIDs},
		{"bad therapist id", env.studentA, func(r *models.BookingRequest) { r.TherapistID = "123" }, MsgInvalidIDs},
		{"impossible date", env.studentA, func(r *models.BookingRequest) { r.Date = "2025-02-30" }, MsgInvalidDate},
		{"bad time", env.studentA, func(r *models.BookingRequest) { r.Time = "13:00 PM" }, MsgInvalidTime},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := env.request("10:00 AM")
			tc.mutate(&req)
			_, err := env.engine.Create(context.Background(), tc.student, req)
			be := assertCode(t, err, CodeValidation)
			assert.Equal(t, tc.msg, be.Message)
		})
	}
}

func TestCreate_SlotNotOffered(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.engine.Create(context.Background(), env.studentA, env.request("11:00 AM"))
	be := assertCode(t, err, CodeUnavailableSlot)
	assert.Equal(t, "Selected time is not in therapist's daily availability", be.Message)

	req := env.request("10:00 AM")
	req.TherapistID = uuid.NewString()
	_, err = env.engine.Create(context.Background(), env.studentA, req)
	be = assertCode(t, err, CodeNotFound)
	assert.Equal(t, MsgTherapistNotFound, be.Message)
}

func TestCreate_ConcurrentRequestsSingleWinner(t *testing.T) {
	env := newTestEnv(t)
	env.engine.Tasks = nil

	const n = 25
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := env.engine.Create(context.Background(), uuid.NewString(), env.request("4:00 PM"))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			if errors.Is(err, ErrSlotConflict) || errors.Is(err, ErrRelationshipConflict) {
				conflicts++
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, conflicts)
}

func TestConfirm_WithinHold(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b, err := env.engine.Create(ctx, env.studentA, env.request("10:00 AM"))
	require.NoError(t, err)

	env.advance(5 * time.Minute)
	res, err := env.engine.Confirm(ctx, b.ID)
	require.NoError(t, err)

	assert.Equal(t, models.StatusConfirmed, res.Booking.Status)
	assert.Nil(t, res.Booking.ExpiresAt)
	assert.True(t, res.Delivery.OK())
	assert.Equal(t, 2, res.Delivery.Attempted)

	require.Len(t, env.notifier.confirmations, 1)
	notice := env.notifier.confirmations[0]
	assert.Equal(t, "asha@example.com", notice.StudentEmail)
	assert.Equal(t, "ravi@example.com", notice.TherapistEmail)
	assert.Equal(t, "2025-11-01", notice.DateLabel)
	assert.True(t, notice.Online)

	// reminder one hour before 10:00 AM on the session day
	assert.Equal(t, time.Date(2025, 11, 1, 9, 0, 0, 0, time.UTC), env.tasks.reminders[b.ID])
}

func TestConfirm_AfterHoldLapsed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b, err := env.engine.Create(ctx, env.studentA, env.request("10:00 AM"))
	require.NoError(t, err)

	env.advance(11 * time.Minute)
	_, err = env.engine.Confirm(ctx, b.ID)
	be := assertCode(t, err, CodeExpiredHold)
	assert.Equal(t, MsgExpired, be.Message)

	stored, err := env.ledger.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, stored.Status)
	assert.Empty(t, env.notifier.confirmations)
}

func TestConfirm_ExpiryEqualToNowIsExpired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b, err := env.engine.Create(ctx, env.studentA, env.request("10:00 AM"))
	require.NoError(t, err)

	env.advance(HoldDuration)
	_, err = env.engine.Confirm(ctx, b.ID)
	assertCode(t, err, CodeExpiredHold)
}

func TestConfirm_AlreadyConfirmed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b, err := env.engine.Create(ctx, env.studentA, env.request("10:00 AM"))
	require.NoError(t, err)
	_, err = env.engine.Confirm(ctx, b.ID)
	require.NoError(t, err)

	_, err = env.engine.Confirm(ctx, b.ID)
	be := assertCode(t, err, CodeInvalidState)
	assert.Equal(t, "Booking is already confirmed", be.Message)
}

func TestConfirm_MissingAndUnknown(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.engine.Confirm(context.Background(), "")
	be := assertCode(t, err, CodeValidation)
	assert.Equal(t, MsgBookingIDRequired, be.Message)

	_, err = env.engine.Confirm(context.Background(), uuid.NewString())
	assertCode(t, err, CodeNotFound)
}

func TestMalformedBookingIDRejectedBeforeLookup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ledger := &countingLedger{Ledger: env.engine.Ledger}
	env.engine.Ledger = ledger

	_, err := env.engine.Confirm(ctx, "not-a-uuid")
	be := assertCode(t, err, CodeValidation)
	assert.Equal(t, MsgInvalidBookingID, be.Message)

	_, err = env.engine.Cancel(ctx, "12345", env.studentA)
	be = assertCode(t, err, CodeValidation)
	assert.Equal(t, MsgInvalidBookingID, be.Message)

	assert.Zero(t, ledger.lookups)
}

func TestConfirm_NotificationFailureKeepsConfirmation(t *testing.T) {
	env := newTestEnv(t)
	env.notifier.fail = true
	ctx := context.Background()

	b, err := env.engine.Create(ctx, env.studentA, env.request("10:00 AM"))
	require.NoError(t, err)

	res, err := env.engine.Confirm(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, res.Delivery.OK())
	assert.Equal(t, 0, res.Delivery.Delivered)

	stored, err := env.ledger.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, stored.Status)
}

func TestCancel_Window(t *testing.T) {
	cases := []struct {
		name  string
		label string
		ok    bool
	}{
		{"25 hours out", "10:00 AM", true},
		{"exactly 24 hours out", "9:00 AM", false},
		{"23 hours out", "8:00 AM", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()

			b, err := env.engine.Create(ctx, env.studentA, env.request(tc.label))
			require.NoError(t, err)
			_, err = env.engine.Confirm(ctx, b.ID)
			require.NoError(t, err)

			got, err := env.engine.Cancel(ctx, b.ID, env.studentA)
			if tc.ok {
				require.NoError(t, err)
				assert.Equal(t, models.StatusCancelled, got.Status)
				assert.Nil(t, got.ExpiresAt)
				return
			}
			be := assertCode(t, err, CodeCancellationWindow)
			assert.Equal(t, MsgCancellationWindow, be.Message)
		})
	}
}

func TestCancel_OneMinutePastWindow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b, err := env.engine.Create(ctx, env.studentA, env.request("9:00 AM"))
	require.NoError(t, err)

	env.now = env.now.Add(-time.Minute)
	_, err = env.engine.Cancel(ctx, b.ID, env.studentA)
	assert.NoError(t, err)
}

func TestCancel_RulesAndOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b, err := env.engine.Create(ctx, env.studentA, env.request("10:00 AM"))
	require.NoError(t, err)

	_, err = env.engine.Cancel(ctx, b.ID, env.studentB)
	be := assertCode(t, err, CodeAuthorization)
	assert.Equal(t, MsgNotOwner, be.Message)

	_, err = env.engine.Cancel(ctx, b.ID, env.studentA)
	require.NoError(t, err)

	_, err = env.engine.Cancel(ctx, b.ID, env.studentA)
	be = assertCode(t, err, CodeInvalidState)
	assert.Equal(t, "Cannot cancel a cancelled booking", be.Message)

	_, err = env.engine.Cancel(ctx, uuid.NewString(), env.studentA)
	assertCode(t, err, CodeNotFound)
}

func TestCancel_FreesRelationship(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b, err := env.engine.Create(ctx, env.studentA, env.request("10:00 AM"))
	require.NoError(t, err)
	_, err = env.engine.Cancel(ctx, b.ID, env.studentA)
	require.NoError(t, err)

	_, err = env.engine.Create(ctx, env.studentA, env.request("10:00 AM"))
	assert.NoError(t, err)
}

func TestListForStudent_ReleasesLapsedHolds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b, err := env.engine.Create(ctx, env.studentA, env.request("10:00 AM"))
	require.NoError(t, err)

	env.advance(time.Hour)
	list, err := env.engine.ListForStudent(ctx, env.studentA)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)
	assert.Equal(t, models.StatusCancelled, list[0].Status)

	other, err := env.engine.ListForStudent(ctx, env.studentB)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestExpireHoldAndSweep(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a, err := env.engine.Create(ctx, env.studentA, env.request("10:00 AM"))
	require.NoError(t, err)
	_, err = env.engine.Create(ctx, env.studentB, env.request("4:00 PM"))
	require.NoError(t, err)

	expired, err := env.engine.ExpireHold(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, expired, "hold still alive")

	env.advance(HoldDuration)
	expired, err = env.engine.ExpireHold(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, expired)

	n, err := env.engine.SweepExpiredHolds(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSendReminder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b, err := env.engine.Create(ctx, env.studentA, env.request("10:00 AM"))
	require.NoError(t, err)

	report, err := env.engine.SendReminder(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Attempted, "pending bookings get no reminder")

	_, err = env.engine.Confirm(ctx, b.ID)
	require.NoError(t, err)
	report, err = env.engine.SendReminder(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Delivered)
	assert.Len(t, env.notifier.reminders, 1)

	env.notifier.fail = true
	_, err = env.engine.SendReminder(ctx, b.ID)
	assert.Error(t, err)
}
