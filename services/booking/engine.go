package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingRepo "manmitra/database/repository/booking"
	studentRepo "manmitra/database/repository/student"
	therapistRepo "manmitra/database/repository/therapist"
	"manmitra/metrics"
	"manmitra/models"
	"manmitra/services/notification"
	"manmitra/utils"
)

const (
	// HoldDuration is how long a pending booking reserves its slot.
	HoldDuration = 10 * time.Minute
	// CancellationWindow is the minimum lead time for a cancellation.
	CancellationWindow = 24 * time.Hour
	// ReminderLead is how long before the session the reminder fires.
	ReminderLead = time.Hour
)

// DefaultBookingEngine implements BookingService on top of a Ledger.
// Exclusivity is enforced by the Ledger's insert; the engine's own lookups
// only exist to return a specific message before touching the store.
type DefaultBookingEngine struct {
	Ledger        bookingRepo.Ledger
	Gate          AvailabilityGate
	Therapists    therapistRepo.TherapistRepository
	Students      studentRepo.StudentRepository
	Notifications notification.NotificationService
	Tasks         TaskScheduler // optional
	Metrics       *metrics.BookingMetrics
	Logger        *zap.Logger

	JoinLinkBase string
	ManageURL    string
	Now          func() time.Time
}

func (e *DefaultBookingEngine) now() time.Time {
	if e.Now != nil {
		return e.Now().UTC()
	}
	return time.Now().UTC()
}

func (e *DefaultBookingEngine) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

func (e *DefaultBookingEngine) reject(op string, err *BookingError) error {
	e.Metrics.ObserveRejection(op, err.Code)
	return err
}

// Create validates the request and places a pending hold on the slot.
func (e *DefaultBookingEngine) Create(ctx context.Context, studentID string, req models.BookingRequest) (*models.Booking, error) {
	const op = "create"

	therapistID := strings.TrimSpace(req.TherapistID)
	topic := strings.TrimSpace(req.Topic)
	sessionType := models.SessionType(strings.ToLower(strings.TrimSpace(req.SessionType)))

	if therapistID == "" || strings.TrimSpace(req.Date) == "" || strings.TrimSpace(req.Time) == "" || sessionType == "" || topic == "" {
		return nil, e.reject(op, newError(CodeValidation, MsgMissingFields))
	}
	if !models.ValidTopic(topic) {
		return nil, e.reject(op, newError(CodeValidation, MsgInvalidTopic))
	}
	if !sessionType.Valid() {
		return nil, e.reject(op, newError(CodeValidation, MsgInvalidSessionType))
	}
	if _, err := uuid.Parse(studentID); err != nil {
		return nil, e.reject(op, newError(CodeValidation, MsgInvalidIDs))
	}
	if _, err := uuid.Parse(therapistID); err != nil {
		return nil, e.reject(op, newError(CodeValidation, MsgInvalidIDs))
	}
	date, err := utils.ParseCalendarDate(req.Date)
	if err != nil {
		return nil, e.reject(op, newError(CodeValidation, MsgInvalidDate))
	}
	label, err := utils.CanonicalizeLabel(req.Time)
	if err != nil {
		return nil, e.reject(op, newError(CodeValidation, MsgInvalidTime))
	}

	offer, err := e.Gate.IsSlotOffered(ctx, therapistID, date, label)
	if err != nil {
		if be, ok := AsBookingError(err); ok {
			return nil, e.reject(op, be)
		}
		return nil, err
	}
	if !offer.Offered {
		return nil, e.reject(op, newError(CodeUnavailableSlot, offer.Reason))
	}

	now := e.now()
	if err := e.checkConflicts(ctx, op, studentID, therapistID, date, label, "", now); err != nil {
		return nil, err
	}

	expiresAt := now.Add(HoldDuration)
	b := &models.Booking{
		ID:          uuid.NewString(),
		StudentID:   studentID,
		TherapistID: therapistID,
		Date:        date,
		Time:        label,
		SessionType: sessionType,
		Topic:       topic,
		Status:      models.StatusPending,
		ExpiresAt:   &expiresAt,
		Timezone:    strings.TrimSpace(req.Timezone),
		BookedAt:    now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if b.Timezone == "" {
		b.Timezone = "UTC"
	}
	if sessionType.Online() && e.JoinLinkBase != "" {
		b.MeetingLink = fmt.Sprintf("%s/sessions/%s", strings.TrimRight(e.JoinLinkBase, "/"), b.ID)
	}

	if err := e.Ledger.InsertPendingHold(ctx, b, now); err != nil {
		switch {
		case errors.Is(err, bookingRepo.ErrRelationshipTaken):
			return nil, e.reject(op, newError(CodeRelationshipConflict, MsgRelationshipConflict))
		case errors.Is(err, bookingRepo.ErrSlotTaken):
			return nil, e.reject(op, newError(CodeSlotConflict, MsgSlotConflict))
		}
		return nil, fmt.Errorf("failed to store booking: %w", err)
	}
	e.Metrics.ObserveTransition(op, string(b.Status))

	if e.Tasks != nil {
		if err := e.Tasks.ScheduleHoldExpiry(ctx, b.ID, expiresAt); err != nil {
			e.logger().Warn("failed to schedule hold expiry", zap.String("bookingId", b.ID), zap.Error(err))
		}
	}

	e.logger().Info("booking hold created",
		zap.String("bookingId", b.ID),
		zap.String("therapistId", therapistID),
		zap.Time("date", date),
		zap.String("time", label))
	return b, nil
}

// checkConflicts runs the relationship check before the slot check.
func (e *DefaultBookingEngine) checkConflicts(ctx context.Context, op, studentID, therapistID string, date time.Time, label, excludeID string, now time.Time) error {
	rel, err := e.Ledger.FindActiveRelationship(ctx, studentID, therapistID, excludeID, now)
	if err != nil {
		return fmt.Errorf("relationship check failed: %w", err)
	}
	if rel != nil {
		return e.reject(op, newError(CodeRelationshipConflict, MsgRelationshipConflict))
	}
	slot, err := e.Ledger.FindActiveConflict(ctx, therapistID, date, label, excludeID, now)
	if err != nil {
		return fmt.Errorf("slot check failed: %w", err)
	}
	if slot != nil {
		return e.reject(op, newError(CodeSlotConflict, MsgSlotConflict))
	}
	return nil
}

// Confirm turns a live pending hold into a confirmed booking and notifies
// both parties.
func (e *DefaultBookingEngine) Confirm(ctx context.Context, bookingID string) (*ConfirmResult, error) {
	const op = "confirm"

	bookingID, err := e.checkBookingID(op, bookingID)
	if err != nil {
		return nil, err
	}
	b, err := e.load(ctx, op, bookingID)
	if err != nil {
		return nil, err
	}

	now := e.now()
	if b.Status != models.StatusPending {
		return nil, e.reject(op, invalidState("Booking is already %s", b.Status))
	}
	if b.HoldLapsed(now) {
		return nil, e.expireOnRead(ctx, op, b, now)
	}

	if err := e.checkConflicts(ctx, op, b.StudentID, b.TherapistID, b.Date, b.Time, b.ID, now); err != nil {
		return nil, err
	}

	confirmed, err := e.Ledger.TransitionState(ctx, b.ID, models.StatusPending, models.StatusConfirmed, now)
	if err != nil {
		return nil, e.mapTransitionError(ctx, op, b.ID, now, err)
	}
	e.Metrics.ObserveTransition(op, string(confirmed.Status))

	report := e.notify(ctx, "confirmation", confirmed)
	if !report.OK() {
		e.logger().Warn("confirmation emails not fully delivered",
			zap.String("bookingId", confirmed.ID),
			zap.Stringer("delivery", report))
	}

	if e.Tasks != nil {
		if start, err := utils.CombineDateAndTime(confirmed.Date, confirmed.Time); err == nil {
			if at := start.Add(-ReminderLead); at.After(now) {
				if err := e.Tasks.ScheduleReminder(ctx, confirmed.ID, at); err != nil {
					e.logger().Warn("failed to schedule reminder", zap.String("bookingId", confirmed.ID), zap.Error(err))
				}
			}
		}
	}

	return &ConfirmResult{Booking: confirmed, Delivery: report}, nil
}

// Cancel cancels the caller's own booking, no later than 24 hours before it starts.
func (e *DefaultBookingEngine) Cancel(ctx context.Context, bookingID, studentID string) (*models.Booking, error) {
	const op = "cancel"

	bookingID, err := e.checkBookingID(op, bookingID)
	if err != nil {
		return nil, err
	}
	b, err := e.load(ctx, op, bookingID)
	if err != nil {
		return nil, err
	}
	if b.StudentID != studentID {
		return nil, e.reject(op, newError(CodeAuthorization, MsgNotOwner))
	}
	if !b.Status.HoldsSlot() {
		return nil, e.reject(op, invalidState("Cannot cancel a %s booking", b.Status))
	}

	now := e.now()
	if b.HoldLapsed(now) {
		return nil, e.expireOnRead(ctx, op, b, now)
	}

	start, err := utils.CombineDateAndTime(b.Date, b.Time)
	if err != nil {
		return nil, fmt.Errorf("booking %s has an unreadable time %q: %w", b.ID, b.Time, err)
	}
	if start.Sub(now) <= CancellationWindow {
		return nil, e.reject(op, newError(CodeCancellationWindow, MsgCancellationWindow))
	}

	cancelled, err := e.Ledger.TransitionState(ctx, b.ID, b.Status, models.StatusCancelled, now)
	if err != nil {
		return nil, e.mapTransitionError(ctx, op, b.ID, now, err)
	}
	e.Metrics.ObserveTransition(op, string(cancelled.Status))
	e.logger().Info("booking cancelled", zap.String("bookingId", b.ID))
	return cancelled, nil
}

// ListForStudent releases the student's lapsed holds and returns their bookings.
func (e *DefaultBookingEngine) ListForStudent(ctx context.Context, studentID string) ([]models.Booking, error) {
	n, err := e.Ledger.ReleaseExpiredHolds(ctx, bookingRepo.HoldScope{StudentID: studentID}, e.now())
	if err != nil {
		e.logger().Warn("failed to release expired holds", zap.String("studentId", studentID), zap.Error(err))
	}
	e.Metrics.ObserveExpired(n)
	return e.Ledger.ListByStudent(ctx, studentID)
}

func (e *DefaultBookingEngine) ExpireHold(ctx context.Context, bookingID string) (bool, error) {
	_, err := e.Ledger.ExpireHold(ctx, bookingID, e.now())
	switch {
	case err == nil:
		e.Metrics.ObserveExpired(1)
		return true, nil
	case errors.Is(err, bookingRepo.ErrStaleState), errors.Is(err, bookingRepo.ErrNotFound):
		return false, nil
	}
	return false, err
}

func (e *DefaultBookingEngine) SweepExpiredHolds(ctx context.Context) (int64, error) {
	n, err := e.Ledger.ReleaseExpiredHolds(ctx, bookingRepo.HoldScope{}, e.now())
	if err != nil {
		return 0, err
	}
	e.Metrics.ObserveExpired(n)
	return n, nil
}

// SendReminder is skipped for bookings that are no longer confirmed.
func (e *DefaultBookingEngine) SendReminder(ctx context.Context, bookingID string) (notification.DeliveryReport, error) {
	b, err := e.Ledger.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			return notification.DeliveryReport{}, nil
		}
		return notification.DeliveryReport{}, err
	}
	if b.Status != models.StatusConfirmed {
		e.logger().Debug("reminder skipped", zap.String("bookingId", b.ID), zap.String("status", string(b.Status)))
		return notification.DeliveryReport{}, nil
	}
	report := e.notify(ctx, "reminder", b)
	if report.Attempted > 0 && report.Delivered == 0 {
		return report, fmt.Errorf("reminder for booking %s not delivered: %s", b.ID, report)
	}
	return report, nil
}

// checkBookingID rejects blank and malformed ids before the store is queried.
func (e *DefaultBookingEngine) checkBookingID(op, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", e.reject(op, newError(CodeValidation, MsgBookingIDRequired))
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", e.reject(op, newError(CodeValidation, MsgInvalidBookingID))
	}
	return id, nil
}

func (e *DefaultBookingEngine) load(ctx context.Context, op, id string) (*models.Booking, error) {
	b, err := e.Ledger.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			return nil, e.reject(op, newError(CodeNotFound, MsgBookingNotFound))
		}
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	return b, nil
}

// expireOnRead flips a lapsed hold to cancelled and reports the expiry.
func (e *DefaultBookingEngine) expireOnRead(ctx context.Context, op string, b *models.Booking, now time.Time) error {
	if _, err := e.Ledger.ExpireHold(ctx, b.ID, now); err == nil {
		e.Metrics.ObserveExpired(1)
	} else if !errors.Is(err, bookingRepo.ErrStaleState) {
		e.logger().Warn("failed to expire lapsed hold", zap.String("bookingId", b.ID), zap.Error(err))
	}
	return e.reject(op, newError(CodeExpiredHold, MsgExpired))
}

// mapTransitionError explains a lost conditional write from the current record.
func (e *DefaultBookingEngine) mapTransitionError(ctx context.Context, op, id string, now time.Time, err error) error {
	switch {
	case errors.Is(err, bookingRepo.ErrNotFound):
		return e.reject(op, newError(CodeNotFound, MsgBookingNotFound))
	case !errors.Is(err, bookingRepo.ErrStaleState):
		return fmt.Errorf("failed to update booking: %w", err)
	}
	current, getErr := e.load(ctx, op, id)
	if getErr != nil {
		return getErr
	}
	if current.HoldLapsed(now) {
		return e.expireOnRead(ctx, op, current, now)
	}
	if op == "cancel" {
		return e.reject(op, invalidState("Cannot cancel a %s booking", current.Status))
	}
	return e.reject(op, invalidState("Booking is already %s", current.Status))
}

func invalidState(format string, status models.BookingStatus) *BookingError {
	return newError(CodeInvalidState, fmt.Sprintf(format, status))
}

func (e *DefaultBookingEngine) notify(ctx context.Context, kind string, b *models.Booking) notification.DeliveryReport {
	if e.Notifications == nil {
		return notification.DeliveryReport{}
	}
	notice := notification.BookingNotice{
		DateLabel:   utils.FormatDateLabel(b.Date),
		TimeLabel:   b.Time,
		Timezone:    b.Timezone,
		SessionType: string(b.SessionType),
		Online:      b.SessionType.Online(),
		Topic:       b.Topic,
		JoinLink:    b.MeetingLink,
		Location:    b.Location,
		ManageLink:  e.ManageURL,
	}
	if e.Students != nil {
		if s, err := e.Students.GetByID(ctx, b.StudentID); err == nil {
			notice.StudentEmail, notice.StudentName = s.Email, s.Name
		} else {
			e.logger().Warn("student lookup for notification failed", zap.String("studentId", b.StudentID), zap.Error(err))
		}
	}
	if e.Therapists != nil {
		if t, err := e.Therapists.GetByID(ctx, b.TherapistID); err == nil {
			notice.TherapistEmail, notice.TherapistName = t.Email, t.Name
		} else {
			e.logger().Warn("therapist lookup for notification failed", zap.String("therapistId", b.TherapistID), zap.Error(err))
		}
	}

	var report notification.DeliveryReport
	if kind == "reminder" {
		report = e.Notifications.SendSessionReminder(ctx, notice)
	} else {
		report = e.Notifications.SendBookingConfirmation(ctx, notice)
	}
	e.Metrics.ObserveNotification(kind, report.Delivered, len(report.Failures))
	return report
}
