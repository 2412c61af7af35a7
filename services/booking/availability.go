package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	therapistRepo "manmitra/database/repository/therapist"
	"manmitra/models"
	"manmitra/utils"
)

const (
	reasonNotInDaily   = "Selected time is not in therapist's daily availability"
	reasonNoDateEntry  = "Therapist is not available on the selected date"
	reasonNotInDateDay = "Selected time is not in therapist's availability"
)

// SlotOffer is the gate's verdict on one slot.
type SlotOffer struct {
	Offered bool
	Reason  string
}

// AvailabilityGate decides whether a therapist offers a slot.
type AvailabilityGate interface {
	IsSlotOffered(ctx context.Context, therapistID string, date time.Time, timeLabel string) (SlotOffer, error)
}

// ScheduleGate reads schedules from the therapist store.
type ScheduleGate struct {
	Therapists therapistRepo.TherapistRepository
}

func NewScheduleGate(repo therapistRepo.TherapistRepository) *ScheduleGate {
	return &ScheduleGate{Therapists: repo}
}

func (g *ScheduleGate) IsSlotOffered(ctx context.Context, therapistID string, date time.Time, timeLabel string) (SlotOffer, error) {
	t, err := g.Therapists.GetByID(ctx, therapistID)
	if err != nil {
		if errors.Is(err, therapistRepo.ErrNotFound) {
			return SlotOffer{}, newError(CodeNotFound, MsgTherapistNotFound)
		}
		return SlotOffer{}, fmt.Errorf("failed to load therapist schedule: %w", err)
	}
	return ScheduleOffers(t, date, timeLabel), nil
}

// ScheduleOffers applies the schedule rules to an already loaded therapist.
// A non-empty DailyTimes list is authoritative for every date; the per-date
// Availability list is only consulted when it is empty.
func ScheduleOffers(t *models.Therapist, date time.Time, timeLabel string) SlotOffer {
	want, err := utils.CanonicalizeLabel(timeLabel)
	if err != nil {
		want = strings.TrimSpace(timeLabel)
	}

	if len(t.DailyTimes) > 0 {
		if containsLabel(t.DailyTimes, want) {
			return SlotOffer{Offered: true}
		}
		return SlotOffer{Reason: reasonNotInDaily}
	}

	for _, entry := range t.Availability {
		if !utils.SameUTCDay(entry.Date, date) || len(entry.Times) == 0 {
			continue
		}
		if containsLabel(entry.Times, want) {
			return SlotOffer{Offered: true}
		}
		return SlotOffer{Reason: reasonNotInDateDay}
	}
	return SlotOffer{Reason: reasonNoDateEntry}
}

func containsLabel(labels []string, want string) bool {
	for _, l := range labels {
		c, err := utils.CanonicalizeLabel(l)
		if err != nil {
			c = strings.TrimSpace(l)
		}
		if strings.EqualFold(c, want) {
			return true
		}
	}
	return false
}
