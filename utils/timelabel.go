package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidTimeLabel is returned for labels that are not "H:MM AM/PM".
	ErrInvalidTimeLabel = errors.New("invalid time label (expected H:MM AM/PM)")
	// ErrInvalidDate is returned for dates that are not a real YYYY-MM-DD day.
	ErrInvalidDate = errors.New("invalid date (expected YYYY-MM-DD)")
)

// Allows spaces around ":" and before the meridiem, any case.
var timeLabelPattern = regexp.MustCompile(`^\s*(\d{1,2})\s*:\s*(\d{2})\s*([APap][Mm])\s*$`)

var calendarDatePattern = regexp.MustCompile(`^[0-9]{4}-[0-9]{2}-[0-9]{2}$`)

// TimeOfDay is a 24-hour clock reading parsed from a display label.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// Minutes returns minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// ParseTimeLabel converts "10:00 AM" style labels into a 24-hour TimeOfDay.
func ParseTimeLabel(raw string) (TimeOfDay, error) {
	m := timeLabelPattern.FindStringSubmatch(raw)
	if m == nil {
		return TimeOfDay{}, ErrInvalidTimeLabel
	}
	h, _ := strconv.Atoi(m[1])
	mins, _ := strconv.Atoi(m[2])
	if h < 1 || h > 12 || mins < 0 || mins > 59 {
		return TimeOfDay{}, ErrInvalidTimeLabel
	}

	switch strings.ToUpper(m[3]) {
	case "PM":
		if h != 12 {
			h += 12
		}
	case "AM":
		if h == 12 {
			h = 0
		}
	}
	return TimeOfDay{Hour: h, Minute: mins}, nil
}

// CanonicalizeLabel normalizes spacing and case to "H:MM AM" without changing
// the value. The canonical form is the storage key for a time of day.
func CanonicalizeLabel(raw string) (string, error) {
	m := timeLabelPattern.FindStringSubmatch(raw)
	if m == nil {
		return "", ErrInvalidTimeLabel
	}
	h, _ := strconv.Atoi(m[1])
	mins, _ := strconv.Atoi(m[2])
	if h < 1 || h > 12 || mins > 59 {
		return "", ErrInvalidTimeLabel
	}
	return fmt.Sprintf("%d:%02d %s", h, mins, strings.ToUpper(m[3])), nil
}

// ParseCalendarDate parses a strict YYYY-MM-DD string into UTC midnight.
func ParseCalendarDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if !calendarDatePattern.MatchString(raw) {
		return time.Time{}, ErrInvalidDate
	}
	y, _ := strconv.Atoi(raw[0:4])
	m, _ := strconv.Atoi(raw[5:7])
	d, _ := strconv.Atoi(raw[8:10])
	if y == 0 || m < 1 || m > 12 || d < 1 {
		return time.Time{}, ErrInvalidDate
	}

	date := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (Feb 30 -> Mar 2), so round-trip the parts.
	if date.Year() != y || int(date.Month()) != m || date.Day() != d {
		return time.Time{}, ErrInvalidDate
	}
	return date, nil
}

// CombineDateAndTime applies a time label onto a date's UTC midnight.
func CombineDateAndTime(dateOnly time.Time, label string) (time.Time, error) {
	tod, err := ParseTimeLabel(label)
	if err != nil {
		return time.Time{}, err
	}
	d := dateOnly.UTC()
	return time.Date(d.Year(), d.Month(), d.Day(), tod.Hour, tod.Minute, 0, 0, time.UTC), nil
}

// TruncateToUTCDay returns the UTC midnight of the day containing t.
func TruncateToUTCDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// SameUTCDay reports whether a and b fall on the same UTC calendar day.
func SameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// FormatDateLabel renders a date-only value as YYYY-MM-DD.
func FormatDateLabel(dateOnly time.Time) string {
	return dateOnly.UTC().Format("2006-01-02")
}
