package therapist

import (
	"strings"
	"time"

	"manmitra/models"
	"manmitra/utils"
)

// NormalizeDailyTimes canonicalizes labels, drops invalid ones and removes
// duplicates while keeping the first occurrence's position.
func NormalizeDailyTimes(raw []string) []string {
	out := []string{}
	seen := make(map[string]bool, len(raw))
	for _, r := range raw {
		label, err := utils.CanonicalizeLabel(r)
		if err != nil || seen[label] {
			continue
		}
		seen[label] = true
		out = append(out, label)
	}
	return out
}

// NormalizeAvailability turns raw per-date entries into UTC-midnight dates
// with canonical labels. Entries without a readable date are dropped.
func NormalizeAvailability(raw []models.AvailabilityInputDTO) []models.DateAvailability {
	out := []models.DateAvailability{}
	for _, entry := range raw {
		date, ok := parseAvailabilityDate(entry.Date)
		if !ok {
			continue
		}
		out = append(out, models.DateAvailability{
			Date:  date,
			Times: NormalizeDailyTimes(entry.Times),
		})
	}
	return out
}

// parseAvailabilityDate accepts a calendar date or a full RFC 3339 timestamp.
func parseAvailabilityDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if d, err := utils.ParseCalendarDate(raw); err == nil {
		return d, true
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return utils.TruncateToUTCDay(ts), true
	}
	return time.Time{}, false
}
