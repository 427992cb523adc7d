package domain

import (
	"sort"
	"time"
)

// AvailabilityView is what the booking front-end renders a calendar from:
// taken slots plus every date that should show as unavailable. BlockedDates
// mixes admin-blocked days with public holidays; the two are indistinguishable
// here on purpose, the UI treats them the same.
type AvailabilityView struct {
	Appointments []Slot
	BlockedDates []time.Time
}

// ParseDate parses a calendar date in the wire format ("2006-01-02") and pins
// it to UTC midnight so (date, time) comparisons never depend on zone.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, s, time.UTC)
}

func FormatDate(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

// NormalizeDate truncates any timestamp to its UTC calendar date.
func NormalizeDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseSlotTime validates a slot code. Slots are opaque text as far as
// storage is concerned, but the clinic only ever issues "HH:MM" codes, so
// anything else in a request is a client bug.
func ParseSlotTime(s string) (string, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return "", err
	}
	return t.Format("15:04"), nil
}

// MergeBlockedDates unions admin-blocked days with holiday dates, collapsing
// duplicates and returning the result in ascending order so responses are
// stable across calls.
func MergeBlockedDates(blocked, holidays []time.Time) []time.Time {
	seen := make(map[string]time.Time, len(blocked)+len(holidays))
	for _, d := range blocked {
		nd := NormalizeDate(d)
		seen[FormatDate(nd)] = nd
	}
	for _, d := range holidays {
		nd := NormalizeDate(d)
		seen[FormatDate(nd)] = nd
	}

	out := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
