// Package schedule decides whether a habit is due: day membership
// (is today a scheduled day) and proximity (is now inside the fire window).
// All decisions are made in the subject's local timezone.
package schedule

import (
	"strconv"
	"strings"
	"time"

	"habitQuestBot/internal/types/habit"
)

// DefaultTimezone is used whenever a stored timezone name is empty or
// fails to load. A bad timezone must never fail the whole scan.
const DefaultTimezone = "Europe/Moscow"

// DefaultToleranceMinutes is the half-width of the fire window.
const DefaultToleranceMinutes = 5

// dayTokens maps time.Weekday to the short tokens stored on custom
// schedules ("пн" = Monday ... "вс" = Sunday).
var dayTokens = map[time.Weekday]string{
	time.Monday:    "пн",
	time.Tuesday:   "вт",
	time.Wednesday: "ср",
	time.Thursday:  "чт",
	time.Friday:    "пт",
	time.Saturday:  "сб",
	time.Sunday:    "вс",
}

// DayToken returns the stored short token for a weekday.
func DayToken(d time.Weekday) string {
	return dayTokens[d]
}

// ValidDayToken reports whether s is one of the seven stored tokens.
func ValidDayToken(s string) bool {
	for _, tok := range dayTokens {
		if tok == s {
			return true
		}
	}
	return false
}

// LoadLocation resolves an IANA timezone name, falling back to
// DefaultTimezone and finally UTC rather than returning an error.
func LoadLocation(name string) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsScheduledToday reports whether the habit is scheduled on the current
// local day. Daily habits always are; weekly habits on Mondays; custom
// habits when the local weekday token is in the stored day set. An empty
// day set on a custom habit means "every day", not "never".
func IsScheduledToday(h habit.Habit, nowUTC time.Time) bool {
	local := nowUTC.In(LoadLocation(h.Timezone))

	switch h.ScheduleKind {
	case habit.ScheduleDaily:
		return true
	case habit.ScheduleWeekly:
		return local.Weekday() == time.Monday
	case habit.ScheduleCustom:
		days := ParseDaySet(h.CustomDays)
		if len(days) == 0 {
			return true
		}
		_, ok := days[DayToken(local.Weekday())]
		return ok
	}
	return false
}

// ParseDaySet splits a stored "пн,ср,пт" day list into a set, dropping
// whitespace and unknown tokens.
func ParseDaySet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, part := range strings.Split(s, ",") {
		tok := strings.TrimSpace(part)
		if ValidDayToken(tok) {
			set[tok] = struct{}{}
		}
	}
	return set
}

// WithinFireWindow reports whether local now is inside the symmetric
// tolerance band around the scheduled "HH:MM". Comparison is done on
// minute-of-day integers, so no date arithmetic is involved. A malformed
// time string is treated as "no window" (never due).
func WithinFireWindow(timeOfDay, timezone string, nowUTC time.Time, toleranceMinutes int) bool {
	hour, minute, ok := ParseTimeOfDay(timeOfDay)
	if !ok {
		return false
	}

	local := nowUTC.In(LoadLocation(timezone))
	nowMinutes := local.Hour()*60 + local.Minute()
	wantMinutes := hour*60 + minute

	diff := nowMinutes - wantMinutes
	if diff < 0 {
		diff = -diff
	}
	return diff <= toleranceMinutes
}

// ParseTimeOfDay parses "HH:MM" (also accepts "H:MM").
func ParseTimeOfDay(s string) (hour, minute int, ok bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}

// FrequencySatisfied applies the "every N days" multiplier on custom
// schedules: with freq > 1 the habit becomes due again only once the most
// recent completed date is at least freq days before the local today.
// A habit never completed is always due.
func FrequencySatisfied(freq int, lastCompleted *time.Time, localToday time.Time) bool {
	if freq <= 1 || lastCompleted == nil {
		return true
	}
	last := time.Date(lastCompleted.Year(), lastCompleted.Month(), lastCompleted.Day(), 0, 0, 0, 0, time.UTC)
	today := time.Date(localToday.Year(), localToday.Month(), localToday.Day(), 0, 0, 0, 0, time.UTC)
	return int(today.Sub(last).Hours()/24) >= freq
}
