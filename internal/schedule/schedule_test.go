package schedule

import (
	"testing"
	"time"

	"habitQuestBot/internal/types/habit"
)

// moscow is UTC+3 year-round.
func moscowUTC(y int, m time.Month, d, hour, min int) time.Time {
	loc, _ := time.LoadLocation("Europe/Moscow")
	return time.Date(y, m, d, hour, min, 0, 0, loc).UTC()
}

func TestLoadLocationFallback(t *testing.T) {
	if LoadLocation("Mars/Olympus_Mons").String() != DefaultTimezone {
		t.Errorf("unknown zone should fall back to %s", DefaultTimezone)
	}
	if LoadLocation("").String() != DefaultTimezone {
		t.Errorf("empty zone should fall back to %s", DefaultTimezone)
	}
	if LoadLocation("Asia/Tokyo").String() != "Asia/Tokyo" {
		t.Errorf("valid zone should load as-is")
	}
}

func TestIsScheduledTodayDaily(t *testing.T) {
	h := habit.Habit{ScheduleKind: habit.ScheduleDaily, Timezone: "Europe/Moscow"}
	for d := 0; d < 7; d++ {
		now := moscowUTC(2025, 6, 9+d, 12, 0)
		if !IsScheduledToday(h, now) {
			t.Errorf("daily habit not scheduled on day offset %d", d)
		}
	}
}

func TestIsScheduledTodayWeekly(t *testing.T) {
	h := habit.Habit{ScheduleKind: habit.ScheduleWeekly, Timezone: "Europe/Moscow"}
	monday := moscowUTC(2025, 6, 9, 12, 0) // 2025-06-09 is a Monday
	if !IsScheduledToday(h, monday) {
		t.Error("weekly habit should be scheduled on Monday")
	}
	tuesday := moscowUTC(2025, 6, 10, 12, 0)
	if IsScheduledToday(h, tuesday) {
		t.Error("weekly habit should not be scheduled on Tuesday")
	}
}

func TestIsScheduledTodayCustomDaySet(t *testing.T) {
	h := habit.Habit{
		ScheduleKind: habit.ScheduleCustom,
		CustomDays:   "пн,ср,пт",
		Timezone:     "Europe/Moscow",
	}
	if !IsScheduledToday(h, moscowUTC(2025, 6, 9, 10, 0)) { // Monday
		t.Error("custom habit should fire on a listed day")
	}
	if IsScheduledToday(h, moscowUTC(2025, 6, 10, 10, 0)) { // Tuesday
		t.Error("custom habit should not fire on an unlisted day")
	}
}

func TestIsScheduledTodayEmptyDaySetMeansEveryDay(t *testing.T) {
	h := habit.Habit{ScheduleKind: habit.ScheduleCustom, CustomDays: "", Timezone: "Europe/Moscow"}
	if !IsScheduledToday(h, moscowUTC(2025, 6, 10, 10, 0)) {
		t.Error("empty day set must mean every day")
	}
	garbage := habit.Habit{ScheduleKind: habit.ScheduleCustom, CustomDays: "xx, yy", Timezone: "Europe/Moscow"}
	if !IsScheduledToday(garbage, moscowUTC(2025, 6, 10, 10, 0)) {
		t.Error("a day set of only unknown tokens must degrade to every day")
	}
}

// The canonical scenario: Mon/Wed/Fri at 18:00 Europe/Moscow, tolerance 5.
func TestFireWindowScenario(t *testing.T) {
	tz := "Europe/Moscow"

	if WithinFireWindow("18:00", tz, moscowUTC(2025, 6, 9, 17, 59), 0) {
		t.Error("17:59 with zero tolerance should be outside the window")
	}
	if !WithinFireWindow("18:00", tz, moscowUTC(2025, 6, 9, 17, 59), 5) {
		t.Error("17:59 is inside a ±5 window") // one minute early
	}
	if !WithinFireWindow("18:00", tz, moscowUTC(2025, 6, 9, 18, 2), 5) {
		t.Error("18:02 is inside a ±5 window")
	}
	if WithinFireWindow("18:00", tz, moscowUTC(2025, 6, 9, 18, 6), 5) {
		t.Error("18:06 is outside a ±5 window")
	}
	if WithinFireWindow("18:00", tz, moscowUTC(2025, 6, 9, 12, 0), 5) {
		t.Error("noon is far outside the window")
	}

	h := habit.Habit{ScheduleKind: habit.ScheduleCustom, CustomDays: "пн,ср,пт", CustomTime: "18:00", Timezone: tz}
	if IsScheduledToday(h, moscowUTC(2025, 6, 10, 18, 0)) {
		t.Error("Tuesday is never scheduled regardless of time")
	}
}

func TestWithinFireWindowMalformedTime(t *testing.T) {
	now := moscowUTC(2025, 6, 9, 18, 0)
	for _, bad := range []string{"", "25:00", "18:61", "18", "ab:cd"} {
		if WithinFireWindow(bad, "Europe/Moscow", now, 5) {
			t.Errorf("malformed time %q must never be due", bad)
		}
	}
}

func TestWithinFireWindowTimezoneConversion(t *testing.T) {
	// 15:00 UTC is 18:00 in Moscow.
	now := time.Date(2025, 6, 9, 15, 0, 0, 0, time.UTC)
	if !WithinFireWindow("18:00", "Europe/Moscow", now, 5) {
		t.Error("15:00 UTC should hit an 18:00 Moscow window")
	}
	if WithinFireWindow("18:00", "UTC", now, 5) {
		t.Error("15:00 UTC should miss an 18:00 UTC window")
	}
}

func TestParseTimeOfDay(t *testing.T) {
	h, m, ok := ParseTimeOfDay("07:30")
	if !ok || h != 7 || m != 30 {
		t.Errorf("ParseTimeOfDay(07:30) = %d:%d ok=%v", h, m, ok)
	}
	if _, _, ok := ParseTimeOfDay("7:5:0"); ok {
		t.Error("three segments should not parse")
	}
}

func TestFrequencySatisfied(t *testing.T) {
	today := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	twoDaysAgo := today.AddDate(0, 0, -2)
	yesterday := today.AddDate(0, 0, -1)

	if !FrequencySatisfied(1, &yesterday, today) {
		t.Error("freq 1 is always satisfied")
	}
	if !FrequencySatisfied(3, nil, today) {
		t.Error("never-completed habit is always due")
	}
	if FrequencySatisfied(3, &twoDaysAgo, today) {
		t.Error("freq 3 with a completion 2 days ago is not yet due")
	}
	threeDaysAgo := today.AddDate(0, 0, -3)
	if !FrequencySatisfied(3, &threeDaysAgo, today) {
		t.Error("freq 3 with a completion 3 days ago is due again")
	}
}
