package habit

import (
	"time"

	"github.com/google/uuid"
)

type ScheduleKind string

const (
	ScheduleDaily  ScheduleKind = "daily"  // fires every day
	ScheduleWeekly ScheduleKind = "weekly" // fires on Mondays
	ScheduleCustom ScheduleKind = "custom" // explicit weekday set + time of day
)

// ValidScheduleKind reports whether s is one of the three supported kinds.
func ValidScheduleKind(s string) bool {
	switch ScheduleKind(s) {
	case ScheduleDaily, ScheduleWeekly, ScheduleCustom:
		return true
	}
	return false
}

type Habit struct {
	ID           uuid.UUID    `json:"id" db:"id"`
	UserID       uuid.UUID    `json:"user_id" db:"user_id"`
	Name         string       `json:"name" db:"name"`
	Description  string       `json:"description,omitempty" db:"description"`
	ScheduleKind ScheduleKind `json:"schedule_kind" db:"schedule_kind"`
	IsActive     bool         `json:"is_active" db:"is_active"`
	BasePoints   int          `json:"base_points" db:"base_points"`

	// Populated only when ScheduleKind == ScheduleCustom.
	CustomDays      string `json:"custom_days,omitempty" db:"custom_days"`           // comma-separated day tokens, e.g. "пн,ср,пт"
	CustomTime      string `json:"custom_time,omitempty" db:"custom_time"`           // "HH:MM" in the habit's timezone
	CustomFrequency int    `json:"custom_frequency,omitempty" db:"custom_frequency"` // every N days, 1 = every scheduled day

	Timezone  string    `json:"timezone" db:"timezone"` // IANA name, e.g. "Europe/Moscow"
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type CreateHabitRequest struct {
	Name            string       `json:"name"`
	Description     string       `json:"description"`
	ScheduleKind    ScheduleKind `json:"schedule_kind"`
	CustomDays      string       `json:"custom_days"`
	CustomTime      string       `json:"custom_time"`
	CustomFrequency int          `json:"custom_frequency"`
	Timezone        string       `json:"timezone"`
}

// HabitWithStatus is a list-view row: the habit plus its state for today.
type HabitWithStatus struct {
	Habit
	CompletedToday bool `json:"completed_today"`
	CurrentStreak  int  `json:"current_streak"`
}

// HabitStats aggregates completion history for the /stats command.
type HabitStats struct {
	Habit            Habit `json:"habit"`
	CompletedToday   bool  `json:"completed_today"`
	CurrentStreak    int   `json:"current_streak"`
	WeekCompletions  int   `json:"week_completions"`
	TotalCompletions int   `json:"total_completions"`
}
