package completion

import (
	"time"

	"github.com/google/uuid"
)

// Record is one per-day completion mark for a habit.
// At most one record exists per (habit, date) pair; the table enforces it.
type Record struct {
	ID             uuid.UUID `json:"id" db:"id"`
	HabitID        uuid.UUID `json:"habit_id" db:"habit_id"`
	UserID         uuid.UUID `json:"user_id" db:"user_id"`
	CompletionDate time.Time `json:"completion_date" db:"completion_date"` // calendar date, zero time-of-day
	IsCompleted    bool      `json:"is_completed" db:"is_completed"`

	// StreakIncrement is the serial position of this completion within its
	// unbroken streak, assigned at write time and never recomputed.
	StreakIncrement int `json:"streak_increment" db:"streak_increment"`
	BonusPoints     int `json:"bonus_points" db:"bonus_points"`
}

// Day truncates t to its calendar date in t's own location.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
