package user

import (
	"time"

	"github.com/google/uuid"
)

// Cadence controls how often reminder ticks may reach a user,
// independently of per-habit scheduling.
type Cadence string

const (
	CadenceEvery5   Cadence = "*/5"      // every 5 minutes (local minute % 5 == 0)
	CadenceEvery15  Cadence = "*/15"     // every 15 minutes
	CadenceEvery30  Cadence = "*/30"     // every 30 minutes
	CadenceHourly   Cadence = "hourly"   // top of every hour
	CadenceMidnight Cadence = "midnight" // once at local 00:00
	CadenceEvening  Cadence = "evening"  // once at local 18:00 (default)
)

// ValidCadence reports whether c is a supported cadence selector.
func ValidCadence(c string) bool {
	switch Cadence(c) {
	case CadenceEvery5, CadenceEvery15, CadenceEvery30, CadenceHourly, CadenceMidnight, CadenceEvening:
		return true
	}
	return false
}

const DefaultTimezone = "Europe/Moscow"

type User struct {
	ID         uuid.UUID `json:"id" db:"id"`
	TelegramID int64     `json:"telegram_id" db:"telegram_id"`
	Username   string    `json:"username,omitempty" db:"username"`
	FirstName  string    `json:"first_name,omitempty" db:"first_name"`
	LastName   string    `json:"last_name,omitempty" db:"last_name"`

	Points int `json:"points" db:"points"`
	Level  int `json:"level" db:"level"` // derived: points/100 + 1

	// Denormalized snapshots, refreshed after completions. Display only:
	// the streak engine always recomputes from completion history.
	CurrentStreak int `json:"current_streak" db:"current_streak"`
	LongestStreak int `json:"longest_streak" db:"longest_streak"`

	ReminderCadence Cadence   `json:"reminder_cadence" db:"reminder_cadence"`
	Timezone        string    `json:"timezone" db:"timezone"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// DisplayName picks the friendliest non-empty name for outbound messages.
func (u *User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	if u.Username != "" {
		return u.Username
	}
	return "пользователь"
}

type LevelInfo struct {
	Level              int `json:"level"`
	Points             int `json:"points"`
	PointsForNextLevel int `json:"points_for_next_level"`
}

type LeaderboardEntry struct {
	Rank      int    `json:"rank"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	Points    int    `json:"points"`
	Level     int    `json:"level"`
}

type DeviceToken struct {
	UserID   uuid.UUID `json:"user_id" db:"user_id"`
	Token    string    `json:"token" db:"token"`
	Platform string    `json:"platform" db:"platform"`
}
