package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"habitQuestBot/internal/types/user"
)

type UserService struct {
	db *pgxpool.Pool
}

func NewUserService(db *pgxpool.Pool) *UserService {
	return &UserService{db: db}
}

const userColumns = `id, telegram_id, username, first_name, last_name, points, level,
	current_streak, longest_streak, reminder_cadence, timezone, created_at`

func scanUser(row pgx.Row) (*user.User, error) {
	u := &user.User{}
	err := row.Scan(
		&u.ID,
		&u.TelegramID,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.Points,
		&u.Level,
		&u.CurrentStreak,
		&u.LongestStreak,
		&u.ReminderCadence,
		&u.Timezone,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetOrCreateUser registers a user lazily on first interaction. Repeated
// calls refresh the display fields Telegram reported.
func (s *UserService) GetOrCreateUser(ctx context.Context, telegramID int64, username, firstName, lastName string) (*user.User, error) {
	query := `
	INSERT INTO users (id, telegram_id, username, first_name, last_name, reminder_cadence, timezone, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (telegram_id) DO UPDATE
		SET username = EXCLUDED.username,
		    first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name
	RETURNING ` + userColumns

	u, err := scanUser(s.db.QueryRow(
		ctx,
		query,
		uuid.New(),
		telegramID,
		username,
		firstName,
		lastName,
		user.CadenceEvening,
		user.DefaultTimezone,
		time.Now(),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to get or create user %d: %w", telegramID, err)
	}
	return u, nil
}

// GetByTelegramID returns nil (no error) when the user does not exist.
func (s *UserService) GetByTelegramID(ctx context.Context, telegramID int64) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE telegram_id = $1`
	u, err := scanUser(s.db.QueryRow(ctx, query, telegramID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user %d: %w", telegramID, err)
	}
	return u, nil
}

func (s *UserService) UpdateCadence(ctx context.Context, userID uuid.UUID, cadence user.Cadence) error {
	if !user.ValidCadence(string(cadence)) {
		return fmt.Errorf("unknown cadence %q", cadence)
	}
	_, err := s.db.Exec(ctx, `UPDATE users SET reminder_cadence = $1 WHERE id = $2`, cadence, userID)
	if err != nil {
		return fmt.Errorf("failed to update cadence: %w", err)
	}
	return nil
}

// UpdateTimezone stores a timezone name without validating it against the
// tz database: the schedule resolver falls back safely on bad names, and
// rejecting here would strand users whose zone spelling we do not know.
func (s *UserService) UpdateTimezone(ctx context.Context, userID uuid.UUID, timezone string) error {
	if timezone == "" {
		timezone = user.DefaultTimezone
	}
	_, err := s.db.Exec(ctx, `UPDATE users SET timezone = $1 WHERE id = $2`, timezone, userID)
	if err != nil {
		return fmt.Errorf("failed to update timezone: %w", err)
	}
	return nil
}

// RefreshStreakSnapshot updates the denormalized streak fields. These are
// a display cache; the values must come from a fresh streak computation.
func (s *UserService) RefreshStreakSnapshot(ctx context.Context, userID uuid.UUID, current, longest int) error {
	query := `
	UPDATE users
	SET current_streak = $1,
	    longest_streak = GREATEST(longest_streak, $2)
	WHERE id = $3`
	if _, err := s.db.Exec(ctx, query, current, longest, userID); err != nil {
		return fmt.Errorf("failed to refresh streak snapshot: %w", err)
	}
	return nil
}

// Leaderboard returns the top users by points.
func (s *UserService) Leaderboard(ctx context.Context, limit int) ([]user.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `
	SELECT username, first_name, points, level
	FROM users
	ORDER BY points DESC, created_at ASC
	LIMIT $1`

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []user.LeaderboardEntry
	rank := 0
	for rows.Next() {
		rank++
		e := user.LeaderboardEntry{Rank: rank}
		if err := rows.Scan(&e.Username, &e.FirstName, &e.Points, &e.Level); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// RegisterDeviceToken stores a companion-app push token.
func (s *UserService) RegisterDeviceToken(ctx context.Context, userID uuid.UUID, token, platform string) error {
	if platform == "" {
		platform = "android"
	}
	query := `
	INSERT INTO device_tokens (user_id, token, platform)
	VALUES ($1, $2, $3)
	ON CONFLICT (user_id, token) DO UPDATE SET platform = EXCLUDED.platform`
	if _, err := s.db.Exec(ctx, query, userID, token, platform); err != nil {
		return fmt.Errorf("failed to register device token: %w", err)
	}
	return nil
}

func (s *UserService) GetDeviceTokens(ctx context.Context, userID uuid.UUID) ([]user.DeviceToken, error) {
	rows, err := s.db.Query(ctx, `SELECT user_id, token, platform FROM device_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query device tokens: %w", err)
	}
	defer rows.Close()

	var tokens []user.DeviceToken
	for rows.Next() {
		var t user.DeviceToken
		if err := rows.Scan(&t.UserID, &t.Token, &t.Platform); err != nil {
			return nil, fmt.Errorf("failed to scan device token: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}
