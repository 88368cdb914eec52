package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"habitQuestBot/internal/points"
	"habitQuestBot/internal/streak"
	"habitQuestBot/internal/types/completion"
	"habitQuestBot/internal/types/habit"
	"habitQuestBot/internal/types/user"
)

type HabitService struct {
	db *pgxpool.Pool
}

func NewHabitService(db *pgxpool.Pool) *HabitService {
	return &HabitService{db: db}
}

const habitColumns = `id, user_id, name, description, schedule_kind, is_active, base_points,
	custom_days, custom_time, custom_frequency, timezone, created_at`

func scanHabit(row pgx.Row) (*habit.Habit, error) {
	h := &habit.Habit{}
	err := row.Scan(
		&h.ID,
		&h.UserID,
		&h.Name,
		&h.Description,
		&h.ScheduleKind,
		&h.IsActive,
		&h.BasePoints,
		&h.CustomDays,
		&h.CustomTime,
		&h.CustomFrequency,
		&h.Timezone,
		&h.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (s *HabitService) CreateHabit(ctx context.Context, userID uuid.UUID, req *habit.CreateHabitRequest) (*habit.Habit, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("habit name must not be empty")
	}
	if !habit.ValidScheduleKind(string(req.ScheduleKind)) {
		return nil, fmt.Errorf("unknown schedule kind %q", req.ScheduleKind)
	}

	// Custom schedule fields live only on custom habits.
	customDays, customTime := "", ""
	customFrequency := 1
	if req.ScheduleKind == habit.ScheduleCustom {
		customDays = req.CustomDays
		customTime = req.CustomTime
		if req.CustomFrequency > 1 {
			customFrequency = req.CustomFrequency
		}
	}

	tz := req.Timezone
	if tz == "" {
		tz = user.DefaultTimezone
	}

	query := `
	INSERT INTO habits (id, user_id, name, description, schedule_kind, is_active, base_points,
		custom_days, custom_time, custom_frequency, timezone, created_at)
	VALUES ($1, $2, $3, $4, $5, TRUE, $6, $7, $8, $9, $10, $11)
	RETURNING ` + habitColumns

	h, err := scanHabit(s.db.QueryRow(
		ctx,
		query,
		uuid.New(),
		userID,
		req.Name,
		req.Description,
		req.ScheduleKind,
		points.DefaultBasePoints,
		customDays,
		customTime,
		customFrequency,
		tz,
		time.Now(),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create habit: %w", err)
	}
	return h, nil
}

// GetUserHabits returns the user's active habits, oldest first (the list
// order doubles as the /complete numbering, so it must be stable).
func (s *HabitService) GetUserHabits(ctx context.Context, userID uuid.UUID) ([]habit.Habit, error) {
	query := `SELECT ` + habitColumns + ` FROM habits WHERE user_id = $1 AND is_active = TRUE ORDER BY created_at ASC`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query habits: %w", err)
	}
	defer rows.Close()

	var habits []habit.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan habit: %w", err)
		}
		habits = append(habits, *h)
	}
	return habits, rows.Err()
}

// GetHabitByID returns nil (no error) when the habit does not exist.
func (s *HabitService) GetHabitByID(ctx context.Context, habitID uuid.UUID) (*habit.Habit, error) {
	query := `SELECT ` + habitColumns + ` FROM habits WHERE id = $1`
	h, err := scanHabit(s.db.QueryRow(ctx, query, habitID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get habit %s: %w", habitID, err)
	}
	return h, nil
}

func (s *HabitService) SetActive(ctx context.Context, habitID uuid.UUID, active bool) error {
	if _, err := s.db.Exec(ctx, `UPDATE habits SET is_active = $1 WHERE id = $2`, active, habitID); err != nil {
		return fmt.Errorf("failed to toggle habit %s: %w", habitID, err)
	}
	return nil
}

// DeleteHabit removes the habit; its completions go with it via cascade.
func (s *HabitService) DeleteHabit(ctx context.Context, habitID uuid.UUID) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM habits WHERE id = $1`, habitID); err != nil {
		return fmt.Errorf("failed to delete habit %s: %w", habitID, err)
	}
	return nil
}

// CompletionsForHabit returns the habit's full completion history, oldest
// first.
func (s *HabitService) CompletionsForHabit(ctx context.Context, habitID uuid.UUID) ([]completion.Record, error) {
	query := `
	SELECT id, habit_id, user_id, completion_date, is_completed, streak_increment, bonus_points
	FROM habit_completions
	WHERE habit_id = $1
	ORDER BY completion_date ASC`

	rows, err := s.db.Query(ctx, query, habitID)
	if err != nil {
		return nil, fmt.Errorf("failed to query completions: %w", err)
	}
	defer rows.Close()

	var records []completion.Record
	for rows.Next() {
		var r completion.Record
		if err := rows.Scan(&r.ID, &r.HabitID, &r.UserID, &r.CompletionDate, &r.IsCompleted, &r.StreakIncrement, &r.BonusPoints); err != nil {
			return nil, fmt.Errorf("failed to scan completion: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// CompleteResult is what one completion attempt produced.
type CompleteResult struct {
	AlreadyDone     bool
	StreakIncrement int
	PointsEarned    int
	CurrentStreak   int
	LongestStreak   int
}

// CompleteHabit marks the habit done for today. The increment is computed
// from stored history at write time; re-completing the same day is a
// no-op success (AlreadyDone) and must not double-award points. This is
// not one transaction: a crash after the upsert leaves a completion
// without its points, which the design accepts.
func (s *HabitService) CompleteHabit(ctx context.Context, h *habit.Habit, userID uuid.UUID, today time.Time) (*CompleteResult, error) {
	records, err := s.CompletionsForHabit(ctx, h.ID)
	if err != nil {
		return nil, err
	}

	day := completion.Day(today)
	for _, r := range records {
		if r.IsCompleted && completion.SameDay(r.CompletionDate, day) {
			return &CompleteResult{
				AlreadyDone:     true,
				StreakIncrement: r.StreakIncrement,
				CurrentStreak:   streak.CurrentStreak(records, day),
				LongestStreak:   streak.LongestStreak(records),
			}, nil
		}
	}

	inc := streak.NextIncrement(records, day)
	earned := points.ForCompletion(h.BasePoints, inc)
	bonus := earned - h.BasePoints

	// The unique (habit_id, completion_date) constraint resolves races:
	// a concurrent second writer lands on the conflict branch and the
	// record stays single.
	query := `
	INSERT INTO habit_completions (id, habit_id, user_id, completion_date, is_completed, streak_increment, bonus_points)
	VALUES ($1, $2, $3, $4, TRUE, $5, $6)
	ON CONFLICT (habit_id, completion_date) DO UPDATE
		SET is_completed = TRUE,
		    streak_increment = EXCLUDED.streak_increment,
		    bonus_points = EXCLUDED.bonus_points`
	if _, err := s.db.Exec(ctx, query, uuid.New(), h.ID, userID, day, inc, bonus); err != nil {
		return nil, fmt.Errorf("failed to record completion: %w", err)
	}

	updated := append(records, completion.Record{
		HabitID:         h.ID,
		UserID:          userID,
		CompletionDate:  day,
		IsCompleted:     true,
		StreakIncrement: inc,
	})

	return &CompleteResult{
		StreakIncrement: inc,
		PointsEarned:    earned,
		CurrentStreak:   streak.CurrentStreak(updated, day),
		LongestStreak:   streak.LongestStreak(updated),
	}, nil
}

// HabitsWithStatus decorates the user's habits with their today-state for
// the /habits and /complete listings.
func (s *HabitService) HabitsWithStatus(ctx context.Context, userID uuid.UUID, today time.Time) ([]habit.HabitWithStatus, error) {
	habits, err := s.GetUserHabits(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]habit.HabitWithStatus, 0, len(habits))
	for _, h := range habits {
		records, err := s.CompletionsForHabit(ctx, h.ID)
		if err != nil {
			return nil, err
		}
		day := completion.Day(today)
		item := habit.HabitWithStatus{Habit: h, CurrentStreak: streak.CurrentStreak(records, day)}
		for _, r := range records {
			if r.IsCompleted && completion.SameDay(r.CompletionDate, day) {
				item.CompletedToday = true
				break
			}
		}
		out = append(out, item)
	}
	return out, nil
}

// UserStats aggregates per-habit history for the /stats command.
func (s *HabitService) UserStats(ctx context.Context, userID uuid.UUID, today time.Time) ([]habit.HabitStats, error) {
	habits, err := s.GetUserHabits(ctx, userID)
	if err != nil {
		return nil, err
	}

	day := completion.Day(today)
	weekStart := day.AddDate(0, 0, -6)

	out := make([]habit.HabitStats, 0, len(habits))
	for _, h := range habits {
		records, err := s.CompletionsForHabit(ctx, h.ID)
		if err != nil {
			return nil, err
		}

		st := habit.HabitStats{Habit: h, CurrentStreak: streak.CurrentStreak(records, day)}
		for _, r := range records {
			if !r.IsCompleted {
				continue
			}
			st.TotalCompletions++
			d := completion.Day(r.CompletionDate)
			if !d.Before(weekStart) && !d.After(day) {
				st.WeekCompletions++
			}
			if completion.SameDay(d, day) {
				st.CompletedToday = true
			}
		}
		out = append(out, st)
	}
	return out, nil
}

// ScanCandidate is one (user, habit) pair the reminder scanner evaluates,
// joined with the completion state it needs to decide eligibility.
type ScanCandidate struct {
	User           user.User
	Habit          habit.Habit
	CompletedDates []time.Time // completed dates inside the scan window
	LastCompleted  *time.Time  // most recent completed date ever, for the frequency gate
}

// ActiveHabitsForScan is the single range query behind each scanner tick:
// every active habit of every user, joined with completed records inside
// [windowFrom, windowTo] so the scanner can resolve "today" per timezone
// in Go.
func (s *HabitService) ActiveHabitsForScan(ctx context.Context, windowFrom, windowTo time.Time) ([]ScanCandidate, error) {
	query := `
	SELECT ` + prefixColumns("u", userColumns) + `,
	       ` + prefixColumns("h", habitColumns) + `,
	       c.completion_date,
	       (SELECT MAX(c2.completion_date) FROM habit_completions c2
	        WHERE c2.habit_id = h.id AND c2.is_completed) AS last_completed
	FROM habits h
	JOIN users u ON u.id = h.user_id
	LEFT JOIN habit_completions c
	  ON c.habit_id = h.id
	 AND c.is_completed = TRUE
	 AND c.completion_date BETWEEN $1 AND $2
	WHERE h.is_active = TRUE
	ORDER BY u.id, h.id`

	rows, err := s.db.Query(ctx, query, windowFrom, windowTo)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan candidates: %w", err)
	}
	defer rows.Close()

	byHabit := make(map[uuid.UUID]*ScanCandidate)
	var order []uuid.UUID

	for rows.Next() {
		var u user.User
		var h habit.Habit
		var completedOn *time.Time
		var lastCompleted *time.Time

		err := rows.Scan(
			&u.ID, &u.TelegramID, &u.Username, &u.FirstName, &u.LastName,
			&u.Points, &u.Level, &u.CurrentStreak, &u.LongestStreak,
			&u.ReminderCadence, &u.Timezone, &u.CreatedAt,
			&h.ID, &h.UserID, &h.Name, &h.Description, &h.ScheduleKind,
			&h.IsActive, &h.BasePoints, &h.CustomDays, &h.CustomTime,
			&h.CustomFrequency, &h.Timezone, &h.CreatedAt,
			&completedOn, &lastCompleted,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate row: %w", err)
		}

		cand, ok := byHabit[h.ID]
		if !ok {
			cand = &ScanCandidate{User: u, Habit: h, LastCompleted: lastCompleted}
			byHabit[h.ID] = cand
			order = append(order, h.ID)
		}
		if completedOn != nil {
			cand.CompletedDates = append(cand.CompletedDates, *completedOn)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan candidate rows: %w", err)
	}

	out := make([]ScanCandidate, 0, len(order))
	for _, id := range order {
		out = append(out, *byHabit[id])
	}
	return out, nil
}

// prefixColumns turns "a, b,\n c" into "t.a, t.b, t.c".
func prefixColumns(table, columns string) string {
	parts := ""
	for i, col := range splitColumns(columns) {
		if i > 0 {
			parts += ", "
		}
		parts += table + "." + col
	}
	return parts
}

func splitColumns(columns string) []string {
	var out []string
	field := ""
	for _, r := range columns {
		switch r {
		case ',':
			out = append(out, field)
			field = ""
		case ' ', '\t', '\n':
			// skip
		default:
			field += string(r)
		}
	}
	if field != "" {
		out = append(out, field)
	}
	return out
}
