// Package db bootstraps the Postgres schema. Statements are idempotent so
// the bot can be pointed at an empty database and just run.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		telegram_id BIGINT UNIQUE NOT NULL,
		username VARCHAR(100) NOT NULL DEFAULT '',
		first_name VARCHAR(100) NOT NULL DEFAULT '',
		last_name VARCHAR(100) NOT NULL DEFAULT '',
		points INTEGER NOT NULL DEFAULT 0,
		level INTEGER NOT NULL DEFAULT 1,
		current_streak INTEGER NOT NULL DEFAULT 0,
		longest_streak INTEGER NOT NULL DEFAULT 0,
		reminder_cadence VARCHAR(20) NOT NULL DEFAULT 'evening',
		timezone VARCHAR(50) NOT NULL DEFAULT 'Europe/Moscow',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS habits (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name VARCHAR(200) NOT NULL,
		description VARCHAR(500) NOT NULL DEFAULT '',
		schedule_kind VARCHAR(20) NOT NULL DEFAULT 'daily',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		base_points INTEGER NOT NULL DEFAULT 10,
		custom_days VARCHAR(50) NOT NULL DEFAULT '',
		custom_time VARCHAR(10) NOT NULL DEFAULT '',
		custom_frequency INTEGER NOT NULL DEFAULT 1,
		timezone VARCHAR(50) NOT NULL DEFAULT 'Europe/Moscow',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_habits_user_active ON habits(user_id, is_active)`,

	`CREATE TABLE IF NOT EXISTS habit_completions (
		id UUID PRIMARY KEY,
		habit_id UUID NOT NULL REFERENCES habits(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		completion_date DATE NOT NULL,
		is_completed BOOLEAN NOT NULL DEFAULT FALSE,
		streak_increment INTEGER NOT NULL DEFAULT 0,
		bonus_points INTEGER NOT NULL DEFAULT 0,
		CONSTRAINT habit_date_uc UNIQUE (habit_id, completion_date)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_completions_habit_date ON habit_completions(habit_id, completion_date)`,

	`CREATE TABLE IF NOT EXISTS rewards (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		kind VARCHAR(20) NOT NULL,
		name VARCHAR(200) NOT NULL,
		description VARCHAR(500) NOT NULL DEFAULT '',
		awarded_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT reward_name_uc UNIQUE (user_id, kind, name)
	)`,

	`CREATE TABLE IF NOT EXISTS bug_reports (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		text VARCHAR(2000) NOT NULL,
		severity VARCHAR(20) NOT NULL DEFAULT 'medium',
		status VARCHAR(20) NOT NULL DEFAULT 'new',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bug_reports_status ON bug_reports(status, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS device_tokens (
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token VARCHAR(512) NOT NULL,
		platform VARCHAR(20) NOT NULL DEFAULT 'android',
		PRIMARY KEY (user_id, token)
	)`,
}

// EnsureSchema creates all tables and indexes if they do not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema bootstrap failed: %w", err)
		}
	}
	return nil
}
