package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"habitQuestBot/internal/points"
	"habitQuestBot/internal/types/reward"
)

type RewardService struct {
	db *pgxpool.Pool
}

func NewRewardService(db *pgxpool.Pool) *RewardService {
	return &RewardService{db: db}
}

// AwardResult reports what a single award call actually changed, so the
// handler can congratulate the user on exactly the new things.
type AwardResult struct {
	PointsAwarded int
	TotalPoints   int
	NewLevel      int           // 0 when no threshold was crossed
	NewBadge      *points.Badge // nil when none earned or already owned
}

// AwardPointsAndRewards adds points to the user, then evaluates level and
// badge effects. Levels are awarded once per transition; badges once per
// name, enforced by the rewards uniqueness constraint rather than by a
// read-then-write race.
func (s *RewardService) AwardPointsAndRewards(ctx context.Context, userID uuid.UUID, pointsToAdd, currentStreak int) (*AwardResult, error) {
	var totalPoints, currentLevel int
	err := s.db.QueryRow(
		ctx,
		`UPDATE users SET points = points + $1 WHERE id = $2 RETURNING points, level`,
		pointsToAdd, userID,
	).Scan(&totalPoints, &currentLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to add points for user %s: %w", userID, err)
	}

	result := &AwardResult{PointsAwarded: pointsToAdd, TotalPoints: totalPoints}
	fx := points.Evaluate(totalPoints, currentLevel, currentStreak)

	if fx.NewLevel > 0 {
		if _, err := s.db.Exec(ctx, `UPDATE users SET level = $1 WHERE id = $2`, fx.NewLevel, userID); err != nil {
			return nil, fmt.Errorf("failed to update level: %w", err)
		}
		awarded, err := s.insertReward(ctx, userID, reward.KindLevel,
			fmt.Sprintf("Уровень %d", fx.NewLevel),
			fmt.Sprintf("Достигнут уровень %d", fx.NewLevel))
		if err != nil {
			return nil, err
		}
		if awarded {
			result.NewLevel = fx.NewLevel
		}
	}

	if fx.Badge != nil {
		awarded, err := s.insertReward(ctx, userID, reward.KindBadge, fx.Badge.Name, fx.Badge.Description)
		if err != nil {
			return nil, err
		}
		if awarded {
			result.NewBadge = fx.Badge
		}
	}

	return result, nil
}

// insertReward appends one ledger entry, reporting false when the entry
// already existed (duplicate award attempts are silent no-ops).
func (s *RewardService) insertReward(ctx context.Context, userID uuid.UUID, kind reward.Kind, name, description string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
	INSERT INTO rewards (id, user_id, kind, name, description, awarded_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (user_id, kind, name) DO NOTHING`,
		uuid.New(), userID, kind, name, description, time.Now())
	if err != nil {
		return false, fmt.Errorf("failed to insert %s reward %q: %w", kind, name, err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetUserRewards lists a user's rewards, newest first.
func (s *RewardService) GetUserRewards(ctx context.Context, userID uuid.UUID) ([]reward.Reward, error) {
	rows, err := s.db.Query(ctx, `
	SELECT id, user_id, kind, name, description, awarded_at
	FROM rewards
	WHERE user_id = $1
	ORDER BY awarded_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rewards: %w", err)
	}
	defer rows.Close()

	var rewards []reward.Reward
	for rows.Next() {
		var r reward.Reward
		if err := rows.Scan(&r.ID, &r.UserID, &r.Kind, &r.Name, &r.Description, &r.AwardedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reward: %w", err)
		}
		rewards = append(rewards, r)
	}
	return rewards, rows.Err()
}
