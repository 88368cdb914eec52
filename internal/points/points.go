// Package points maps completions to point awards and cumulative progress
// to level-ups and streak badges.
package points

// Policy constants. BonusPerDay is the flat bonus for every consecutive
// day after the first; PointsPerLevel is the level threshold width.
const (
	DefaultBasePoints = 10
	BonusPerDay       = 2
	PointsPerLevel    = 100
)

// ForCompletion returns the points awarded for one completion: the base
// amount plus a flat bonus for each consecutive streak day after the first.
func ForCompletion(basePoints, streakIncrement int) int {
	if basePoints <= 0 {
		basePoints = DefaultBasePoints
	}
	bonus := streakIncrement - 1
	if bonus < 0 {
		bonus = 0
	}
	return basePoints + bonus*BonusPerDay
}

// LevelFor derives the level from cumulative points. Level is at least 1.
func LevelFor(totalPoints int) int {
	if totalPoints < 0 {
		totalPoints = 0
	}
	return totalPoints/PointsPerLevel + 1
}

// PointsForNextLevel returns how many points remain until the next level.
func PointsForNextLevel(totalPoints int) int {
	return LevelFor(totalPoints)*PointsPerLevel - totalPoints
}

// Badge is a streak milestone badge.
type Badge struct {
	Name        string
	Description string
	Threshold   int
}

// Streak badge ladder, highest first. Only the highest threshold the
// current streak satisfies is eligible on any given evaluation.
var badges = []Badge{
	{Name: "Сотня подряд", Description: "Выполнили привычку 100 дней подряд!", Threshold: 100},
	{Name: "Месяц подряд", Description: "Выполнили привычку 30 дней подряд!", Threshold: 30},
	{Name: "Неделя подряд", Description: "Выполнили привычку 7 дней подряд!", Threshold: 7},
}

// BadgeForStreak returns the highest badge the streak satisfies, or nil.
func BadgeForStreak(currentStreak int) *Badge {
	for i := range badges {
		if currentStreak >= badges[i].Threshold {
			b := badges[i]
			return &b
		}
	}
	return nil
}

// Effects describes what a reward evaluation decided: a level-up (NewLevel
// > 0 when a threshold was crossed) and at most one eligible badge. The
// caller is responsible for the once-per-user keying when persisting.
type Effects struct {
	NewLevel int
	Badge    *Badge
}

// Evaluate computes reward effects for a user's post-award state.
func Evaluate(currentPoints, currentLevel, currentStreak int) Effects {
	var fx Effects
	if lvl := LevelFor(currentPoints); lvl > currentLevel {
		fx.NewLevel = lvl
	}
	fx.Badge = BadgeForStreak(currentStreak)
	return fx
}
