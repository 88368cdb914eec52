package streak

import (
	"math/rand"
	"testing"
	"time"

	"habitQuestBot/internal/types/completion"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func rec(d time.Time, done bool, inc int) completion.Record {
	return completion.Record{CompletionDate: d, IsCompleted: done, StreakIncrement: inc}
}

func TestCurrentStreakZeroWithoutToday(t *testing.T) {
	today := day(2025, 6, 10)
	records := []completion.Record{
		rec(day(2025, 6, 8), true, 1),
		rec(day(2025, 6, 9), true, 2),
	}
	if got := CurrentStreak(records, today); got != 0 {
		t.Errorf("streak without a completed today = %d, want 0", got)
	}
}

func TestCurrentStreakContiguousRange(t *testing.T) {
	today := day(2025, 6, 10)
	var records []completion.Record
	for i := 0; i < 5; i++ {
		records = append(records, rec(today.AddDate(0, 0, -i), true, 5-i))
	}
	if got := CurrentStreak(records, today); got != 5 {
		t.Errorf("5 contiguous days = %d, want 5", got)
	}
}

func TestCurrentStreakGapTerminates(t *testing.T) {
	today := day(2025, 6, 10)
	records := []completion.Record{
		rec(today, true, 1),
		rec(day(2025, 6, 9), true, 1),
		// 6.8 missing
		rec(day(2025, 6, 7), true, 3),
		rec(day(2025, 6, 6), true, 2),
	}
	if got := CurrentStreak(records, today); got != 2 {
		t.Errorf("streak across a gap = %d, want 2", got)
	}
}

func TestCurrentStreakExplicitNotCompletedTerminates(t *testing.T) {
	today := day(2025, 6, 10)
	records := []completion.Record{
		rec(today, true, 1),
		rec(day(2025, 6, 9), false, 0),
		rec(day(2025, 6, 8), true, 5),
	}
	if got := CurrentStreak(records, today); got != 1 {
		t.Errorf("streak past a not-completed day = %d, want 1", got)
	}
}

func TestCurrentStreakIgnoresFutureDates(t *testing.T) {
	today := day(2025, 6, 10)
	records := []completion.Record{
		rec(today, true, 1),
		rec(day(2025, 6, 11), true, 2), // back-filled future record
	}
	if got := CurrentStreak(records, today); got != 1 {
		t.Errorf("streak with future record = %d, want 1", got)
	}
}

func TestCurrentStreakEmptyHistory(t *testing.T) {
	if got := CurrentStreak(nil, day(2025, 6, 10)); got != 0 {
		t.Errorf("empty history = %d, want 0", got)
	}
}

func TestLongestStreak(t *testing.T) {
	records := []completion.Record{
		rec(day(2025, 5, 1), true, 1),
		rec(day(2025, 5, 2), true, 2),
		rec(day(2025, 5, 3), true, 3),
		// gap
		rec(day(2025, 5, 10), true, 1),
		rec(day(2025, 5, 11), true, 2),
		rec(day(2025, 5, 12), true, 3),
		rec(day(2025, 5, 13), true, 4),
		// not completed, must not count
		rec(day(2025, 5, 14), false, 0),
	}
	if got := LongestStreak(records); got != 4 {
		t.Errorf("longest = %d, want 4", got)
	}
}

func TestLongestStreakInsertionOrderInvariant(t *testing.T) {
	base := []completion.Record{
		rec(day(2025, 5, 1), true, 1),
		rec(day(2025, 5, 2), true, 2),
		rec(day(2025, 5, 4), true, 1),
		rec(day(2025, 5, 5), true, 2),
		rec(day(2025, 5, 6), true, 3),
	}
	want := LongestStreak(base)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := make([]completion.Record, len(base))
		copy(shuffled, base)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		if got := LongestStreak(shuffled); got != want {
			t.Fatalf("shuffle %d: longest = %d, want %d", i, got, want)
		}
	}
}

func TestLongestStreakSingleDay(t *testing.T) {
	if got := LongestStreak([]completion.Record{rec(day(2025, 5, 1), true, 1)}); got != 1 {
		t.Errorf("single day = %d, want 1", got)
	}
	if got := LongestStreak(nil); got != 0 {
		t.Errorf("empty = %d, want 0", got)
	}
}

func TestNextIncrementFreshHabit(t *testing.T) {
	if got := NextIncrement(nil, day(2025, 6, 10)); got != 1 {
		t.Errorf("fresh habit increment = %d, want 1", got)
	}
}

func TestNextIncrementChainContinuation(t *testing.T) {
	records := []completion.Record{
		rec(day(2025, 6, 8), true, 4),
		rec(day(2025, 6, 9), true, 5),
	}
	if got := NextIncrement(records, day(2025, 6, 10)); got != 6 {
		t.Errorf("consecutive increment = %d, want 6", got)
	}
}

func TestNextIncrementGapResets(t *testing.T) {
	records := []completion.Record{
		rec(day(2025, 6, 7), true, 9),
	}
	if got := NextIncrement(records, day(2025, 6, 10)); got != 1 {
		t.Errorf("increment after 3-day gap = %d, want 1", got)
	}
}

func TestNextIncrementIgnoresNotCompletedAndLaterDates(t *testing.T) {
	records := []completion.Record{
		rec(day(2025, 6, 9), false, 0),  // not completed: no chain
		rec(day(2025, 6, 12), true, 1),  // after newDate: irrelevant
	}
	if got := NextIncrement(records, day(2025, 6, 10)); got != 1 {
		t.Errorf("increment = %d, want 1", got)
	}
}
