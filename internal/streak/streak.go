// Package streak computes completion streaks from the sparse per-day
// history of a single habit. All functions are pure: history goes in,
// numbers come out. The streak increment stored on each record is assigned
// here at write time and never recomputed for past records.
package streak

import (
	"sort"
	"time"

	"habitQuestBot/internal/types/completion"
)

func dateKey(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// CurrentStreak walks backward day by day from today. The streak is 0
// unless today itself has a completed record; each consecutive prior
// completed day extends it by one. A missing day, or a day explicitly
// marked not completed, terminates the walk.
func CurrentStreak(records []completion.Record, today time.Time) int {
	if len(records) == 0 {
		return 0
	}

	todayKey := dateKey(today)
	completed := make(map[time.Time]bool, len(records))
	for _, r := range records {
		d := dateKey(r.CompletionDate)
		if d.After(todayKey) {
			continue // back-filled future dates never count
		}
		// An explicit not-completed record must not be shadowed by a
		// completed one and vice versa; completed wins if both exist.
		completed[d] = completed[d] || r.IsCompleted
	}

	if !completed[todayKey] {
		return 0
	}

	streak := 0
	for d := todayKey; completed[d]; d = d.AddDate(0, 0, -1) {
		streak++
	}
	return streak
}

// LongestStreak returns the length of the longest run of calendar-
// consecutive completed dates anywhere in the history. Insertion order of
// records is irrelevant.
func LongestStreak(records []completion.Record) int {
	seen := make(map[time.Time]struct{})
	for _, r := range records {
		if r.IsCompleted {
			seen[dateKey(r.CompletionDate)] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return 0
	}

	dates := make([]time.Time, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	longest, current := 1, 1
	for i := 1; i < len(dates); i++ {
		if dates[i].Equal(dates[i-1].AddDate(0, 0, 1)) {
			current++
		} else {
			if current > longest {
				longest = current
			}
			current = 1
		}
	}
	if current > longest {
		longest = current
	}
	return longest
}

// NextIncrement assigns the streak increment for a completion being
// recorded on newDate: the most recent completed record strictly before
// newDate continues the chain (+1) if it sits exactly one calendar day
// earlier; any gap, or no prior record at all, resets to 1.
func NextIncrement(records []completion.Record, newDate time.Time) int {
	newKey := dateKey(newDate)

	var prev *completion.Record
	for i := range records {
		r := &records[i]
		if !r.IsCompleted {
			continue
		}
		d := dateKey(r.CompletionDate)
		if !d.Before(newKey) {
			continue
		}
		if prev == nil || d.After(dateKey(prev.CompletionDate)) {
			prev = r
		}
	}

	if prev == nil {
		return 1
	}
	if dateKey(prev.CompletionDate).AddDate(0, 0, 1).Equal(newKey) {
		return prev.StreakIncrement + 1
	}
	return 1
}
