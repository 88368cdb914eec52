package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"habitQuestBot/internal/schedule"
	"habitQuestBot/internal/types/habit"
	"habitQuestBot/internal/types/user"
	"habitQuestBot/middleware"
)

// ScanStore feeds the scanner its candidates. *HabitService implements it.
type ScanStore interface {
	ActiveHabitsForScan(ctx context.Context, windowFrom, windowTo time.Time) ([]ScanCandidate, error)
}

// Deliverer sends one merged reminder per user. *ReminderDispatcher
// implements it.
type Deliverer interface {
	DeliverReminder(ctx context.Context, u *user.User, habits []habit.Habit) error
}

// scanWindowDays pads the completion window a day on each side so every
// timezone's "today" falls inside it regardless of the UTC date.
const scanWindowDays = 1

// ReminderScanner periodically walks every active habit and delivers
// reminders for the ones that are due right now. One delivery failure
// never aborts the tick; other users still get their reminders.
type ReminderScanner struct {
	store     ScanStore
	deliverer Deliverer

	interval  time.Duration
	tolerance int
	now       func() time.Time

	mu       sync.Mutex
	running  bool
	stop     chan struct{}
	reminded map[remindedKey]time.Time
}

// remindedKey identifies one already-sent reminder: the same habit is
// reminded at most once per local day per process.
type remindedKey struct {
	userID    uuid.UUID
	habitID   uuid.UUID
	localDate string
}

func NewReminderScanner(store ScanStore, deliverer Deliverer) *ReminderScanner {
	return &ReminderScanner{
		store:     store,
		deliverer: deliverer,
		interval:  time.Minute,
		tolerance: schedule.DefaultToleranceMinutes,
		now:       time.Now,
		reminded:  make(map[remindedKey]time.Time),
	}
}

// Start launches the tick loop. Starting a running scanner is an error.
func (s *ReminderScanner) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("reminder scanner already running")
	}
	s.running = true
	s.stop = make(chan struct{})

	go s.loop(ctx, s.stop)
	log.Printf("ReminderScanner: started, interval %s", s.interval)
	return nil
}

// Stop halts the tick loop. Stopping a stopped scanner is a no-op.
func (s *ReminderScanner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	close(s.stop)
	s.running = false
	log.Println("ReminderScanner: stopped")
}

func (s *ReminderScanner) loop(ctx context.Context, stop chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Tick(ctx); err != nil {
				log.Printf("ReminderScanner: tick failed: %v", err)
			}
		}
	}
}

// Tick runs one full scan pass. Exported so tests can drive the scanner
// without the ticker.
func (s *ReminderScanner) Tick(ctx context.Context) error {
	start := time.Now()
	defer func() {
		middleware.ScanDuration.Observe(time.Since(start).Seconds())
	}()

	nowUTC := s.now().UTC()
	utcToday := time.Date(nowUTC.Year(), nowUTC.Month(), nowUTC.Day(), 0, 0, 0, 0, time.UTC)

	windowFrom := utcToday.AddDate(0, 0, -scanWindowDays)
	windowTo := utcToday.AddDate(0, 0, 1)

	candidates, err := s.store.ActiveHabitsForScan(ctx, windowFrom, windowTo)
	if err != nil {
		return fmt.Errorf("failed to load scan candidates: %w", err)
	}

	// Group due habits per user so each user gets one merged message.
	type pending struct {
		user   user.User
		habits []habit.Habit
		keys   []remindedKey
	}
	var order []uuid.UUID
	byUser := make(map[uuid.UUID]*pending)

	for _, cand := range candidates {
		key, due := s.evaluate(cand, nowUTC)
		if !due {
			continue
		}
		p, ok := byUser[cand.User.ID]
		if !ok {
			p = &pending{user: cand.User}
			byUser[cand.User.ID] = p
			order = append(order, cand.User.ID)
		}
		p.habits = append(p.habits, cand.Habit)
		p.keys = append(p.keys, key)
	}

	for _, userID := range order {
		p := byUser[userID]
		if err := s.deliverer.DeliverReminder(ctx, &p.user, p.habits); err != nil {
			middleware.ReminderFailures.Inc()
			log.Printf("ReminderScanner: delivery to user %d failed: %v", p.user.TelegramID, err)
			continue
		}
		middleware.RemindersSent.Inc()
		s.markReminded(p.keys, nowUTC)
	}

	s.pruneReminded(nowUTC)
	return nil
}

// evaluate decides whether one (user, habit) pair is due at nowUTC.
func (s *ReminderScanner) evaluate(cand ScanCandidate, nowUTC time.Time) (remindedKey, bool) {
	u, h := cand.User, cand.Habit

	// The cadence gate runs in the user's timezone, the habit checks in
	// the habit's own.
	userLocal := nowUTC.In(schedule.LoadLocation(u.Timezone))
	if !cadenceAllows(u.ReminderCadence, userLocal, s.tolerance) {
		return remindedKey{}, false
	}

	if !schedule.IsScheduledToday(h, nowUTC) {
		return remindedKey{}, false
	}

	habitLocal := nowUTC.In(schedule.LoadLocation(h.Timezone))
	localDate := habitLocal.Format("2006-01-02")

	// Custom habits with an explicit time fire only inside its window.
	if h.ScheduleKind == habit.ScheduleCustom && h.CustomTime != "" {
		if !schedule.WithinFireWindow(h.CustomTime, h.Timezone, nowUTC, s.tolerance) {
			return remindedKey{}, false
		}
	}

	if h.ScheduleKind == habit.ScheduleCustom && h.CustomFrequency > 1 {
		if !schedule.FrequencySatisfied(h.CustomFrequency, cand.LastCompleted, habitLocal) {
			return remindedKey{}, false
		}
	}

	// Already completed today, nothing to remind about.
	for _, d := range cand.CompletedDates {
		if d.Format("2006-01-02") == localDate {
			return remindedKey{}, false
		}
	}

	key := remindedKey{userID: u.ID, habitID: h.ID, localDate: localDate}
	s.mu.Lock()
	_, sent := s.reminded[key]
	s.mu.Unlock()
	if sent {
		return remindedKey{}, false
	}
	return key, true
}

// cadenceAllows reports whether this tick may reach the user at all. The
// interval cadences key on the local minute; the once-a-day cadences use
// the same tolerance band as habit fire windows.
func cadenceAllows(c user.Cadence, local time.Time, tolerance int) bool {
	minute := local.Minute()
	switch c {
	case user.CadenceEvery5:
		return minute%5 == 0
	case user.CadenceEvery15:
		return minute%15 == 0
	case user.CadenceEvery30:
		return minute%30 == 0
	case user.CadenceHourly:
		return minute == 0
	case user.CadenceMidnight:
		return withinDailyWindow(local, 0, 0, tolerance)
	case user.CadenceEvening, "":
		return withinDailyWindow(local, 18, 0, tolerance)
	}
	return false
}

func withinDailyWindow(local time.Time, hour, minute, tolerance int) bool {
	diff := (local.Hour()*60 + local.Minute()) - (hour*60 + minute)
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}

func (s *ReminderScanner) markReminded(keys []remindedKey, nowUTC time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		s.reminded[k] = nowUTC
	}
}

// pruneReminded drops guard entries older than two days. The guard is
// per-process; a restart may re-send a reminder, which is accepted over
// carrying delivery state in the database.
func (s *ReminderScanner) pruneReminded(nowUTC time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, at := range s.reminded {
		if nowUTC.Sub(at) > 48*time.Hour {
			delete(s.reminded, k)
		}
	}
}
