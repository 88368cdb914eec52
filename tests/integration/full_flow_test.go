package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitQuestBot/handlers"
	"habitQuestBot/internal/types/bugreport"
	"habitQuestBot/internal/types/habit"
	"habitQuestBot/services"
	"habitQuestBot/tests/helpers"
)

// Negative telegram ids mark test users so cleanup can find them.
func testTelegramID() int64 {
	return -time.Now().UnixNano()
}

// TestHabitCompletionFlow walks the whole loop: user shows up, creates a
// habit, completes it two days in a row and collects points and streaks.
func TestHabitCompletionFlow(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool)
	habitService := services.NewHabitService(pool)
	rewardService := services.NewRewardService(pool)

	ctx := context.Background()

	t.Log("Step 1: User talks to the bot for the first time")
	u, err := userService.GetOrCreateUser(ctx, testTelegramID(), "testuser", "Тест", "")
	require.NoError(t, err)
	assert.Equal(t, 0, u.Points)
	assert.Equal(t, 1, u.Level)

	t.Log("Step 2: User creates a daily habit")
	h, err := habitService.CreateHabit(ctx, u.ID, &habit.CreateHabitRequest{
		Name:         "Зарядка",
		ScheduleKind: habit.ScheduleDaily,
	})
	require.NoError(t, err)
	assert.True(t, h.IsActive)

	t.Log("Step 3: User completes the habit today")
	yesterday := time.Now().AddDate(0, 0, -1)
	_, err = habitService.CompleteHabit(ctx, h, u.ID, yesterday)
	require.NoError(t, err)

	result, err := habitService.CompleteHabit(ctx, h, u.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, result.AlreadyDone)
	assert.Equal(t, 2, result.StreakIncrement, "second consecutive day continues the streak")
	assert.Equal(t, 12, result.PointsEarned, "base 10 plus one streak bonus")
	assert.Equal(t, 2, result.CurrentStreak)

	t.Log("Step 4: Points and rewards are applied")
	award, err := rewardService.AwardPointsAndRewards(ctx, u.ID, result.PointsEarned, result.CurrentStreak)
	require.NoError(t, err)
	assert.Equal(t, result.PointsEarned, award.PointsAwarded)

	t.Log("Step 5: Re-completing the same day is a no-op")
	again, err := habitService.CompleteHabit(ctx, h, u.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, again.AlreadyDone)

	t.Log("Step 6: Habit listing reflects today's state")
	items, err := habitService.HabitsWithStatus(ctx, u.ID, time.Now())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].CompletedToday)
	assert.Equal(t, 2, items[0].CurrentStreak)
}

// TestBugReportTriageFlow exercises the admin HTTP surface end to end.
func TestBugReportTriageFlow(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool)
	bugService := services.NewBugReportService(pool)
	bugHandler := handlers.NewBugReportHandler(bugService)

	r := mux.NewRouter()
	r.HandleFunc("/admin/bugreports", bugHandler.List).Methods("GET")
	r.HandleFunc("/admin/bugreports/{id}", bugHandler.Get).Methods("GET")
	r.HandleFunc("/admin/bugreports/{id}/status", bugHandler.UpdateStatus).Methods("PUT")

	ctx := context.Background()

	u, err := userService.GetOrCreateUser(ctx, testTelegramID(), "reporter", "Тест", "")
	require.NoError(t, err)

	report, err := bugService.Create(ctx, u.ID, "Кнопка /stats не отвечает", "")
	require.NoError(t, err)
	assert.Equal(t, bugreport.StatusNew, report.Status)

	t.Log("List shows the new report")
	req := httptest.NewRequest(http.MethodGet, "/admin/bugreports?status=new&q=stats", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var page bugreport.Page
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	assert.GreaterOrEqual(t, page.Total, 1)

	t.Log("Status moves new -> in_progress")
	body := strings.NewReader(`{"status": "in_progress"}`)
	req = httptest.NewRequest(http.MethodPut, "/admin/bugreports/"+report.ID.String()+"/status", body)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	t.Log("A backwards transition is rejected with 409")
	body = strings.NewReader(`{"status": "new"}`)
	req = httptest.NewRequest(http.MethodPut, "/admin/bugreports/"+report.ID.String()+"/status", body)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusConflict, rr.Code)

	t.Log("Resolving closes the report")
	body = strings.NewReader(`{"status": "resolved"}`)
	req = httptest.NewRequest(http.MethodPut, "/admin/bugreports/"+report.ID.String()+"/status", body)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	updated, err := bugService.Get(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, bugreport.StatusResolved, updated.Status)
}
