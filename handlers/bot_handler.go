package handlers

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"habitQuestBot/internal/gateway"
	"habitQuestBot/internal/points"
	"habitQuestBot/internal/schedule"
	"habitQuestBot/internal/types/habit"
	"habitQuestBot/internal/types/user"
	"habitQuestBot/services"
)

// conversation stages for the multi-step flows (/create_habit, /bugreport).
type convStage int

const (
	stageNone convStage = iota
	stageHabitName
	stageHabitSchedule
	stageHabitDays
	stageHabitTime
	stageBugReport
)

type conversation struct {
	stage convStage
	draft habit.CreateHabitRequest
}

// BotHandler routes inbound chat events to the services. One instance
// serves all chats; per-chat conversation state lives in a mutex-guarded
// map keyed by telegram chat id.
type BotHandler struct {
	gw            gateway.Gateway
	userService   *services.UserService
	habitService  *services.HabitService
	rewardService *services.RewardService
	bugService    *services.BugReportService

	mu            sync.Mutex
	conversations map[int64]*conversation
}

func NewBotHandler(
	gw gateway.Gateway,
	userService *services.UserService,
	habitService *services.HabitService,
	rewardService *services.RewardService,
	bugService *services.BugReportService,
) *BotHandler {
	return &BotHandler{
		gw:            gw,
		userService:   userService,
		habitService:  habitService,
		rewardService: rewardService,
		bugService:    bugService,
		conversations: make(map[int64]*conversation),
	}
}

// Run consumes the gateway's event stream until it closes or ctx ends.
func (h *BotHandler) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-h.gw.Events():
			if !ok {
				return
			}
			h.handleEvent(ctx, ev)
		}
	}
}

func (h *BotHandler) handleEvent(ctx context.Context, ev gateway.Event) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// Every interaction upserts the user, so display names stay fresh and
	// no command ever sees a missing account.
	u, err := h.userService.GetOrCreateUser(ctx, ev.From.TelegramID, ev.From.Username, ev.From.FirstName, ev.From.LastName)
	if err != nil {
		log.Printf("BotHandler: user upsert for %d failed: %v", ev.From.TelegramID, err)
		h.say(ctx, ev.ChatID, "Что-то пошло не так, попробуйте ещё раз.")
		return
	}

	switch ev.Kind {
	case gateway.EventCommand:
		h.handleCommand(ctx, u, ev)
	case gateway.EventCallback:
		h.handleCallback(ctx, u, ev)
	case gateway.EventText:
		h.handleText(ctx, u, ev)
	}
}

func (h *BotHandler) handleCommand(ctx context.Context, u *user.User, ev gateway.Event) {
	// Any command abandons an in-flight conversation.
	h.clearConversation(ev.ChatID)

	switch ev.Command {
	case "start":
		h.cmdStart(ctx, u, ev)
	case "help":
		h.say(ctx, ev.ChatID, helpText)
	case "profile":
		h.cmdProfile(ctx, u, ev)
	case "habits":
		h.cmdHabits(ctx, u, ev)
	case "create_habit":
		h.cmdCreateHabit(ctx, ev)
	case "complete":
		h.cmdComplete(ctx, u, ev)
	case "stats":
		h.cmdStats(ctx, u, ev)
	case "rewards":
		h.cmdRewards(ctx, u, ev)
	case "leaderboard":
		h.cmdLeaderboard(ctx, ev)
	case "settings":
		h.cmdSettings(ctx, u, ev)
	case "delete_habit":
		h.cmdDeleteHabit(ctx, u, ev)
	case "bugreport":
		h.cmdBugReport(ctx, ev)
	default:
		h.say(ctx, ev.ChatID, "Неизвестная команда. Посмотрите /help.")
	}
}

const helpText = `Доступные команды:
/habits — список ваших привычек
/create_habit — создать новую привычку
/complete — отметить выполнение
/stats — статистика по привычкам
/profile — очки, уровень и серия
/rewards — ваши награды
/leaderboard — таблица лидеров
/settings — напоминания и часовой пояс
/delete_habit — удалить привычку
/bugreport — сообщить об ошибке`

func (h *BotHandler) cmdStart(ctx context.Context, u *user.User, ev gateway.Event) {
	text := fmt.Sprintf(
		"Привет, %s! 👋\n\nЯ помогу вам следить за привычками: напомню, посчитаю серии и начислю очки.\n\nНачните с /create_habit, а полный список команд — в /help.",
		u.DisplayName(),
	)
	h.say(ctx, ev.ChatID, text)
}

func (h *BotHandler) cmdProfile(ctx context.Context, u *user.User, ev gateway.Event) {
	var b strings.Builder
	fmt.Fprintf(&b, "👤 %s\n\n", u.DisplayName())
	fmt.Fprintf(&b, "⭐ Очки: %d\n", u.Points)
	fmt.Fprintf(&b, "🏆 Уровень: %d (до следующего: %d очков)\n", u.Level, points.PointsForNextLevel(u.Points))
	fmt.Fprintf(&b, "🔥 Текущая серия: %d\n", u.CurrentStreak)
	fmt.Fprintf(&b, "📈 Лучшая серия: %d", u.LongestStreak)
	h.say(ctx, ev.ChatID, b.String())
}

func (h *BotHandler) cmdHabits(ctx context.Context, u *user.User, ev gateway.Event) {
	items, err := h.habitService.HabitsWithStatus(ctx, u.ID, time.Now())
	if err != nil {
		log.Printf("BotHandler: habits list for %s failed: %v", u.ID, err)
		h.say(ctx, ev.ChatID, "Не удалось загрузить привычки, попробуйте позже.")
		return
	}
	if len(items) == 0 {
		h.say(ctx, ev.ChatID, "У вас пока нет привычек. Создайте первую: /create_habit")
		return
	}

	var b strings.Builder
	b.WriteString("📋 Ваши привычки:\n\n")
	for i, it := range items {
		mark := "⭕"
		if it.CompletedToday {
			mark = "✅"
		}
		fmt.Fprintf(&b, "%d. %s %s", i+1, mark, it.Name)
		if it.CurrentStreak > 0 {
			fmt.Fprintf(&b, " 🔥%d", it.CurrentStreak)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nОтметить выполнение: /complete")
	h.say(ctx, ev.ChatID, b.String())
}

func (h *BotHandler) cmdCreateHabit(ctx context.Context, ev gateway.Event) {
	h.setConversation(ev.ChatID, &conversation{stage: stageHabitName})
	h.say(ctx, ev.ChatID, "Как назовём привычку? Например: «Зарядка» или «Читать 20 минут».")
}

func (h *BotHandler) cmdComplete(ctx context.Context, u *user.User, ev gateway.Event) {
	items, err := h.habitService.HabitsWithStatus(ctx, u.ID, time.Now())
	if err != nil {
		log.Printf("BotHandler: complete list for %s failed: %v", u.ID, err)
		h.say(ctx, ev.ChatID, "Не удалось загрузить привычки, попробуйте позже.")
		return
	}

	var choices []gateway.Choice
	for _, it := range items {
		if it.CompletedToday {
			continue
		}
		choices = append(choices, gateway.Choice{
			Label: it.Name,
			Data:  "complete_" + it.ID.String(),
		})
	}
	if len(choices) == 0 {
		if len(items) == 0 {
			h.say(ctx, ev.ChatID, "У вас пока нет привычек. Создайте первую: /create_habit")
		} else {
			h.say(ctx, ev.ChatID, "Всё выполнено на сегодня! 🎉")
		}
		return
	}
	h.ask(ctx, ev.ChatID, "Что вы выполнили?", choices)
}

func (h *BotHandler) cmdStats(ctx context.Context, u *user.User, ev gateway.Event) {
	stats, err := h.habitService.UserStats(ctx, u.ID, time.Now())
	if err != nil {
		log.Printf("BotHandler: stats for %s failed: %v", u.ID, err)
		h.say(ctx, ev.ChatID, "Не удалось загрузить статистику, попробуйте позже.")
		return
	}
	if len(stats) == 0 {
		h.say(ctx, ev.ChatID, "Статистики пока нет: создайте привычку через /create_habit.")
		return
	}

	var b strings.Builder
	b.WriteString("📊 Статистика:\n")
	for _, st := range stats {
		fmt.Fprintf(&b, "\n%s\n", st.Habit.Name)
		fmt.Fprintf(&b, "  За неделю: %d из 7\n", st.WeekCompletions)
		fmt.Fprintf(&b, "  Всего выполнений: %d\n", st.TotalCompletions)
		fmt.Fprintf(&b, "  Текущая серия: %d\n", st.CurrentStreak)
	}
	h.say(ctx, ev.ChatID, b.String())
}

func (h *BotHandler) cmdRewards(ctx context.Context, u *user.User, ev gateway.Event) {
	rewards, err := h.rewardService.GetUserRewards(ctx, u.ID)
	if err != nil {
		log.Printf("BotHandler: rewards for %s failed: %v", u.ID, err)
		h.say(ctx, ev.ChatID, "Не удалось загрузить награды, попробуйте позже.")
		return
	}
	if len(rewards) == 0 {
		h.say(ctx, ev.ChatID, "Наград пока нет. Выполняйте привычки каждый день, и они появятся!")
		return
	}

	var b strings.Builder
	b.WriteString("🎖 Ваши награды:\n\n")
	for _, r := range rewards {
		icon := "🏅"
		if r.Kind == "level" {
			icon = "🏆"
		}
		fmt.Fprintf(&b, "%s %s — %s\n", icon, r.Name, r.AwardedAt.Format("02.01.2006"))
	}
	h.say(ctx, ev.ChatID, b.String())
}

func (h *BotHandler) cmdLeaderboard(ctx context.Context, ev gateway.Event) {
	entries, err := h.userService.Leaderboard(ctx, 10)
	if err != nil {
		log.Printf("BotHandler: leaderboard failed: %v", err)
		h.say(ctx, ev.ChatID, "Не удалось загрузить таблицу лидеров, попробуйте позже.")
		return
	}
	if len(entries) == 0 {
		h.say(ctx, ev.ChatID, "Таблица лидеров пока пуста.")
		return
	}

	medals := []string{"🥇", "🥈", "🥉"}
	var b strings.Builder
	b.WriteString("🏆 Таблица лидеров:\n\n")
	for _, e := range entries {
		prefix := fmt.Sprintf("%d.", e.Rank)
		if e.Rank <= len(medals) {
			prefix = medals[e.Rank-1]
		}
		name := e.FirstName
		if name == "" {
			name = e.Username
		}
		if name == "" {
			name = "аноним"
		}
		fmt.Fprintf(&b, "%s %s — %d очков (уровень %d)\n", prefix, name, e.Points, e.Level)
	}
	h.say(ctx, ev.ChatID, b.String())
}

func (h *BotHandler) cmdSettings(ctx context.Context, u *user.User, ev gateway.Event) {
	// "/settings Europe/Berlin" updates the timezone directly.
	if len(ev.Args) > 0 {
		tz := ev.Args[0]
		if err := h.userService.UpdateTimezone(ctx, u.ID, tz); err != nil {
			log.Printf("BotHandler: timezone update for %s failed: %v", u.ID, err)
			h.say(ctx, ev.ChatID, "Не удалось сохранить часовой пояс.")
			return
		}
		h.say(ctx, ev.ChatID, fmt.Sprintf("Часовой пояс обновлён: %s", tz))
		return
	}

	choices := []gateway.Choice{
		{Label: "Вечером в 18:00", Data: "cadence_evening"},
		{Label: "В полночь", Data: "cadence_midnight"},
		{Label: "Каждый час", Data: "cadence_hourly"},
		{Label: "Каждые 30 минут", Data: "cadence_*/30"},
		{Label: "Каждые 15 минут", Data: "cadence_*/15"},
		{Label: "Каждые 5 минут", Data: "cadence_*/5"},
	}
	text := fmt.Sprintf(
		"⚙️ Настройки\n\nЧасовой пояс: %s (сменить: /settings Europe/Berlin)\nНапоминания: %s\n\nКак часто напоминать?",
		u.Timezone, u.ReminderCadence,
	)
	h.ask(ctx, ev.ChatID, text, choices)
}

func (h *BotHandler) cmdDeleteHabit(ctx context.Context, u *user.User, ev gateway.Event) {
	habits, err := h.habitService.GetUserHabits(ctx, u.ID)
	if err != nil {
		log.Printf("BotHandler: delete list for %s failed: %v", u.ID, err)
		h.say(ctx, ev.ChatID, "Не удалось загрузить привычки, попробуйте позже.")
		return
	}
	if len(habits) == 0 {
		h.say(ctx, ev.ChatID, "Удалять нечего: привычек пока нет.")
		return
	}

	var choices []gateway.Choice
	for _, hb := range habits {
		choices = append(choices, gateway.Choice{
			Label: hb.Name,
			Data:  "delete_" + hb.ID.String(),
		})
	}
	h.ask(ctx, ev.ChatID, "Какую привычку удалить?", choices)
}

func (h *BotHandler) cmdBugReport(ctx context.Context, ev gateway.Event) {
	h.setConversation(ev.ChatID, &conversation{stage: stageBugReport})
	h.say(ctx, ev.ChatID, "Опишите проблему одним сообщением, я передам её разработчикам.")
}

// --- callbacks ---

func (h *BotHandler) handleCallback(ctx context.Context, u *user.User, ev gateway.Event) {
	// Acknowledge first so the client stops the spinner even if the
	// action below fails.
	if err := h.gw.AnswerCallback(ctx, ev.CallbackID); err != nil {
		log.Printf("BotHandler: answer callback failed: %v", err)
	}

	data := ev.CallbackData
	switch {
	case strings.HasPrefix(data, "complete_"):
		h.callbackComplete(ctx, u, ev, strings.TrimPrefix(data, "complete_"))
	case strings.HasPrefix(data, "cadence_"):
		h.callbackCadence(ctx, u, ev, strings.TrimPrefix(data, "cadence_"))
	case strings.HasPrefix(data, "schedule_"):
		h.callbackSchedule(ctx, u, ev, strings.TrimPrefix(data, "schedule_"))
	case strings.HasPrefix(data, "confirm_delete_"):
		h.callbackConfirmDelete(ctx, u, ev, strings.TrimPrefix(data, "confirm_delete_"))
	case strings.HasPrefix(data, "pause_"):
		h.callbackPause(ctx, u, ev, strings.TrimPrefix(data, "pause_"))
	case strings.HasPrefix(data, "cancel_delete_"):
		h.edit(ctx, ev, "Удаление отменено.")
	case strings.HasPrefix(data, "delete_"):
		h.callbackDelete(ctx, u, ev, strings.TrimPrefix(data, "delete_"))
	default:
		log.Printf("BotHandler: unknown callback data %q", data)
	}
}

func (h *BotHandler) callbackComplete(ctx context.Context, u *user.User, ev gateway.Event, rawID string) {
	hb, ok := h.ownedHabit(ctx, u, ev, rawID)
	if !ok {
		return
	}

	// "Today" is the habit's local calendar date.
	localNow := time.Now().In(schedule.LoadLocation(hb.Timezone))
	result, err := h.habitService.CompleteHabit(ctx, hb, u.ID, localNow)
	if err != nil {
		log.Printf("BotHandler: complete %s failed: %v", hb.ID, err)
		h.edit(ctx, ev, "Не удалось отметить выполнение, попробуйте позже.")
		return
	}
	if result.AlreadyDone {
		h.edit(ctx, ev, fmt.Sprintf("«%s» уже отмечена сегодня ✅", hb.Name))
		return
	}

	award, err := h.rewardService.AwardPointsAndRewards(ctx, u.ID, result.PointsEarned, result.CurrentStreak)
	if err != nil {
		// Points are lost for this completion but the mark stands; do not
		// fail the interaction.
		log.Printf("BotHandler: award for %s failed: %v", u.ID, err)
	}
	if err := h.userService.RefreshStreakSnapshot(ctx, u.ID, result.CurrentStreak, result.LongestStreak); err != nil {
		log.Printf("BotHandler: streak snapshot for %s failed: %v", u.ID, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "✅ «%s» выполнена!\n", hb.Name)
	fmt.Fprintf(&b, "+%d очков, серия %d 🔥", result.PointsEarned, result.CurrentStreak)
	if award != nil {
		if award.NewLevel > 0 {
			fmt.Fprintf(&b, "\n\n🏆 Новый уровень: %d!", award.NewLevel)
		}
		if award.NewBadge != nil {
			fmt.Fprintf(&b, "\n🏅 Новая награда: «%s»!", award.NewBadge.Name)
		}
	}
	h.edit(ctx, ev, b.String())
}

func (h *BotHandler) callbackCadence(ctx context.Context, u *user.User, ev gateway.Event, value string) {
	if !user.ValidCadence(value) {
		log.Printf("BotHandler: bad cadence callback %q", value)
		return
	}
	if err := h.userService.UpdateCadence(ctx, u.ID, user.Cadence(value)); err != nil {
		log.Printf("BotHandler: cadence update for %s failed: %v", u.ID, err)
		h.edit(ctx, ev, "Не удалось сохранить настройку.")
		return
	}
	h.edit(ctx, ev, fmt.Sprintf("Готово! Напоминания: %s", value))
}

func (h *BotHandler) callbackSchedule(ctx context.Context, u *user.User, ev gateway.Event, kind string) {
	conv := h.getConversation(ev.ChatID)
	if conv == nil || conv.stage != stageHabitSchedule {
		h.edit(ctx, ev, "Эта кнопка уже не активна. Начните заново: /create_habit")
		return
	}
	if !habit.ValidScheduleKind(kind) {
		log.Printf("BotHandler: bad schedule callback %q", kind)
		return
	}

	conv.draft.ScheduleKind = habit.ScheduleKind(kind)
	if conv.draft.ScheduleKind == habit.ScheduleCustom {
		conv.stage = stageHabitDays
		h.setConversation(ev.ChatID, conv)
		h.edit(ctx, ev, "По каким дням? Перечислите через запятую (пн,ср,пт) или напишите «все».")
		return
	}

	h.finishHabitCreation(ctx, u, ev.ChatID, conv, func(text string) {
		h.edit(ctx, ev, text)
	})
}

func (h *BotHandler) callbackDelete(ctx context.Context, u *user.User, ev gateway.Event, rawID string) {
	hb, ok := h.ownedHabit(ctx, u, ev, rawID)
	if !ok {
		return
	}
	choices := []gateway.Choice{
		{Label: "Да, удалить", Data: "confirm_delete_" + hb.ID.String()},
		{Label: "Приостановить вместо удаления", Data: "pause_" + hb.ID.String()},
		{Label: "Отмена", Data: "cancel_delete_" + hb.ID.String()},
	}
	h.ask(ctx, ev.ChatID, fmt.Sprintf("Удалить «%s»? История выполнений тоже будет удалена.", hb.Name), choices)
}

func (h *BotHandler) callbackPause(ctx context.Context, u *user.User, ev gateway.Event, rawID string) {
	hb, ok := h.ownedHabit(ctx, u, ev, rawID)
	if !ok {
		return
	}
	if err := h.habitService.SetActive(ctx, hb.ID, false); err != nil {
		log.Printf("BotHandler: pause %s failed: %v", hb.ID, err)
		h.edit(ctx, ev, "Не удалось приостановить привычку, попробуйте позже.")
		return
	}
	h.edit(ctx, ev, fmt.Sprintf("Привычка «%s» приостановлена. История сохранена, напоминаний не будет.", hb.Name))
}

func (h *BotHandler) callbackConfirmDelete(ctx context.Context, u *user.User, ev gateway.Event, rawID string) {
	hb, ok := h.ownedHabit(ctx, u, ev, rawID)
	if !ok {
		return
	}
	if err := h.habitService.DeleteHabit(ctx, hb.ID); err != nil {
		log.Printf("BotHandler: delete %s failed: %v", hb.ID, err)
		h.edit(ctx, ev, "Не удалось удалить привычку, попробуйте позже.")
		return
	}
	h.edit(ctx, ev, fmt.Sprintf("Привычка «%s» удалена.", hb.Name))
}

// ownedHabit resolves a habit id from callback data and checks it belongs
// to the pressing user.
func (h *BotHandler) ownedHabit(ctx context.Context, u *user.User, ev gateway.Event, rawID string) (*habit.Habit, bool) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		log.Printf("BotHandler: bad habit id in callback: %q", rawID)
		return nil, false
	}
	hb, err := h.habitService.GetHabitByID(ctx, id)
	if err != nil {
		log.Printf("BotHandler: habit lookup %s failed: %v", id, err)
		h.edit(ctx, ev, "Что-то пошло не так, попробуйте позже.")
		return nil, false
	}
	if hb == nil || hb.UserID != u.ID {
		h.edit(ctx, ev, "Эта привычка уже недоступна.")
		return nil, false
	}
	return hb, true
}

// --- free text (conversation steps) ---

func (h *BotHandler) handleText(ctx context.Context, u *user.User, ev gateway.Event) {
	conv := h.getConversation(ev.ChatID)
	if conv == nil {
		h.say(ctx, ev.ChatID, "Я понимаю только команды. Посмотрите /help.")
		return
	}

	switch conv.stage {
	case stageHabitName:
		name := strings.TrimSpace(ev.Text)
		if name == "" || len([]rune(name)) > 100 {
			h.say(ctx, ev.ChatID, "Название должно быть от 1 до 100 символов. Попробуйте ещё раз.")
			return
		}
		conv.draft.Name = name
		conv.stage = stageHabitSchedule
		h.setConversation(ev.ChatID, conv)
		h.ask(ctx, ev.ChatID, "Как часто?", []gateway.Choice{
			{Label: "Каждый день", Data: "schedule_daily"},
			{Label: "Раз в неделю (пн)", Data: "schedule_weekly"},
			{Label: "Своё расписание", Data: "schedule_custom"},
		})

	case stageHabitDays:
		raw := strings.ToLower(strings.TrimSpace(ev.Text))
		if raw != "все" && raw != "всё" {
			days := schedule.ParseDaySet(raw)
			if len(days) == 0 {
				h.say(ctx, ev.ChatID, "Не узнаю дни. Перечислите через запятую: пн,вт,ср,чт,пт,сб,вс — или напишите «все».")
				return
			}
			conv.draft.CustomDays = raw
		}
		conv.stage = stageHabitTime
		h.setConversation(ev.ChatID, conv)
		h.say(ctx, ev.ChatID, "Во сколько напоминать? Напишите время (например 18:00) или «-», чтобы без конкретного времени.")

	case stageHabitTime:
		raw := strings.TrimSpace(ev.Text)
		if raw != "-" {
			if _, _, ok := schedule.ParseTimeOfDay(raw); !ok {
				h.say(ctx, ev.ChatID, "Не понимаю время. Формат ЧЧ:ММ, например 07:30 — или «-».")
				return
			}
			conv.draft.CustomTime = raw
		}
		h.finishHabitCreation(ctx, u, ev.ChatID, conv, func(text string) {
			h.say(ctx, ev.ChatID, text)
		})

	case stageBugReport:
		text := strings.TrimSpace(ev.Text)
		if text == "" {
			h.say(ctx, ev.ChatID, "Сообщение пустое. Опишите проблему текстом.")
			return
		}
		h.clearConversation(ev.ChatID)
		if _, err := h.bugService.Create(ctx, u.ID, text, ""); err != nil {
			log.Printf("BotHandler: bug report from %s failed: %v", u.ID, err)
			h.say(ctx, ev.ChatID, "Не удалось сохранить отчёт, попробуйте позже.")
			return
		}
		h.say(ctx, ev.ChatID, "Спасибо! Отчёт сохранён, разработчики его посмотрят. 🐞")

	default:
		h.clearConversation(ev.ChatID)
		h.say(ctx, ev.ChatID, "Я понимаю только команды. Посмотрите /help.")
	}
}

// finishHabitCreation persists the drafted habit and reports the result
// through reply (either a fresh message or an edit of the keyboard one).
func (h *BotHandler) finishHabitCreation(ctx context.Context, u *user.User, chatID int64, conv *conversation, reply func(string)) {
	h.clearConversation(chatID)

	conv.draft.Timezone = u.Timezone
	created, err := h.habitService.CreateHabit(ctx, u.ID, &conv.draft)
	if err != nil {
		log.Printf("BotHandler: create habit for %s failed: %v", u.ID, err)
		reply("Не удалось создать привычку, попробуйте позже.")
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Привычка «%s» создана! 🎯\n", created.Name)
	switch created.ScheduleKind {
	case habit.ScheduleDaily:
		b.WriteString("Расписание: каждый день.")
	case habit.ScheduleWeekly:
		b.WriteString("Расписание: по понедельникам.")
	case habit.ScheduleCustom:
		days := created.CustomDays
		if days == "" {
			days = "каждый день"
		}
		fmt.Fprintf(&b, "Расписание: %s", days)
		if created.CustomTime != "" {
			fmt.Fprintf(&b, " в %s", created.CustomTime)
		}
		b.WriteString(".")
	}
	b.WriteString("\nОтмечайте выполнение: /complete")
	reply(b.String())
}

// --- conversation state ---

func (h *BotHandler) getConversation(chatID int64) *conversation {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.conversations[chatID]
}

func (h *BotHandler) setConversation(chatID int64, c *conversation) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conversations[chatID] = c
}

func (h *BotHandler) clearConversation(chatID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conversations, chatID)
}

// --- outbound helpers ---

func (h *BotHandler) say(ctx context.Context, chatID int64, text string) {
	if err := h.gw.SendMessage(ctx, chatID, text, nil); err != nil {
		log.Printf("BotHandler: send to %d failed: %v", chatID, err)
	}
}

func (h *BotHandler) ask(ctx context.Context, chatID int64, text string, choices []gateway.Choice) {
	if err := h.gw.SendMessage(ctx, chatID, text, choices); err != nil {
		log.Printf("BotHandler: send to %d failed: %v", chatID, err)
	}
}

func (h *BotHandler) edit(ctx context.Context, ev gateway.Event, text string) {
	if ev.MessageID != 0 {
		if err := h.gw.EditMessage(ctx, ev.ChatID, ev.MessageID, text); err == nil {
			return
		}
	}
	h.say(ctx, ev.ChatID, text)
}
