package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"habitQuestBot/internal/gateway"
	"habitQuestBot/internal/types/habit"
	"habitQuestBot/internal/types/user"
)

// PushProvider is the optional secondary delivery channel. nil means chat
// messages only.
type PushProvider interface {
	SendPush(ctx context.Context, tokens []user.DeviceToken, title, body string) error
}

// ReminderDispatcher turns one user's due habits into a single outbound
// reminder. The scanner decides WHO gets reminded; this type only decides
// HOW the reminder looks and where it goes.
type ReminderDispatcher struct {
	gw    gateway.Gateway
	users *UserService

	pushProvider PushProvider
}

func NewReminderDispatcher(gw gateway.Gateway, users *UserService) *ReminderDispatcher {
	return &ReminderDispatcher{gw: gw, users: users}
}

// SetPushProvider enables push mirroring. Call before the scanner starts.
func (d *ReminderDispatcher) SetPushProvider(p PushProvider) {
	d.pushProvider = p
	log.Println("ReminderDispatcher: push provider attached")
}

// DeliverReminder sends one merged message listing every due habit.
// A chat send failure is the caller's error; push mirroring is best-effort
// and only logged.
func (d *ReminderDispatcher) DeliverReminder(ctx context.Context, u *user.User, habits []habit.Habit) error {
	if len(habits) == 0 {
		return nil
	}

	text := buildReminderText(habits)
	if err := d.gw.SendMessage(ctx, u.TelegramID, text, nil); err != nil {
		return fmt.Errorf("failed to deliver reminder to user %d: %w", u.TelegramID, err)
	}

	if d.pushProvider != nil {
		tokens, err := d.users.GetDeviceTokens(ctx, u.ID)
		if err != nil {
			log.Printf("ReminderDispatcher: device token lookup for %s failed: %v", u.ID, err)
			return nil
		}
		if len(tokens) > 0 {
			body := pushBody(habits)
			if err := d.pushProvider.SendPush(ctx, tokens, "Напоминание о привычках", body); err != nil {
				log.Printf("ReminderDispatcher: push mirror for %s failed: %v", u.ID, err)
			}
		}
	}
	return nil
}

func buildReminderText(habits []habit.Habit) string {
	var b strings.Builder
	b.WriteString("🔔 Напоминание о привычках!\n\n")
	b.WriteString("Не забудьте выполнить сегодня:\n")
	for i, h := range habits {
		fmt.Fprintf(&b, "%d. %s\n", i+1, h.Name)
	}
	b.WriteString("\nОтметить выполнение: /complete")
	return b.String()
}

func pushBody(habits []habit.Habit) string {
	names := make([]string, len(habits))
	for i, h := range habits {
		names[i] = h.Name
	}
	return "Не забудьте: " + strings.Join(names, ", ")
}
