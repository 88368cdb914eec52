package handlers

import (
	"context"
	"strings"
	"testing"

	"habitQuestBot/internal/gateway"
	"habitQuestBot/internal/types/user"
)

type sentMessage struct {
	chatID  int64
	text    string
	choices []gateway.Choice
}

type fakeGateway struct {
	events chan gateway.Event
	sent   []sentMessage
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{events: make(chan gateway.Event)}
}

func (f *fakeGateway) Events() <-chan gateway.Event { return f.events }

func (f *fakeGateway) SendMessage(ctx context.Context, chatID int64, text string, choices []gateway.Choice) error {
	f.sent = append(f.sent, sentMessage{chatID, text, choices})
	return nil
}

func (f *fakeGateway) EditMessage(ctx context.Context, chatID int64, messageID int, text string) error {
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func (f *fakeGateway) AnswerCallback(ctx context.Context, callbackID string) error { return nil }

func newTestBotHandler(gw gateway.Gateway) *BotHandler {
	return NewBotHandler(gw, nil, nil, nil, nil)
}

func TestTextWithoutConversationPointsToHelp(t *testing.T) {
	gw := newFakeGateway()
	h := newTestBotHandler(gw)

	h.handleText(context.Background(), &user.User{}, gateway.Event{
		Kind:   gateway.EventText,
		ChatID: 42,
		Text:   "привет",
	})

	if len(gw.sent) != 1 {
		t.Fatalf("expected 1 reply, got %d", len(gw.sent))
	}
	if !strings.Contains(gw.sent[0].text, "/help") {
		t.Errorf("reply should point to /help, got %q", gw.sent[0].text)
	}
}

func TestCreateHabitNameStepAdvancesToScheduleChoice(t *testing.T) {
	gw := newFakeGateway()
	h := newTestBotHandler(gw)

	h.setConversation(42, &conversation{stage: stageHabitName})
	h.handleText(context.Background(), &user.User{}, gateway.Event{
		Kind:   gateway.EventText,
		ChatID: 42,
		Text:   "Зарядка",
	})

	conv := h.getConversation(42)
	if conv == nil || conv.stage != stageHabitSchedule {
		t.Fatalf("expected conversation to advance to schedule stage, got %+v", conv)
	}
	if conv.draft.Name != "Зарядка" {
		t.Errorf("draft name = %q, want Зарядка", conv.draft.Name)
	}
	if len(gw.sent) != 1 || len(gw.sent[0].choices) != 3 {
		t.Errorf("expected one reply with 3 schedule choices, got %+v", gw.sent)
	}
}

func TestCreateHabitRejectsEmptyName(t *testing.T) {
	gw := newFakeGateway()
	h := newTestBotHandler(gw)

	h.setConversation(42, &conversation{stage: stageHabitName})
	h.handleText(context.Background(), &user.User{}, gateway.Event{
		Kind:   gateway.EventText,
		ChatID: 42,
		Text:   "   ",
	})

	conv := h.getConversation(42)
	if conv == nil || conv.stage != stageHabitName {
		t.Errorf("conversation should stay on the name stage, got %+v", conv)
	}
}

func TestCustomDaysStepRejectsUnknownTokens(t *testing.T) {
	gw := newFakeGateway()
	h := newTestBotHandler(gw)

	h.setConversation(42, &conversation{stage: stageHabitDays})
	h.handleText(context.Background(), &user.User{}, gateway.Event{
		Kind:   gateway.EventText,
		ChatID: 42,
		Text:   "mon,tue",
	})

	conv := h.getConversation(42)
	if conv == nil || conv.stage != stageHabitDays {
		t.Errorf("conversation should stay on the days stage, got %+v", conv)
	}
}

func TestCustomDaysStepAcceptsTokensAndEveryDay(t *testing.T) {
	cases := []struct {
		input    string
		wantDays string
	}{
		{"пн,ср,пт", "пн,ср,пт"},
		{"все", ""},
	}

	for _, tc := range cases {
		gw := newFakeGateway()
		h := newTestBotHandler(gw)

		h.setConversation(42, &conversation{stage: stageHabitDays})
		h.handleText(context.Background(), &user.User{}, gateway.Event{
			Kind:   gateway.EventText,
			ChatID: 42,
			Text:   tc.input,
		})

		conv := h.getConversation(42)
		if conv == nil || conv.stage != stageHabitTime {
			t.Fatalf("input %q: expected time stage, got %+v", tc.input, conv)
		}
		if conv.draft.CustomDays != tc.wantDays {
			t.Errorf("input %q: days = %q, want %q", tc.input, conv.draft.CustomDays, tc.wantDays)
		}
	}
}

func TestCustomTimeStepRejectsMalformedTime(t *testing.T) {
	gw := newFakeGateway()
	h := newTestBotHandler(gw)

	h.setConversation(42, &conversation{stage: stageHabitTime})
	h.handleText(context.Background(), &user.User{}, gateway.Event{
		Kind:   gateway.EventText,
		ChatID: 42,
		Text:   "25:99",
	})

	conv := h.getConversation(42)
	if conv == nil || conv.stage != stageHabitTime {
		t.Errorf("conversation should stay on the time stage, got %+v", conv)
	}
	if len(gw.sent) != 1 || !strings.Contains(gw.sent[0].text, "ЧЧ:ММ") {
		t.Errorf("expected a format hint, got %+v", gw.sent)
	}
}
