// Package gateway is the messaging boundary. The rest of the bot only ever
// sees discrete inbound events and a SendMessage call; transport payloads
// never leak past this package.
package gateway

import "context"

type EventKind string

const (
	EventCommand  EventKind = "command"  // "/complete 2"
	EventCallback EventKind = "callback" // user pressed an inline choice
	EventText     EventKind = "text"     // free text following a prompt
)

// Sender describes who triggered an event.
type Sender struct {
	TelegramID int64
	Username   string
	FirstName  string
	LastName   string
}

// Event is one discrete inbound interaction.
type Event struct {
	Kind   EventKind
	From   Sender
	ChatID int64

	// Command events
	Command string
	Args    []string

	// Callback events
	CallbackID   string
	CallbackData string
	MessageID    int // message the pressed keyboard was attached to

	// Text events
	Text string
}

// Choice is one selectable option rendered under an outbound message.
type Choice struct {
	Label string
	Data  string
}

// Gateway delivers inbound events and accepts outbound messages. Delivery
// is best-effort: no confirmation is consumed, no retry is performed here.
type Gateway interface {
	// Events returns the inbound event stream. Closed when Run returns.
	Events() <-chan Event

	// SendMessage sends text to a chat, optionally with a choice keyboard.
	SendMessage(ctx context.Context, chatID int64, text string, choices []Choice) error

	// EditMessage replaces the text of a previously sent message and
	// drops its keyboard.
	EditMessage(ctx context.Context, chatID int64, messageID int, text string) error

	// AnswerCallback acknowledges a callback press so the client stops
	// showing a spinner.
	AnswerCallback(ctx context.Context, callbackID string) error
}
