package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultAPIBase   = "https://api.telegram.org"
	longPollSeconds  = 50
	eventsBufferSize = 100
)

// TelegramGateway implements Gateway over the Telegram Bot API with long
// polling. Outbound sends are rate limited to stay under the Bot API's
// ~30 messages/second ceiling.
type TelegramGateway struct {
	token   string
	apiBase string
	client  *http.Client
	limiter *rate.Limiter
	events  chan Event
	offset  int64
}

func NewTelegramGateway(token string) *TelegramGateway {
	return &TelegramGateway{
		token:   token,
		apiBase: defaultAPIBase,
		client: &http.Client{
			// Long poll waits up to longPollSeconds server-side.
			Timeout: (longPollSeconds + 10) * time.Second,
		},
		limiter: rate.NewLimiter(25, 30),
		events:  make(chan Event, eventsBufferSize),
	}
}

func (g *TelegramGateway) Events() <-chan Event {
	return g.events
}

// Run polls getUpdates until ctx is cancelled, converting updates into
// Events. Poll errors are logged and retried after a short pause; they
// never terminate the loop.
func (g *TelegramGateway) Run(ctx context.Context) {
	defer close(g.events)

	log.Println("Telegram gateway: starting long poll")
	for {
		select {
		case <-ctx.Done():
			log.Println("Telegram gateway: stopping")
			return
		default:
		}

		updates, err := g.getUpdates(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("Telegram gateway: getUpdates failed: %v", err)
			time.Sleep(3 * time.Second)
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= g.offset {
				g.offset = u.UpdateID + 1
			}
			if ev, ok := updateToEvent(u); ok {
				select {
				case g.events <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

func (g *TelegramGateway) SendMessage(ctx context.Context, chatID int64, text string, choices []Choice) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}

	payload := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	if len(choices) > 0 {
		rows := make([][]map[string]string, 0, len(choices))
		for _, c := range choices {
			rows = append(rows, []map[string]string{{
				"text":          c.Label,
				"callback_data": c.Data,
			}})
		}
		payload["reply_markup"] = map[string]any{"inline_keyboard": rows}
	}

	return g.call(ctx, "sendMessage", payload, nil)
}

func (g *TelegramGateway) EditMessage(ctx context.Context, chatID int64, messageID int, text string) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}
	return g.call(ctx, "editMessageText", map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
	}, nil)
}

func (g *TelegramGateway) AnswerCallback(ctx context.Context, callbackID string) error {
	return g.call(ctx, "answerCallbackQuery", map[string]any{
		"callback_query_id": callbackID,
	}, nil)
}

// -------------------------------------------------------------------------
// Bot API wire types (subset)
// -------------------------------------------------------------------------

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
}

type tgUpdate struct {
	UpdateID int64       `json:"update_id"`
	Message  *tgMessage  `json:"message"`
	Callback *tgCallback `json:"callback_query"`
}

type tgMessage struct {
	MessageID int     `json:"message_id"`
	From      *tgUser `json:"from"`
	Chat      tgChat  `json:"chat"`
	Text      string  `json:"text"`
}

type tgUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type tgChat struct {
	ID int64 `json:"id"`
}

type tgCallback struct {
	ID      string     `json:"id"`
	From    tgUser     `json:"from"`
	Message *tgMessage `json:"message"`
	Data    string     `json:"data"`
}

func (g *TelegramGateway) getUpdates(ctx context.Context) ([]tgUpdate, error) {
	var updates []tgUpdate
	err := g.call(ctx, "getUpdates", map[string]any{
		"offset":          g.offset,
		"timeout":         longPollSeconds,
		"allowed_updates": []string{"message", "callback_query"},
	}, &updates)
	return updates, err
}

// call POSTs a JSON payload to one Bot API method and decodes the result.
func (g *TelegramGateway) call(ctx context.Context, method string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", g.apiBase, g.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	var api apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if !api.OK {
		return fmt.Errorf("%s: telegram error: %s", method, api.Description)
	}
	if out != nil {
		if err := json.Unmarshal(api.Result, out); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
	}
	return nil
}

// updateToEvent converts one raw update into a gateway Event.
func updateToEvent(u tgUpdate) (Event, bool) {
	switch {
	case u.Callback != nil:
		ev := Event{
			Kind:         EventCallback,
			From:         senderFrom(&u.Callback.From),
			CallbackID:   u.Callback.ID,
			CallbackData: u.Callback.Data,
		}
		if u.Callback.Message != nil {
			ev.ChatID = u.Callback.Message.Chat.ID
			ev.MessageID = u.Callback.Message.MessageID
		} else {
			ev.ChatID = u.Callback.From.ID
		}
		return ev, true

	case u.Message != nil && u.Message.From != nil:
		text := strings.TrimSpace(u.Message.Text)
		if text == "" {
			return Event{}, false
		}
		ev := Event{
			From:   senderFrom(u.Message.From),
			ChatID: u.Message.Chat.ID,
		}
		if strings.HasPrefix(text, "/") {
			fields := strings.Fields(text)
			cmd := strings.TrimPrefix(fields[0], "/")
			// Commands in group chats arrive as "/cmd@BotName".
			if at := strings.Index(cmd, "@"); at >= 0 {
				cmd = cmd[:at]
			}
			ev.Kind = EventCommand
			ev.Command = strings.ToLower(cmd)
			ev.Args = fields[1:]
		} else {
			ev.Kind = EventText
			ev.Text = text
		}
		return ev, true
	}
	return Event{}, false
}

func senderFrom(u *tgUser) Sender {
	return Sender{
		TelegramID: u.ID,
		Username:   u.Username,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
	}
}
