// Package telegram runs the bot over Telegram long polling. The transport
// reconnects with bounded backoff when polling drops and stops for good
// when the API reports the token is revoked.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	applog "duitbot/internal/log"
)

// State tracks the polling connection lifecycle.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateLoggedOut
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateLoggedOut:
		return "logged_out"
	default:
		return "unknown"
	}
}

// Handler receives one inbound text message. The sender id is the chat id
// rendered as a string so the dispatcher stays transport-agnostic.
type Handler interface {
	HandleMessage(ctx context.Context, sender, text string)
}

// updatesClient is the slice of the Bot API the polling loop calls.
// GetUpdates is driven directly, not through GetUpdatesChan, so request
// errors surface here instead of being retried inside the library.
type updatesClient interface {
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

type Transport struct {
	api     *tgbotapi.BotAPI
	client  updatesClient
	handler Handler
	logger  *applog.Logger
	botName string

	state       atomic.Int32
	pollTimeout int
	sleep       func(ctx context.Context, d time.Duration) error
}

func NewTransport(token string, handler Handler, logger *applog.Logger) (*Transport, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	api.Debug = false

	t := &Transport{
		api:         api,
		client:      api,
		handler:     handler,
		logger:      logger.WithComponent(applog.ComponentTelegram),
		botName:     api.Self.UserName,
		pollTimeout: 60,
		sleep:       sleepContext,
	}
	t.state.Store(int32(StateDisconnected))
	return t, nil
}

func (t *Transport) State() State {
	return State(t.state.Load())
}

func (t *Transport) setState(s State) {
	old := State(t.state.Swap(int32(s)))
	if old != s {
		t.logger.Info("connection state changed", "from", old.String(), "to", s.String())
	}
}

// SendText implements the dispatcher's Sender. The recipient is a chat id.
func (t *Transport) SendText(_ context.Context, recipient, text string) error {
	chatID, err := strconv.ParseInt(recipient, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", recipient, err)
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("send message to chat %d: %w", chatID, err)
	}
	return nil
}

// Run long-polls for updates until ctx is cancelled or the token is
// revoked. Transient poll failures back off with growing delay; the backoff
// resets only once a poll succeeds. An Unauthorized response is terminal:
// the operator has to re-issue the token.
func (t *Transport) Run(ctx context.Context) error {
	t.setState(StateConnecting)
	t.logger.Info("polling for updates", "bot", t.botName)

	offset := 0
	attempt := 0
	for {
		if ctx.Err() != nil {
			t.setState(StateDisconnected)
			return ctx.Err()
		}

		u := tgbotapi.NewUpdate(offset)
		u.Timeout = t.pollTimeout
		updates, err := t.client.GetUpdates(u)
		if err != nil {
			if isUnauthorized(err) {
				t.setState(StateLoggedOut)
				return fmt.Errorf("telegram token revoked: %w", err)
			}
			t.setState(StateDisconnected)
			delay := reconnectBackoff(attempt)
			attempt++
			t.logger.Warn("poll failed, retrying",
				applog.FieldError, err,
				"delay", delay,
				"attempt", attempt)
			if err := t.sleep(ctx, delay); err != nil {
				return err
			}
			t.setState(StateConnecting)
			continue
		}

		t.setState(StateConnected)
		attempt = 0

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			t.handleUpdate(ctx, upd)
		}
	}
}

func (t *Transport) handleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message == nil || upd.Message.Text == "" {
		return
	}
	// Group chats are out of scope, answer only direct messages.
	if !upd.Message.Chat.IsPrivate() {
		return
	}
	sender := strconv.FormatInt(upd.Message.Chat.ID, 10)
	t.handler.HandleMessage(ctx, sender, upd.Message.Text)
}

// reconnectBackoff returns 1s, 2s, 4s, ... capped at 30s.
func reconnectBackoff(attempt int) time.Duration {
	const maxDelay = 30 * time.Second
	if attempt > 5 {
		return maxDelay
	}
	delay := time.Second << uint(attempt)
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}

func isUnauthorized(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Unauthorized") || strings.Contains(msg, "401")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
