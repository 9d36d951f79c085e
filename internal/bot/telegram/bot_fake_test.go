package telegram

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"rebels-bot/internal/domain"
)

type fakeBot struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	failures int // Request calls to fail before succeeding, -1 for always
	updates  chan tgbotapi.Update
	stopped  bool
	sendErr  error
	nextID   int
}

func newFakeBot() *fakeBot {
	return &fakeBot{updates: make(chan tgbotapi.Update, 16)}
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, c)
	b.nextID++
	return tgbotapi.Message{MessageID: b.nextID, Chat: &tgbotapi.Chat{ID: 1}}, b.sendErr
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, c)
	if b.failures != 0 {
		if b.failures > 0 {
			b.failures--
		}
		return nil, errors.New("telegram: Too Many Requests")
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return b.updates
}

func (b *fakeBot) StopReceivingUpdates() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopped = true
}

func (b *fakeBot) messages() []tgbotapi.MessageConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]tgbotapi.MessageConfig, 0, len(b.sent))
	for _, c := range b.sent {
		if msg, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, msg)
		}
	}
	return out
}

func (b *fakeBot) requestCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

// fakeDispatcher records commands and answers with a fixed reply or error.
type fakeDispatcher struct {
	mu       sync.Mutex
	commands []domain.Command
	reply    domain.Reply
	err      error
}

func (d *fakeDispatcher) Dispatch(_ context.Context, cmd domain.Command) (domain.Reply, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.commands = append(d.commands, cmd)
	return d.reply, d.err
}

func (d *fakeDispatcher) received() []domain.Command {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]domain.Command(nil), d.commands...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// commandMessage builds a message whose first word is a bot_command entity.
func commandMessage(text string, from *tgbotapi.User) *tgbotapi.Message {
	command, _, _ := strings.Cut(text, " ")
	return &tgbotapi.Message{
		MessageID: 7,
		From:      from,
		Chat:      &tgbotapi.Chat{ID: 100},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(command)}},
	}
}
