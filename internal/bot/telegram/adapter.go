// Package telegram connects the command router to the Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"rebels-bot/internal/domain"
	"rebels-bot/internal/util"
)

// HandlerTimeout bounds the handling of a single interaction.
const HandlerTimeout = 30 * time.Second

const genericFailureText = "Something went wrong, please try again later."

// BotAPI abstracts the Telegram bot methods used by the adapter.
// *tgbotapi.BotAPI satisfies it.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Dispatcher is the callback the adapter invokes once per command.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd domain.Command) (domain.Reply, error)
}

// Adapter receives updates, forwards commands to the Dispatcher and sends
// the rendered replies back.
type Adapter struct {
	api        BotAPI
	dispatcher Dispatcher
	logger     *slog.Logger
	username   string // Bot username, used to ignore commands meant for other bots

	wg sync.WaitGroup
}

// NewAdapter creates an Adapter. username may be empty.
func NewAdapter(api BotAPI, dispatcher Dispatcher, username string, logger *slog.Logger) *Adapter {
	return &Adapter{
		api:        api,
		dispatcher: dispatcher,
		logger:     logger,
		username:   username,
	}
}

// BotCommands converts the command definitions into Telegram's command list.
func BotCommands() []tgbotapi.BotCommand {
	defs := domain.CommandDefinitions()
	commands := make([]tgbotapi.BotCommand, 0, len(defs))
	for _, def := range defs {
		description := def.Description
		if len(def.Options) > 0 {
			names := make([]string, 0, len(def.Options))
			for _, opt := range def.Options {
				names = append(names, "<"+opt.Name+">")
			}
			description += " " + strings.Join(names, " ")
		}
		commands = append(commands, tgbotapi.BotCommand{
			Command:     string(def.Name),
			Description: description,
		})
	}
	return commands
}

// RegisterCommands publishes the command list, retrying with exponential
// backoff until it succeeds, ctx ends or maxElapsed passes.
func (a *Adapter) RegisterCommands(ctx context.Context, maxElapsed time.Duration) error {
	cfg := tgbotapi.NewSetMyCommands(BotCommands()...)

	_, err := backoff.Retry(ctx,
		func() (*tgbotapi.APIResponse, error) {
			return a.api.Request(cfg)
		},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(maxElapsed),
		backoff.WithNotify(func(err error, next time.Duration) {
			a.logger.Warn("Command registration failed, retrying", "error", err, "retry_in", next)
		}),
	)
	if err != nil {
		return fmt.Errorf("register commands: %w", err)
	}
	a.logger.Info("Commands registered", "count", len(cfg.Commands))
	return nil
}

// Run long-polls for updates until ctx is cancelled, handling each command
// in its own goroutine. It waits for in-flight handlers before returning.
func (a *Adapter) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := a.api.GetUpdatesChan(u)

	defer a.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			a.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			msg := update.Message
			a.wg.Add(1)
			go func() {
				defer a.wg.Done()
				a.HandleMessage(ctx, msg)
			}()
		}
	}
}

// HandleMessage decodes one command message, dispatches it and sends the reply.
func (a *Adapter) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !a.addressedToUs(msg) {
		return
	}
	cmd, ok := DecodeCommand(msg)
	if !ok {
		return
	}
	cmd.ID = uuid.NewString()

	// Handlers finish even when shutdown cancels the polling context.
	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), HandlerTimeout)
	defer cancel()

	logger := a.logger.With("interaction_id", cmd.ID, "command", cmd.Name, "chat_id", msg.Chat.ID)

	reply, err := a.dispatcher.Dispatch(hctx, cmd)
	var out tgbotapi.MessageConfig
	if err != nil {
		if util.IsStorageError(err) {
			logger.Error("Storage failure while handling command", "error", err)
		} else {
			logger.Error("Unexpected failure while handling command", "error", err)
		}
		out = tgbotapi.NewMessage(msg.Chat.ID, genericFailureText)
		out.ReplyToMessageID = msg.MessageID
	} else {
		out = RenderReply(msg.Chat.ID, msg.MessageID, reply)
	}

	if _, err := a.api.Send(out); err != nil {
		logger.Error("Failed to send reply", "error", err)
	}
}

func (a *Adapter) addressedToUs(msg *tgbotapi.Message) bool {
	if msg == nil || msg.Chat == nil || !msg.IsCommand() {
		return false
	}
	if a.username == "" {
		return true
	}
	_, target, found := strings.Cut(msg.CommandWithAt(), "@")
	return !found || strings.EqualFold(target, a.username)
}
