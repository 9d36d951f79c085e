package telegram

import (
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"rebels-bot/internal/domain"
)

// DecodeCommand turns a Telegram command message into a domain.Command.
//
// The transfer target is taken, in order, from a text_mention entity, a
// numeric user ID argument, or the author of the message being replied to.
// Replies to bots never name a target, and an argument that is not a user ID
// leaves the target empty. The amount is the last argument; if it does not
// parse, Amount stays 0.
func DecodeCommand(msg *tgbotapi.Message) (domain.Command, bool) {
	if msg == nil || msg.From == nil || !msg.IsCommand() {
		return domain.Command{}, false
	}

	cmd := domain.Command{
		Name:   domain.CommandName(strings.ToLower(msg.Command())),
		Caller: toUser(msg.From),
	}
	if cmd.Name != domain.CommandTransfer {
		return cmd, true
	}

	args := strings.Fields(msg.CommandArguments())
	if len(args) > 0 {
		if amount, err := strconv.ParseInt(args[len(args)-1], 10, 64); err == nil {
			cmd.Amount = amount
			args = args[:len(args)-1]
		}
	}

	switch {
	case textMention(msg) != nil:
		cmd.Target = toUser(textMention(msg))
	case len(args) > 0:
		if id, err := strconv.ParseInt(args[0], 10, 64); err == nil && id > 0 {
			cmd.Target = domain.User{ID: strconv.FormatInt(id, 10)}
		}
	case msg.ReplyToMessage != nil && msg.ReplyToMessage.From != nil && !msg.ReplyToMessage.From.IsBot:
		cmd.Target = toUser(msg.ReplyToMessage.From)
	}
	return cmd, true
}

func textMention(msg *tgbotapi.Message) *tgbotapi.User {
	for _, e := range msg.Entities {
		if e.Type == "text_mention" && e.User != nil {
			return e.User
		}
	}
	return nil
}

func toUser(u *tgbotapi.User) domain.User {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if u.UserName != "" {
		name = "@" + u.UserName
	}
	return domain.User{
		ID:          strconv.FormatInt(u.ID, 10),
		DisplayName: name,
	}
}
