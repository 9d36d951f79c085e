package telegram

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"rebels-bot/internal/domain"
)

// RenderReply builds an HTML message for reply. Ephemeral replies are
// threaded under the invoking message since Telegram has no private replies
// inside group chats.
func RenderReply(chatID int64, replyTo int, reply domain.Reply) tgbotapi.MessageConfig {
	var b strings.Builder

	if reply.Title != "" {
		fmt.Fprintf(&b, "<b>%s</b>\n", escape(reply.Title))
	}
	if reply.Description != "" {
		b.WriteString(escape(reply.Description))
		b.WriteString("\n")
	}
	for _, e := range reply.Entries {
		fmt.Fprintf(&b, "<b>%d.</b> %s - %d %s (%s)\n", e.Rank, mention(e.UserID, e.DisplayName), e.Balance, domain.CurrencyName, escape(e.Tier))
	}
	if len(reply.Fields) > 0 {
		b.WriteString("\n")
		for _, f := range reply.Fields {
			value := escape(f.Value)
			if f.UserID != "" {
				value = mention(f.UserID, f.Value)
			}
			fmt.Fprintf(&b, "<b>%s:</b> %s\n", escape(f.Name), value)
		}
	}
	if reply.Footer != "" {
		fmt.Fprintf(&b, "\n<i>%s</i>", escape(reply.Footer))
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimRight(b.String(), "\n"))
	msg.ParseMode = tgbotapi.ModeHTML
	if reply.Ephemeral {
		msg.ReplyToMessageID = replyTo
	}
	return msg
}

func escape(text string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeHTML, text)
}

// mention links to a user profile when userID is a Telegram ID.
func mention(userID, label string) string {
	if label == "" {
		label = userID
	}
	if _, err := strconv.ParseInt(userID, 10, 64); err != nil {
		return escape(label)
	}
	return fmt.Sprintf(`<a href="tg://user?id=%s">%s</a>`, userID, escape(label))
}
