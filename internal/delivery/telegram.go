// Package delivery sends messages to learners over Telegram.
package delivery

import (
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// ErrRecipientGone marks a permanent delivery failure: the user blocked
// the bot, deleted their account or the chat no longer exists. Callers
// should stop messaging such users.
var ErrRecipientGone = errors.New("recipient unreachable")

// Telegram delivers messages through the Bot API.
type Telegram struct {
	bot *tgbotapi.BotAPI
	log *zap.Logger
}

// NewTelegram authenticates against the Bot API with the given token.
func NewTelegram(token string, log *zap.Logger) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	log.Info("telegram bot authorized", zap.String("username", bot.Self.UserName))
	return &Telegram{bot: bot, log: log}, nil
}

// Send delivers text to the user's chat. Markdown is enabled and link
// previews are suppressed.
func (t *Telegram) Send(userID int64, text string) error {
	msg := tgbotapi.NewMessage(userID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true

	if _, err := t.bot.Send(msg); err != nil {
		if recipientGone(err) {
			return fmt.Errorf("send to %d: %w", userID, ErrRecipientGone)
		}
		return fmt.Errorf("send to %d: %w", userID, err)
	}
	return nil
}

// recipientGone recognizes the Bot API errors that mean the user can
// never be reached again.
func recipientGone(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "bot was blocked") ||
		strings.Contains(msg, "user is deactivated") ||
		strings.Contains(msg, "chat not found")
}
