// Package bot delivers operational alerts to administrator Telegram chats.
// Chat ids come from configuration; membership is managed through the
// admin HTTP API, not through bot commands.
package bot

import (
	"fmt"
	"log/slog"
	"strings"
	"techlog/lib/sl"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
)

// TgBot fans messages out to a fixed set of chats. It is wired behind a
// slog handler, so a failed send must never feed back into the logger.
type TgBot struct {
	log     *slog.Logger
	api     *tgbotapi.Bot
	chatIds []int64
}

func NewTgBot(apiKey string, chatIds []int64, log *slog.Logger) (*TgBot, error) {
	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}
	return &TgBot{
		log:     log.With(sl.Module("tgbot")),
		api:     api,
		chatIds: chatIds,
	}, nil
}

func (t *TgBot) SendMessage(msg string) {
	t.SendMessageWithLevel(msg, slog.LevelInfo)
}

// SendMessageWithLevel sends a message to every configured chat.
// The level is part of the message body; filtering happens in the
// slog handler before the bot is reached.
func (t *TgBot) SendMessageWithLevel(msg string, level slog.Level) {
	for _, chatId := range t.chatIds {
		_, err := t.api.SendMessage(chatId, msg, &tgbotapi.SendMessageOpts{
			ParseMode: "MarkdownV2",
		})
		if err != nil {
			t.log.With(
				slog.Int64("chat_id", chatId),
				slog.String("level", level.String()),
			).Debug("telegram send failed: " + err.Error())
		}
	}
}

// Sanitize escapes Telegram MarkdownV2 reserved characters.
func Sanitize(input string) string {
	reservedChars := "\\_{}#+-.!|()[]=*"
	sanitized := ""
	for _, char := range input {
		if strings.ContainsRune(reservedChars, char) {
			sanitized += "\\" + string(char)
		} else {
			sanitized += string(char)
		}
	}
	return sanitized
}
