package telegram

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"github.com/korjavin/curfewbot/pkg/logger"
)

// Bot represents a Telegram bot instance
type Bot struct {
	api    *tgbotapi.BotAPI
	logger *logger.Logger
}

// HandlerFunc is a function that handles a Telegram update
type HandlerFunc func(update tgbotapi.Update)

// CommandHandler is a function that handles a Telegram command
type CommandHandler func(message *tgbotapi.Message)

// New creates a new Telegram bot instance
func New(token string) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Telegram bot")
	}

	bot := &Bot{
		api:    api,
		logger: logger.New("telegram"),
	}

	bot.logger.Info("Telegram bot created: @%s", api.Self.UserName)
	return bot, nil
}

// Start starts the bot and routes incoming updates. Commands go to their
// handler, everything else to defaultHandler.
func (b *Bot) Start(commandHandlers map[string]CommandHandler, defaultHandler HandlerFunc) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		if update.Message != nil && update.Message.IsCommand() {
			command := update.Message.Command()
			if handler, ok := commandHandlers[command]; ok {
				b.logger.Info("Handling command /%s from user %s in chat %d",
					command, update.Message.From.UserName, update.Message.Chat.ID)
				handler(update.Message)
				continue
			}
		}

		if defaultHandler != nil {
			defaultHandler(update)
		}
	}

	return nil
}

// Stop stops receiving updates, which ends the Start loop
func (b *Bot) Stop() {
	b.api.StopReceivingUpdates()
}

// SendMessage sends a text message to a chat
func (b *Bot) SendMessage(chatID int64, text string) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	return b.api.Send(msg)
}

// KickFromVoiceChat removes a user from the chat's voice session. The Bot
// API has no dedicated call for this, so the bot bans the member with a
// short expiry and immediately unbans them: the ban drops them from the
// voice chat, the unban lets them rejoin the group.
func (b *Bot) KickFromVoiceChat(ctx context.Context, chatID, userID int64) error {
	done := make(chan error, 1)
	go func() {
		done <- b.kick(chatID, userID)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bot) kick(chatID, userID int64) error {
	ban := tgbotapi.BanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{
			ChatID: chatID,
			UserID: userID,
		},
		// Bans shorter than 30s are treated as permanent by the API.
		UntilDate: time.Now().Add(time.Minute).Unix(),
	}
	if _, err := b.api.Request(ban); err != nil {
		return errors.Wrap(err, "ban failed")
	}

	unban := tgbotapi.UnbanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{
			ChatID: chatID,
			UserID: userID,
		},
		OnlyIfBanned: true,
	}
	if _, err := b.api.Request(unban); err != nil {
		return errors.Wrap(err, "unban failed")
	}

	return nil
}
