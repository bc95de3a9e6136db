package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotConfig configuration of the bot
type BotConfig struct {
	Token          string
	Debug          bool
	UpdatesTimeout int
}

// Message a telegram message struct
type Message struct {
	ChatID    int64
	MessageID int
	Text      string
}

// api is the part of tgbotapi.BotAPI the bot uses
type api interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// CommandHandler answers a chat command with reply text
type CommandHandler interface {
	Handle(ctx context.Context, chatID int64, command, args string) string
}
