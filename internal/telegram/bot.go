package telegram

import (
	"bytes"
	"coin-tracker-bot/internal/metrics"
	"context"
	"fmt"
	"runtime"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ErrUpdatesClosed is returned by Run when Telegram stops delivering updates
var ErrUpdatesClosed = errors.New("telegram updates channel closed")

// Bot telegram interaction client
type Bot struct {
	api     api
	Config  BotConfig
	handler CommandHandler
	metrics *metrics.Metrics
}

// NewBot creates new telegram bot
func NewBot(c BotConfig, handler CommandHandler, m *metrics.Metrics) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(c.Token)
	if err != nil {
		return nil, errors.Wrap(err, "could not create telegram bot")
	}

	bot.Debug = c.Debug
	log.Infof("Authorized on account %s", bot.Self.UserName)

	return newBot(bot, c, handler, m), nil
}

func newBot(a api, c BotConfig, handler CommandHandler, m *metrics.Metrics) *Bot {
	return &Bot{
		api:     a,
		Config:  c,
		handler: handler,
		metrics: m,
	}
}

// RegisterCommands publishes the command menu shown by Telegram clients
func (b *Bot) RegisterCommands() error {
	_, err := b.api.Request(tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "price", Description: "Current price of a coin"},
		tgbotapi.BotCommand{Command: "up", Description: "Alert when price goes above a target"},
		tgbotapi.BotCommand{Command: "down", Description: "Alert when price goes below a target"},
		tgbotapi.BotCommand{Command: "list", Description: "Show your active alerts"},
		tgbotapi.BotCommand{Command: "clear", Description: "Delete all your alerts"},
		tgbotapi.BotCommand{Command: "help", Description: "Display help instructions"},
	))
	return errors.Wrap(err, "could not set bot commands")
}

// GetUpdatesChannel gets new updates updates
func (b *Bot) GetUpdatesChannel() tgbotapi.UpdatesChannel {
	updatesConfig := tgbotapi.NewUpdate(0)
	if b.Config.UpdatesTimeout > 0 {
		updatesConfig.Timeout = b.Config.UpdatesTimeout
	}
	return b.api.GetUpdatesChan(updatesConfig)
}

// Stop stops long polling; the updates channel is closed afterwards
func (b *Bot) Stop() {
	b.api.StopReceivingUpdates()
}

// SendMessage sends a telegram message
func (b *Bot) SendMessage(m Message) error {
	if m.Text == "" {
		return nil
	}
	msg := tgbotapi.NewMessage(m.ChatID, m.Text)
	msg.ReplyToMessageID = m.MessageID
	msg.DisableWebPagePreview = true
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	_, err := b.api.Send(msg)
	return errors.Wrapf(err, "could not send message to chat %d", m.ChatID)
}

// Notify delivers an alert notification to chatID
func (b *Bot) Notify(_ context.Context, chatID int64, text string) error {
	return b.SendMessage(Message{ChatID: chatID, Text: text})
}

// Run dispatches updates until ctx is done or the channel is closed
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return ErrUpdatesClosed
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil || !update.Message.IsCommand() {
		log.Debug("Received non-message or non-command")
		return
	}

	chatID := update.Message.Chat.ID
	chatName := update.Message.Chat.Title
	if chatName == "" {
		chatName = fmt.Sprintf("%s-%d", "PrivateChat", chatID)
	}
	b.metrics.ObserveMessage(chatID, chatName)

	b.handleCommand(ctx, update.Message)
}

func (b *Bot) handleCommand(ctx context.Context, m *tgbotapi.Message) {
	defer func() {
		if r := recover(); r != nil {
			stackBuf := make([]byte, 1024)
			stackSize := runtime.Stack(stackBuf, false)
			stackTrace := bytes.TrimRight(stackBuf[:stackSize], "\x00")
			log.Errorf("Recovered from panic: %v\nStack trace: %s", r, stackTrace)
		}
	}()

	text := b.handler.Handle(ctx, m.Chat.ID, m.Command(), m.CommandArguments())

	err := b.SendMessage(Message{
		ChatID:    m.Chat.ID,
		Text:      text,
		MessageID: m.MessageID,
	})
	if err != nil {
		log.Errorf("Failed to send message: %v", err)
		return
	}
	b.metrics.CommandProcessed()
}
