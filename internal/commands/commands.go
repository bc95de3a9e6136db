package commands

import (
	"coin-tracker-bot/internal/alert"
	"coin-tracker-bot/internal/types"
	"coin-tracker-bot/lib/helpers"
	"coin-tracker-bot/lib/translation"
	"context"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Handler turns chat commands into store operations and price lookups.
// Every method returns MarkdownV2 text ready to send back.
type Handler struct {
	Store    *alert.Store
	Prices   alert.PriceSource
	Quote    string
	Interval time.Duration

	mu      sync.Mutex
	pending map[int64]pendingAlert
	now     func() time.Time
}

func NewHandler(store *alert.Store, prices alert.PriceSource, quote string, interval time.Duration) *Handler {
	return &Handler{
		Store:    store,
		Prices:   prices,
		Quote:    quote,
		Interval: interval,
		pending:  make(map[int64]pendingAlert),
		now:      time.Now,
	}
}

// Handle dispatches command (without the leading slash) for chatID
func (h *Handler) Handle(ctx context.Context, chatID int64, command, args string) string {
	log.WithField("chat_id", chatID).Debugf("processing command /%s with arguments: %s", command, args)

	switch strings.ToLower(command) {
	case "start":
		return h.Start()
	case "price":
		return h.Price(ctx, args)
	case "list":
		return h.List(chatID)
	case "clear":
		return h.Clear(chatID)
	}

	if direction, ok := types.ParseDirection(command); ok {
		return h.Alert(ctx, chatID, direction, args)
	}
	return h.Help()
}

func (h *Handler) Start() string {
	return translation.Translate(
		"🚀 Welcome to *Coin Tracker Bot*\\!\n\n"+
			"This bot provides cryptocurrency price alerts and notifications\\.\n"+
			"Prices are checked every %d seconds\\.\n\n"+
			"Use /help to see all available commands and examples\\.",
		int(h.Interval.Seconds()),
	)
}

func (h *Handler) Help() string {
	return translation.Translate(
		"📘 *Help Menu: how to use the Coin Tracker Bot*\n\n" +
			"Use the commands below to get prices or set alerts:\n\n" +
			"• /price SYMBOL\n" +
			"  Get the current market price of a cryptocurrency\\.\n" +
			"  Example: `/price BTC`\n\n" +
			"• /up SYMBOL TARGET\\_PRICE\n" +
			"  Alert triggers when the price goes *above* the target\\.\n" +
			"  Example: `/up BTC 65000`\n\n" +
			"• /down SYMBOL TARGET\\_PRICE\n" +
			"  Alert triggers when the price goes *below* the target\\.\n" +
			"  Example: `/down ETH 3000`\n\n" +
			"• /list\n" +
			"  Shows all active alerts you have\\.\n\n" +
			"• /clear\n" +
			"  Deletes all your alerts at once\\. This cannot be undone\\.\n\n" +
			"• /help\n" +
			"  Shows this help menu\\.\n\n" +
			"ℹ️ Alerts are checked automatically in the background\\.\n" +
			"You will receive a message the moment your price condition is met\\.",
	)
}

// Price answers /price SYMBOL
func (h *Handler) Price(ctx context.Context, args string) string {
	fields := strings.Fields(args)
	if len(fields) < 1 {
		return translation.Translate("ℹ Example: /price BTC")
	}
	symbol := strings.ToUpper(fields[0])

	p, ok := h.Prices.GetPrice(ctx, symbol)
	if !ok {
		return translation.Translate("🛑 Currency %s not found or there is an error", helpers.EscapeMarkdownV2(symbol))
	}

	return translation.Translate(
		"*📌 Live Price*\n\n%s/%s\n💲 %s dollars",
		helpers.EscapeMarkdownV2(symbol),
		helpers.EscapeMarkdownV2(h.quote()),
		helpers.FormatPriceUS(p, true),
	)
}

func (h *Handler) quote() string {
	if h.Quote == "" {
		return "USDT"
	}
	return h.Quote
}

func (h *Handler) clock() time.Time {
	if h.now == nil {
		return time.Now()
	}
	return h.now()
}
