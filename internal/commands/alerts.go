package commands

import (
	"coin-tracker-bot/internal/types"
	"coin-tracker-bot/lib/helpers"
	"coin-tracker-bot/lib/translation"
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// confirmWindow is how long a magnitude warning waits for the user to
// resend the same alert
const confirmWindow = 5 * time.Minute

type pendingAlert struct {
	symbol    string
	target    float64
	direction types.Direction
	expires   time.Time
}

// Alert handles /up and /down. args is "SYMBOL PRICE".
func (h *Handler) Alert(ctx context.Context, chatID int64, direction types.Direction, args string) string {
	symbol, target, reply := parseAlertArgs(direction, args)
	if reply != "" {
		return reply
	}

	current, ok := h.Prices.GetPrice(ctx, symbol)
	if !ok {
		return translation.Translate(
			"I can't fetch the current price of %s from the exchange\\. Try again\\.",
			helpers.EscapeMarkdownV2(symbol),
		)
	}

	if reply := h.immediateTrigger(symbol, current, target, direction); reply != "" {
		return reply
	}

	if reply := h.commonMistake(symbol, current, target, direction); reply != "" {
		if h.confirmed(chatID, symbol, target, direction) {
			log.WithField("chat_id", chatID).Infof("User confirmed unusual target %v for %s", target, symbol)
		} else {
			h.remember(chatID, symbol, target, direction)
			return reply
		}
	}

	h.Store.Add(chatID, symbol, target, direction)

	return translation.Translate(
		"✔ Alert successfully registered\\!\n\n%s/%s now: %s dollars\nWhen it goes %s %s, I'll notify you\\.",
		helpers.EscapeMarkdownV2(symbol),
		helpers.EscapeMarkdownV2(h.quote()),
		helpers.FormatPriceUS(current, true),
		translation.Translate(string(direction)),
		helpers.FormatTarget(target),
	)
}

func parseAlertArgs(direction types.Direction, args string) (string, float64, string) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return "", 0, translation.Translate("ℹ Example: /%s BTC 65000", string(direction))
	}

	target, err := strconv.ParseFloat(fields[1], 64)
	if err != nil || math.IsNaN(target) || math.IsInf(target, 0) || target <= 0 {
		return "", 0, translation.Translate("The price must be a positive number\\!")
	}
	return strings.ToUpper(fields[0]), target, ""
}

// immediateTrigger rejects alerts whose condition already holds
func (h *Handler) immediateTrigger(symbol string, current, target float64, direction types.Direction) string {
	var reason string
	switch {
	case direction == types.Up && current >= target:
		reason = translation.Translate("Current price is *%s*, above *%s*",
			helpers.FormatPriceUS(current, true), helpers.FormatTarget(target))
	case direction == types.Down && current <= target:
		reason = translation.Translate("Current price is *%s*, below *%s*",
			helpers.FormatPriceUS(current, true), helpers.FormatTarget(target))
	default:
		return ""
	}

	return translation.Translate(
		"*This alert would trigger immediately\\! ⚠*\n\n%s/%s now: *%s*\n%s\n\nAlert not added because the target is _already_ reached\\.",
		helpers.EscapeMarkdownV2(symbol),
		helpers.EscapeMarkdownV2(h.quote()),
		helpers.FormatPriceUS(current, true),
		reason,
	)
}

// commonMistake warns about targets that are off by orders of magnitude,
// e.g. 4000 for a coin trading at 4 or 40 for one trading at 40,000
func (h *Handler) commonMistake(symbol string, current, target float64, direction types.Direction) string {
	dir := translation.Translate(string(direction))

	if target > 10000 && current < 10 {
		return translation.Translate(
			"Warning\\!\nThe current price of %s is only %s\nBut you asked for %s %s\\!\n\nMaybe you meant %s or %s?\nIf you're sure, send it again\\.",
			helpers.EscapeMarkdownV2(symbol),
			helpers.FormatPriceUS(current, true),
			dir,
			helpers.FormatTarget(target),
			helpers.EscapeMarkdownV2(fmt.Sprintf("%.2f", target/100)),
			helpers.EscapeMarkdownV2(fmt.Sprintf("%.4f", target/1000)),
		)
	}

	if target < 100 && current > 10000 {
		return translation.Translate(
			"Warning\\!\n%s is currently around %s dollars\nBut you set the target to %s %s\\!\n\nMaybe you meant %s?\nIf you're sure, send it again\\.",
			helpers.EscapeMarkdownV2(symbol),
			helpers.FormatPriceRoundedUS(current),
			dir,
			helpers.FormatTarget(target),
			helpers.FormatTarget(target*1000),
		)
	}

	return ""
}

func (h *Handler) remember(chatID int64, symbol string, target float64, direction types.Direction) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.pending == nil {
		h.pending = make(map[int64]pendingAlert)
	}

	now := h.clock()
	for id, p := range h.pending {
		if !now.Before(p.expires) {
			delete(h.pending, id)
		}
	}

	h.pending[chatID] = pendingAlert{
		symbol:    symbol,
		target:    target,
		direction: direction,
		expires:   now.Add(confirmWindow),
	}
}

// confirmed reports whether the same alert was warned about recently and
// consumes the pending entry
func (h *Handler) confirmed(chatID int64, symbol string, target float64, direction types.Direction) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.pending[chatID]
	if !ok {
		return false
	}
	delete(h.pending, chatID)
	return p.symbol == symbol && p.target == target && p.direction == direction && h.clock().Before(p.expires)
}

// List renders the alerts of chatID
func (h *Handler) List(chatID int64) string {
	alerts := h.Store.ListFor(chatID)
	if len(alerts) == 0 {
		return translation.Translate("You have no alerts\\.")
	}

	var b strings.Builder
	b.WriteString(translation.Translate("*📃 Your active alerts:*\n\n"))
	for i, a := range alerts {
		b.WriteString(fmt.Sprintf("%d\\. %s %s %s\n",
			i+1,
			helpers.EscapeMarkdownV2(a.Symbol),
			translation.Translate(string(a.Direction)),
			helpers.FormatTarget(a.Target),
		))
	}
	return b.String()
}

// Clear removes every alert of chatID
func (h *Handler) Clear(chatID int64) string {
	removed := h.Store.ClearFor(chatID)
	if removed == 0 {
		return translation.Translate("You have no alerts to clear\\!")
	}
	return translation.Translate("🧹 All %d of your alerts have been cleared\\!", removed)
}
