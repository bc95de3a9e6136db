package commands

import (
	"coin-tracker-bot/internal/alert"
	"coin-tracker-bot/internal/types"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubPrices map[string]float64

func (s stubPrices) GetPrice(_ context.Context, symbol string) (float64, bool) {
	p, ok := s[symbol]
	return p, ok
}

func newTestHandler(prices stubPrices) *Handler {
	return NewHandler(alert.NewStore(), prices, "USDT", 30*time.Second)
}

func TestHandler_StartMentionsInterval(t *testing.T) {
	h := newTestHandler(nil)
	require.Contains(t, h.Start(), "every 30 seconds")
}

func TestHandler_UnknownCommandShowsHelp(t *testing.T) {
	h := newTestHandler(nil)
	require.Equal(t, h.Help(), h.Handle(context.Background(), 1, "whatever", ""))
	require.Equal(t, h.Help(), h.Handle(context.Background(), 1, "help", ""))
}

func TestHandler_Price(t *testing.T) {
	h := newTestHandler(stubPrices{"BTC": 65123.45})
	ctx := context.Background()

	require.Contains(t, h.Handle(ctx, 1, "price", ""), "Example: /price BTC")

	reply := h.Handle(ctx, 1, "price", "btc extra")
	require.Contains(t, reply, "BTC/USDT")
	require.Contains(t, reply, `65,123\.45`)

	require.Contains(t, h.Price(ctx, "doge"), "Currency DOGE not found")
}

func TestHandler_AlertCreated(t *testing.T) {
	h := newTestHandler(stubPrices{"BTC": 60000})

	reply := h.Handle(context.Background(), 1, "up", "btc 70000")
	require.Contains(t, reply, "Alert successfully registered")

	list := h.Store.ListFor(1)
	require.Len(t, list, 1)
	require.Equal(t, "BTC", list[0].Symbol)
	require.Equal(t, 70000.0, list[0].Target)
	require.Equal(t, types.Up, list[0].Direction)
	require.False(t, h.Store.IsInactive(1))
}

func TestHandler_AlertValidation(t *testing.T) {
	h := newTestHandler(stubPrices{"BTC": 60000})
	ctx := context.Background()

	cases := map[string]string{
		"":         "Example: /up BTC 65000",
		"BTC":      "Example: /up BTC 65000",
		"BTC 1 2":  "Example: /up BTC 65000",
		"BTC abc":  "positive number",
		"BTC 0":    "positive number",
		"BTC -5":   "positive number",
		"BTC NaN":  "positive number",
		"BTC +Inf": "positive number",
	}
	for args, want := range cases {
		require.Contains(t, h.Alert(ctx, 1, types.Up, args), want, args)
	}
	require.Contains(t, h.Alert(ctx, 1, types.Down, "x"), "Example: /down BTC 65000")
	require.Zero(t, h.Store.Len())
}

func TestHandler_AlertPriceUnavailable(t *testing.T) {
	h := newTestHandler(stubPrices{})

	reply := h.Alert(context.Background(), 1, types.Up, "BTC 70000")
	require.Contains(t, reply, "can't fetch the current price of BTC")
	require.Zero(t, h.Store.Len())
}

func TestHandler_ImmediateTriggerRejected(t *testing.T) {
	h := newTestHandler(stubPrices{"BTC": 70000, "ETH": 2000})
	ctx := context.Background()

	reply := h.Alert(ctx, 1, types.Up, "BTC 70000")
	require.Contains(t, reply, "would trigger immediately")
	require.Contains(t, reply, "above")

	reply = h.Alert(ctx, 1, types.Down, "ETH 2500")
	require.Contains(t, reply, "would trigger immediately")
	require.Contains(t, reply, "below")

	require.Empty(t, h.Store.ListFor(1))
}

func TestHandler_MagnitudeGuard(t *testing.T) {
	h := newTestHandler(stubPrices{"BTC": 40000, "SOL": 4})
	ctx := context.Background()

	reply := h.Alert(ctx, 1, types.Down, "BTC 40")
	require.Contains(t, reply, "Warning")
	require.Contains(t, reply, "Maybe you meant 40,000?")
	require.Empty(t, h.Store.ListFor(1))

	reply = h.Alert(ctx, 2, types.Up, "SOL 4000")
	require.Contains(t, reply, "Alert successfully registered")

	reply = h.Alert(ctx, 3, types.Up, "SOL 40000")
	require.Contains(t, reply, "Warning")
	require.Contains(t, reply, `400\.00`)
	require.Contains(t, reply, `40\.0000`)
	require.Empty(t, h.Store.ListFor(3))
}

func TestHandler_MagnitudeGuardConfirmedByResend(t *testing.T) {
	h := newTestHandler(stubPrices{"BTC": 40000})
	ctx := context.Background()

	require.Contains(t, h.Alert(ctx, 1, types.Down, "BTC 40"), "Warning")
	require.Contains(t, h.Alert(ctx, 1, types.Down, "BTC 40"), "Alert successfully registered")
	require.Len(t, h.Store.ListFor(1), 1)
}

func TestHandler_MagnitudeGuardConfirmationMustMatch(t *testing.T) {
	h := newTestHandler(stubPrices{"BTC": 40000})
	ctx := context.Background()

	require.Contains(t, h.Alert(ctx, 1, types.Down, "BTC 40"), "Warning")
	require.Contains(t, h.Alert(ctx, 1, types.Down, "BTC 50"), "Warning")
	require.Contains(t, h.Alert(ctx, 2, types.Down, "BTC 50"), "Warning")
	require.Zero(t, h.Store.Len())
}

func TestHandler_MagnitudeGuardConfirmationExpires(t *testing.T) {
	h := newTestHandler(stubPrices{"BTC": 40000})
	now := time.Now()
	h.now = func() time.Time { return now }
	ctx := context.Background()

	require.Contains(t, h.Alert(ctx, 1, types.Down, "BTC 40"), "Warning")
	now = now.Add(confirmWindow + time.Second)
	require.Contains(t, h.Alert(ctx, 1, types.Down, "BTC 40"), "Warning")
	require.Zero(t, h.Store.Len())
}

func TestHandler_ListAndClear(t *testing.T) {
	h := newTestHandler(stubPrices{"BTC": 60000, "ETH": 2500})
	ctx := context.Background()

	require.Contains(t, h.List(1), "You have no alerts")
	require.Contains(t, h.Clear(1), "no alerts to clear")

	h.Alert(ctx, 1, types.Up, "BTC 70000")
	h.Alert(ctx, 1, types.Down, "ETH 2000.5")
	h.Alert(ctx, 2, types.Up, "ETH 3000")

	list := h.Handle(ctx, 1, "list", "")
	require.Contains(t, list, "1\\. BTC up 70,000\n")
	require.Contains(t, list, "2\\. ETH down 2,000\\.5\n")
	require.NotContains(t, list, "3000")

	require.Contains(t, h.Handle(ctx, 1, "clear", ""), "All 2 of your alerts have been cleared")
	require.True(t, h.Store.IsInactive(1))
	require.Len(t, h.Store.ListFor(2), 1)
	require.Contains(t, h.Clear(1), "no alerts to clear")
}

func TestHandler_RoutesDirectionCommands(t *testing.T) {
	h := newTestHandler(stubPrices{"BTC": 60000})
	ctx := context.Background()

	require.Contains(t, h.Handle(ctx, 1, "UP", "btc 70000"), "Alert successfully registered")
	require.Contains(t, h.Handle(ctx, 1, "Down", "btc 50000"), "Alert successfully registered")

	list := h.Store.ListFor(1)
	require.Len(t, list, 2)
	require.Equal(t, types.Up, list[0].Direction)
	require.Equal(t, types.Down, list[1].Direction)
}

func TestHandler_ExpiredConfirmationsArePruned(t *testing.T) {
	h := newTestHandler(stubPrices{"BTC": 40000})
	now := time.Now()
	h.now = func() time.Time { return now }
	ctx := context.Background()

	require.Contains(t, h.Alert(ctx, 1, types.Down, "BTC 40"), "Warning")
	require.Contains(t, h.Alert(ctx, 2, types.Down, "BTC 50"), "Warning")
	require.Len(t, h.pending, 2)

	now = now.Add(confirmWindow)
	require.Contains(t, h.Alert(ctx, 3, types.Down, "BTC 60"), "Warning")
	require.Len(t, h.pending, 1)
	require.Contains(t, h.pending, int64(3))
}
