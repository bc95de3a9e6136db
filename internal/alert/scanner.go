package alert

import (
	"bytes"
	"coin-tracker-bot/internal/metrics"
	"coin-tracker-bot/internal/types"
	"coin-tracker-bot/lib/helpers"
	"coin-tracker-bot/lib/translation"
	"context"
	"runtime"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultInterval    = time.Minute
	DefaultLookupPause = 500 * time.Millisecond
)

// PriceSource returns the current price of a symbol or false when it is
// unavailable for now
type PriceSource interface {
	GetPrice(ctx context.Context, symbol string) (float64, bool)
}

// Notifier delivers text to a chat
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

type ScannerConfig struct {
	Interval    time.Duration
	LookupPause time.Duration
	Quote       string
}

// Scanner periodically checks stored alerts against live prices
type Scanner struct {
	store    *Store
	prices   PriceSource
	notifier Notifier
	metrics  *metrics.Metrics
	cfg      ScannerConfig
}

func NewScanner(store *Store, prices PriceSource, notifier Notifier, cfg ScannerConfig, m *metrics.Metrics) *Scanner {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.LookupPause < 0 {
		cfg.LookupPause = 0
	}
	if cfg.Quote == "" {
		cfg.Quote = "USDT"
	}
	return &Scanner{
		store:    store,
		prices:   prices,
		notifier: notifier,
		metrics:  m,
		cfg:      cfg,
	}
}

// Run scans every interval until ctx is done and then returns ctx.Err()
func (s *Scanner) Run(ctx context.Context) error {
	log.Infof("🚀 Alert scanner started, interval: %s", s.cfg.Interval)

	for {
		if err := sleep(ctx, s.cfg.Interval); err != nil {
			log.Info("Alert scanner stopped.")
			return err
		}
		s.safeScan(ctx)
	}
}

func (s *Scanner) safeScan(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			stackBuf := make([]byte, 4096)
			stackSize := runtime.Stack(stackBuf, false)
			log.Errorf("🔥 Panic recovered in alert scanner: %v\nStack trace: %s",
				r, bytes.TrimRight(stackBuf[:stackSize], "\x00"))
		}
	}()
	s.Scan(ctx)
}

// Scan runs a single cycle and returns the alerts it triggered
func (s *Scanner) Scan(ctx context.Context) []types.Alert {
	active := s.store.Active()
	s.metrics.SetActiveAlerts(len(active))
	if len(active) == 0 {
		return nil
	}

	log.Debugf("🔄 Checking %d alerts...", len(active))

	prices := s.fetchPrices(ctx, symbolsOf(active))
	if ctx.Err() != nil {
		return nil
	}

	var triggered []types.Alert
	for _, a := range active {
		current, ok := prices[a.Symbol]
		if !ok || !a.Triggered(current) {
			continue
		}

		if err := s.notifier.Notify(ctx, a.ChatID, s.message(a, current)); err != nil {
			log.WithField("chat_id", a.ChatID).WithError(err).Error("❌ Failed to send alert notification")
		} else {
			log.WithField("chat_id", a.ChatID).Debugf("✅ Alert notification sent for %s", a.Symbol)
		}
		triggered = append(triggered, a)
	}

	for _, a := range triggered {
		s.store.Remove(a)
		s.metrics.AlertTriggered()
	}
	s.metrics.ScanCycle(len(active))

	log.Debugf("✅ Alert check completed, %d triggered.", len(triggered))
	return triggered
}

// fetchPrices looks symbols up one at a time with a pause in between.
// Symbols without a price are left out of the result.
func (s *Scanner) fetchPrices(ctx context.Context, symbols []string) map[string]float64 {
	prices := make(map[string]float64, len(symbols))
	for i, sym := range symbols {
		if i > 0 {
			if err := sleep(ctx, s.cfg.LookupPause); err != nil {
				return prices
			}
		}
		if p, ok := s.prices.GetPrice(ctx, sym); ok {
			prices[sym] = p
		} else {
			log.Debugf("⚠️ No price for %s this cycle", sym)
		}
	}
	return prices
}

func (s *Scanner) message(a types.Alert, current float64) string {
	side := translation.Translate("above")
	if a.Direction == types.Down {
		side = translation.Translate("below")
	}
	return translation.Translate(
		"⚠️ *Price Alert\\!*\n\n*%s/%s* has reached your target\\!\nCurrent price: *%s* %s\nTarget: %s *%s*",
		helpers.EscapeMarkdownV2(a.Symbol),
		helpers.EscapeMarkdownV2(s.cfg.Quote),
		helpers.FormatPriceUS(current, true),
		helpers.EscapeMarkdownV2(s.cfg.Quote),
		side,
		helpers.FormatTarget(a.Target),
	)
}

func symbolsOf(alerts []types.Alert) []string {
	seen := make(map[string]struct{}, len(alerts))
	var symbols []string
	for _, a := range alerts {
		if _, ok := seen[a.Symbol]; ok {
			continue
		}
		seen[a.Symbol] = struct{}{}
		symbols = append(symbols, a.Symbol)
	}
	sort.Strings(symbols)
	return symbols
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
