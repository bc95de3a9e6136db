package price

import (
	"coin-tracker-bot/internal/metrics"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultBaseURL = "https://api.binance.com"
	DefaultQuote   = "USDT"
	DefaultTimeout = 10 * time.Second

	// Binance error code returned with HTTP 400 for unknown pairs
	codeInvalidSymbol = -1121
)

// ErrSymbolNotFound is returned when the exchange does not list SYMBOL+quote
var ErrSymbolNotFound = errors.New("symbol not found")

type Config struct {
	BaseURL string
	Quote   string
	Timeout time.Duration
}

// Client looks up spot prices on the Binance ticker endpoint.
// All callers share one HTTP client; it is created on first use and again
// after Close.
type Client struct {
	cfg     Config
	metrics *metrics.Metrics

	mu   sync.Mutex
	http *http.Client
}

type tickerResponse struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

type apiError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func NewClient(cfg Config, m *metrics.Metrics) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Quote == "" {
		cfg.Quote = DefaultQuote
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.Quote = strings.ToUpper(cfg.Quote)

	return &Client{cfg: cfg, metrics: m}
}

// Quote returns the currency prices are expressed in
func (c *Client) Quote() string {
	return c.cfg.Quote
}

func (c *Client) session() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.http == nil {
		c.http = &http.Client{
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
			Timeout:   c.cfg.Timeout,
		}
	}
	return c.http
}

// Close releases pooled connections. The client stays usable.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.http != nil {
		c.http.CloseIdleConnections()
		c.http = nil
	}
}

// GetPrice returns the current price of symbol, or false on any failure.
// Failures are logged and should be retried on a later cycle.
func (c *Client) GetPrice(ctx context.Context, symbol string) (float64, bool) {
	p, err := c.Lookup(ctx, symbol)
	if err != nil {
		entry := log.WithField("symbol", symbol).WithError(err)
		switch {
		case errors.Is(err, ErrSymbolNotFound):
			entry.Debug("Unknown symbol")
		case ctx.Err() != nil:
			entry.Debug("Price lookup cancelled")
		default:
			entry.Warn("Price lookup failed")
		}
		return 0, false
	}
	return p, true
}

// Lookup fetches the price of symbol against the configured quote currency.
// It returns ErrSymbolNotFound for unlisted pairs and a wrapped error for
// network, status and decoding failures.
func (c *Client) Lookup(ctx context.Context, symbol string) (float64, error) {
	p, err := c.lookup(ctx, symbol)
	switch {
	case err == nil:
		c.metrics.PriceLookup(metrics.LookupOK)
	case errors.Is(err, ErrSymbolNotFound):
		c.metrics.PriceLookup(metrics.LookupNotFound)
	default:
		c.metrics.PriceLookup(metrics.LookupError)
	}
	return p, err
}

func (c *Client) lookup(ctx context.Context, symbol string) (float64, error) {
	pair := strings.ToUpper(strings.TrimSpace(symbol)) + c.cfg.Quote
	u := c.cfg.BaseURL + "/api/v3/ticker/price?symbol=" + url.QueryEscape(pair)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, errors.Wrap(err, "build request")
	}

	resp, err := c.session().Do(req)
	if err != nil {
		return 0, errors.Wrapf(err, "get %s", pair)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return 0, errors.Wrapf(err, "read %s", pair)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if resp.StatusCode == http.StatusBadRequest &&
			json.Unmarshal(body, &apiErr) == nil && apiErr.Code == codeInvalidSymbol {
			return 0, errors.Wrapf(ErrSymbolNotFound, "%s", pair)
		}
		return 0, errors.Errorf("unexpected status %d for %s", resp.StatusCode, pair)
	}

	var ticker tickerResponse
	if err := json.Unmarshal(body, &ticker); err != nil {
		return 0, errors.Wrapf(err, "decode %s", pair)
	}
	p, err := strconv.ParseFloat(ticker.Price, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parse price of %s", pair)
	}
	if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
		return 0, errors.Errorf("invalid price %v for %s", p, pair)
	}
	return p, nil
}
