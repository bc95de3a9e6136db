package main

import (
	"coin-tracker-bot/config"
	"coin-tracker-bot/internal/alert"
	"coin-tracker-bot/internal/commands"
	"coin-tracker-bot/internal/database"
	"coin-tracker-bot/internal/metrics"
	"coin-tracker-bot/internal/price"
	"coin-tracker-bot/internal/telegram"
	"coin-tracker-bot/lib/logging"
	"coin-tracker-bot/lib/translation"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

func init() {
	config.InitConfig()
}

func main() {
	closeLog := setupLogging()
	defer closeLog()

	if err := config.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	translation.Configure("locales", config.GetString("lang"))
	log.Debugf("Using language %s", translation.GetLanguage())

	if err := database.InitDB(config.GetString("db_path")); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	botMetrics := metrics.New(prometheus.DefaultRegisterer)
	botMetrics.Load()

	store := alert.NewStore()
	prices := price.NewClient(price.Config{
		BaseURL: config.GetString("price_api_url"),
		Quote:   config.GetString("quote_currency"),
	}, botMetrics)

	interval := config.CheckInterval()
	handler := commands.NewHandler(store, prices, prices.Quote(), interval)

	bot, err := telegram.NewBot(telegram.BotConfig{
		Token:          config.GetString("telegram_bot_token"),
		Debug:          config.GetBool("debug"),
		UpdatesTimeout: 60,
	}, handler, botMetrics)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}
	if err := bot.RegisterCommands(); err != nil {
		log.Warnf("Failed to register bot commands: %v", err)
	}

	scanner := alert.NewScanner(store, prices, bot, alert.ScannerConfig{
		Interval:    interval,
		LookupPause: config.LookupPause(),
		Quote:       prices.Quote(),
	}, botMetrics)

	metricsServer := launchMetricsAndHealthServer(config.GetInt("metrics_port"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		if err := scanner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Errorf("Alert scanner stopped: %v", err)
		}
	}()

	go func() {
		defer wg.Done()
		// the bot cannot work without its update stream, so take the rest down with it
		defer cancel()
		if err := bot.Run(ctx, bot.GetUpdatesChannel()); err != nil && !errors.Is(err, context.Canceled) {
			log.Errorf("Telegram polling stopped: %v", err)
		}
	}()

	go func() {
		defer wg.Done()
		saveMetricsPeriodically(ctx, botMetrics, 5*time.Minute)
	}()

	log.Info("Coin tracker bot is running.")
	<-ctx.Done()

	log.Info("Stopping background tasks...")
	bot.Stop()
	wg.Wait()

	prices.Close()
	botMetrics.Save()
	if err := database.CloseDB(); err != nil {
		log.Errorf("Failed to close database: %v", err)
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Failed to stop metrics server: %v", err)
	}

	log.Info("Shutdown complete.")
}

func setupLogging() func() error {
	closeLog, err := logging.Configure(log.StandardLogger(), logging.Options{
		Debug: config.GetBool("debug"),
		File:  config.GetString("log_file"),
	})
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	log.Debug("Starting telegram bot...")
	return closeLog
}

func saveMetricsPeriodically(ctx context.Context, m *metrics.Metrics, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Save()
		}
	}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func launchMetricsAndHealthServer(port int) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", healthCheckHandler)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Infof("Launching metrics and health endpoint on :%d", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("Metrics and health server failed: %v", err)
		}
	}()
	return srv
}
