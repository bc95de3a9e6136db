package config

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

var once sync.Once

func InitConfig() {
	once.Do(func() {
		viper.AutomaticEnv()

		viper.BindEnv("telegram_bot_token", "TELEGRAM_BOT_TOKEN")
		viper.BindEnv("check_interval", "CHECK_INTERVAL")
		viper.BindEnv("lookup_pause_ms", "LOOKUP_PAUSE_MS")
		viper.BindEnv("price_api_url", "PRICE_API_URL")
		viper.BindEnv("quote_currency", "QUOTE_CURRENCY")
		viper.BindEnv("metrics_port", "METRICS_PORT")
		viper.BindEnv("db_path", "DB_PATH")
		viper.BindEnv("debug", "DEBUG")
		viper.BindEnv("lang", "LANG")
		viper.BindEnv("log_file", "LOG_FILE")

		viper.SetDefault("check_interval", 60)
		viper.SetDefault("lookup_pause_ms", 500)
		viper.SetDefault("price_api_url", "https://api.binance.com")
		viper.SetDefault("quote_currency", "USDT")
		viper.SetDefault("metrics_port", 9090)
		viper.SetDefault("db_path", "data/bot.db")
		viper.SetDefault("debug", false)
		viper.SetDefault("lang", "en")
		viper.SetDefault("log_file", "logs/coin_tracker_bot.log")
	})
}

func GetString(key string) string {
	InitConfig()
	return viper.GetString(key)
}

func GetInt(key string) int {
	InitConfig()
	return viper.GetInt(key)
}

func GetBool(key string) bool {
	InitConfig()
	return viper.GetBool(key)
}

// CheckInterval is the pause between two alert scans
func CheckInterval() time.Duration {
	return time.Duration(GetInt("check_interval")) * time.Second
}

// LookupPause is the pause between two price lookups inside one scan
func LookupPause() time.Duration {
	return time.Duration(GetInt("lookup_pause_ms")) * time.Millisecond
}

// Validate checks the settings the bot cannot start without
func Validate() error {
	if GetString("telegram_bot_token") == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is not set")
	}
	if GetInt("check_interval") <= 0 {
		return errors.Errorf("CHECK_INTERVAL must be a positive number of seconds, got %d", GetInt("check_interval"))
	}
	if GetInt("lookup_pause_ms") < 0 {
		return errors.Errorf("LOOKUP_PAUSE_MS must not be negative, got %d", GetInt("lookup_pause_ms"))
	}
	return nil
}
