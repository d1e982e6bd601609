package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Environment string
	LogLevel    string
	LogDir      string

	Queue struct {
		CommandDir      string
		NotificationDir string
		PollInterval    time.Duration
	}

	Ledger struct {
		Path string
	}

	Terminal struct {
		Driver         string
		Login          int64
		Password       string
		Server         string
		ConnectRetries int
		RetryBackoff   time.Duration
		SettleInterval time.Duration
	}

	Monitoring struct {
		PrometheusPort int
		HealthPort     int
	}

	Notifications struct {
		TelegramToken    string
		DispatchInterval time.Duration
	}
}

func Load() *Config {
	cfg := &Config{
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "debug"),
		LogDir:      getEnv("LOG_DIR", "logs"),
	}

	cfg.Queue.CommandDir = getEnv("COMMAND_QUEUE_DIR", "data/commands")
	cfg.Queue.NotificationDir = getEnv("NOTIFICATION_QUEUE_DIR", "data/notifications")
	cfg.Queue.PollInterval = getEnvDuration("QUEUE_POLL_INTERVAL", time.Second)

	cfg.Ledger.Path = getEnv("LEDGER_PATH", "data/trades.db")

	cfg.Terminal.Driver = getEnv("TERMINAL_DRIVER", "sim")
	cfg.Terminal.Login = getEnvInt64("TERMINAL_LOGIN", 0)
	cfg.Terminal.Password = getEnv("TERMINAL_PASSWORD", "")
	cfg.Terminal.Server = getEnv("TERMINAL_SERVER", "")
	cfg.Terminal.ConnectRetries = getEnvInt("TERMINAL_CONNECT_RETRIES", 3)
	cfg.Terminal.RetryBackoff = getEnvDuration("TERMINAL_RETRY_BACKOFF", 2*time.Second)
	cfg.Terminal.SettleInterval = getEnvDuration("TERMINAL_SETTLE_INTERVAL", 2*time.Second)

	cfg.Monitoring.PrometheusPort = getEnvInt("PROMETHEUS_PORT", 8080)
	cfg.Monitoring.HealthPort = getEnvInt("HEALTH_PORT", 8081)

	cfg.Notifications.TelegramToken = getEnv("TELEGRAM_TOKEN", "")
	cfg.Notifications.DispatchInterval = getEnvDuration("NOTIFICATION_DISPATCH_INTERVAL", time.Second)

	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvInt64(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}
