package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ducminhle1904/mt5-trade-engine/internal/config"
	"github.com/ducminhle1904/mt5-trade-engine/internal/ledger"
	"github.com/ducminhle1904/mt5-trade-engine/internal/logger"
	"github.com/ducminhle1904/mt5-trade-engine/internal/monitoring"
	"github.com/ducminhle1904/mt5-trade-engine/internal/notifications"
	"github.com/ducminhle1904/mt5-trade-engine/internal/queue"
	"github.com/ducminhle1904/mt5-trade-engine/internal/terminal"
	"github.com/ducminhle1904/mt5-trade-engine/internal/worker"
)

func main() {
	// Load .env if present; real deployments use the environment directly
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load .env: %v", err)
	}

	cfg := config.Load()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting trade engine worker in %s mode", cfg.Environment)

	fileLog, err := logger.NewLogger("worker", cfg.LogDir)
	if err != nil {
		log.Fatalf("Failed to open session log: %v", err)
	}
	defer fileLog.Close()

	commands, err := queue.NewCommandQueue(cfg.Queue.CommandDir)
	if err != nil {
		log.Fatalf("Failed to open command queue: %v", err)
	}
	notifQueue, err := queue.NewNotificationQueue(cfg.Queue.NotificationDir)
	if err != nil {
		log.Fatalf("Failed to open notification queue: %v", err)
	}

	led, err := ledger.NewSQLite(cfg.Ledger.Path)
	if err != nil {
		log.Fatalf("Failed to open trade ledger: %v", err)
	}
	defer led.Close()

	term, err := terminal.NewTerminal(cfg.Terminal.Driver)
	if err != nil {
		log.Fatalf("Failed to create terminal: %v", err)
	}

	conn := terminal.NewConnection(term, terminal.Options{
		ConnectRetries: cfg.Terminal.ConnectRetries,
		RetryBackoff:   cfg.Terminal.RetryBackoff,
		SettleInterval: cfg.Terminal.SettleInterval,
	})

	var creds *terminal.Credentials
	if cfg.Terminal.Login != 0 {
		creds = &terminal.Credentials{
			Login:    cfg.Terminal.Login,
			Password: cfg.Terminal.Password,
			Server:   cfg.Terminal.Server,
		}
	}
	if err := conn.Connect(creds, false); err != nil {
		log.Fatalf("Failed to connect to terminal: %v", err)
	}

	healthChecker := monitoring.NewHealthChecker()
	healthChecker.SetConnected(true)
	go setupMonitoringServers(cfg, healthChecker)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Notification dispatcher runs only when a bot token is configured;
	// without it, notifications stay queued for queuectl to inspect
	if cfg.Notifications.TelegramToken != "" {
		notifier := notifications.NewTelegramNotifier(cfg.Notifications.TelegramToken)
		dispatcher := notifications.NewDispatcher(notifQueue, notifier, cfg.Notifications.DispatchInterval)
		go dispatcher.Run(ctx)
	} else {
		log.Println("Telegram notifications disabled (no token configured)")
	}

	w := worker.New(commands, notifQueue, conn, led, worker.Options{
		PollInterval: cfg.Queue.PollInterval,
		Logger:       fileLog,
		Health:       healthChecker,
	})

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down...")
	cancel()

	select {
	case <-done:
	case <-time.After(30 * time.Second):
		log.Println("Shutdown timed out waiting for worker")
	}

	healthChecker.SetConnected(false)
	log.Println("Worker stopped successfully")
}

func setupMonitoringServers(cfg *config.Config, healthChecker *monitoring.HealthChecker) {
	healthMux := http.NewServeMux()
	healthMux.Handle("/health", healthChecker)

	go func() {
		log.Printf("Starting health server on port %d", cfg.Monitoring.HealthPort)
		if err := http.ListenAndServe(fmt.Sprintf(":%d", cfg.Monitoring.HealthPort), healthMux); err != nil {
			log.Printf("Health server error: %v", err)
		}
	}()

	go func() {
		log.Printf("Starting Prometheus server on port %d", cfg.Monitoring.PrometheusPort)
		if err := http.ListenAndServe(fmt.Sprintf(":%d", cfg.Monitoring.PrometheusPort), monitoring.NewMetricsHandler()); err != nil {
			log.Printf("Prometheus server error: %v", err)
		}
	}()
}
