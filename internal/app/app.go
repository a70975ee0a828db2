package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"mail-routing-engine/internal/config"
	"mail-routing-engine/internal/db"
	"mail-routing-engine/internal/engine"
	"mail-routing-engine/internal/handler"
	"mail-routing-engine/internal/metrics"
	"mail-routing-engine/internal/model"
	"mail-routing-engine/internal/router"
	"mail-routing-engine/internal/smtp"
	"mail-routing-engine/internal/stats"
	"mail-routing-engine/internal/store"
)

// Run initializes and starts the application
func Run() error {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	logrus.Info("Starting Mail Routing Engine")

	dbConn, err := db.Init(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	configs := store.NewConfigStore(dbConn)
	audit := store.NewAuditStore(dbConn)

	relay := smtp.NewRelay(cfg.SMTP)
	webhookClient := &http.Client{Timeout: cfg.Delivery.WebhookTimeout}

	handlers := map[model.Action]engine.ActionHandler{
		model.ActionForward: engine.NewForwardHandler(audit, relay, m),
		model.ActionWebhook: engine.NewWebhookHandler(audit, webhookClient, cfg.Delivery.UserAgent, m),
		model.ActionStore:   engine.NewStoreHandler(audit, m),
	}
	dispatcher := engine.NewDispatcher(configs, audit, handlers, m)

	refresher := stats.NewRefresher(configs, audit, m, cfg.Metrics.RefreshInterval)
	if err := refresher.Start(); err != nil {
		return fmt.Errorf("failed to start stats refresher: %w", err)
	}

	h := handler.NewHandlers(dbConn, dispatcher, configs, audit)
	r := router.SetupRouter(h)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logrus.Infof("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	refresher.Stop()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("HTTP server shutdown error: %v", err)
	}

	logrus.Info("Server stopped gracefully")
	return nil
}
