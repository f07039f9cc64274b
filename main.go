package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/sirupsen/logrus"

	"github.com/KMohir/ProyektSXF/cache"
	"github.com/KMohir/ProyektSXF/config"
	"github.com/KMohir/ProyektSXF/coordinator"
	"github.com/KMohir/ProyektSXF/database"
	"github.com/KMohir/ProyektSXF/retrypolicy"
	"github.com/KMohir/ProyektSXF/routes"
	"github.com/KMohir/ProyektSXF/sheets"
	"github.com/KMohir/ProyektSXF/store"
	"github.com/KMohir/ProyektSXF/telegram"
	"github.com/KMohir/ProyektSXF/utils"
)

func main() {
	config.LoadEnv()
	utils.InitLogger()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("configuration: %v", err)
	}

	db, err := database.Connect()
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		logrus.Fatalf("failed to migrate database: %v", err)
	}

	ctx := context.Background()

	sheetsClient, err := sheets.NewClient(ctx, cfg.CredentialsFile, cfg.SpreadsheetURL)
	if err != nil {
		logrus.Fatalf("failed to open spreadsheet: %v", err)
	}

	retry := retrypolicy.Policy{Attempts: uint(cfg.MaxRetries), Delay: cfg.RetryDelay}
	gateway := sheets.NewGateway(sheetsClient, cache.New(cfg.CacheTTL), retry)
	st := store.New(db, retry)

	api := telegram.NewClient(cfg.BotToken)
	notifier := telegram.NewNotifier(api)
	coord := coordinator.New(st, gateway, notifier, cfg.AdminIDs)
	bot := telegram.NewBot(api, coord)

	if url := os.Getenv("WEBHOOK_URL"); url != "" {
		if err := api.SetWebhook(ctx, url+"/v1/telegram/webhook", cfg.WebhookSecret); err != nil {
			logrus.Fatalf("failed to register webhook: %v", err)
		}
		logrus.Infof("webhook registered at %s/v1/telegram/webhook", url)
	}

	router := routes.InitRouter(bot, cfg.WebhookSecret)
	handler := handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(router)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("server error: %v", err)
		}
	}()

	notifyAdmins(ctx, api, cfg.AdminIDs, "🚀 Бот запущен")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("shutting down server...")

	notifyAdmins(ctx, api, cfg.AdminIDs, "⛔ Бот остановлен")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.Fatalf("server forced to shutdown: %v", err)
	}

	logrus.Info("server exited")
}

func notifyAdmins(ctx context.Context, api telegram.API, adminIDs []int64, text string) {
	msg := fmt.Sprintf("%s — %s", text, time.Now().Format("02.01.2006 15:04:05"))
	for _, id := range adminIDs {
		if err := api.SendMessage(ctx, id, msg, nil); err != nil {
			logrus.Warnf("notifying admin %d: %v", id, err)
		}
	}
}
