package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/iaguu/axion-central-bot/internal/bot"
	"github.com/iaguu/axion-central-bot/internal/bot/control"
	"github.com/iaguu/axion-central-bot/internal/config"
	"github.com/iaguu/axion-central-bot/internal/database"
	"github.com/iaguu/axion-central-bot/internal/logging"
	"github.com/iaguu/axion-central-bot/internal/services"
)

func main() {
	cfg := config.Load()
	fileHandler := logging.Setup(cfg.ErrorLogPath)
	config.RequireEnv("TOKEN_CONTROL", "ADMIN_CHAT_ID")

	db := database.New(database.Options{Path: cfg.DBPath, AdminID: cfg.AdminChatID})
	if err := db.Ping(); err != nil {
		slog.Error("document store unavailable", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}

	client, err := bot.New(cfg.ControlToken)
	if err != nil {
		slog.Error("telegram connection failed", "error", err)
		os.Exit(1)
	}

	moderation := services.NewModerationService(db, cfg.AllowedURLs)
	front := control.New(client, db, moderation, cfg.AdminChatID)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("control bot running", "username", client.Self())
	client.Run(ctx, front.Handle)

	if fileHandler != nil {
		fileHandler.Stop()
	}
	slog.Info("control bot stopped")
}
