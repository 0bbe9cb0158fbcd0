package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/iaguu/axion-central-bot/internal/bot"
	"github.com/iaguu/axion-central-bot/internal/bot/search"
	"github.com/iaguu/axion-central-bot/internal/config"
	"github.com/iaguu/axion-central-bot/internal/database"
	"github.com/iaguu/axion-central-bot/internal/logging"
	"github.com/iaguu/axion-central-bot/internal/services"
)

func main() {
	cfg := config.Load()
	fileHandler := logging.Setup(cfg.ErrorLogPath)
	config.RequireEnv("TOKEN_SEARCH", "ADMIN_CHAT_ID", "COG_API_URL", "COG_API_KEY")

	db := database.New(database.Options{Path: cfg.DBPath, AdminID: cfg.AdminChatID})
	if err := db.Ping(); err != nil {
		slog.Error("document store unavailable", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}

	client, err := bot.New(cfg.SearchToken)
	if err != nil {
		slog.Error("telegram connection failed", "error", err)
		os.Exit(1)
	}

	lookup := services.NewLookupClient(cfg.CogAPIURL, cfg.CogAPIKey, cfg.FetchTimeout, cfg.FetchRetries)
	lookup.OnTimeout(db.RecordFetchTimeout)
	front := search.New(client, db, lookup, cfg.AdminChatID)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("search bot running", "username", client.Self())
	client.Run(ctx, front.Handle)

	if fileHandler != nil {
		fileHandler.Stop()
	}
	slog.Info("search bot stopped")
}
