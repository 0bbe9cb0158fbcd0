package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/iaguu/axion-central-bot/internal/bot"
	"github.com/iaguu/axion-central-bot/internal/bot/store"
	"github.com/iaguu/axion-central-bot/internal/config"
	"github.com/iaguu/axion-central-bot/internal/database"
	"github.com/iaguu/axion-central-bot/internal/inventory"
	"github.com/iaguu/axion-central-bot/internal/logging"
	"github.com/iaguu/axion-central-bot/internal/models"
	"github.com/iaguu/axion-central-bot/internal/payment"
	"github.com/iaguu/axion-central-bot/internal/services"
)

// fluxoCharger adapts the checkout client to the charge interface the
// purchase flow expects.
type fluxoCharger struct {
	client      *payment.FluxoPayClient
	callbackURL string
}

func (f *fluxoCharger) CreateCharge(ctx context.Context, order models.Order, product models.Product) (payment.Charge, error) {
	return f.client.CreateCheckout(ctx, order.ID, product.Name, order.Amount, f.callbackURL)
}

type axionCharger struct {
	client *payment.AxionPayClient
}

func (a *axionCharger) CreateCharge(ctx context.Context, order models.Order, product models.Product) (payment.Charge, error) {
	name := "Cliente " + order.UserID
	email := fmt.Sprintf("user%s@axion.local", order.UserID)
	return a.client.CreatePix(ctx, order.ID, name, email, order.Amount)
}

func main() {
	cfg := config.Load()
	fileHandler := logging.Setup(cfg.ErrorLogPath)
	config.RequireEnv("TOKEN_STORE", "ADMIN_CHAT_ID")

	db := database.New(database.Options{Path: cfg.DBPath, AdminID: cfg.AdminChatID})
	if err := db.Ping(); err != nil {
		slog.Error("document store unavailable", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}

	client, err := bot.New(cfg.StoreToken)
	if err != nil {
		slog.Error("telegram connection failed", "error", err)
		os.Exit(1)
	}

	var (
		charger services.Charger
		status  store.StatusChecker
	)
	switch cfg.PaymentProvider {
	case "axionpay":
		config.RequireEnv("AXION_PAY_KEY")
		axion := payment.NewAxionPayClient(
			cfg.AxionPayURL, cfg.AxionPayKey, cfg.AxionPayTag, cfg.FetchTimeout, cfg.FetchRetries)
		axion.OnTimeout(db.RecordFetchTimeout)
		charger = &axionCharger{client: axion}
	default:
		config.RequireEnv("FLUXO_TOKEN")
		fluxo := payment.NewFluxoPayClient(cfg.FluxoPayAPI, cfg.FluxoToken, cfg.FetchTimeout, cfg.FetchRetries)
		fluxo.OnTimeout(db.RecordFetchTimeout)
		charger = &fluxoCharger{client: fluxo, callbackURL: cfg.CallbackURL}
		status = fluxo
	}

	var cards *inventory.Store
	if cfg.CardsProductID != "" {
		cards = inventory.New(cfg.CardsPath)
	}

	front := store.New(store.Options{
		Messenger:   client,
		DB:          db,
		Checkout:    services.NewCheckoutService(db, charger),
		Fulfillment: services.NewFulfillmentService(db, client),
		Casino:      services.NewCasinoService(db),
		Cards:       cards,
		CardsProdID: cfg.CardsProductID,
		Status:      status,
		AdminID:     cfg.AdminChatID,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("store bot running", "username", client.Self(), "provider", cfg.PaymentProvider)
	client.Run(ctx, front.Handle)

	if fileHandler != nil {
		fileHandler.Stop()
	}
	slog.Info("store bot stopped")
}
