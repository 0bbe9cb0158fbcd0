package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	"github.com/iaguu/axion-central-bot/internal/database"
	"github.com/iaguu/axion-central-bot/internal/models"
	"github.com/iaguu/axion-central-bot/internal/payment"
	"github.com/iaguu/axion-central-bot/internal/services"
)

const adminID int64 = 1000

type fakeMessenger struct {
	sent      []string
	dice      int
	diceRolls int
	diceErr   error
	notified  []string
}

func (f *fakeMessenger) Send(chatID int64, text string)     { f.sent = append(f.sent, text) }
func (f *fakeMessenger) SendHTML(chatID int64, text string) { f.sent = append(f.sent, text) }
func (f *fakeMessenger) SendDice(chatID int64, emoji string) (int, error) {
	if f.diceErr != nil {
		return 0, f.diceErr
	}
	f.diceRolls++
	return f.dice, nil
}
func (f *fakeMessenger) Notify(userID, message string) error {
	f.notified = append(f.notified, userID)
	return nil
}

func (f *fakeMessenger) last() string {
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1]
}

type fakeCharger struct{ charge payment.Charge }

func (f *fakeCharger) CreateCharge(ctx context.Context, order models.Order, product models.Product) (payment.Charge, error) {
	return f.charge, nil
}

type fakeStatus struct{ status string }

func (f *fakeStatus) CheckStatus(ctx context.Context, paymentID string) (string, error) {
	return f.status, nil
}

func testBot(t *testing.T) (*Bot, *fakeMessenger, *database.Database, *fakeStatus) {
	t.Helper()
	db := database.New(database.Options{
		Path:        filepath.Join(t.TempDir(), "axion_core.json"),
		LockRetries: 500,
		LockBackoff: time.Millisecond,
	})
	msg := &fakeMessenger{dice: 6}
	status := &fakeStatus{status: "pending"}
	checkout := services.NewCheckoutService(db, &fakeCharger{charge: payment.Charge{PaymentID: "pay-1", PixCode: "pixcopy"}})
	b := New(Options{
		Messenger:   msg,
		DB:          db,
		Checkout:    checkout,
		Fulfillment: services.NewFulfillmentService(db, msg),
		Casino:      services.NewCasinoService(db),
		Status:      status,
		AdminID:     "1000",
	})
	return b, msg, db, status
}

func message(userID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID},
		Chat: &tgbotapi.Chat{ID: userID},
		Text: text,
	}}
}

func seedProduct(t *testing.T, db *database.Database, stock ...string) models.Product {
	t.Helper()
	p, err := db.AddProduct(models.Product{Name: "Pacote Cards", Price: 40, Category: models.CategoryCards})
	require.NoError(t, err)
	if len(stock) > 0 {
		_, err = db.AddStock(p.ID, stock)
		require.NoError(t, err)
	}
	return p
}

func TestCatalogAndProduct(t *testing.T) {
	b, msg, db, _ := testBot(t)
	p := seedProduct(t, db, "c1")

	b.Handle(message(5, "/loja"))
	require.Contains(t, msg.last(), "Pacote Cards")
	require.Contains(t, msg.last(), "1 em estoque")

	b.Handle(message(5, "/produto "+p.ID))
	require.Contains(t, msg.last(), "R$ 40.00")

	b.Handle(message(5, "/loja vip"))
	require.Contains(t, msg.last(), "Nenhum produto")
}

func TestBuyFlowCreatesPendingOrder(t *testing.T) {
	b, msg, db, _ := testBot(t)
	p := seedProduct(t, db, "c1")

	b.Handle(message(5, "/comprar "+p.ID))
	require.Contains(t, msg.last(), "pixcopy")

	orders := db.OrdersByUser("5")
	require.Len(t, orders, 1)
	require.Equal(t, models.StatusPendingPayment, orders[0].Status)
	require.Equal(t, "pay-1", orders[0].PaymentID)
}

func TestBuyOutOfStock(t *testing.T) {
	b, msg, db, _ := testBot(t)
	p := seedProduct(t, db)

	b.Handle(message(5, "/comprar "+p.ID))
	require.Contains(t, msg.last(), "esgotado")
	require.Empty(t, db.OrdersByUser("5"))
}

func TestCouponThenBuy(t *testing.T) {
	b, msg, db, _ := testBot(t)
	p := seedProduct(t, db, "c1")

	b.Handle(message(5, "/cupom axion10"))
	require.Contains(t, msg.last(), "AXION10")

	b.Handle(message(5, "/comprar "+p.ID))
	orders := db.OrdersByUser("5")
	require.Len(t, orders, 1)
	require.Equal(t, 36.0, orders[0].Amount)
	require.Equal(t, "AXION10", orders[0].CouponCode)
}

func TestVerifyDeliversWhenGatewayReportsPaid(t *testing.T) {
	b, _, db, status := testBot(t)
	p := seedProduct(t, db, "c1")

	b.Handle(message(5, "/comprar "+p.ID))
	order := db.OrdersByUser("5")[0]

	b.Handle(message(5, "/verificar "+order.ID))
	require.Equal(t, models.StatusPendingPayment, db.Order(order.ID).Status)

	status.status = "paid"
	b.Handle(message(5, "/verificar "+order.ID))
	require.Equal(t, models.StatusDelivered, db.Order(order.ID).Status)
}

func TestVerifyRejectsForeignOrder(t *testing.T) {
	b, msg, db, _ := testBot(t)
	p := seedProduct(t, db, "c1")
	b.Handle(message(5, "/comprar "+p.ID))
	order := db.OrdersByUser("5")[0]

	b.Handle(message(6, "/verificar "+order.ID))
	require.Contains(t, msg.last(), "nao encontrado")
}

func TestCasinoCommands(t *testing.T) {
	b, msg, db, _ := testBot(t)
	_, err := db.AddRep("5", 10)
	require.NoError(t, err)

	b.Handle(message(5, "/dado"))
	require.Contains(t, msg.last(), "ganhou 10 rep")

	msg.dice = 1
	b.Handle(message(5, "/dado"))
	require.Contains(t, msg.last(), "Nao foi dessa vez")
}

func TestCasinoNeedsRep(t *testing.T) {
	b, msg, _, _ := testBot(t)
	b.Handle(message(5, "/dado"))
	require.Contains(t, msg.last(), "precisa de 5 rep")
	require.Zero(t, msg.diceRolls, "no roll animation without the wager")
}

func TestCasinoRollFailureRefundsWager(t *testing.T) {
	b, msg, db, _ := testBot(t)
	_, err := db.AddRep("5", 10)
	require.NoError(t, err)
	msg.diceErr = errors.New("telegram down")

	b.Handle(message(5, "/dado"))
	require.Contains(t, msg.last(), "devolvida")

	u, _, err := db.GetOrCreateUser("5")
	require.NoError(t, err)
	require.Equal(t, 10, u.Rep)
}

func TestAdminCommandsGated(t *testing.T) {
	b, msg, db, _ := testBot(t)
	seedProduct(t, db, "c1")

	b.Handle(message(5, "/recentes"))
	require.Contains(t, msg.last(), "desconhecido")

	b.Handle(message(adminID, "/addproduto Conta VIP;25;vip"))
	require.Contains(t, msg.last(), "Produto criado")
	require.Len(t, db.Products(), 2)
}

func TestAdminConfirmAndStock(t *testing.T) {
	b, msg, db, _ := testBot(t)
	p := seedProduct(t, db)

	b.Handle(message(5, "/comprar "+p.ID))
	require.Empty(t, db.OrdersByUser("5"))

	_, err := db.AddStock(p.ID, []string{"c1"})
	require.NoError(t, err)
	b.Handle(message(5, "/comprar "+p.ID))
	order := db.OrdersByUser("5")[0]

	b.Handle(message(adminID, "/confirmar "+order.ID))
	require.Equal(t, models.StatusDelivered, db.Order(order.ID).Status)
	require.Contains(t, msg.last(), "confirmado")
}

func TestAdminAddStockRetriesPending(t *testing.T) {
	b, _, db, _ := testBot(t)
	p := seedProduct(t, db, "only")

	b.Handle(message(5, "/comprar "+p.ID))
	order := db.OrdersByUser("5")[0]

	// drain the stock before payment lands
	_, ok, err := db.PopStock(p.ID)
	require.NoError(t, err)
	require.True(t, ok)

	b.Handle(message(adminID, "/confirmar "+order.ID))
	require.Equal(t, models.StatusPaidPendingStock, db.Order(order.ID).Status)

	b.Handle(message(adminID, "/addestoque "+p.ID+" nova1|nova2"))
	require.Equal(t, models.StatusDelivered, db.Order(order.ID).Status)
}
