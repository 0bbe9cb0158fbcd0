// Package store implements the storefront front end: catalog, buy
// flow, coupons, order tracking, the rep casino and the seller's admin
// commands.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/iaguu/axion-central-bot/internal/bot"
	"github.com/iaguu/axion-central-bot/internal/database"
	"github.com/iaguu/axion-central-bot/internal/inventory"
	"github.com/iaguu/axion-central-bot/internal/models"
	"github.com/iaguu/axion-central-bot/internal/services"
)

type Messenger interface {
	Send(chatID int64, text string)
	SendHTML(chatID int64, text string)
	SendDice(chatID int64, emoji string) (int, error)
	Notify(userID, message string) error
}

// StatusChecker polls the gateway for a payment's current state.
type StatusChecker interface {
	CheckStatus(ctx context.Context, paymentID string) (string, error)
}

type Bot struct {
	msg         Messenger
	db          *database.Database
	checkout    *services.CheckoutService
	fulfillment *services.FulfillmentService
	casino      *services.CasinoService
	cards       *inventory.Store
	cardsProdID string
	status      StatusChecker
	adminID     string
}

type Options struct {
	Messenger   Messenger
	DB          *database.Database
	Checkout    *services.CheckoutService
	Fulfillment *services.FulfillmentService
	Casino      *services.CasinoService
	Cards       *inventory.Store
	CardsProdID string
	Status      StatusChecker
	AdminID     string
}

func New(opts Options) *Bot {
	return &Bot{
		msg:         opts.Messenger,
		db:          opts.DB,
		checkout:    opts.Checkout,
		fulfillment: opts.Fulfillment,
		casino:      opts.Casino,
		cards:       opts.Cards,
		cardsProdID: opts.CardsProdID,
		status:      opts.Status,
		adminID:     opts.AdminID,
	}
}

func (b *Bot) isAdmin(userID int64) bool {
	return strconv.FormatInt(userID, 10) == b.adminID
}

var casinoGames = map[string]struct {
	game  services.CasinoGame
	emoji string
}{
	"dado":    {services.GameDice, "🎲"},
	"slots":   {services.GameSlots, "🎰"},
	"futebol": {services.GameFootball, "⚽"},
}

func (b *Bot) Handle(update tgbotapi.Update) {
	m := update.Message
	if m == nil || m.From == nil {
		return
	}
	chatID := m.Chat.ID
	uid := strconv.FormatInt(m.From.ID, 10)

	cmd, args := bot.CommandArgs(m.Text)
	if cmd == "" {
		return
	}

	if g, ok := casinoGames[cmd]; ok {
		b.playCasino(chatID, uid, g.game, g.emoji)
		return
	}

	switch cmd {
	case "start", "ajuda", "help":
		b.msg.Send(chatID, helpText)
	case "loja", "catalogo":
		b.sendCatalog(chatID, args)
	case "produto":
		b.sendProduct(chatID, args)
	case "comprar":
		b.handleBuy(chatID, uid, args)
	case "verificar":
		b.handleVerify(chatID, uid, args)
	case "pedidos":
		b.sendOrders(chatID, uid)
	case "cupom":
		b.handleCoupon(chatID, uid, args)
	case "rep":
		b.sendRep(chatID, uid)
	case "suporte":
		b.relaySupport(chatID, uid, args)
	default:
		b.handleAdmin(m, uid, cmd, args)
	}
}

func (b *Bot) sendCatalog(chatID int64, category string) {
	products := b.db.Products()
	sort.Slice(products, func(i, j int) bool { return products[i].Price < products[j].Price })

	var sb strings.Builder
	sb.WriteString("<b>Catalogo</b>\n")
	listed := 0
	for _, p := range products {
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		availability := fmt.Sprintf("%d em estoque", len(p.Stock))
		if len(p.Stock) == 0 {
			availability = "esgotado"
		}
		sb.WriteString(fmt.Sprintf("• <b>%s</b> (R$ %.2f) [%s] - %s\n  /produto %s\n",
			bot.Escape(p.Name), p.Price, bot.Escape(p.Category), availability, p.ID))
		listed++
	}
	if listed == 0 {
		b.msg.Send(chatID, "Nenhum produto disponivel.")
		return
	}
	b.msg.SendHTML(chatID, sb.String())
}

func (b *Bot) sendProduct(chatID int64, id string) {
	p := b.db.ProductByID(strings.TrimSpace(id))
	if p == nil {
		b.msg.Send(chatID, "Produto nao encontrado. Use /loja.")
		return
	}
	b.msg.SendHTML(chatID, fmt.Sprintf(
		"<b>%s</b>\nPreco: R$ %.2f\nCategoria: %s\nEstoque: %d\n\nComprar: /comprar %s",
		bot.Escape(p.Name), p.Price, bot.Escape(p.Category), len(p.Stock), p.ID))
}

func (b *Bot) handleBuy(chatID int64, uid, productID string) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		b.msg.Send(chatID, "Uso: /comprar <produto>")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	order, err := b.checkout.Start(ctx, uid, productID)
	switch {
	case errors.Is(err, services.ErrUnknownProduct):
		b.msg.Send(chatID, "Produto nao encontrado. Use /loja.")
		return
	case errors.Is(err, services.ErrOutOfStock):
		b.msg.Send(chatID, "Produto esgotado no momento.")
		return
	case err != nil:
		slog.Error("checkout failed", "user", uid, "product", productID, "error", err)
		b.msg.Send(chatID, "Nao foi possivel gerar a cobranca. Tente novamente.")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<b>Pedido criado</b> (%s)\n", order.ID))
	if order.Discount > 0 {
		sb.WriteString(fmt.Sprintf("De R$ %.2f por <b>R$ %.2f</b> (cupom %s)\n", order.AmountOriginal, order.Amount, order.CouponCode))
	} else {
		sb.WriteString(fmt.Sprintf("Valor: <b>R$ %.2f</b>\n", order.Amount))
	}
	if order.PixCode != "" {
		sb.WriteString(fmt.Sprintf("\nPIX copia e cola:\n<pre>%s</pre>\n", bot.Escape(order.PixCode)))
	}
	if order.PaymentURL != "" {
		sb.WriteString(fmt.Sprintf("\nOu pague por aqui: %s\n", order.PaymentURL))
	}
	sb.WriteString(fmt.Sprintf("\nApos pagar: /verificar %s", order.ID))
	b.msg.SendHTML(chatID, sb.String())
}

func (b *Bot) handleVerify(chatID int64, uid, orderID string) {
	orderID = strings.TrimSpace(orderID)
	order := b.db.Order(orderID)
	if order == nil || order.UserID != uid {
		b.msg.Send(chatID, "Pedido nao encontrado.")
		return
	}
	if order.Status.Settled() {
		b.msg.Send(chatID, fmt.Sprintf("Pedido %s ja esta %s.", orderID, order.Status))
		return
	}
	if order.PaymentID == "" || b.status == nil {
		b.msg.Send(chatID, "Pagamento ainda nao confirmado. Aguarde alguns minutos.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	status, err := b.status.CheckStatus(ctx, order.PaymentID)
	if err != nil {
		slog.Error("status check failed", "order", orderID, "error", err)
		b.msg.Send(chatID, "Nao foi possivel consultar o pagamento agora.")
		return
	}
	if strings.EqualFold(status, "paid") || strings.EqualFold(status, "approved") {
		if _, err := b.fulfillment.ConfirmPayment(orderID); err != nil {
			slog.Error("manual confirmation failed", "order", orderID, "error", err)
			b.msg.Send(chatID, "Pagamento aprovado, mas a entrega falhou. Fale com /suporte.")
		}
		return
	}
	b.msg.Send(chatID, fmt.Sprintf("Pagamento ainda consta como %q. Tente novamente em instantes.", status))
}

func (b *Bot) sendOrders(chatID int64, uid string) {
	orders := b.db.OrdersByUser(uid)
	if len(orders) == 0 {
		b.msg.Send(chatID, "Voce ainda nao tem pedidos.")
		return
	}
	var sb strings.Builder
	sb.WriteString("<b>Seus pedidos</b>\n")
	for _, o := range orders {
		sb.WriteString(fmt.Sprintf("• %s - R$ %.2f - %s\n", o.ID, o.Amount, o.Status))
	}
	b.msg.SendHTML(chatID, sb.String())
}

func (b *Bot) handleCoupon(chatID int64, uid, code string) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		b.msg.Send(chatID, "Uso: /cupom <codigo>")
		return
	}
	coupon, err := b.checkout.Redeem(uid, code)
	if err != nil {
		b.msg.Send(chatID, "Cupom invalido.")
		return
	}
	b.msg.Send(chatID, fmt.Sprintf("Cupom %s ativado (%s). Valido para a proxima compra.", coupon.Code, coupon.Label))
}

func (b *Bot) sendRep(chatID int64, uid string) {
	u, _, err := b.db.GetOrCreateUser(uid)
	if err != nil {
		b.msg.Send(chatID, "Falha ao consultar seu saldo.")
		return
	}
	b.msg.Send(chatID, fmt.Sprintf("Seu saldo: %d rep.", u.Rep))
}

func (b *Bot) playCasino(chatID int64, uid string, game services.CasinoGame, emoji string) {
	// the stake comes off before the roll so a zero-balance user never
	// sees the animation
	rep, err := b.casino.Wager(uid)
	if errors.Is(err, services.ErrInsufficientRep) {
		b.msg.Send(chatID, fmt.Sprintf("Voce precisa de %d rep para jogar. Saldo: %d.", services.CasinoWager, rep))
		return
	}
	if err != nil {
		slog.Error("casino wager failed", "game", game, "user", uid, "error", err)
		b.msg.Send(chatID, "O jogo falhou. Nada foi debitado.")
		return
	}

	value, err := b.msg.SendDice(chatID, emoji)
	if err != nil {
		slog.Error("dice roll failed", "game", game, "error", err)
		if _, rerr := b.casino.Refund(uid); rerr != nil {
			slog.Error("wager refund failed", "user", uid, "error", rerr)
		}
		b.msg.Send(chatID, "O jogo falhou. Sua aposta foi devolvida.")
		return
	}

	res, err := b.casino.Settle(uid, game, value, rep)
	if err != nil {
		slog.Error("casino play failed", "game", game, "user", uid, "error", err)
		b.msg.Send(chatID, "O jogo falhou. Tente novamente.")
		return
	}
	if res.Won {
		b.msg.Send(chatID, fmt.Sprintf("Voce ganhou %d rep! Saldo: %d.", res.Payout, res.Rep))
		return
	}
	b.msg.Send(chatID, fmt.Sprintf("Nao foi dessa vez. Saldo: %d.", res.Rep))
}

func (b *Bot) relaySupport(chatID int64, uid, text string) {
	if text == "" {
		b.msg.Send(chatID, "Uso: /suporte <mensagem>")
		return
	}
	if err := b.msg.Notify(b.adminID, fmt.Sprintf("Suporte de %s:\n%s", uid, text)); err != nil {
		slog.Error("support relay failed", "user", uid, "error", err)
		b.msg.Send(chatID, "Nao foi possivel enviar agora. Tente mais tarde.")
		return
	}
	b.msg.Send(chatID, "Mensagem enviada ao suporte.")
}

func (b *Bot) handleAdmin(m *tgbotapi.Message, uid, cmd, args string) {
	chatID := m.Chat.ID
	if !b.isAdmin(m.From.ID) {
		b.msg.Send(chatID, "Comando desconhecido. Use /ajuda.")
		return
	}

	switch cmd {
	case "confirmar":
		orderID := strings.TrimSpace(args)
		if _, err := b.fulfillment.ConfirmPayment(orderID); err != nil {
			b.msg.Send(chatID, "Falha ao confirmar: "+err.Error())
			return
		}
		b.msg.Send(chatID, fmt.Sprintf("Pedido %s confirmado.", orderID))
	case "entregar":
		done, err := b.fulfillment.RetryPending()
		if err != nil {
			b.msg.Send(chatID, "Falha ao reprocessar entregas.")
			return
		}
		b.msg.Send(chatID, fmt.Sprintf("%d pedido(s) entregues.", len(done)))
	case "cancelar":
		cancelled := models.StatusCancelled
		updated, err := b.db.UpdateOrder(strings.TrimSpace(args), models.OrderPatch{Status: &cancelled})
		if err != nil || updated == nil {
			b.msg.Send(chatID, "Pedido nao pode ser cancelado.")
			return
		}
		b.db.AddLog(fmt.Sprintf("order %s cancelled by admin", updated.ID))
		b.msg.Send(chatID, fmt.Sprintf("Pedido %s cancelado.", updated.ID))
	case "addproduto":
		b.handleAddProduct(chatID, args)
	case "addestoque":
		b.handleAddStock(chatID, args)
	case "repor":
		b.handleReplenish(chatID, args)
	case "recentes":
		b.sendRecentOrders(chatID)
	default:
		b.msg.Send(chatID, "Comando desconhecido. Use /ajuda.")
	}
}

// /addproduto nome;preco;categoria
func (b *Bot) handleAddProduct(chatID int64, args string) {
	parts := strings.SplitN(args, ";", 3)
	if len(parts) != 3 {
		b.msg.Send(chatID, "Uso: /addproduto nome;preco;categoria")
		return
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || price <= 0 {
		b.msg.Send(chatID, "Preco invalido.")
		return
	}
	p, err := b.db.AddProduct(models.Product{
		Name:     strings.TrimSpace(parts[0]),
		Price:    price,
		Category: strings.ToLower(strings.TrimSpace(parts[2])),
	})
	if err != nil {
		b.msg.Send(chatID, "Falha ao criar o produto.")
		return
	}
	b.db.AddLog(fmt.Sprintf("product %s added", p.ID))
	b.msg.Send(chatID, fmt.Sprintf("Produto criado: %s", p.ID))
}

// /addestoque <produto> item1|item2|...
func (b *Bot) handleAddStock(chatID int64, args string) {
	parts := strings.SplitN(args, " ", 2)
	if len(parts) != 2 {
		b.msg.Send(chatID, "Uso: /addestoque <produto> item1|item2")
		return
	}
	items := strings.Split(parts[1], "|")
	p, err := b.db.AddStock(strings.TrimSpace(parts[0]), items)
	if err != nil || p == nil {
		b.msg.Send(chatID, "Produto nao encontrado.")
		return
	}
	b.db.AddLog(fmt.Sprintf("stock +%d on %s", len(items), p.ID))
	b.msg.Send(chatID, fmt.Sprintf("Estoque de %s agora: %d", p.Name, len(p.Stock)))

	if done, err := b.fulfillment.RetryPending(); err == nil && len(done) > 0 {
		b.msg.Send(chatID, fmt.Sprintf("%d pedido(s) pendentes entregues com o novo estoque.", len(done)))
	}
}

// /repor [n] moves raw card lines from the sidecar file into the cards
// product's stock.
func (b *Bot) handleReplenish(chatID int64, args string) {
	if b.cards == nil || b.cardsProdID == "" {
		b.msg.Send(chatID, "Inventario de cartoes nao configurado.")
		return
	}
	n := 10
	if args != "" {
		if v, err := strconv.Atoi(strings.TrimSpace(args)); err == nil && v > 0 {
			n = v
		}
	}
	moved, err := b.cards.Replenish(b.db, b.cardsProdID, n)
	if err != nil {
		slog.Error("replenish failed", "error", err)
		b.msg.Send(chatID, "Falha ao repor estoque.")
		return
	}
	report, err := b.cards.Reconcile(b.db, b.cardsProdID)
	if err != nil {
		b.msg.Send(chatID, fmt.Sprintf("%d item(ns) movidos.", moved))
		return
	}
	b.msg.Send(chatID, fmt.Sprintf("%d item(ns) movidos. Arquivo: %d, estoque: %d.",
		moved, report.SidecarCount, report.StockCount))

	if done, err := b.fulfillment.RetryPending(); err == nil && len(done) > 0 {
		b.msg.Send(chatID, fmt.Sprintf("%d pedido(s) pendentes entregues.", len(done)))
	}
}

func (b *Bot) sendRecentOrders(chatID int64) {
	orders := b.db.Orders()
	if len(orders) == 0 {
		b.msg.Send(chatID, "Sem pedidos.")
		return
	}
	if len(orders) > 15 {
		orders = orders[len(orders)-15:]
	}
	var sb strings.Builder
	sb.WriteString("<b>Pedidos recentes</b>\n")
	for _, o := range orders {
		sb.WriteString(fmt.Sprintf("• %s u:%s R$ %.2f %s\n", o.ID, bot.Escape(o.UserID), o.Amount, o.Status))
	}
	b.msg.SendHTML(chatID, sb.String())
}

const helpText = `Loja:
/loja [categoria] - catalogo
/produto <id> - detalhes
/comprar <id> - gerar cobranca PIX
/verificar <pedido> - checar pagamento
/pedidos - seus pedidos
/cupom <codigo> - ativar cupom
/rep - seu saldo de rep
/suporte <mensagem>

Casino (aposta de 5 rep):
/dado /slots /futebol

Admin:
/confirmar <pedido> /cancelar <pedido>
/entregar - reprocessar pendentes
/addproduto nome;preco;categoria
/addestoque <produto> item1|item2
/repor [n] - repor cartoes do arquivo
/recentes`
