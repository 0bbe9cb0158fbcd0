// Package search implements the people-search front end: typed query
// commands gated by the daily access rules, with result caching and
// per-user history.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/iaguu/axion-central-bot/internal/bot"
	"github.com/iaguu/axion-central-bot/internal/cache"
	"github.com/iaguu/axion-central-bot/internal/database"
	"github.com/iaguu/axion-central-bot/internal/models"
)

// resultTTL keeps repeat queries off the upstream for a while.
const resultTTL = 10 * time.Minute

// Searcher is the upstream lookup surface; the real implementation is
// services.LookupClient.
type Searcher interface {
	Search(ctx context.Context, kind, query string) (string, error)
}

type Messenger interface {
	Send(chatID int64, text string)
	SendHTML(chatID int64, text string)
	Notify(userID, message string) error
}

type Bot struct {
	msg     Messenger
	db      *database.Database
	lookup  Searcher
	cache   *cache.Cache
	adminID string
}

func New(msg Messenger, db *database.Database, lookup Searcher, adminID string) *Bot {
	return &Bot{msg: msg, db: db, lookup: lookup, cache: cache.New(), adminID: adminID}
}

// searchKinds maps command names to upstream query types.
var searchKinds = map[string]string{
	"cpf":      "cpf",
	"nome":     "nome",
	"telefone": "telefone",
	"email":    "email",
	"placa":    "placa",
	"cep":      "cep",
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

	if kind, ok := searchKinds[cmd]; ok {
		b.handleSearch(chatID, uid, cmd, kind, args)
		return
	}

	switch cmd {
	case "start", "ajuda", "help":
		b.msg.Send(chatID, helpText)
	case "historico":
		b.sendHistory(chatID, uid)
	case "limite", "meu_acesso":
		b.sendAccess(chatID, uid)
	case "daily":
		b.handleDaily(chatID, uid)
	case "top":
		b.sendTopRep(chatID)
	case "perfil":
		b.sendProfile(chatID, uid)
	case "report":
		b.relayReport(chatID, uid, args)
	default:
		b.msg.Send(chatID, "Comando desconhecido. Use /ajuda.")
	}
}

func (b *Bot) handleSearch(chatID int64, uid, cmd, kind, query string) {
	query = strings.TrimSpace(query)
	if query == "" {
		b.msg.Send(chatID, fmt.Sprintf("Uso: /%s <consulta>", cmd))
		return
	}

	decision, err := b.db.CheckAccess(uid)
	if err != nil {
		b.msg.Send(chatID, "Falha ao verificar seu acesso. Tente novamente.")
		return
	}
	if !decision.OK {
		switch decision.Reason {
		case database.ReasonLockdown:
			b.msg.Send(chatID, "O sistema esta em manutencao. Tente mais tarde.")
		case database.ReasonDailyLimit:
			b.msg.Send(chatID, fmt.Sprintf("Limite diario atingido (%d consultas). Volte amanha ou vire VIP.", decision.Stats.DailyCount))
		default:
			b.msg.Send(chatID, "Acesso negado.")
		}
		return
	}

	result, err := b.cachedSearch(kind, query)
	if err != nil {
		slog.Error("search failed", "kind", kind, "user", uid, "error", err)
		b.msg.Send(chatID, "A consulta falhou. Tente novamente em instantes.")
		return
	}

	if _, err := b.db.RegisterUsage(uid); err != nil {
		slog.Error("usage not recorded", "user", uid, "error", err)
	}
	if _, err := b.db.AddSearchHistory(uid, models.SearchEntry{Cmd: cmd, Query: query}); err != nil {
		slog.Error("history not recorded", "user", uid, "error", err)
	}

	b.msg.SendHTML(chatID, fmt.Sprintf("<b>Resultado %s</b>\n<pre>%s</pre>", bot.Escape(cmd), bot.Escape(result)))
}

func (b *Bot) cachedSearch(kind, query string) (string, error) {
	key := kind + "|" + strings.ToLower(query)
	if v, ok := b.cache.Get(key); ok {
		return v.(string), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	result, err := b.lookup.Search(ctx, kind, query)
	if err != nil {
		return "", err
	}
	b.cache.Set(key, result, resultTTL)
	return result, nil
}

func (b *Bot) sendHistory(chatID int64, uid string) {
	history := b.db.SearchHistory(uid)
	if len(history) == 0 {
		b.msg.Send(chatID, "Voce ainda nao fez consultas.")
		return
	}
	var sb strings.Builder
	sb.WriteString("<b>Suas ultimas consultas</b>\n")
	for _, e := range history {
		sb.WriteString(fmt.Sprintf("• /%s %s\n", bot.Escape(e.Cmd), bot.Escape(e.Query)))
	}
	b.msg.SendHTML(chatID, sb.String())
}

func (b *Bot) sendAccess(chatID int64, uid string) {
	stats := b.db.GetUsageStats(uid)
	u, _, err := b.db.GetOrCreateUser(uid)
	if err != nil {
		b.msg.Send(chatID, "Falha ao consultar seu acesso.")
		return
	}
	tier := "normal"
	if stats.IsVIP {
		tier = "VIP"
	}
	b.msg.Send(chatID, fmt.Sprintf("Plano: %s\nConsultas hoje: %d/%d\nTotal: %d",
		tier, stats.DailyCount, u.DailyLimit(), stats.TotalSearches))
}

func (b *Bot) handleDaily(chatID int64, uid string) {
	claim, err := b.db.ClaimDaily(uid)
	if err != nil {
		b.msg.Send(chatID, "Falha ao registrar o resgate.")
		return
	}
	if !claim.OK {
		b.msg.Send(chatID, "Voce ja resgatou hoje. Volte em 24h.")
		return
	}
	b.msg.Send(chatID, fmt.Sprintf("+1 rep! Saldo atual: %d", claim.Rep))
}

func (b *Bot) sendTopRep(chatID int64) {
	top := b.db.TopRep(10)
	if len(top) == 0 {
		b.msg.Send(chatID, "Ranking vazio.")
		return
	}
	var sb strings.Builder
	sb.WriteString("<b>Top reputacao</b>\n")
	for i, r := range top {
		sb.WriteString(fmt.Sprintf("%d. %s: %d\n", i+1, bot.Escape(r.ID), r.Rep))
	}
	b.msg.SendHTML(chatID, sb.String())
}

func (b *Bot) sendProfile(chatID int64, uid string) {
	u, created, err := b.db.GetOrCreateUser(uid)
	if err != nil {
		b.msg.Send(chatID, "Falha ao carregar seu perfil.")
		return
	}
	if created {
		b.msg.Send(chatID, "Bem-vindo! Seu perfil foi criado. Use /ajuda para comecar.")
		return
	}
	tier := "normal"
	if u.IsVIP {
		tier = "VIP"
	}
	b.msg.Send(chatID, fmt.Sprintf("Perfil %s\nPlano: %s\nRep: %d\nConsultas hoje: %d\nTotal: %d\nAvisos: %d",
		uid, tier, u.Rep, u.DailyCount, u.TotalSearches, u.Warns))
}

func (b *Bot) relayReport(chatID int64, uid, text string) {
	if text == "" {
		b.msg.Send(chatID, "Uso: /report <mensagem>")
		return
	}
	if err := b.msg.Notify(b.adminID, fmt.Sprintf("Report de %s:\n%s", uid, text)); err != nil {
		slog.Error("report relay failed", "user", uid, "error", err)
		b.msg.Send(chatID, "Nao foi possivel enviar o report agora.")
		return
	}
	b.db.AddLog(fmt.Sprintf("report from %s", uid))
	b.msg.Send(chatID, "Report enviado. Obrigado!")
}

const helpText = `Consultas:
/cpf /nome /telefone /email /placa /cep <consulta>

Conta:
/perfil - seu perfil
/limite - uso diario
/historico - ultimas consultas
/daily - resgate diario de rep
/top - ranking de reputacao
/report <mensagem> - falar com o admin`
