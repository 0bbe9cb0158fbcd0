// Package control implements the group moderation front end: spam
// filtering with warn escalation, member management and the system
// toggles.
package control

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/iaguu/axion-central-bot/internal/bot"
	"github.com/iaguu/axion-central-bot/internal/database"
	"github.com/iaguu/axion-central-bot/internal/services"
)

// Messenger is the slice of the bot client this front end uses.
type Messenger interface {
	Send(chatID int64, text string)
	SendHTML(chatID int64, text string)
	DeleteMessage(chatID int64, messageID int)
	RestrictUser(chatID, userID int64)
	UnrestrictUser(chatID, userID int64)
	BanUser(chatID, userID int64)
	UnbanUser(chatID, userID int64)
	Notify(userID, message string) error
}

type Bot struct {
	msg        Messenger
	db         *database.Database
	moderation *services.ModerationService
	adminID    string
}

func New(msg Messenger, db *database.Database, moderation *services.ModerationService, adminID string) *Bot {
	return &Bot{msg: msg, db: db, moderation: moderation, adminID: adminID}
}

func (b *Bot) isAdmin(userID int64) bool {
	return strconv.FormatInt(userID, 10) == b.adminID
}

func (b *Bot) Handle(update tgbotapi.Update) {
	m := update.Message
	if m == nil || m.From == nil {
		return
	}
	chatID := m.Chat.ID
	userID := m.From.ID
	uid := strconv.FormatInt(userID, 10)

	if cmd, args := bot.CommandArgs(m.Text); cmd != "" {
		b.handleCommand(m, cmd, args)
		return
	}

	// plain group traffic goes through the spam filter
	verdict, err := b.moderation.Screen(uid, m.Text, b.isAdmin(userID))
	if err != nil {
		slog.Error("spam screening failed", "user", uid, "error", err)
		return
	}
	if !verdict.Spam {
		return
	}
	b.msg.DeleteMessage(chatID, m.MessageID)
	if verdict.Mute {
		b.msg.RestrictUser(chatID, userID)
		b.msg.Send(chatID, fmt.Sprintf("%s foi silenciado por spam.", displayName(m.From)))
		b.db.AddLog(fmt.Sprintf("muted %s for spam", uid))
		return
	}
	b.msg.Send(chatID, fmt.Sprintf("%s: link removido. Aviso %d/%d.",
		displayName(m.From), verdict.Warns, services.MuteThreshold))
}

func (b *Bot) handleCommand(m *tgbotapi.Message, cmd, args string) {
	chatID := m.Chat.ID

	switch cmd {
	case "start", "ajuda", "help":
		b.msg.Send(chatID, helpText)
		return
	case "status":
		lockdown := "desativado"
		if b.db.Lockdown() {
			lockdown = "ATIVO"
		}
		b.msg.Send(chatID, fmt.Sprintf("Lockdown: %s\nPool: %.2f", lockdown, b.db.Pool()))
		return
	case "top":
		b.sendTopSearches(chatID)
		return
	case "vips":
		b.sendVIPList(chatID)
		return
	case "banlist":
		b.sendBanlist(chatID)
		return
	}

	if !b.isAdmin(m.From.ID) {
		b.msg.Send(chatID, "Comando restrito a administradores.")
		return
	}

	switch cmd {
	case "lockdown":
		on := strings.EqualFold(args, "on")
		if err := b.db.SetLockdown(on); err != nil {
			b.msg.Send(chatID, "Falha ao alterar lockdown.")
			return
		}
		b.db.AddLog(fmt.Sprintf("lockdown set to %t", on))
		b.msg.Send(chatID, fmt.Sprintf("Lockdown: %t", on))
	case "pool":
		b.handlePool(chatID, args)
	case "warn":
		b.withTarget(m, args, func(target string) {
			warns, err := b.db.AddWarn(target, 1)
			if err != nil {
				b.msg.Send(chatID, "Falha ao registrar aviso.")
				return
			}
			b.msg.Send(chatID, fmt.Sprintf("Usuario %s agora tem %d aviso(s).", target, warns))
		})
	case "warns":
		b.withTarget(m, args, func(target string) {
			b.msg.Send(chatID, fmt.Sprintf("Usuario %s: %d aviso(s).", target, b.db.Warns(target)))
		})
	case "clearwarns":
		b.withTarget(m, args, func(target string) {
			if err := b.db.ClearWarns(target); err != nil {
				b.msg.Send(chatID, "Falha ao limpar avisos.")
				return
			}
			b.msg.Send(chatID, fmt.Sprintf("Avisos de %s zerados.", target))
		})
	case "ban", "kick":
		b.withTargetID(m, args, func(targetID int64) {
			b.msg.BanUser(chatID, targetID)
			if cmd == "kick" {
				b.msg.UnbanUser(chatID, targetID)
			}
			b.db.AddLog(fmt.Sprintf("%s %d by admin", cmd, targetID))
			b.msg.Send(chatID, fmt.Sprintf("Usuario %d removido.", targetID))
		})
	case "mute":
		b.withTargetID(m, args, func(targetID int64) {
			b.msg.RestrictUser(chatID, targetID)
			b.db.AddLog(fmt.Sprintf("mute %d by admin", targetID))
			b.msg.Send(chatID, fmt.Sprintf("Usuario %d silenciado.", targetID))
		})
	case "unmute":
		b.withTargetID(m, args, func(targetID int64) {
			b.msg.UnrestrictUser(chatID, targetID)
			b.msg.Send(chatID, fmt.Sprintf("Usuario %d liberado.", targetID))
		})
	case "unban":
		b.withTargetID(m, args, func(targetID int64) {
			b.msg.UnbanUser(chatID, targetID)
			b.db.AddLog(fmt.Sprintf("unban %d by admin", targetID))
			b.msg.Send(chatID, fmt.Sprintf("Usuario %d desbanido.", targetID))
		})
	case "setlimit":
		b.handleSetLimit(chatID, args)
	case "broadcast":
		b.broadcastVIPs(chatID, args)
	case "logs":
		b.sendLogs(chatID, args)
	case "clearlogs":
		if err := b.db.ClearLogs(); err != nil {
			b.msg.Send(chatID, "Falha ao limpar o historico.")
			return
		}
		b.msg.Send(chatID, "Historico limpo.")
	default:
		b.msg.Send(chatID, "Comando desconhecido. Use /ajuda.")
	}
}

func (b *Bot) handlePool(chatID int64, args string) {
	parts := strings.Fields(args)
	if len(parts) != 2 {
		b.msg.Send(chatID, "Uso: /pool set|add <valor>")
		return
	}
	value, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		b.msg.Send(chatID, "Valor invalido.")
		return
	}
	switch parts[0] {
	case "set":
		if err := b.db.SetPool(value); err != nil {
			b.msg.Send(chatID, "Falha ao gravar o pool.")
			return
		}
		b.msg.Send(chatID, fmt.Sprintf("Pool: %.2f", value))
	case "add":
		total, err := b.db.AddPool(value)
		if err != nil {
			b.msg.Send(chatID, "Falha ao gravar o pool.")
			return
		}
		b.msg.Send(chatID, fmt.Sprintf("Pool: %.2f", total))
	default:
		b.msg.Send(chatID, "Uso: /pool set|add <valor>")
	}
}

func (b *Bot) handleSetLimit(chatID int64, args string) {
	parts := strings.Fields(args)
	if len(parts) != 2 {
		b.msg.Send(chatID, "Uso: /setlimit <usuario> <limite>")
		return
	}
	limit, err := strconv.Atoi(parts[1])
	if err != nil {
		b.msg.Send(chatID, "Limite invalido.")
		return
	}
	if err := b.db.SetCustomLimit(parts[0], limit); err != nil {
		b.msg.Send(chatID, "Falha ao gravar o limite.")
		return
	}
	if limit <= 0 {
		b.msg.Send(chatID, fmt.Sprintf("Limite customizado de %s removido.", parts[0]))
		return
	}
	b.msg.Send(chatID, fmt.Sprintf("Limite de %s: %d/dia.", parts[0], limit))
}

func (b *Bot) broadcastVIPs(chatID int64, message string) {
	if message == "" {
		b.msg.Send(chatID, "Uso: /broadcast <mensagem>")
		return
	}
	vips := b.db.VIPUsers()
	sent := 0
	for _, id := range vips {
		if err := b.msg.Notify(id, message); err != nil {
			slog.Warn("vip broadcast miss", "user", id, "error", err)
			continue
		}
		sent++
	}
	b.db.AddLog(fmt.Sprintf("broadcast to %d vips", sent))
	b.msg.Send(chatID, fmt.Sprintf("Mensagem enviada para %d/%d VIPs.", sent, len(vips)))
}

func (b *Bot) sendLogs(chatID int64, args string) {
	limit := 20
	if args != "" {
		if n, err := strconv.Atoi(args); err == nil && n > 0 {
			limit = n
		}
	}
	entries := b.db.Logs(limit)
	if len(entries) == 0 {
		b.msg.Send(chatID, "Sem registros.")
		return
	}
	var sb strings.Builder
	sb.WriteString("<b>Ultimas acoes</b>\n")
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("• %s\n", bot.Escape(e.A)))
	}
	b.msg.SendHTML(chatID, sb.String())
}

func (b *Bot) sendTopSearches(chatID int64) {
	top := b.db.TopSearches(10)
	if len(top) == 0 {
		b.msg.Send(chatID, "Sem buscas registradas.")
		return
	}
	var sb strings.Builder
	sb.WriteString("<b>Top buscas</b>\n")
	for i, r := range top {
		sb.WriteString(fmt.Sprintf("%d. %s: %d\n", i+1, bot.Escape(r.ID), r.Total))
	}
	b.msg.SendHTML(chatID, sb.String())
}

// sendBanlist reconstructs the current ban set from the audit ring:
// ban entries net against later unbans. Kicks never enter the set.
func (b *Bot) sendBanlist(chatID int64) {
	banned := map[string]bool{}
	for _, e := range b.db.Logs(0) {
		fields := strings.Fields(e.A)
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "ban":
			banned[fields[1]] = true
		case "unban":
			delete(banned, fields[1])
		}
	}
	if len(banned) == 0 {
		b.msg.Send(chatID, "Nenhum usuario banido.")
		return
	}
	var sb strings.Builder
	sb.WriteString("<b>Banidos</b>\n")
	for id := range banned {
		sb.WriteString(fmt.Sprintf("• %s\n", bot.Escape(id)))
	}
	b.msg.SendHTML(chatID, sb.String())
}

func (b *Bot) sendVIPList(chatID int64) {
	vips := b.db.VIPUsers()
	if len(vips) == 0 {
		b.msg.Send(chatID, "Nenhum VIP ativo.")
		return
	}
	var sb strings.Builder
	sb.WriteString("<b>VIPs</b>\n")
	for _, id := range vips {
		sb.WriteString(fmt.Sprintf("• %s\n", bot.Escape(id)))
	}
	b.msg.SendHTML(chatID, sb.String())
}

// withTarget resolves the target user from a reply or the first arg.
func (b *Bot) withTarget(m *tgbotapi.Message, args string, fn func(target string)) {
	if m.ReplyToMessage != nil && m.ReplyToMessage.From != nil {
		fn(strconv.FormatInt(m.ReplyToMessage.From.ID, 10))
		return
	}
	target := strings.Fields(args)
	if len(target) == 0 {
		b.msg.Send(m.Chat.ID, "Responda a mensagem do usuario ou informe o ID.")
		return
	}
	fn(target[0])
}

func (b *Bot) withTargetID(m *tgbotapi.Message, args string, fn func(targetID int64)) {
	b.withTarget(m, args, func(target string) {
		id, err := strconv.ParseInt(target, 10, 64)
		if err != nil {
			b.msg.Send(m.Chat.ID, "ID invalido.")
			return
		}
		fn(id)
	})
}

func displayName(u *tgbotapi.User) string {
	if u.UserName != "" {
		return "@" + u.UserName
	}
	return u.FirstName
}

const helpText = `Comandos:
/status - lockdown e pool
/top - top buscas
/vips - lista de VIPs
/banlist - usuarios banidos

Admin:
/lockdown on|off
/pool set|add <valor>
/warn /warns /clearwarns (responda ou informe o ID)
/ban /kick /mute /unmute /unban
/setlimit <usuario> <limite>
/broadcast <mensagem> - envia aos VIPs
/logs [n] /clearlogs`
