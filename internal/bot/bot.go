// Package bot wraps the Telegram API with the plumbing every front
// end shares: the long-poll loop, message sending and output escaping.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Client struct {
	api *tgbotapi.BotAPI
}

func New(token string) (*Client, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("bot: connect: %w", err)
	}
	slog.Info("bot connected", "username", api.Self.UserName)
	return &Client{api: api}, nil
}

// Self reports the bot's own username.
func (c *Client) Self() string { return c.api.Self.UserName }

// Run long-polls updates and dispatches each to handle until ctx is
// cancelled. Handlers run inline; a slow handler delays the next
// update, which is the ordering the flows rely on.
func (c *Client) Run(ctx context.Context, handle func(update tgbotapi.Update)) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := c.api.GetUpdatesChan(cfg)
	for {
		select {
		case <-ctx.Done():
			c.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			handle(update)
		}
	}
}

func (c *Client) Send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := c.api.Send(msg); err != nil {
		slog.Error("message send failed", "chat", chatID, "error", err)
	}
}

func (c *Client) SendHTML(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := c.api.Send(msg); err != nil {
		slog.Error("message send failed", "chat", chatID, "error", err)
	}
}

func (c *Client) SendKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = keyboard
	if _, err := c.api.Send(msg); err != nil {
		slog.Error("message send failed", "chat", chatID, "error", err)
	}
}

// SendDice triggers a dice-style animation and returns the rolled
// value. Emoji selects the game ("🎲", "🎰", "⚽").
func (c *Client) SendDice(chatID int64, emoji string) (int, error) {
	dice := tgbotapi.NewDiceWithEmoji(chatID, emoji)
	sent, err := c.api.Send(dice)
	if err != nil {
		return 0, fmt.Errorf("bot: dice send: %w", err)
	}
	if sent.Dice == nil {
		return 0, fmt.Errorf("bot: dice response without value")
	}
	return sent.Dice.Value, nil
}

// DeleteMessage removes a message, used by the spam filter.
func (c *Client) DeleteMessage(chatID int64, messageID int) {
	if _, err := c.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		slog.Warn("message delete failed", "chat", chatID, "message", messageID, "error", err)
	}
}

// RestrictUser mutes a group member until unrestricted.
func (c *Client) RestrictUser(chatID, userID int64) {
	restrict := tgbotapi.RestrictChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: chatID, UserID: userID},
		Permissions:      &tgbotapi.ChatPermissions{CanSendMessages: false},
	}
	if _, err := c.api.Request(restrict); err != nil {
		slog.Error("restrict failed", "chat", chatID, "user", userID, "error", err)
	}
}

// UnrestrictUser lifts a mute.
func (c *Client) UnrestrictUser(chatID, userID int64) {
	restrict := tgbotapi.RestrictChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: chatID, UserID: userID},
		Permissions: &tgbotapi.ChatPermissions{
			CanSendMessages:       true,
			CanSendMediaMessages:  true,
			CanSendOtherMessages:  true,
			CanAddWebPagePreviews: true,
		},
	}
	if _, err := c.api.Request(restrict); err != nil {
		slog.Error("unrestrict failed", "chat", chatID, "user", userID, "error", err)
	}
}

// BanUser kicks a member from the group.
func (c *Client) BanUser(chatID, userID int64) {
	ban := tgbotapi.BanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: chatID, UserID: userID},
	}
	if _, err := c.api.Request(ban); err != nil {
		slog.Error("ban failed", "chat", chatID, "user", userID, "error", err)
	}
}

// UnbanUser lifts a ban so the user can rejoin.
func (c *Client) UnbanUser(chatID, userID int64) {
	unban := tgbotapi.UnbanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: chatID, UserID: userID},
	}
	if _, err := c.api.Request(unban); err != nil {
		slog.Error("unban failed", "chat", chatID, "user", userID, "error", err)
	}
}

// AnswerCallback acknowledges an inline-keyboard press.
func (c *Client) AnswerCallback(callbackID, text string) {
	cb := tgbotapi.NewCallback(callbackID, text)
	if _, err := c.api.Request(cb); err != nil {
		slog.Warn("callback answer failed", "error", err)
	}
}

// Notify implements the fulfillment notifier: user ids in the store
// are stringified chat ids.
func (c *Client) Notify(userID, message string) error {
	chatID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return fmt.Errorf("bot: notify %q: %w", userID, err)
	}
	msg := tgbotapi.NewMessage(chatID, message)
	if _, sendErr := c.api.Send(msg); sendErr != nil {
		return fmt.Errorf("bot: notify %q: %w", userID, sendErr)
	}
	return nil
}

// Escape neutralizes HTML metacharacters before user text is echoed
// back with ParseMode HTML.
func Escape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}

// CommandArgs splits "/cmd arg rest" into the command and its tail.
func CommandArgs(text string) (cmd, args string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", text
	}
	parts := strings.SplitN(text, " ", 2)
	cmd = strings.TrimPrefix(parts[0], "/")
	if at := strings.Index(cmd, "@"); at >= 0 {
		cmd = cmd[:at]
	}
	if len(parts) == 2 {
		args = strings.TrimSpace(parts[1])
	}
	return cmd, args
}
