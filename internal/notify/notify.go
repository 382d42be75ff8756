// Package notify pushes operational alerts to the admin Telegram chat:
// new recharge and withdrawal requests, plus the daily pending digest.
package notify

import (
	"fmt"
	"log/slog"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"saldoya/internal/db"
)

type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// New creates the notifier. An empty token or chat ID yields a disabled
// notifier whose methods are no-ops, so callers never need to nil-check.
func New(token, chatIDStr string) *Notifier {
	if token == "" || chatIDStr == "" {
		slog.Info("Telegram notifications disabled")
		return &Notifier{}
	}

	chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
	if err != nil {
		slog.Warn("Invalid ADMIN_CHAT_ID, telegram notifications disabled", "error", err)
		return &Notifier{}
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		slog.Warn("Failed to create telegram bot, notifications disabled", "error", err)
		return &Notifier{}
	}
	bot.Debug = false

	slog.Info("Telegram notifier ready", "bot", bot.Self.UserName)
	return &Notifier{bot: bot, chatID: chatID}
}

func (n *Notifier) Enabled() bool {
	return n.bot != nil
}

func (n *Notifier) send(text string) {
	if n.bot == nil {
		return
	}
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		slog.Error("Failed to send admin notification", "error", err)
	}
}

func (n *Notifier) RechargeRequested(req *db.RechargeRequest) {
	n.send(fmt.Sprintf("💳 Nueva solicitud de recarga\n\nReferencia: %s\nTeléfono: %s\nMonto: $%.0f COP",
		req.ReferenceID, req.UserPhone, req.Amount))
}

func (n *Notifier) WithdrawalRequested(req *db.WithdrawalRequest) {
	n.send(fmt.Sprintf("🏧 Nueva solicitud de retiro\n\n#%d\nTeléfono: %s\nMonto: $%.0f COP\nCuenta Nequi: %s",
		req.ID, req.UserPhone, req.Amount, req.NequiAccount))
}

func (n *Notifier) PendingDigest(recharges, withdrawals int64) {
	if recharges == 0 && withdrawals == 0 {
		return
	}
	n.send(fmt.Sprintf("📋 Solicitudes pendientes\n\nRecargas: %d\nRetiros: %d", recharges, withdrawals))
}
