package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"

	"github.com/blapoker/loyalty/internal/config"
	"github.com/blapoker/loyalty/internal/domain"
)

const maxMessageLen = 4096

// Notifier forwards notable audit events to the staff Telegram chat.
// Sends are best-effort; failures are logged and swallowed.
type Notifier struct {
	bot *bot.Bot
	cfg *config.Config
}

func NewNotifier(b *bot.Bot, cfg *config.Config) *Notifier {
	return &Notifier{bot: b, cfg: cfg}
}

func (n *Notifier) Notify(entry domain.AuditEntry) {
	switch entry.Type {
	case domain.AuditUserCreate:
		n.send(n.cfg.LogTopicUsers, fmt.Sprintf("👤 *New member*\n\n*Email:* %s\n*Name:* %s",
			entry.Metadata["email"], entry.Metadata["display_name"]))
	case domain.AuditClockAnomaly:
		n.send(n.cfg.LogTopicAnomaly, fmt.Sprintf("⏰ *Clock anomaly*\n\n*User:* `%s`\n*Attempted:* %s",
			entry.Metadata["user_id"], entry.Metadata["attempted_at"]))
	case domain.AuditCouponInvalidate:
		n.send(n.cfg.LogTopicCoupons, fmt.Sprintf("🎟 *Redeemed coupon invalidated*\n\n*User:* `%s`\n*Coupons:* `%s`",
			entry.Metadata["user_id"], entry.Metadata["coupon_ids"]))
	case domain.AuditCouponRedeem:
		n.send(n.cfg.LogTopicCoupons, fmt.Sprintf("✅ *Coupon redeemed*\n\n*User:* `%s`\n*Coupon:* `%s`",
			entry.Metadata["user_id"], entry.Metadata["coupon_id"]))
	}
}

func (n *Notifier) send(topicID int, message string) {
	if n.cfg.LogTelegramChatID == 0 || topicID == 0 {
		return
	}

	if len([]rune(message)) > maxMessageLen {
		message = string([]rune(message)[:maxMessageLen-20]) + "\n\n... (truncated)"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          n.cfg.LogTelegramChatID,
		Text:            message,
		ParseMode:       "Markdown",
		MessageThreadID: topicID,
	})
	if err != nil {
		slog.Error("failed to send telegram notification", "error", err)
	}
}
