package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Skotchmaster/gypsum_shop/internal/models"
	"github.com/Skotchmaster/gypsum_shop/internal/pricing"
)

type botSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type TelegramSender struct {
	bot      botSender
	chatID   int64
	currency string
}

// NewTelegramSender authorises the bot token against the Bot API.
func NewTelegramSender(token string, chatID int64, currency string, timeout time.Duration) (*TelegramSender, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("telegram: authorise bot: %w", err)
	}
	return &TelegramSender{bot: bot, chatID: chatID, currency: currency}, nil
}

func (s *TelegramSender) Notify(ctx context.Context, order *models.Order) error {
	msg := tgbotapi.NewMessage(s.chatID, FormatOrderMessage(order, pricing.QuoteOrder(order), s.currency))
	msg.ParseMode = tgbotapi.ModeMarkdown

	done := make(chan error, 1)
	go func() {
		_, err := s.bot.Send(msg)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("telegram: send order #%d: %w", order.ID, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("telegram: send order #%d: %w", order.ID, ctx.Err())
	}
}

func FormatOrderMessage(order *models.Order, quote pricing.Quote, currency string) string {
	esc := func(s string) string { return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s) }

	var b strings.Builder
	b.WriteString("🆕 *Новый заказ!*\n\n")
	fmt.Fprintf(&b, "🔢 *Номер заказа*: #%d\n", order.ID)
	fmt.Fprintf(&b, "👤 *Клиент*: %s\n", esc(order.ClientName))
	fmt.Fprintf(&b, "📦 *Товар*: %s\n", esc(order.Product.Name))
	fmt.Fprintf(&b, "🔢 *Количество*: %d %s\n", order.Quantity, esc(order.Product.Unit))
	fmt.Fprintf(&b, "🏠 *Адрес доставки*: %s\n", esc(order.DeliveryAddress))
	fmt.Fprintf(&b, "✅ *Статус*: %s\n", order.Status)
	fmt.Fprintf(&b, "💰 *Сумма*: %s %s\n", quote.Amount(), currency)
	return b.String()
}
