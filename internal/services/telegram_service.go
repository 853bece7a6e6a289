package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// TelegramService posts admin notifications to a Telegram chat.
type TelegramService struct {
	botToken    string
	adminChatID string
	apiBase     string
	client      *http.Client
	log         *zap.Logger
}

// NewTelegramService creates a new TelegramService. Empty credentials turn it
// into a no-op.
func NewTelegramService(botToken, adminChatID string, log *zap.Logger) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
		apiBase:     "https://api.telegram.org",
		client:      &http.Client{Timeout: 10 * time.Second},
		log:         log.Named("telegram"),
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendToAdmin sends an HTML-formatted message to the admin chat.
func (s *TelegramService) SendToAdmin(ctx context.Context, text string) error {
	if s.botToken == "" || s.adminChatID == "" {
		s.log.Debug("telegram not configured, skipping message")
		return nil
	}

	body, err := json.Marshal(telegramMessage{
		ChatID:    s.adminChatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.apiBase, s.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Warn("failed to send message", zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.log.Warn("unexpected status", zap.Int("status", resp.StatusCode))
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	return nil
}

// OrderNotification contains order data for the admin chat.
type OrderNotification struct {
	OrderNumber    string
	CustomerName   string
	CustomerEmail  string
	Items          []OrderItemNotification
	TotalAmount    float64
	Currency       string
	PointsRedeemed int
	PointsEarned   int
}

// OrderItemNotification is one line of an order notification.
type OrderItemNotification struct {
	Name     string
	Variant  string
	Quantity int
	Price    float64
}

// FormatPrice renders an amount with thousands separators and two decimals.
func FormatPrice(amount float64, currency string) string {
	if currency == "" {
		currency = "USD"
	}
	cents := int64(amount*100 + 0.5)
	whole := fmt.Sprintf("%d", cents/100)

	var result strings.Builder
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(digit)
	}
	return fmt.Sprintf("%s.%02d %s", result.String(), cents%100, currency)
}

// FormatOrder renders the admin message for a new order.
func FormatOrder(order OrderNotification) string {
	var items strings.Builder
	for i, item := range order.Items {
		name := html.EscapeString(item.Name)
		if item.Variant != "" {
			name += " (" + html.EscapeString(item.Variant) + ")"
		}
		items.WriteString(fmt.Sprintf("%d. <b>%s</b>\n   %d x %s = %s\n",
			i+1,
			name,
			item.Quantity,
			FormatPrice(item.Price, order.Currency),
			FormatPrice(item.Price*float64(item.Quantity), order.Currency),
		))
	}

	msg := fmt.Sprintf(`<b>New order %s</b>
<b>Customer:</b> %s (%s)
<b>Items:</b>
%s
<b>Total:</b> %s`,
		html.EscapeString(order.OrderNumber),
		html.EscapeString(order.CustomerName),
		html.EscapeString(order.CustomerEmail),
		items.String(),
		FormatPrice(order.TotalAmount, order.Currency),
	)
	if order.PointsRedeemed > 0 {
		msg += fmt.Sprintf("\n<b>Points redeemed:</b> %d", order.PointsRedeemed)
	}
	if order.PointsEarned > 0 {
		msg += fmt.Sprintf("\n<b>Points earned:</b> %d", order.PointsEarned)
	}
	return strings.TrimSpace(msg)
}

// NotifyNewOrder tells the admin chat about a placed order.
func (s *TelegramService) NotifyNewOrder(ctx context.Context, order OrderNotification) error {
	return s.SendToAdmin(ctx, FormatOrder(order))
}

// NotifyJobApplication tells the admin chat about a careers submission.
func (s *TelegramService) NotifyJobApplication(ctx context.Context, app JobApplication) error {
	msg := fmt.Sprintf("<b>New job application</b>\n<b>Position:</b> %s\n<b>Name:</b> %s\n<b>Email:</b> %s",
		html.EscapeString(app.Position),
		html.EscapeString(app.Name),
		html.EscapeString(app.Email),
	)
	return s.SendToAdmin(ctx, msg)
}
