package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/worachai/stock-tracker-bot/internal/models"
)

// DefaultBaseURL is the production Telegram Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

// Sender delivers messages through the Telegram Bot API.
type Sender struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewSender creates a Telegram sender. baseURL is configurable so tests
// can point it at a local server.
func NewSender(baseURL, token string) *Sender {
	return &Sender{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode,omitempty"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// SendMessage sends a markdown-formatted message to one chat.
func (s *Sender) SendMessage(ctx context.Context, chatID, text string) error {
	body, err := json.Marshal(sendMessageRequest{
		ChatID:                chatID,
		Text:                  text,
		ParseMode:             "Markdown",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}
	return nil
}

// SendAlert delivers a portfolio price alert.
func (s *Sender) SendAlert(ctx context.Context, event *models.AlertEvent) error {
	direction := "up"
	if event.PercentChange.IsNegative() {
		direction = "down"
	}
	text := fmt.Sprintf(
		"*%s Alert*\n\nCurrent price: $%s\nBuy price: $%s\nChange: %s%%\nQuantity: %s\n\nPrice is %s %s%% from your buy price.",
		event.Symbol,
		event.CurrentPrice.StringFixed(2),
		event.BuyPrice.StringFixed(2),
		event.PercentChange.StringFixed(2),
		event.Quantity,
		direction,
		event.PercentChange.Abs().StringFixed(1),
	)
	return s.SendMessage(ctx, event.TelegramID, text)
}

// SendWatchAlert delivers a watchlist level-crossing alert.
func (s *Sender) SendWatchAlert(ctx context.Context, event *models.WatchAlertEvent) error {
	text := fmt.Sprintf(
		"*%s Watch Alert*\n\nBase price: $%s\nCurrent price: $%s\nChange: %s%%\n\nMoved past the ±%d%% watch level.",
		event.Symbol,
		event.BasePrice.StringFixed(2),
		event.CurrentPrice.StringFixed(2),
		event.PercentChange.StringFixed(2),
		event.Level,
	)
	return s.SendMessage(ctx, event.TelegramID, text)
}
