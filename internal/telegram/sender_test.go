package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worachai/stock-tracker-bot/internal/models"
)

func captureSend(t *testing.T) (*Sender, *sendMessageRequest, *httptest.Server) {
	t.Helper()
	captured := &sendMessageRequest{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/sendMessage", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		w.Write([]byte(`{"ok":true}`))
	}))
	return NewSender(server.URL, "test-token"), captured, server
}

// TestSendMessage verifies the Bot API request shape
func TestSendMessage(t *testing.T) {
	sender, captured, server := captureSend(t)
	defer server.Close()

	err := sender.SendMessage(context.Background(), "111", "hello")
	require.NoError(t, err)

	assert.Equal(t, "111", captured.ChatID)
	assert.Equal(t, "hello", captured.Text)
	assert.Equal(t, "Markdown", captured.ParseMode)
	assert.True(t, captured.DisableWebPagePreview)
}

// TestSendMessageErrorStatus verifies a non-200 response is an error
func TestSendMessageErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	sender := NewSender(server.URL, "test-token")
	err := sender.SendMessage(context.Background(), "111", "hello")
	assert.Error(t, err)
}

// TestSendAlert verifies the alert text carries the prices and direction
func TestSendAlert(t *testing.T) {
	sender, captured, server := captureSend(t)
	defer server.Close()

	err := sender.SendAlert(context.Background(), &models.AlertEvent{
		EventType:     models.EventPriceAlert,
		TelegramID:    "111",
		Symbol:        "AAPL",
		CurrentPrice:  decimal.NewFromFloat(93.75),
		BuyPrice:      decimal.NewFromInt(100),
		PercentChange: decimal.NewFromFloat(-6.25),
		Quantity:      decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	assert.Equal(t, "111", captured.ChatID)
	assert.Contains(t, captured.Text, "*AAPL Alert*")
	assert.Contains(t, captured.Text, "$93.75")
	assert.Contains(t, captured.Text, "$100.00")
	assert.Contains(t, captured.Text, "down 6.3%")
}

// TestSendWatchAlert verifies the watch alert text names the level
func TestSendWatchAlert(t *testing.T) {
	sender, captured, server := captureSend(t)
	defer server.Close()

	err := sender.SendWatchAlert(context.Background(), &models.WatchAlertEvent{
		EventType:     models.EventWatchAlert,
		TelegramID:    "222",
		Symbol:        "NVDA",
		BasePrice:     decimal.NewFromInt(480),
		CurrentPrice:  decimal.NewFromFloat(504.50),
		PercentChange: decimal.NewFromFloat(5.10),
		Level:         5,
	})
	require.NoError(t, err)

	assert.Equal(t, "222", captured.ChatID)
	assert.Contains(t, captured.Text, "*NVDA Watch Alert*")
	assert.Contains(t, captured.Text, "±5%")
	assert.Contains(t, captured.Text, "$480.00")
}
