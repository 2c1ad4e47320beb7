package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Alert event type constants
const (
	EventPriceAlert = "PRICE_ALERT"
	EventWatchAlert = "WATCH_ALERT"
)

// AlertEvent is emitted when a held position's price moves past the
// configured threshold from its buy price (and from the last notified
// price, when one exists).
type AlertEvent struct {
	EventType     string          `json:"event_type"`
	TelegramID    string          `json:"telegram_id"`
	Symbol        string          `json:"symbol"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	BuyPrice      decimal.Decimal `json:"buy_price"`
	PercentChange decimal.Decimal `json:"percent_change"`
	Quantity      decimal.Decimal `json:"quantity"`
	Timestamp     time.Time       `json:"timestamp"`
}

// WatchAlertEvent is emitted once per level when a watched symbol moves
// ±3% or ±5% away from its base price.
type WatchAlertEvent struct {
	EventType     string          `json:"event_type"`
	TelegramID    string          `json:"telegram_id"`
	Symbol        string          `json:"symbol"`
	BasePrice     decimal.Decimal `json:"base_price"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	PercentChange decimal.Decimal `json:"percent_change"`
	Level         int             `json:"level"`
	Timestamp     time.Time       `json:"timestamp"`
}
