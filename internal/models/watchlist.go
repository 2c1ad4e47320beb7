package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WatchlistEntry represents a symbol a user tracks without holding it.
// BasePrice is the price when the watch was created; the alert flags are
// one-shot markers for a ±3% and a ±5% move away from it.
type WatchlistEntry struct {
	ID         int             `json:"id"`
	UserID     int             `json:"user_id"`
	Symbol     string          `json:"symbol"`
	BasePrice  decimal.Decimal `json:"base_price"`
	Alert3Sent bool            `json:"alert_3_sent"`
	Alert5Sent bool            `json:"alert_5_sent"`
	CreatedAt  time.Time       `json:"created_at"`
}

// WatchlistJoined is a watchlist entry joined with its owner's chat id.
type WatchlistJoined struct {
	WatchlistEntry
	TelegramID string `json:"telegram_id"`
}
