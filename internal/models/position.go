package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position represents one user's holding of a single symbol.
// Quantity is always positive while the row exists; a position whose
// quantity reaches zero is deleted, never stored at zero.
type Position struct {
	ID           int              `json:"id"`
	UserID       int              `json:"user_id"`
	Symbol       string           `json:"symbol"`
	Quantity     decimal.Decimal  `json:"quantity"`
	BuyPrice     decimal.Decimal  `json:"buy_price"`
	LastNotified *decimal.Decimal `json:"last_notified,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// PortfolioEntry is a position joined with its owner's chat id,
// used by the alert cycle to address notifications.
type PortfolioEntry struct {
	Position
	TelegramID string `json:"telegram_id"`
}

// RemovalResult describes the outcome of a quantity removal.
type RemovalResult struct {
	Symbol            string          `json:"symbol"`
	RemovedQuantity   decimal.Decimal `json:"removed_quantity"`
	AverageBuyPrice   decimal.Decimal `json:"average_buy_price"`
	RemainingQuantity decimal.Decimal `json:"remaining_quantity"`
	FullyRemoved      bool            `json:"fully_removed"`
}

// ClearResult reports how many positions a clear-all deleted.
// DeletedCount is zero when the portfolio was already empty.
type ClearResult struct {
	DeletedCount int `json:"deleted_count"`
}
