package session

import (
	"time"

	"github.com/shopspring/decimal"
)

// State is the position of an interactive removal dialog.
type State int

const (
	// StateChoosingMode: a symbol is selected, waiting for the user to
	// pick partial or full removal.
	StateChoosingMode State = iota + 1
	// StateAwaitingQuantity: partial removal chosen, waiting for a
	// typed quantity.
	StateAwaitingQuantity
	// StateConfirming: quantity staged, waiting for confirm or cancel.
	StateConfirming
)

// Session is the ephemeral per-user state of an in-flight interactive
// removal. It is not authoritative after a restart; the quantities are
// a snapshot taken when the dialog began.
type Session struct {
	TelegramID      string          `json:"telegram_id"`
	UserID          int             `json:"user_id"`
	Symbol          string          `json:"symbol"`
	CurrentQuantity decimal.Decimal `json:"current_quantity"`
	AveragePrice    decimal.Decimal `json:"average_price"`
	RemoveQuantity  decimal.Decimal `json:"remove_quantity"`
	State           State           `json:"state"`
	StartedAt       time.Time       `json:"started_at"`
}
