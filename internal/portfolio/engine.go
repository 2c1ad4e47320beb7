package portfolio

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "github.com/worachai/stock-tracker-bot/internal/errors"
	"github.com/worachai/stock-tracker-bot/internal/models"
)

// Store is the durable portfolio storage the engine operates on. The
// store must provide atomic upsert and decrement-or-delete semantics;
// the engine never does read-modify-write on position rows.
type Store interface {
	UpsertPosition(userID int, symbol string, price, qty decimal.Decimal) (*models.Position, error)
	GetPortfolio(userID int) ([]*models.Position, error)
	GetPosition(userID int, symbol string) (*models.Position, error)
	RemoveQuantity(userID int, symbol string, qty decimal.Decimal) (*models.RemovalResult, error)
	DeleteAllPositions(userID int) (int, error)
}

var symbolPattern = regexp.MustCompile(`^[A-Z0-9.\-]{1,10}$`)

// NormalizeSymbol uppercases and validates a ticker symbol.
func NormalizeSymbol(symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if !symbolPattern.MatchString(s) {
		return "", apperrors.InvalidArgument("invalid symbol: %q", symbol)
	}
	return s, nil
}

// Engine holds the portfolio mutation logic. It validates inputs and
// delegates the actual row changes to the store; it knows nothing about
// the chat transport.
type Engine struct {
	store Store
}

// NewEngine creates a portfolio engine backed by the given store
func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// AddPosition creates a position or merges into an existing one. On
// merge the quantity is added and the buy price is replaced with the
// incoming price. The old cost basis is discarded; callers wanting a
// weighted average must pre-compute it before calling.
func (e *Engine) AddPosition(userID int, symbol string, price, qty decimal.Decimal) (*models.Position, error) {
	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if price.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.InvalidArgument("price must be positive, got %s", price)
	}
	if qty.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.InvalidArgument("quantity must be positive, got %s", qty)
	}

	position, err := e.store.UpsertPosition(userID, sym, price, qty)
	if err != nil {
		return nil, storeErr(err)
	}
	return position, nil
}

// RemoveQuantity removes qty from a position. Removing the full quantity
// (or leaving a negligible remainder) deletes the position. This is the
// single removal primitive; full removal and clear-all are expressed
// through it.
func (e *Engine) RemoveQuantity(userID int, symbol string, qty decimal.Decimal) (*models.RemovalResult, error) {
	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if qty.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.InvalidArgument("quantity must be positive, got %s", qty)
	}

	result, err := e.store.RemoveQuantity(userID, sym, qty)
	if err != nil {
		return nil, storeErr(err)
	}
	return result, nil
}

// RemoveAll removes the entire holding of one symbol.
func (e *Engine) RemoveAll(userID int, symbol string) (*models.RemovalResult, error) {
	position, err := e.Holding(userID, symbol)
	if err != nil {
		return nil, err
	}
	return e.RemoveQuantity(userID, position.Symbol, position.Quantity)
}

// ClearAll deletes every position for a user. DeletedCount is zero when
// the portfolio was already empty, so callers can distinguish "already
// empty" from "cleared N".
func (e *Engine) ClearAll(userID int) (*models.ClearResult, error) {
	deleted, err := e.store.DeleteAllPositions(userID)
	if err != nil {
		return nil, storeErr(err)
	}
	return &models.ClearResult{DeletedCount: deleted}, nil
}

// Portfolio lists all positions for a user
func (e *Engine) Portfolio(userID int) ([]*models.Position, error) {
	positions, err := e.store.GetPortfolio(userID)
	if err != nil {
		return nil, storeErr(err)
	}
	return positions, nil
}

// Holding returns one position by symbol
func (e *Engine) Holding(userID int, symbol string) (*models.Position, error) {
	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	position, err := e.store.GetPosition(userID, sym)
	if err != nil {
		return nil, storeErr(err)
	}
	return position, nil
}

// storeErr passes classified errors through and wraps everything else
// as a transient store failure.
func storeErr(err error) error {
	if apperrors.KindOf(err) != apperrors.KindUnknown {
		return err
	}
	return apperrors.Unavailable("portfolio store failure", err)
}
