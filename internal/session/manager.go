package session

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/worachai/stock-tracker-bot/internal/errors"
	"github.com/worachai/stock-tracker-bot/internal/models"
)

// Remover is the slice of the portfolio engine the dialog needs: a
// snapshot of the holding when the dialog begins and the single removal
// primitive when it is confirmed.
type Remover interface {
	Holding(userID int, symbol string) (*models.Position, error)
	RemoveQuantity(userID int, symbol string, qty decimal.Decimal) (*models.RemovalResult, error)
}

// Manager drives the per-user interactive removal dialog and turns it
// into one atomic call into the portfolio engine on confirm.
type Manager struct {
	store   Store
	remover Remover
}

// NewManager creates a session manager
func NewManager(store Store, remover Remover) *Manager {
	return &Manager{store: store, remover: remover}
}

// Begin starts a removal dialog for a symbol the user currently holds,
// replacing any prior dialog for the same user. The holding's quantity
// and price are snapshotted into the session.
func (m *Manager) Begin(ctx context.Context, telegramID string, userID int, symbol string) (*Session, error) {
	position, err := m.remover.Holding(userID, symbol)
	if err != nil {
		return nil, err
	}

	sess := &Session{
		TelegramID:      telegramID,
		UserID:          userID,
		Symbol:          position.Symbol,
		CurrentQuantity: position.Quantity,
		AveragePrice:    position.BuyPrice,
		State:           StateChoosingMode,
		StartedAt:       time.Now(),
	}
	if err := m.store.Put(ctx, sess); err != nil {
		return nil, apperrors.Unavailable("session store failure", err)
	}
	return sess, nil
}

// ChoosePartial moves the dialog to quantity entry.
func (m *Manager) ChoosePartial(ctx context.Context, telegramID string) (*Session, error) {
	sess, err := m.get(ctx, telegramID, StateChoosingMode)
	if err != nil {
		return nil, err
	}
	sess.State = StateAwaitingQuantity
	if err := m.store.Put(ctx, sess); err != nil {
		return nil, apperrors.Unavailable("session store failure", err)
	}
	return sess, nil
}

// ChooseFull stages removal of the entire snapshotted quantity and
// moves the dialog straight to confirmation.
func (m *Manager) ChooseFull(ctx context.Context, telegramID string) (*Session, error) {
	sess, err := m.get(ctx, telegramID, StateChoosingMode)
	if err != nil {
		return nil, err
	}
	sess.RemoveQuantity = sess.CurrentQuantity
	sess.State = StateConfirming
	if err := m.store.Put(ctx, sess); err != nil {
		return nil, apperrors.Unavailable("session store failure", err)
	}
	return sess, nil
}

// SubmitQuantity stages a typed quantity. Invalid input leaves the
// session in quantity entry so the user can be re-prompted; the dialog
// is never destroyed by bad input.
func (m *Manager) SubmitQuantity(ctx context.Context, telegramID, input string) (*Session, error) {
	sess, err := m.get(ctx, telegramID, StateAwaitingQuantity)
	if err != nil {
		return nil, err
	}

	qty, err := decimal.NewFromString(input)
	if err != nil || qty.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.InvalidArgument("quantity must be a positive number, got %q", input)
	}
	if qty.GreaterThan(sess.CurrentQuantity) {
		return nil, apperrors.InsufficientQuantity(
			"cannot remove %s of %s: only %s held", qty, sess.Symbol, sess.CurrentQuantity)
	}

	sess.RemoveQuantity = qty
	sess.State = StateConfirming
	if err := m.store.Put(ctx, sess); err != nil {
		return nil, apperrors.Unavailable("session store failure", err)
	}
	return sess, nil
}

// Confirm executes the staged removal. The session is deleted whether
// or not the removal succeeds, so a failed confirm never leaves the
// user stuck in a dead dialog.
func (m *Manager) Confirm(ctx context.Context, telegramID string) (*models.RemovalResult, error) {
	sess, err := m.get(ctx, telegramID, StateConfirming)
	if err != nil {
		return nil, err
	}

	result, removeErr := m.remover.RemoveQuantity(sess.UserID, sess.Symbol, sess.RemoveQuantity)

	// Best effort; an undeleted session is reaped by the store TTL.
	_ = m.store.Delete(ctx, telegramID)

	if removeErr != nil {
		return nil, removeErr
	}
	return result, nil
}

// Cancel abandons the dialog without mutating the portfolio.
func (m *Manager) Cancel(ctx context.Context, telegramID string) error {
	if err := m.store.Delete(ctx, telegramID); err != nil {
		return apperrors.Unavailable("session store failure", err)
	}
	return nil
}

// Current returns the user's live session, if any.
func (m *Manager) Current(ctx context.Context, telegramID string) (*Session, error) {
	return m.get(ctx, telegramID, 0)
}

// get loads a session and, when want is non-zero, checks the dialog is
// at the expected step. A stale button click referencing a consumed or
// superseded session surfaces as SessionExpired.
func (m *Manager) get(ctx context.Context, telegramID string, want State) (*Session, error) {
	sess, err := m.store.Get(ctx, telegramID)
	if errors.Is(err, ErrNotFound) {
		return nil, apperrors.SessionExpired("no removal dialog in progress")
	}
	if err != nil {
		return nil, apperrors.Unavailable("session store failure", err)
	}
	if want != 0 && sess.State != want {
		return nil, apperrors.SessionExpired("removal dialog is no longer at this step")
	}
	return sess, nil
}
