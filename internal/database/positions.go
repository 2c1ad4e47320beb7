package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/worachai/stock-tracker-bot/internal/errors"
	"github.com/worachai/stock-tracker-bot/internal/models"
)

// removalEpsilon is the remaining quantity below which a position is
// treated as fully removed and deleted in the same transaction.
var removalEpsilon = decimal.NewFromFloat(0.0001)

// UpsertPosition creates a position or merges into an existing one.
// The merge is additive on quantity and replaces the buy price with the
// incoming price; both happen in a single statement so concurrent adds
// to the same (user, symbol) cannot lose updates.
func (db *DB) UpsertPosition(userID int, symbol string, price, qty decimal.Decimal) (*models.Position, error) {
	query := `
		INSERT INTO portfolio (user_id, symbol, buy_price, qty, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (user_id, symbol) DO UPDATE SET
			buy_price = EXCLUDED.buy_price,
			qty = portfolio.qty + EXCLUDED.qty,
			updated_at = EXCLUDED.updated_at
		RETURNING id, qty, buy_price, last_notified, created_at, updated_at
	`
	var p models.Position
	var lastNotified sql.NullString
	err := db.conn.QueryRow(query, userID, symbol, price, qty, time.Now()).Scan(
		&p.ID, &p.Quantity, &p.BuyPrice, &lastNotified, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert position: %w", err)
	}
	p.UserID = userID
	p.Symbol = symbol
	if lastNotified.Valid {
		ln, _ := decimal.NewFromString(lastNotified.String)
		p.LastNotified = &ln
	}
	return &p, nil
}

// GetPortfolio retrieves all positions for a user ordered by symbol
func (db *DB) GetPortfolio(userID int) ([]*models.Position, error) {
	query := `
		SELECT id, user_id, symbol, qty, buy_price, last_notified, created_at, updated_at
		FROM portfolio
		WHERE user_id = $1
		ORDER BY symbol
	`
	rows, err := db.conn.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio: %w", err)
	}
	defer rows.Close()

	var positions []*models.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// GetPosition retrieves one position by (user, symbol)
func (db *DB) GetPosition(userID int, symbol string) (*models.Position, error) {
	query := `
		SELECT id, user_id, symbol, qty, buy_price, last_notified, created_at, updated_at
		FROM portfolio
		WHERE user_id = $1 AND symbol = $2
	`
	row := db.conn.QueryRow(query, userID, symbol)

	var p models.Position
	var lastNotified sql.NullString
	err := row.Scan(&p.ID, &p.UserID, &p.Symbol, &p.Quantity, &p.BuyPrice,
		&lastNotified, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("position not found: %s", symbol)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}
	if lastNotified.Valid {
		ln, _ := decimal.NewFromString(lastNotified.String)
		p.LastNotified = &ln
	}
	return &p, nil
}

// RemoveQuantity decrements a position by qty, deleting it in the same
// transaction when the remainder falls below the removal epsilon. The
// row is locked for the duration so concurrent removals cannot
// double-spend the holding.
func (db *DB) RemoveQuantity(userID int, symbol string, qty decimal.Decimal) (*models.RemovalResult, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id int
	var current, buyPrice decimal.Decimal
	row := tx.QueryRow(`
		SELECT id, qty, buy_price
		FROM portfolio
		WHERE user_id = $1 AND symbol = $2
		FOR UPDATE
	`, userID, symbol)
	err = row.Scan(&id, &current, &buyPrice)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("position not found: %s", symbol)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock position: %w", err)
	}

	if qty.GreaterThan(current) {
		return nil, apperrors.InsufficientQuantity(
			"cannot remove %s of %s: only %s held", qty, symbol, current)
	}

	remaining := current.Sub(qty)
	fullyRemoved := remaining.LessThanOrEqual(removalEpsilon)

	if fullyRemoved {
		if _, err := tx.Exec(`DELETE FROM portfolio WHERE id = $1`, id); err != nil {
			return nil, fmt.Errorf("failed to delete position: %w", err)
		}
		remaining = decimal.Zero
	} else {
		_, err := tx.Exec(`UPDATE portfolio SET qty = $2, updated_at = $3 WHERE id = $1`,
			id, remaining, time.Now())
		if err != nil {
			return nil, fmt.Errorf("failed to update position: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit removal: %w", err)
	}

	return &models.RemovalResult{
		Symbol:            symbol,
		RemovedQuantity:   qty,
		AverageBuyPrice:   buyPrice,
		RemainingQuantity: remaining,
		FullyRemoved:      fullyRemoved,
	}, nil
}

// DeleteAllPositions removes every position for a user and returns the
// number deleted.
func (db *DB) DeleteAllPositions(userID int) (int, error) {
	result, err := db.conn.Exec(`DELETE FROM portfolio WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear portfolio: %w", err)
	}
	deleted, _ := result.RowsAffected()
	return int(deleted), nil
}

// ListAllPositions retrieves every position across all users joined with
// the owner's telegram id, for the alert cycle.
func (db *DB) ListAllPositions() ([]*models.PortfolioEntry, error) {
	query := `
		SELECT p.id, p.user_id, p.symbol, p.qty, p.buy_price, p.last_notified,
		       p.created_at, p.updated_at, u.telegram_id
		FROM portfolio p
		JOIN users u ON p.user_id = u.id
		ORDER BY p.symbol, p.user_id
	`
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query all positions: %w", err)
	}
	defer rows.Close()

	var entries []*models.PortfolioEntry
	for rows.Next() {
		var e models.PortfolioEntry
		var lastNotified sql.NullString
		err := rows.Scan(&e.ID, &e.UserID, &e.Symbol, &e.Quantity, &e.BuyPrice,
			&lastNotified, &e.CreatedAt, &e.UpdatedAt, &e.TelegramID)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		if lastNotified.Valid {
			ln, _ := decimal.NewFromString(lastNotified.String)
			e.LastNotified = &ln
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// UpdateLastNotified persists the alert watermark for a position
func (db *DB) UpdateLastNotified(positionID int, price decimal.Decimal) error {
	_, err := db.conn.Exec(`UPDATE portfolio SET last_notified = $2 WHERE id = $1`,
		positionID, price)
	if err != nil {
		return fmt.Errorf("failed to update last notified price: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPosition(row rowScanner) (*models.Position, error) {
	var p models.Position
	var lastNotified sql.NullString
	err := row.Scan(&p.ID, &p.UserID, &p.Symbol, &p.Quantity, &p.BuyPrice,
		&lastNotified, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan position: %w", err)
	}
	if lastNotified.Valid {
		ln, _ := decimal.NewFromString(lastNotified.String)
		p.LastNotified = &ln
	}
	return &p, nil
}
