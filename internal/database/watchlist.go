package database

import (
	"fmt"

	"github.com/shopspring/decimal"

	apperrors "github.com/worachai/stock-tracker-bot/internal/errors"
	"github.com/worachai/stock-tracker-bot/internal/models"
)

// AddToWatchlist adds a symbol to a user's watchlist. Re-watching an
// already watched symbol resets the base price and the one-shot alert
// flags.
func (db *DB) AddToWatchlist(userID int, symbol string, basePrice decimal.Decimal) (*models.WatchlistEntry, error) {
	query := `
		INSERT INTO watchlist (user_id, symbol, base_price)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, symbol) DO UPDATE SET
			base_price = EXCLUDED.base_price,
			alert_3_sent = FALSE,
			alert_5_sent = FALSE
		RETURNING id, alert_3_sent, alert_5_sent, created_at
	`
	var w models.WatchlistEntry
	err := db.conn.QueryRow(query, userID, symbol, basePrice).Scan(
		&w.ID, &w.Alert3Sent, &w.Alert5Sent, &w.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add to watchlist: %w", err)
	}
	w.UserID = userID
	w.Symbol = symbol
	w.BasePrice = basePrice
	return &w, nil
}

// GetWatchlist retrieves all watchlist entries for a user
func (db *DB) GetWatchlist(userID int) ([]*models.WatchlistEntry, error) {
	query := `
		SELECT id, user_id, symbol, base_price, alert_3_sent, alert_5_sent, created_at
		FROM watchlist
		WHERE user_id = $1
		ORDER BY symbol
	`
	rows, err := db.conn.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist: %w", err)
	}
	defer rows.Close()

	var entries []*models.WatchlistEntry
	for rows.Next() {
		var w models.WatchlistEntry
		err := rows.Scan(&w.ID, &w.UserID, &w.Symbol, &w.BasePrice,
			&w.Alert3Sent, &w.Alert5Sent, &w.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan watchlist entry: %w", err)
		}
		entries = append(entries, &w)
	}
	return entries, rows.Err()
}

// RemoveFromWatchlist deletes one watchlist entry by (user, symbol)
func (db *DB) RemoveFromWatchlist(userID int, symbol string) error {
	result, err := db.conn.Exec(`DELETE FROM watchlist WHERE user_id = $1 AND symbol = $2`,
		userID, symbol)
	if err != nil {
		return fmt.Errorf("failed to remove from watchlist: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return apperrors.NotFound("symbol not in watchlist: %s", symbol)
	}
	return nil
}

// ClearWatchlist deletes every watchlist entry for a user and returns
// the number deleted.
func (db *DB) ClearWatchlist(userID int) (int, error) {
	result, err := db.conn.Exec(`DELETE FROM watchlist WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear watchlist: %w", err)
	}
	deleted, _ := result.RowsAffected()
	return int(deleted), nil
}

// ListAllWatchlist retrieves every watchlist entry across all users
// joined with the owner's telegram id, for the alert cycle.
func (db *DB) ListAllWatchlist() ([]*models.WatchlistJoined, error) {
	query := `
		SELECT w.id, w.user_id, w.symbol, w.base_price, w.alert_3_sent, w.alert_5_sent,
		       w.created_at, u.telegram_id
		FROM watchlist w
		JOIN users u ON w.user_id = u.id
		ORDER BY w.symbol, w.user_id
	`
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query all watchlist entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.WatchlistJoined
	for rows.Next() {
		var w models.WatchlistJoined
		err := rows.Scan(&w.ID, &w.UserID, &w.Symbol, &w.BasePrice,
			&w.Alert3Sent, &w.Alert5Sent, &w.CreatedAt, &w.TelegramID)
		if err != nil {
			return nil, fmt.Errorf("failed to scan watchlist entry: %w", err)
		}
		entries = append(entries, &w)
	}
	return entries, rows.Err()
}

// MarkWatchAlertSent sets the one-shot flag for the given alert level
// (3 or 5) on a watchlist entry.
func (db *DB) MarkWatchAlertSent(entryID int, level int) error {
	var query string
	switch level {
	case 3:
		query = `UPDATE watchlist SET alert_3_sent = TRUE WHERE id = $1`
	case 5:
		query = `UPDATE watchlist SET alert_5_sent = TRUE WHERE id = $1`
	default:
		return fmt.Errorf("unknown watch alert level: %d", level)
	}
	result, err := db.conn.Exec(query, entryID)
	if err != nil {
		return fmt.Errorf("failed to mark watch alert sent: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("watchlist entry not found: %d", entryID)
	}
	return nil
}
