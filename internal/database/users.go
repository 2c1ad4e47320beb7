package database

import (
	"database/sql"
	"fmt"

	"github.com/worachai/stock-tracker-bot/internal/models"
)

// GetOrCreateUser returns the user for a telegram id, creating it on
// first interaction. The call is idempotent.
func (db *DB) GetOrCreateUser(telegramID, username string) (*models.User, error) {
	insert := `
		INSERT INTO users (telegram_id, username)
		VALUES ($1, $2)
		ON CONFLICT (telegram_id) DO NOTHING
	`
	if _, err := db.conn.Exec(insert, telegramID, username); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	query := `
		SELECT id, telegram_id, username, created_at
		FROM users
		WHERE telegram_id = $1
	`
	var u models.User
	var name sql.NullString
	err := db.conn.QueryRow(query, telegramID).Scan(&u.ID, &u.TelegramID, &name, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if name.Valid {
		u.Username = name.String
	}
	return &u, nil
}
