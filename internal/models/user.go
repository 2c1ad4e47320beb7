package models

import "time"

// User represents a chat platform user tracked by the bot.
// Users are created on first interaction and never deleted here.
type User struct {
	ID         int       `json:"id"`
	TelegramID string    `json:"telegram_id"`
	Username   string    `json:"username,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
