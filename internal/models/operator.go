package models

import "time"

// Operator is an account allowed to read device state and the journal.
type Operator struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
