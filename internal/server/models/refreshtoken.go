package models

import "time"

// RefreshToken is one rotation of a user's long-lived credential. A token is
// single-use: redeeming it deletes the row and inserts a fresh one.
type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	Expires   time.Time
	CreatedAt time.Time
}
