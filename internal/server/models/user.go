package models

import "time"

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Plan         string
	IsAdmin      bool
	CreatedAt    time.Time
}
