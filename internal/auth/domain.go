package auth

import "time"

// Trainer represents an authenticated trainer account.
type Trainer struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
