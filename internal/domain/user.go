package domain

import "time"

// User represents an authenticated account of the system.
type User struct {
	ID           int64
	Email        string
	Username     string
	PasswordHash string
	IsActive     bool
	Bio          string
	ProfileImage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
