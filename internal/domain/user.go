package domain

import "time"

// User is the domain model for registered accounts.
// Password reset uses stateless signed tokens, so no reset state lives here.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
