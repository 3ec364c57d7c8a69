package model

import "time"

// User is the account an authenticated request acts on behalf of.
type User struct {
	ID          int64     `json:"id" db:"id"`
	Email       string    `json:"email" db:"email"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	IsSuperuser bool      `json:"is_superuser" db:"is_superuser"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
