package entity

import "time"

// User account entity (domain object, no ORM tags).
type User struct {
	ID           string
	Username     string
	PasswordHash string
	LastLoginAt  *time.Time
	DeletedAt    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
