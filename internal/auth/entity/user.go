package entity

import "time"

// User is the account promoted from a verified session, keyed by email.
type User struct {
	ID        int64
	Email     string
	FirstName string
	LastName  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
