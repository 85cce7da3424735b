package identity

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no user matches a lookup.
	ErrNotFound = errors.New("user not found")
	// ErrConflict is returned when an insert violates the email or username uniqueness constraint.
	ErrConflict = errors.New("email or username already in use")
)

// User represents a registered account as stored. PasswordHash never leaves
// the store adapter and the auth service.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Profile is the sanitized view of a user that may be returned to clients.
type Profile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Profile strips the password hash.
func (u User) Profile() Profile {
	return Profile{ID: u.ID, Username: u.Username, Email: u.Email, CreatedAt: u.CreatedAt}
}

// NewUser holds the fields supplied on registration.
type NewUser struct {
	Username     string
	Email        string
	PasswordHash string
}
