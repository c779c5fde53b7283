package model

import "time"

// User is the minimal identity this core needs: enough to create a provider
// customer and address expiry reminders. Account management itself lives
// outside this backend's payment core.
type User struct {
	ID           string // UUID
	Username     string
	Email        string
	FullName     string
	IsAdmin      bool
	RegisteredAt time.Time
}

// DisplayName prefers the full name, falling back to the username.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// Post carries the author reference needed for pin eligibility checks.
type Post struct {
	ID        string
	AuthorID  string
	Title     string
	CreatedAt time.Time
}
