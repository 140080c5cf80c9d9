package domain

import "time"

// User mirrors the persisted representation in the users table.
type User struct {
	ID              string
	Name            string
	Email           string
	PasswordHash    string
	PasswordAlgo    string
	EmailVerifiedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasVerifiedEmail reports whether the user completed email verification.
func (u User) HasVerifiedEmail() bool {
	return u.EmailVerifiedAt != nil
}

// MustVerifyEmail reports whether the user still owes an email verification.
func (u User) MustVerifyEmail() bool {
	return u.EmailVerifiedAt == nil
}
