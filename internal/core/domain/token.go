package domain

import "time"

// AuthToken is an opaque bearer credential persisted as a hash. Each token is
// 1:1 with a logical session; deleting the row revokes the credential.
type AuthToken struct {
	ID         string
	UserID     string
	TokenHash  string
	Name       string
	IP         *string
	UserAgent  *string
	CreatedAt  time.Time
	LastUsedAt *time.Time
}

// PasswordResetToken is a single-use reset credential scoped to an email
// address. A new request for the same email supersedes the previous row.
type PasswordResetToken struct {
	ID        string
	Email     string
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token passed its TTL at the reference time.
func (t PasswordResetToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// EmailVerificationToken captures a pending email verification.
type EmailVerificationToken struct {
	ID        string
	UserID    string
	TokenHash string
	Email     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token passed its TTL at the reference time.
func (t EmailVerificationToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
