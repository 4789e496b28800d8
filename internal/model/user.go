package model

import "time"

// User mirrors the `users` table. The admin flag is never stored; it is
// derived by comparing the normalized email against the configured reserved
// administrator address.
type User struct {
	ID           string    // users.id (uuid)
	Email        string    // users.email (normalized, unique)
	PasswordHash string    // users.password_hash (bcrypt)
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RefreshSession models an entry in the `refresh_sessions` table. Each row
// backs one signed-in session; the plain token is never stored, only its
// SHA-256 hash.
type RefreshSession struct {
	ID        uint64     // refresh_sessions.id
	UserID    string     // refresh_sessions.user_id
	TokenHash string     // refresh_sessions.token_hash
	ExpiresAt time.Time  // refresh_sessions.expires_at
	RevokedAt *time.Time // refresh_sessions.revoked_at (nullable)
	CreatedAt time.Time  // refresh_sessions.created_at
}
