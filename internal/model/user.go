package model

import "time"

// User represents an account holder. Passwords are stored as bcrypt hashes;
// OAuth-linked users have an empty hash and a non-empty OAuthProvider.
// New accounts start inactive until the email verification link is followed.
type User struct {
	ID                int64     `json:"id,string" db:"id"`
	Email             string    `json:"email" db:"email"`
	PasswordHash      string    `json:"-" db:"password_hash"` // bcrypt hash, never expose
	FirstName         string    `json:"first_name" db:"first_name"`
	LastName          string    `json:"last_name" db:"last_name"`
	IsActive          bool      `json:"is_active" db:"is_active"`
	VerificationToken string    `json:"-" db:"verification_token"`
	OAuthProvider     string    `json:"oauth_provider,omitempty" db:"oauth_provider"`
	CreatedBy         string    `json:"created_by" db:"created_by"`
	ModifiedBy        string    `json:"modified_by" db:"modified_by"`
	CreatedAt         time.Time `json:"created_ts" db:"created_at"`
	ModifiedAt        time.Time `json:"modified_ts" db:"modified_at"`
}

// Session is the per-login session record, upserted each time a user signs in.
// The JWT itself is stateless; this row exists for auditing and revocation.
type Session struct {
	ID        int64     `json:"id,string" db:"id"`
	UserID    int64     `json:"user_id,string" db:"user_id"`
	TokenHash string    `json:"-" db:"token_hash"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_ts" db:"created_at"`
}
