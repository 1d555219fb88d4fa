package model

import "time"

// APIKey holds a user's key for an external model provider (e.g. "openai").
// The key material is encrypted at rest and never included in responses.
// At most one key per (user, provider) pair.
type APIKey struct {
	ID         int64     `json:"id,string" db:"id"`
	UserID     int64     `json:"user_id,string" db:"user_id"`
	Provider   string    `json:"provider" db:"provider"`
	Key        string    `json:"-" db:"api_key"`
	CreatedBy  string    `json:"created_by" db:"created_by"`
	ModifiedBy string    `json:"modified_by" db:"modified_by"`
	CreatedAt  time.Time `json:"created_ts" db:"created_at"`
	ModifiedAt time.Time `json:"modified_ts" db:"modified_at"`
}
