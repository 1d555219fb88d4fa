package model

import "time"

// Agent binds a Project to a notification Credential under a user-chosen
// name. When active and backed by a Telegram credential, a live chat relay
// runs for it.
type Agent struct {
	ID           int64     `json:"id,string" db:"id"`
	UserID       int64     `json:"user_id,string" db:"user_id"`
	Name         string    `json:"agent_name" db:"agent_name"`
	ProjectID    int64     `json:"project_id,string" db:"project_id"`
	CredentialID int64     `json:"credential_id,string" db:"credential_id"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedBy    string    `json:"created_by" db:"created_by"`
	ModifiedBy   string    `json:"modified_by" db:"modified_by"`
	CreatedAt    time.Time `json:"created_ts" db:"created_at"`
	ModifiedAt   time.Time `json:"modified_ts" db:"modified_at"`

	// Hydrated relations, populated on reads.
	Project    *Project    `json:"project,omitempty" db:"-"`
	Credential *Credential `json:"credential,omitempty" db:"-"`
}
