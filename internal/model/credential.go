package model

import (
	"errors"
	"time"
)

// CredentialKind discriminates the shape of a stored notification credential.
type CredentialKind string

const (
	CredentialTelegram CredentialKind = "telegram"
	CredentialEmail    CredentialKind = "email"
)

// CredentialData is the secret bundle for a notification channel. It is a
// tagged union: Telegram credentials carry BotToken and ChatID, email
// credentials carry Email and Password. The blob is encrypted at rest.
type CredentialData struct {
	BotToken string `json:"botToken,omitempty"`
	ChatID   string `json:"chatId,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
}

// Kind returns the credential kind inferred from which fields are set.
func (d CredentialData) Kind() CredentialKind {
	if d.BotToken != "" && d.ChatID != "" {
		return CredentialTelegram
	}
	return CredentialEmail
}

// Validate checks that the union carries a complete set of fields for
// exactly one credential kind.
func (d CredentialData) Validate() error {
	switch {
	case d.BotToken != "" || d.ChatID != "":
		if d.BotToken == "" || d.ChatID == "" {
			return errors.New("telegram credentials require both botToken and chatId")
		}
		return nil
	case d.Email != "":
		if d.Password == "" {
			return errors.New("email credentials require a password")
		}
		return nil
	default:
		return errors.New("credentials must contain either botToken/chatId or email/password")
	}
}

// Credential is a stored notification credential owned by one user, distinct
// from a Project's database connection parameters.
type Credential struct {
	ID         int64          `json:"id,string" db:"id"`
	UserID     int64          `json:"user_id,string" db:"user_id"`
	Data       CredentialData `json:"credentials" db:"-"`
	CreatedBy  string         `json:"created_by" db:"created_by"`
	ModifiedBy string         `json:"modified_by" db:"modified_by"`
	CreatedAt  time.Time      `json:"created_ts" db:"created_at"`
	ModifiedAt time.Time      `json:"modified_ts" db:"modified_at"`
}
