package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/askdb/askdb/internal/model"
)

// UpsertSession records a login session for a user, replacing any previous
// one. Each user holds at most one row; a fresh login rotates the token hash
// and extends the expiry.
func (s *Store) UpsertSession(ctx context.Context, sess *model.Session) error {
	sess.CreatedAt = time.Now().UTC()

	const q = `INSERT INTO sessions (user_id, token_hash, expires_at, created_at)
		VALUES (:user_id, :token_hash, :expires_at, :created_at)
		ON CONFLICT(user_id) DO UPDATE SET
			token_hash = excluded.token_hash,
			expires_at = excluded.expires_at,
			created_at = excluded.created_at`

	if _, err := s.db.NamedExecContext(ctx, q, sess); err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	var id int64
	if err := s.db.GetContext(ctx, &id, "SELECT id FROM sessions WHERE user_id = ?", sess.UserID); err != nil {
		return fmt.Errorf("get session id: %w", err)
	}
	sess.ID = id
	return nil
}

// GetSessionByUser returns the active session for a user, if any.
func (s *Store) GetSessionByUser(ctx context.Context, userID int64) (*model.Session, error) {
	var sess model.Session
	if err := s.db.GetContext(ctx, &sess, "SELECT * FROM sessions WHERE user_id = ?", userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &sess, nil
}

// DeleteSession removes a user's session on logout. Deleting a session that
// does not exist is not an error.
func (s *Store) DeleteSession(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// HashSessionToken returns the hex-encoded SHA-256 hash of a session token.
// Only the hash is persisted.
func HashSessionToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
