package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/askdb/askdb/internal/model"
)

// CreateAPIKey inserts a provider API key for a user. The key material is
// encrypted before it is written. Returns ErrDuplicate when the user already
// holds a key for the provider.
func (s *Store) CreateAPIKey(ctx context.Context, key *model.APIKey) error {
	now := time.Now().UTC()
	key.CreatedAt = now
	key.ModifiedAt = now

	sealed, err := s.cipher.Encrypt(key.Key)
	if err != nil {
		return fmt.Errorf("encrypt api key: %w", err)
	}
	row := *key
	row.Key = sealed

	const q = `INSERT INTO api_keys
		(user_id, provider, api_key, created_by, modified_by, created_at, modified_at)
		VALUES
		(:user_id, :provider, :api_key, :created_by, :modified_by, :created_at, :modified_at)`

	result, err := s.db.NamedExecContext(ctx, q, row)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert api key: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get api key id: %w", err)
	}
	key.ID = id
	return nil
}

// GetAPIKey returns one API key by ID with the key material decrypted.
func (s *Store) GetAPIKey(ctx context.Context, id int64) (*model.APIKey, error) {
	var key model.APIKey
	if err := s.db.GetContext(ctx, &key, "SELECT * FROM api_keys WHERE id = ?", id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get api key: %w", err)
	}
	plain, err := s.cipher.Decrypt(key.Key)
	if err != nil {
		return nil, fmt.Errorf("decrypt api key: %w", err)
	}
	key.Key = plain
	return &key, nil
}

// GetAPIKeyByProvider returns a user's key for one provider, decrypted.
func (s *Store) GetAPIKeyByProvider(ctx context.Context, userID int64, provider string) (*model.APIKey, error) {
	var key model.APIKey
	err := s.db.GetContext(ctx, &key,
		"SELECT * FROM api_keys WHERE user_id = ? AND provider = ?", userID, provider)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get api key by provider: %w", err)
	}
	plain, err := s.cipher.Decrypt(key.Key)
	if err != nil {
		return nil, fmt.Errorf("decrypt api key: %w", err)
	}
	key.Key = plain
	return &key, nil
}

// ListAPIKeys returns a user's API keys. Key material stays encrypted in the
// returned records; listings never need the plaintext.
func (s *Store) ListAPIKeys(ctx context.Context, userID int64) ([]model.APIKey, error) {
	var keys []model.APIKey
	err := s.db.SelectContext(ctx, &keys,
		"SELECT * FROM api_keys WHERE user_id = ? ORDER BY provider", userID)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	return keys, nil
}

// UpdateAPIKey replaces the key material for an existing record. The
// ModifiedAt field on key is refreshed automatically.
func (s *Store) UpdateAPIKey(ctx context.Context, key *model.APIKey) error {
	key.ModifiedAt = time.Now().UTC()

	sealed, err := s.cipher.Encrypt(key.Key)
	if err != nil {
		return fmt.Errorf("encrypt api key: %w", err)
	}
	row := *key
	row.Key = sealed

	const q = `UPDATE api_keys SET
		api_key = :api_key, modified_by = :modified_by, modified_at = :modified_at
		WHERE id = :id`

	result, err := s.db.NamedExecContext(ctx, q, row)
	if err != nil {
		return fmt.Errorf("update api key: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update api key rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAPIKey removes an API key by ID.
func (s *Store) DeleteAPIKey(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM api_keys WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete api key: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete api key rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
