package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/askdb/askdb/internal/model"
)

// credentialRow is a flat struct that maps 1:1 to the user_credentials table.
// The data column holds the encrypted JSON-encoded model.CredentialData.
type credentialRow struct {
	ID         int64     `db:"id"`
	UserID     int64     `db:"user_id"`
	Data       string    `db:"data"`
	CreatedBy  string    `db:"created_by"`
	ModifiedBy string    `db:"modified_by"`
	CreatedAt  time.Time `db:"created_at"`
	ModifiedAt time.Time `db:"modified_at"`
}

func (s *Store) credentialRowFromModel(c *model.Credential) (credentialRow, error) {
	raw, err := json.Marshal(c.Data)
	if err != nil {
		return credentialRow{}, fmt.Errorf("marshal credential data: %w", err)
	}
	sealed, err := s.cipher.Encrypt(string(raw))
	if err != nil {
		return credentialRow{}, fmt.Errorf("encrypt credential data: %w", err)
	}
	return credentialRow{
		ID:         c.ID,
		UserID:     c.UserID,
		Data:       sealed,
		CreatedBy:  c.CreatedBy,
		ModifiedBy: c.ModifiedBy,
		CreatedAt:  c.CreatedAt,
		ModifiedAt: c.ModifiedAt,
	}, nil
}

func (s *Store) credentialRowToModel(r credentialRow) (model.Credential, error) {
	plain, err := s.cipher.Decrypt(r.Data)
	if err != nil {
		return model.Credential{}, fmt.Errorf("decrypt credential data: %w", err)
	}
	var data model.CredentialData
	if err := json.Unmarshal([]byte(plain), &data); err != nil {
		return model.Credential{}, fmt.Errorf("unmarshal credential data: %w", err)
	}
	return model.Credential{
		ID:         r.ID,
		UserID:     r.UserID,
		Data:       data,
		CreatedBy:  r.CreatedBy,
		ModifiedBy: r.ModifiedBy,
		CreatedAt:  r.CreatedAt,
		ModifiedAt: r.ModifiedAt,
	}, nil
}

// CreateCredential inserts a notification credential. The ID, CreatedAt, and
// ModifiedAt fields on c are populated after a successful insert.
func (s *Store) CreateCredential(ctx context.Context, c *model.Credential) error {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.ModifiedAt = now

	row, err := s.credentialRowFromModel(c)
	if err != nil {
		return err
	}

	const q = `INSERT INTO user_credentials
		(user_id, data, created_by, modified_by, created_at, modified_at)
		VALUES
		(:user_id, :data, :created_by, :modified_by, :created_at, :modified_at)`

	result, err := s.db.NamedExecContext(ctx, q, row)
	if err != nil {
		return fmt.Errorf("insert credential: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get credential id: %w", err)
	}
	c.ID = id
	return nil
}

// GetCredential returns one credential by ID with the secret data decrypted.
func (s *Store) GetCredential(ctx context.Context, id int64) (*model.Credential, error) {
	var row credentialRow
	if err := s.db.GetContext(ctx, &row, "SELECT * FROM user_credentials WHERE id = ?", id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get credential: %w", err)
	}
	c, err := s.credentialRowToModel(row)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCredentials returns a user's notification credentials, decrypted.
func (s *Store) ListCredentials(ctx context.Context, userID int64) ([]model.Credential, error) {
	var rows []credentialRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT * FROM user_credentials WHERE user_id = ? ORDER BY id", userID)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}

	creds := make([]model.Credential, len(rows))
	for i, r := range rows {
		c, err := s.credentialRowToModel(r)
		if err != nil {
			return nil, err
		}
		creds[i] = c
	}
	return creds, nil
}

// UpdateCredential replaces the secret bundle of an existing credential.
// The ModifiedAt field on c is refreshed automatically.
func (s *Store) UpdateCredential(ctx context.Context, c *model.Credential) error {
	c.ModifiedAt = time.Now().UTC()

	row, err := s.credentialRowFromModel(c)
	if err != nil {
		return err
	}

	const q = `UPDATE user_credentials SET
		data = :data, modified_by = :modified_by, modified_at = :modified_at
		WHERE id = :id`

	result, err := s.db.NamedExecContext(ctx, q, row)
	if err != nil {
		return fmt.Errorf("update credential: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update credential rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCredential removes a credential by ID. Agents bound to it are cascade
// deleted by the foreign key constraint.
func (s *Store) DeleteCredential(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM user_credentials WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete credential rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
