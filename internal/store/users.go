package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/askdb/askdb/internal/model"
)

// CreateUser inserts a new user account. The ID, CreatedAt, and ModifiedAt
// fields on u are populated after a successful insert. Returns ErrDuplicate
// when the email is already registered.
func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.ModifiedAt = now

	const q = `INSERT INTO users
		(email, password_hash, first_name, last_name, is_active, verification_token, oauth_provider,
		 created_by, modified_by, created_at, modified_at)
		VALUES
		(:email, :password_hash, :first_name, :last_name, :is_active, :verification_token, :oauth_provider,
		 :created_by, :modified_by, :created_at, :modified_at)`

	result, err := s.db.NamedExecContext(ctx, q, u)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get user id: %w", err)
	}
	u.ID = id
	return nil
}

// GetUser returns a user by ID.
func (s *Store) GetUser(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	if err := s.db.GetContext(ctx, &u, "SELECT * FROM users WHERE id = ?", id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// GetUserByEmail returns a user by email address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	if err := s.db.GetContext(ctx, &u, "SELECT * FROM users WHERE email = ?", email); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

// GetUserByVerificationToken returns the user holding a pending verification
// token, used by the email verification handler.
func (s *Store) GetUserByVerificationToken(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	var u model.User
	if err := s.db.GetContext(ctx, &u, "SELECT * FROM users WHERE verification_token = ?", token); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by verification token: %w", err)
	}
	return &u, nil
}

// ListUsers returns all user accounts ordered by creation time.
func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	users := []model.User{}
	if err := s.db.SelectContext(ctx, &users, "SELECT * FROM users ORDER BY created_at, id"); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// ActivateUser marks a user active and clears the verification token.
func (s *Store) ActivateUser(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		"UPDATE users SET is_active = 1, verification_token = '', modified_at = ? WHERE id = ?", now, id)
	if err != nil {
		return fmt.Errorf("activate user: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("activate user rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateUser updates a user's profile fields. The ModifiedAt field on u is
// refreshed automatically.
func (s *Store) UpdateUser(ctx context.Context, u *model.User) error {
	u.ModifiedAt = time.Now().UTC()

	const q = `UPDATE users SET
		email = :email, password_hash = :password_hash, first_name = :first_name, last_name = :last_name,
		is_active = :is_active, verification_token = :verification_token, oauth_provider = :oauth_provider,
		modified_by = :modified_by, modified_at = :modified_at
		WHERE id = :id`

	result, err := s.db.NamedExecContext(ctx, q, u)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// isUniqueViolation reports whether err is a SQLite uniqueness constraint
// failure. modernc.org/sqlite does not export a typed error for this.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
