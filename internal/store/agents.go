package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/askdb/askdb/internal/model"
)

// CreateAgent inserts a new agent binding a project to a credential. The ID,
// CreatedAt, and ModifiedAt fields on a are populated after a successful
// insert.
func (s *Store) CreateAgent(ctx context.Context, a *model.Agent) error {
	now := time.Now().UTC()
	a.CreatedAt = now
	a.ModifiedAt = now

	const q = `INSERT INTO agents
		(user_id, agent_name, project_id, credential_id, is_active,
		 created_by, modified_by, created_at, modified_at)
		VALUES
		(:user_id, :agent_name, :project_id, :credential_id, :is_active,
		 :created_by, :modified_by, :created_at, :modified_at)`

	result, err := s.db.NamedExecContext(ctx, q, a)
	if err != nil {
		return fmt.Errorf("insert agent: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get agent id: %w", err)
	}
	a.ID = id
	return nil
}

// GetAgent returns an agent by ID with its project and credential hydrated.
func (s *Store) GetAgent(ctx context.Context, id int64) (*model.Agent, error) {
	var a model.Agent
	if err := s.db.GetContext(ctx, &a, "SELECT * FROM agents WHERE id = ?", id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get agent: %w", err)
	}
	if err := s.hydrateAgent(ctx, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAgents returns a user's agents with projects and credentials hydrated.
func (s *Store) ListAgents(ctx context.Context, userID int64) ([]model.Agent, error) {
	var agents []model.Agent
	err := s.db.SelectContext(ctx, &agents,
		"SELECT * FROM agents WHERE user_id = ? ORDER BY created_at DESC, id DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	for i := range agents {
		if err := s.hydrateAgent(ctx, &agents[i]); err != nil {
			return nil, err
		}
	}
	return agents, nil
}

// ListAgentIDsByCredential returns the IDs of agents bound to a credential.
// The agents cascade away when the credential row is deleted, so callers
// that need to tear down relays must collect the IDs first.
func (s *Store) ListAgentIDsByCredential(ctx context.Context, credentialID int64) ([]int64, error) {
	var ids []int64
	err := s.db.SelectContext(ctx, &ids,
		"SELECT id FROM agents WHERE credential_id = ? ORDER BY id", credentialID)
	if err != nil {
		return nil, fmt.Errorf("list agents by credential: %w", err)
	}
	return ids, nil
}

// ListActiveAgents returns every active agent across all users, hydrated.
// Used at startup to resume chat relays.
func (s *Store) ListActiveAgents(ctx context.Context) ([]model.Agent, error) {
	var agents []model.Agent
	err := s.db.SelectContext(ctx, &agents,
		"SELECT * FROM agents WHERE is_active = 1 ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list active agents: %w", err)
	}
	for i := range agents {
		if err := s.hydrateAgent(ctx, &agents[i]); err != nil {
			return nil, err
		}
	}
	return agents, nil
}

// SetAgentActive flips an agent's active flag.
func (s *Store) SetAgentActive(ctx context.Context, id int64, active bool) error {
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		"UPDATE agents SET is_active = ?, modified_at = ? WHERE id = ?", active, now, id)
	if err != nil {
		return fmt.Errorf("set agent active: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set agent active rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAgent removes an agent by ID.
func (s *Store) DeleteAgent(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM agents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete agent: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete agent rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) hydrateAgent(ctx context.Context, a *model.Agent) error {
	p, err := s.GetProject(ctx, a.ProjectID)
	if err != nil {
		return fmt.Errorf("hydrate agent %d project: %w", a.ID, err)
	}
	c, err := s.GetCredential(ctx, a.CredentialID)
	if err != nil {
		return fmt.Errorf("hydrate agent %d credential: %w", a.ID, err)
	}
	a.Project = p
	a.Credential = c
	return nil
}
