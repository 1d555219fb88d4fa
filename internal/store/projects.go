package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/askdb/askdb/internal/model"
)

// projectRow is a flat struct that maps 1:1 to the projects table. The
// db_credential column holds the encrypted JSON-encoded model.DBConfig;
// selected_tables and table_relationships are plain JSON blobs.
type projectRow struct {
	ID                 int64     `db:"id"`
	UserID             int64     `db:"user_id"`
	Name               string    `db:"project_name"`
	DBCredential       string    `db:"db_credential"`
	SelectedTables     string    `db:"selected_tables"`
	TableRelationships string    `db:"table_relationships"`
	ConnectionStatus   string    `db:"connection_status"`
	CreatedBy          string    `db:"created_by"`
	ModifiedBy         string    `db:"modified_by"`
	CreatedAt          time.Time `db:"created_at"`
	ModifiedAt         time.Time `db:"modified_at"`
}

func (s *Store) projectRowFromModel(p *model.Project) (projectRow, error) {
	rawCred, err := json.Marshal(p.DBCredential)
	if err != nil {
		return projectRow{}, fmt.Errorf("marshal db credential: %w", err)
	}
	sealed, err := s.cipher.Encrypt(string(rawCred))
	if err != nil {
		return projectRow{}, fmt.Errorf("encrypt db credential: %w", err)
	}

	tables, err := json.Marshal(p.SelectedTables)
	if err != nil {
		return projectRow{}, fmt.Errorf("marshal selected tables: %w", err)
	}
	rels, err := json.Marshal(p.TableRelationships)
	if err != nil {
		return projectRow{}, fmt.Errorf("marshal table relationships: %w", err)
	}

	return projectRow{
		ID:                 p.ID,
		UserID:             p.UserID,
		Name:               p.Name,
		DBCredential:       sealed,
		SelectedTables:     string(tables),
		TableRelationships: string(rels),
		ConnectionStatus:   string(p.ConnectionStatus),
		CreatedBy:          p.CreatedBy,
		ModifiedBy:         p.ModifiedBy,
		CreatedAt:          p.CreatedAt,
		ModifiedAt:         p.ModifiedAt,
	}, nil
}

func (s *Store) projectRowToModel(r projectRow) (model.Project, error) {
	plain, err := s.cipher.Decrypt(r.DBCredential)
	if err != nil {
		return model.Project{}, fmt.Errorf("decrypt db credential: %w", err)
	}
	var cred model.DBConfig
	if err := json.Unmarshal([]byte(plain), &cred); err != nil {
		return model.Project{}, fmt.Errorf("unmarshal db credential: %w", err)
	}

	tables := model.SelectedTables{}
	if r.SelectedTables != "" {
		if err := json.Unmarshal([]byte(r.SelectedTables), &tables); err != nil {
			return model.Project{}, fmt.Errorf("unmarshal selected tables: %w", err)
		}
	}
	rels := model.Relationships{}
	if r.TableRelationships != "" {
		if err := json.Unmarshal([]byte(r.TableRelationships), &rels); err != nil {
			return model.Project{}, fmt.Errorf("unmarshal table relationships: %w", err)
		}
	}

	return model.Project{
		ID:                 r.ID,
		UserID:             r.UserID,
		Name:               r.Name,
		DBCredential:       cred,
		SelectedTables:     tables,
		TableRelationships: rels,
		ConnectionStatus:   model.ConnectionStatus(r.ConnectionStatus),
		CreatedBy:          r.CreatedBy,
		ModifiedBy:         r.ModifiedBy,
		CreatedAt:          r.CreatedAt,
		ModifiedAt:         r.ModifiedAt,
	}, nil
}

// CreateProject inserts a new project. The ID, CreatedAt, and ModifiedAt
// fields on p are populated after a successful insert.
func (s *Store) CreateProject(ctx context.Context, p *model.Project) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.ModifiedAt = now

	row, err := s.projectRowFromModel(p)
	if err != nil {
		return err
	}

	const q = `INSERT INTO projects
		(user_id, project_name, db_credential, selected_tables, table_relationships, connection_status,
		 created_by, modified_by, created_at, modified_at)
		VALUES
		(:user_id, :project_name, :db_credential, :selected_tables, :table_relationships, :connection_status,
		 :created_by, :modified_by, :created_at, :modified_at)`

	result, err := s.db.NamedExecContext(ctx, q, row)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get project id: %w", err)
	}
	p.ID = id
	return nil
}

// GetProject returns a project by ID with its connection config decrypted.
func (s *Store) GetProject(ctx context.Context, id int64) (*model.Project, error) {
	var row projectRow
	if err := s.db.GetContext(ctx, &row, "SELECT * FROM projects WHERE id = ?", id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	p, err := s.projectRowToModel(row)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProjects returns a user's projects, newest first.
func (s *Store) ListProjects(ctx context.Context, userID int64) ([]model.Project, error) {
	var rows []projectRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT * FROM projects WHERE user_id = ? ORDER BY created_at DESC, id DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	projects := make([]model.Project, len(rows))
	for i, r := range rows {
		p, err := s.projectRowToModel(r)
		if err != nil {
			return nil, err
		}
		projects[i] = p
	}
	return projects, nil
}

// UpdateProjectStatus sets a project's last known connection status.
func (s *Store) UpdateProjectStatus(ctx context.Context, id int64, status model.ConnectionStatus) error {
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		"UPDATE projects SET connection_status = ?, modified_at = ? WHERE id = ?", string(status), now, id)
	if err != nil {
		return fmt.Errorf("update project status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update project status rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
