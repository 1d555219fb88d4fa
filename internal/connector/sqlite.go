package connector

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/askdb/askdb/internal/model"
)

// sqliteConnector serves file-backed SQLite databases on the server host.
// There is nothing to dial, so the liveness probe always succeeds; the file
// is only touched when a query actually runs.
type sqliteConnector struct{}

func (c *sqliteConnector) Test(ctx context.Context, cfg model.DBConfig) error {
	return nil
}

func (c *sqliteConnector) Schema(ctx context.Context, cfg model.DBConfig) (*model.Schema, error) {
	return nil, ErrSchemaUnsupported
}

func (c *sqliteConnector) Execute(ctx context.Context, cfg model.DBConfig, query string) (*model.QueryResult, error) {
	db, err := sqlx.Open("sqlite", cfg.FilePath)
	if err != nil {
		return nil, fmt.Errorf("sqlite connect: %w", err)
	}
	defer db.Close()
	return runQuery(ctx, db, query)
}
