package connector

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/askdb/askdb/internal/model"
)

// runQuery executes a raw query against an open pool and materializes the
// result set as field names plus generic row maps. Byte slices are decoded
// to strings here; numeric widening is left to model.Serialize at the edge.
func runQuery(ctx context.Context, db *sqlx.DB, query string) (*model.QueryResult, error) {
	rows, err := db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	fields, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read result columns: %w", err)
	}

	out := []map[string]interface{}{}
	for rows.Next() {
		row := map[string]interface{}{}
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate result rows: %w", err)
	}

	return &model.QueryResult{Fields: fields, Rows: out}, nil
}

// ping opens a pool, verifies liveness, and closes it again.
func ping(ctx context.Context, driver, dsn string) error {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.PingContext(ctx)
}
