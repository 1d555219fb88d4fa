package connector

import (
	"context"
	"fmt"
	"net"
	"net/url"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/askdb/askdb/internal/model"
)

// postgresConnector serves the PostgreSQL wire family: PostgreSQL itself
// plus CockroachDB and TimescaleDB, which speak the same protocol and expose
// the same information_schema catalog.
type postgresConnector struct {
	dbType string
}

func newPostgres(dbType string) *postgresConnector {
	return &postgresConnector{dbType: dbType}
}

// dsn builds a postgres:// URL from the structured config. Credentials are
// percent-encoded by url.UserPassword so passwords containing @, #, or %
// cannot mis-split the authority component.
func (c *postgresConnector) dsn(cfg model.DBConfig) string {
	port := cfg.Port
	if port == "" {
		port = "5432"
		if c.dbType == model.DBCockroach {
			port = "26257"
		}
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   net.JoinHostPort(cfg.Host, port),
		Path:   "/" + cfg.DBName,
	}
	q := url.Values{}
	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "prefer"
	}
	q.Set("sslmode", sslmode)
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *postgresConnector) open(cfg model.DBConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("pgx", c.dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("%s connect: %w", c.dbType, err)
	}
	return db, nil
}

func (c *postgresConnector) Test(ctx context.Context, cfg model.DBConfig) error {
	return ping(ctx, "pgx", c.dsn(cfg))
}

// pgColumnRow holds a row from information_schema.columns.
type pgColumnRow struct {
	TableName  string `db:"table_name"`
	ColumnName string `db:"column_name"`
}

// pgFKRow holds one foreign-key edge recovered from the catalog.
type pgFKRow struct {
	TableName        string `db:"table_name"`
	ColumnName       string `db:"column_name"`
	ReferencedTable  string `db:"referenced_table"`
	ReferencedColumn string `db:"referenced_column"`
}

func (c *postgresConnector) Schema(ctx context.Context, cfg model.DBConfig) (*model.Schema, error) {
	db, err := c.open(cfg)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	const colQuery = `SELECT c.table_name, c.column_name
		FROM information_schema.columns c
		JOIN information_schema.tables t
			ON c.table_schema = t.table_schema AND c.table_name = t.table_name
		WHERE c.table_schema = 'public' AND t.table_type = 'BASE TABLE'
		ORDER BY c.table_name, c.ordinal_position`

	var cols []pgColumnRow
	if err := db.SelectContext(ctx, &cols, colQuery); err != nil {
		return nil, fmt.Errorf("introspect columns: %w", err)
	}

	const fkQuery = `SELECT
			tc.table_name,
			kcu.column_name,
			ccu.table_name AS referenced_table,
			ccu.column_name AS referenced_column
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
			ON tc.constraint_name = ccu.constraint_name
		WHERE tc.constraint_type = 'FOREIGN KEY'
			AND tc.table_schema = 'public'`

	var fks []pgFKRow
	if err := db.SelectContext(ctx, &fks, fkQuery); err != nil {
		return nil, fmt.Errorf("introspect foreign keys: %w", err)
	}

	return buildSchema(cols, fks), nil
}

func (c *postgresConnector) Execute(ctx context.Context, cfg model.DBConfig, query string) (*model.QueryResult, error) {
	db, err := c.open(cfg)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return runQuery(ctx, db, query)
}

// buildSchema assembles the per-table column lists and foreign-key edges
// into the shape the frontend and prompt builder consume. Column order
// follows catalog ordinal position, table order follows the catalog sort.
func buildSchema(cols []pgColumnRow, fks []pgFKRow) *model.Schema {
	var tables []model.SchemaTable
	idx := map[string]int{}
	for _, col := range cols {
		i, ok := idx[col.TableName]
		if !ok {
			i = len(tables)
			idx[col.TableName] = i
			tables = append(tables, model.SchemaTable{Name: col.TableName})
		}
		tables[i].Columns = append(tables[i].Columns, col.ColumnName)
	}
	if tables == nil {
		tables = []model.SchemaTable{}
	}

	rels := model.Relationships{}
	for _, fk := range fks {
		if rels[fk.TableName] == nil {
			rels[fk.TableName] = map[string]model.Reference{}
		}
		rels[fk.TableName][fk.ColumnName] = model.Reference{
			References: fk.ReferencedTable + "." + fk.ReferencedColumn,
		}
	}

	return &model.Schema{Tables: tables, Relationships: rels}
}
