package connector

import (
	"context"
	"fmt"
	"net"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/askdb/askdb/internal/model"
)

type mysqlConnector struct{}

// dsn builds a go-sql-driver DSN through mysql.Config so credentials with
// URL-special characters survive intact.
func (c *mysqlConnector) dsn(cfg model.DBConfig) string {
	port := cfg.Port
	if port == "" {
		port = "3306"
	}
	mc := mysqldriver.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, port)
	mc.DBName = cfg.DBName
	mc.ParseTime = true
	return mc.FormatDSN()
}

func (c *mysqlConnector) Test(ctx context.Context, cfg model.DBConfig) error {
	return ping(ctx, "mysql", c.dsn(cfg))
}

func (c *mysqlConnector) Schema(ctx context.Context, cfg model.DBConfig) (*model.Schema, error) {
	db, err := sqlx.Open("mysql", c.dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("mysql connect: %w", err)
	}
	defer db.Close()

	const colQuery = `SELECT c.TABLE_NAME AS table_name, c.COLUMN_NAME AS column_name
		FROM information_schema.COLUMNS c
		JOIN information_schema.TABLES t
			ON c.TABLE_SCHEMA = t.TABLE_SCHEMA AND c.TABLE_NAME = t.TABLE_NAME
		WHERE c.TABLE_SCHEMA = DATABASE() AND t.TABLE_TYPE = 'BASE TABLE'
		ORDER BY c.TABLE_NAME, c.ORDINAL_POSITION`

	var cols []pgColumnRow
	if err := db.SelectContext(ctx, &cols, colQuery); err != nil {
		return nil, fmt.Errorf("introspect columns: %w", err)
	}

	// MySQL keeps referenced table/column directly on KEY_COLUMN_USAGE, so
	// no constraint join dance is needed here.
	const fkQuery = `SELECT
			TABLE_NAME AS table_name,
			COLUMN_NAME AS column_name,
			REFERENCED_TABLE_NAME AS referenced_table,
			REFERENCED_COLUMN_NAME AS referenced_column
		FROM information_schema.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA = DATABASE()
			AND REFERENCED_TABLE_NAME IS NOT NULL`

	var fks []pgFKRow
	if err := db.SelectContext(ctx, &fks, fkQuery); err != nil {
		return nil, fmt.Errorf("introspect foreign keys: %w", err)
	}

	return buildSchema(cols, fks), nil
}

func (c *mysqlConnector) Execute(ctx context.Context, cfg model.DBConfig, query string) (*model.QueryResult, error) {
	db, err := sqlx.Open("mysql", c.dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("mysql connect: %w", err)
	}
	defer db.Close()
	return runQuery(ctx, db, query)
}
