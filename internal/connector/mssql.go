package connector

import (
	"context"
	"net"
	"net/url"

	_ "github.com/microsoft/go-mssqldb"

	"github.com/askdb/askdb/internal/model"
)

// mssqlConnector probes SQL Server targets. Liveness only.
type mssqlConnector struct{}

func (c *mssqlConnector) dsn(cfg model.DBConfig) string {
	port := cfg.Port
	if port == "" {
		port = "1433"
	}
	u := url.URL{
		Scheme: "sqlserver",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   net.JoinHostPort(cfg.Host, port),
	}
	q := url.Values{}
	q.Set("database", cfg.DBName)
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *mssqlConnector) Test(ctx context.Context, cfg model.DBConfig) error {
	return ping(ctx, "sqlserver", c.dsn(cfg))
}

func (c *mssqlConnector) Schema(ctx context.Context, cfg model.DBConfig) (*model.Schema, error) {
	return nil, ErrSchemaUnsupported
}

func (c *mssqlConnector) Execute(ctx context.Context, cfg model.DBConfig, query string) (*model.QueryResult, error) {
	return nil, ErrExecUnsupported
}
