package connector

import (
	"context"
	"strconv"

	go_ora "github.com/sijms/go-ora/v2"

	"github.com/askdb/askdb/internal/model"
)

// oracleConnector probes Oracle targets by service name. Liveness only.
type oracleConnector struct{}

func (c *oracleConnector) dsn(cfg model.DBConfig) string {
	port, err := strconv.Atoi(cfg.Port)
	if err != nil || port == 0 {
		port = 1521
	}
	return go_ora.BuildUrl(cfg.Host, port, cfg.Service, cfg.User, cfg.Password, nil)
}

func (c *oracleConnector) Test(ctx context.Context, cfg model.DBConfig) error {
	return ping(ctx, "oracle", c.dsn(cfg))
}

func (c *oracleConnector) Schema(ctx context.Context, cfg model.DBConfig) (*model.Schema, error) {
	return nil, ErrSchemaUnsupported
}

func (c *oracleConnector) Execute(ctx context.Context, cfg model.DBConfig, query string) (*model.QueryResult, error) {
	return nil, ErrExecUnsupported
}
