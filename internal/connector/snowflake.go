package connector

import (
	"context"
	"fmt"

	gosnowflake "github.com/snowflakedb/gosnowflake"

	"github.com/askdb/askdb/internal/model"
)

// snowflakeConnector probes Snowflake warehouses. Liveness only. Snowflake
// uses its own account-locator DSN format, built by the driver itself.
type snowflakeConnector struct{}

func (c *snowflakeConnector) dsn(cfg model.DBConfig) (string, error) {
	sc := gosnowflake.Config{
		Account:  cfg.Account,
		User:     cfg.User,
		Password: cfg.Password,
		Database: cfg.DBName,
	}
	dsn, err := gosnowflake.DSN(&sc)
	if err != nil {
		return "", fmt.Errorf("snowflake dsn: %w", err)
	}
	return dsn, nil
}

func (c *snowflakeConnector) Test(ctx context.Context, cfg model.DBConfig) error {
	dsn, err := c.dsn(cfg)
	if err != nil {
		return err
	}
	return ping(ctx, "snowflake", dsn)
}

func (c *snowflakeConnector) Schema(ctx context.Context, cfg model.DBConfig) (*model.Schema, error) {
	return nil, ErrSchemaUnsupported
}

func (c *snowflakeConnector) Execute(ctx context.Context, cfg model.DBConfig, query string) (*model.QueryResult, error) {
	return nil, ErrExecUnsupported
}
