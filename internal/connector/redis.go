package connector

import (
	"context"
	"fmt"
	"net"

	"github.com/gomodule/redigo/redis"

	"github.com/askdb/askdb/internal/model"
)

// redisConnector probes Redis servers with a PING. Liveness only.
type redisConnector struct{}

func (c *redisConnector) Test(ctx context.Context, cfg model.DBConfig) error {
	port := cfg.Port
	if port == "" {
		port = "6379"
	}

	var opts []redis.DialOption
	if cfg.Password != "" {
		opts = append(opts, redis.DialPassword(cfg.Password))
	}
	if cfg.User != "" {
		opts = append(opts, redis.DialUsername(cfg.User))
	}

	conn, err := redis.DialContext(ctx, "tcp", net.JoinHostPort(cfg.Host, port), opts...)
	if err != nil {
		return fmt.Errorf("redis connect: %w", err)
	}
	defer conn.Close()

	if _, err := redis.DoContext(conn, ctx, "PING"); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (c *redisConnector) Schema(ctx context.Context, cfg model.DBConfig) (*model.Schema, error) {
	return nil, ErrSchemaUnsupported
}

func (c *redisConnector) Execute(ctx context.Context, cfg model.DBConfig, query string) (*model.QueryResult, error) {
	return nil, ErrExecUnsupported
}
