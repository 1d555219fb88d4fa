package connector

import (
	"context"
	"fmt"
	"net"
	"net/url"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/askdb/askdb/internal/model"
)

// mongoConnector probes MongoDB deployments. Liveness only.
type mongoConnector struct{}

func (c *mongoConnector) uri(cfg model.DBConfig) string {
	port := cfg.Port
	if port == "" {
		port = "27017"
	}
	u := url.URL{
		Scheme: "mongodb",
		Host:   net.JoinHostPort(cfg.Host, port),
	}
	if cfg.User != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}
	if cfg.DBName != "" {
		u.Path = "/" + cfg.DBName
	}
	return u.String()
}

func (c *mongoConnector) Test(ctx context.Context, cfg model.DBConfig) error {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(c.uri(cfg)))
	if err != nil {
		return fmt.Errorf("mongodb connect: %w", err)
	}
	defer client.Disconnect(ctx) //nolint:errcheck
	return client.Ping(ctx, readpref.Primary())
}

func (c *mongoConnector) Schema(ctx context.Context, cfg model.DBConfig) (*model.Schema, error) {
	return nil, ErrSchemaUnsupported
}

func (c *mongoConnector) Execute(ctx context.Context, cfg model.DBConfig, query string) (*model.QueryResult, error) {
	return nil, ErrExecUnsupported
}
