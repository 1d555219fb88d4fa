// Package connector dispatches across the external database engines a
// project can point at. Every engine supports a liveness probe; the
// relational engines additionally support schema introspection and raw
// query execution. Connections are opened per call from the project's
// stored config and closed before returning.
package connector

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/askdb/askdb/internal/model"
)

// ErrSchemaUnsupported is returned by Schema for engines without relational
// catalog introspection.
var ErrSchemaUnsupported = errors.New("schema introspection is not supported for this database type")

// ErrExecUnsupported is returned by Execute for engines that do not accept
// raw SQL.
var ErrExecUnsupported = errors.New("query execution is not supported for this database type")

// Connector is the interface all database connectors implement. Connectors
// are stateless: each call dials the target database from cfg and tears the
// connection down before returning.
type Connector interface {
	// Test verifies the database described by cfg is reachable.
	Test(ctx context.Context, cfg model.DBConfig) error

	// Schema introspects base tables, their columns, and foreign-key
	// relationships. Returns ErrSchemaUnsupported for engines without a
	// relational catalog.
	Schema(ctx context.Context, cfg model.DBConfig) (*model.Schema, error)

	// Execute runs a raw SQL query and returns field names plus rows.
	// Returns ErrExecUnsupported for non-SQL engines.
	Execute(ctx context.Context, cfg model.DBConfig, query string) (*model.QueryResult, error)
}

// Factory creates a new Connector instance.
type Factory func() Connector

// Registry maps database type tags to connector factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register registers a connector factory for a database type.
func (r *Registry) Register(dbType string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[dbType] = factory
}

// Get returns a fresh connector for the given database type.
func (r *Registry) Get(dbType string) (Connector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[dbType]
	if !ok {
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
	return factory(), nil
}

// Types returns the registered database type tags.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	return types
}

// DefaultRegistry returns a registry with every supported engine wired in.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(model.DBPostgres, func() Connector { return newPostgres(model.DBPostgres) })
	r.Register(model.DBCockroach, func() Connector { return newPostgres(model.DBCockroach) })
	r.Register(model.DBTimescale, func() Connector { return newPostgres(model.DBTimescale) })
	r.Register(model.DBMySQL, func() Connector { return &mysqlConnector{} })
	r.Register(model.DBSQLite, func() Connector { return &sqliteConnector{} })
	r.Register(model.DBMSSQL, func() Connector { return &mssqlConnector{} })
	r.Register(model.DBOracle, func() Connector { return &oracleConnector{} })
	r.Register(model.DBSnowflake, func() Connector { return &snowflakeConnector{} })
	r.Register(model.DBMongo, func() Connector { return &mongoConnector{} })
	r.Register(model.DBRedis, func() Connector { return &redisConnector{} })
	r.Register(model.DBFirestore, func() Connector { return &firestoreConnector{} })
	r.Register(model.DBDynamo, func() Connector { return &dynamoConnector{} })
	return r
}
