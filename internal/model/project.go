package model

import (
	"fmt"
	"time"
)

// Database type tags accepted in a project's connection config. The dispatch
// over these is closed: an unknown tag is rejected at validation time.
const (
	DBPostgres  = "postgresql"
	DBMySQL     = "mysql"
	DBSQLite    = "sqlite"
	DBCockroach = "cockroachdb"
	DBTimescale = "timescaledb"
	DBMongo     = "mongodb"
	DBRedis     = "redis"
	DBFirestore = "firestore"
	DBDynamo    = "dynamodb"
	DBMSSQL     = "mssql"
	DBOracle    = "oracle"
	DBSnowflake = "snowflake"
)

// SchemaSupported reports whether a database type supports relational schema
// introspection and SQL execution.
func SchemaSupported(dbType string) bool {
	switch dbType {
	case DBPostgres, DBMySQL, DBCockroach, DBTimescale:
		return true
	}
	return false
}

// DBConfig is a project's external database connection config: a tagged
// union keyed by Type, validated at both write and read time rather than
// inferred from field presence. Stored encrypted.
type DBConfig struct {
	Type     string `json:"db_type"`
	Host     string `json:"host,omitempty"`
	Port     string `json:"port,omitempty"`
	DBName   string `json:"dbname,omitempty"`
	User     string `json:"user,omitempty"`
	Password string `json:"password,omitempty"`
	SSLMode  string `json:"sslmode,omitempty"` // cockroachdb/postgres

	FilePath string `json:"file_path,omitempty"` // sqlite

	Region          string `json:"region,omitempty"` // dynamodb
	AccessKeyID     string `json:"accessKeyId,omitempty"`
	SecretAccessKey string `json:"secretAccessKey,omitempty"`

	ServiceAccountKey string `json:"serviceAccountKey,omitempty"` // firestore, JSON
	ProjectID         string `json:"gcp_project_id,omitempty"`

	Service string `json:"service,omitempty"` // oracle service name
	Account string `json:"account,omitempty"` // snowflake account
}

// Validate checks the config carries the fields its declared type requires.
func (c DBConfig) Validate() error {
	switch c.Type {
	case DBPostgres, DBMySQL, DBCockroach, DBTimescale, DBMSSQL:
		if c.Host == "" || c.DBName == "" || c.User == "" {
			return fmt.Errorf("%s connections require host, dbname, and user", c.Type)
		}
	case DBOracle:
		if c.Host == "" || c.User == "" || c.Service == "" {
			return fmt.Errorf("oracle connections require host, user, and service")
		}
	case DBSnowflake:
		if c.Account == "" || c.User == "" || c.DBName == "" {
			return fmt.Errorf("snowflake connections require account, user, and dbname")
		}
	case DBMongo, DBRedis:
		if c.Host == "" {
			return fmt.Errorf("%s connections require host", c.Type)
		}
	case DBFirestore:
		if c.ServiceAccountKey == "" {
			return fmt.Errorf("firestore connections require a service account key")
		}
	case DBDynamo:
		if c.Region == "" {
			return fmt.Errorf("dynamodb connections require a region")
		}
	case DBSQLite:
		// Nothing to check: file-based, trivially reachable.
	case "":
		return fmt.Errorf("db_type is required")
	default:
		return fmt.Errorf("unsupported database type: %s", c.Type)
	}
	return nil
}

// ConnectionStatus is a project's last known reachability state.
type ConnectionStatus string

const (
	StatusConnected    ConnectionStatus = "connected"
	StatusDisconnected ConnectionStatus = "disconnected"
	StatusError        ConnectionStatus = "error"
	StatusChecking     ConnectionStatus = "checking"
)

// Reference points a column at the "table.column" it references.
type Reference struct {
	References string `json:"references"`
}

// SelectedTables maps a table name to the column names the user picked.
type SelectedTables map[string][]string

// Relationships maps table -> column -> referenced table.column.
type Relationships map[string]map[string]Reference

// Project is a registered external database connection plus the user-selected
// subset of its schema. The projection is advisory: it is never re-validated
// against the live database at write time, so staleness surfaces only at the
// next generation or execution call.
type Project struct {
	ID                 int64            `json:"id,string" db:"id"`
	UserID             int64            `json:"user_id,string" db:"user_id"`
	Name               string           `json:"project_name" db:"project_name"`
	DBCredential       DBConfig         `json:"db_credential" db:"-"`
	SelectedTables     SelectedTables   `json:"selected_tables" db:"-"`
	TableRelationships Relationships    `json:"table_relationships" db:"-"`
	ConnectionStatus   ConnectionStatus `json:"connectionStatus" db:"connection_status"`
	CreatedBy          string           `json:"created_by" db:"created_by"`
	ModifiedBy         string           `json:"modified_by" db:"modified_by"`
	CreatedAt          time.Time        `json:"created_ts" db:"created_at"`
	ModifiedAt         time.Time        `json:"modified_ts" db:"modified_at"`
}
