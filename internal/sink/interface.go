// Package sink provides metric batch persistence behind a small interface.
// Backends range from an in-memory buffer for development and tests to
// SQLite, PostgreSQL, and MongoDB for real deployments. Connections are
// established once at process start and reused across requests.
package sink

import (
	"context"
	"encoding/json"
	"time"
)

// Sink persists metric batches. Implementations must be safe for concurrent
// use; the admission core already serializes submissions per client, but
// unrelated clients insert in parallel.
type Sink interface {
	// InsertMany persists the batch atomically from the gateway's
	// perspective: it returns the number of records written on success,
	// or an error with nothing counted on any failure. Whatever atomicity
	// the backend itself provides is inherited as-is.
	InsertMany(ctx context.Context, records []json.RawMessage) (int, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend connection and cleans up resources.
	Close() error
}

// Config holds configuration for sink backends
type Config struct {
	// Type specifies the sink backend type (memory, sqlite, postgres, mongo)
	Type string `json:"type" yaml:"type"`

	// DSN is used for database backends
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty"`

	// Connection pool tuning for database/sql backends
	MaxOpenConns    int           `json:"max_open_conns,omitempty" yaml:"max_open_conns,omitempty"`
	MaxIdleConns    int           `json:"max_idle_conns,omitempty" yaml:"max_idle_conns,omitempty"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime,omitempty" yaml:"conn_max_lifetime,omitempty"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time,omitempty" yaml:"conn_max_idle_time,omitempty"`

	// MongoURI, MongoDatabase, and MongoCollection configure the mongo backend
	MongoURI        string `json:"mongo_uri,omitempty" yaml:"mongo_uri,omitempty"`
	MongoDatabase   string `json:"mongo_database,omitempty" yaml:"mongo_database,omitempty"`
	MongoCollection string `json:"mongo_collection,omitempty" yaml:"mongo_collection,omitempty"`
}
