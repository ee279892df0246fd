package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS metrics (
	id          UUID PRIMARY KEY,
	body        JSONB NOT NULL,
	received_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_metrics_received_at ON metrics(received_at);
`

// PostgresSink persists metric records to PostgreSQL via a pgx connection
// pool. The production backend for multi-node deployments.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink creates a connection pool and initializes the schema.
func NewPostgresSink(config Config) (*PostgresSink, error) {
	if config.DSN == "" {
		return nil, fmt.Errorf("DSN is required for PostgreSQL sink")
	}

	pool, err := pgxpool.New(context.Background(), config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(context.Background(), postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &PostgresSink{pool: pool}, nil
}

// InsertMany writes the whole batch in a single transaction using a pgx batch
// for one network round trip.
func (p *PostgresSink) InsertMany(ctx context.Context, records []json.RawMessage) (int, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, record := range records {
		batch.Queue(
			"INSERT INTO metrics (id, body, received_at) VALUES ($1, $2, $3)",
			uuid.New(), record, now,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for range records {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return 0, fmt.Errorf("failed to insert record: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("failed to close batch results: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit batch: %w", err)
	}

	return len(records), nil
}

// Ping verifies the database connection.
func (p *PostgresSink) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close closes the connection pool.
func (p *PostgresSink) Close() error {
	p.pool.Close()
	return nil
}
