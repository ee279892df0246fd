package sink

import (
	"fmt"

	"metricsgw/internal/models"
)

// Factory provides a centralized way to create sink instances based on
// configuration. This allows provider swapping without code changes.
type Factory struct{}

// NewFactory creates a new sink factory
func NewFactory() *Factory {
	return &Factory{}
}

// Create instantiates a sink backend based on the provided configuration.
// Supported backends:
//   - memory: in-memory buffer (for testing/development)
//   - sqlite: SQLite database (lightweight single-node persistence)
//   - postgres: PostgreSQL database (production-ready)
//   - mongo: MongoDB collection (document-store insertMany)
func (f *Factory) Create(config models.SinkConfig) (Sink, error) {
	sinkConfig := Config{
		Type:            config.Type,
		DSN:             config.Database.DSN,
		MaxOpenConns:    config.Database.MaxOpenConns,
		MaxIdleConns:    config.Database.MaxIdleConns,
		ConnMaxLifetime: config.Database.ConnMaxLifetime,
		ConnMaxIdleTime: config.Database.ConnMaxIdleTime,
		MongoURI:        config.Mongo.URI,
		MongoDatabase:   config.Mongo.Database,
		MongoCollection: config.Mongo.Collection,
	}

	switch config.Type {
	case models.SinkTypeMemory:
		return NewMemorySink(sinkConfig)
	case models.SinkTypeSQLite:
		return NewSQLiteSink(sinkConfig)
	case models.SinkTypePostgres:
		return NewPostgresSink(sinkConfig)
	case models.SinkTypeMongo:
		return NewMongoSink(sinkConfig)
	default:
		return nil, fmt.Errorf("unsupported sink type: %s", config.Type)
	}
}

// SupportedTypes returns all sink backend types the factory can create.
func (f *Factory) SupportedTypes() []string {
	return []string{models.SinkTypeMemory, models.SinkTypeSQLite, models.SinkTypePostgres, models.SinkTypeMongo}
}
