package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSink persists metric records to a MongoDB collection via insertMany.
type MongoSink struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoSink connects to MongoDB and resolves the target collection.
func NewMongoSink(config Config) (*MongoSink, error) {
	if config.MongoURI == "" {
		return nil, fmt.Errorf("URI is required for mongo sink")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return &MongoSink{
		client:     client,
		collection: client.Database(config.MongoDatabase).Collection(config.MongoCollection),
	}, nil
}

// InsertMany converts each JSON record to a BSON document and inserts the
// batch in one call. An unparseable record fails the whole batch before
// anything is written.
func (m *MongoSink) InsertMany(ctx context.Context, records []json.RawMessage) (int, error) {
	docs := make([]interface{}, 0, len(records))
	for _, record := range records {
		var doc bson.M
		if err := bson.UnmarshalExtJSON(record, false, &doc); err != nil {
			return 0, fmt.Errorf("failed to convert record to BSON: %w", err)
		}
		docs = append(docs, doc)
	}

	result, err := m.collection.InsertMany(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("failed to insert batch: %w", err)
	}

	return len(result.InsertedIDs), nil
}

// Ping verifies the mongo connection.
func (m *MongoSink) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

// Close disconnects from mongo.
func (m *MongoSink) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
