package sink

import (
	"path/filepath"
	"testing"

	"metricsgw/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactory_CreateMemory(t *testing.T) {
	f := NewFactory()

	s, err := f.Create(models.SinkConfig{Type: models.SinkTypeMemory})
	require.NoError(t, err)
	defer s.Close()

	assert.IsType(t, &MemorySink{}, s)
}

func TestFactory_CreateSQLite(t *testing.T) {
	f := NewFactory()

	s, err := f.Create(models.SinkConfig{
		Type:     models.SinkTypeSQLite,
		Database: models.DatabaseConfig{DSN: filepath.Join(t.TempDir(), "metrics.db")},
	})
	require.NoError(t, err)
	defer s.Close()

	assert.IsType(t, &SQLiteSink{}, s)
}

func TestFactory_CreateSQLiteWithoutDSN(t *testing.T) {
	f := NewFactory()

	_, err := f.Create(models.SinkConfig{Type: models.SinkTypeSQLite})
	assert.Error(t, err)
}

func TestFactory_CreateUnsupported(t *testing.T) {
	f := NewFactory()

	_, err := f.Create(models.SinkConfig{Type: "cassandra"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported sink type")
}

func TestFactory_SupportedTypes(t *testing.T) {
	f := NewFactory()

	types := f.SupportedTypes()
	assert.ElementsMatch(t, []string{"memory", "sqlite", "postgres", "mongo"}, types)
}
