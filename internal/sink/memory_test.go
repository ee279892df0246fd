package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySink_InsertMany(t *testing.T) {
	s, err := NewMemorySink(Config{Type: "memory"})
	require.NoError(t, err)
	defer s.Close()

	records := []json.RawMessage{
		json.RawMessage(`{"name":"cpu","value":0.5}`),
		json.RawMessage(`{"name":"mem","value":812}`),
	}

	count, err := s.InsertMany(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Len(t, s.Records(), 2)
}

func TestMemorySink_InsertManyEmptyBatch(t *testing.T) {
	s, err := NewMemorySink(Config{})
	require.NoError(t, err)
	defer s.Close()

	count, err := s.InsertMany(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestMemorySink_InsertManyCancelledContext(t *testing.T) {
	s, err := NewMemorySink(Config{})
	require.NoError(t, err)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.InsertMany(ctx, []json.RawMessage{json.RawMessage(`{}`)})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, s.Records())
}

func TestMemorySink_ConcurrentInserts(t *testing.T) {
	s, err := NewMemorySink(Config{})
	require.NoError(t, err)
	defer s.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			record := json.RawMessage(fmt.Sprintf(`{"worker":%d}`, i))
			_, err := s.InsertMany(context.Background(), []json.RawMessage{record, record})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Len(t, s.Records(), 40)
}

func TestMemorySink_RecordsReturnsCopy(t *testing.T) {
	s, err := NewMemorySink(Config{})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.InsertMany(context.Background(), []json.RawMessage{json.RawMessage(`{"a":1}`)})
	require.NoError(t, err)

	snapshot := s.Records()
	snapshot[0] = json.RawMessage(`{"mutated":true}`)

	assert.JSONEq(t, `{"a":1}`, string(s.Records()[0]))
}

func TestMemorySink_Ping(t *testing.T) {
	s, err := NewMemorySink(Config{})
	require.NoError(t, err)
	defer s.Close()

	assert.NoError(t, s.Ping(context.Background()))
}
