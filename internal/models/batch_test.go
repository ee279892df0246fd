package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBatch(t *testing.T) {
	body := []byte(`{"name":"cpu","value":0.35}
{"name":"mem","value":812}
{"name":"disk","value":0.61}`)

	batch, err := ParseBatch(body)
	require.NoError(t, err)
	assert.Len(t, batch, 3)
	assert.Equal(t, int64(3), batch.Weight())
	assert.JSONEq(t, `{"name":"cpu","value":0.35}`, string(batch[0]))
}

func TestParseBatch_SkipsBlankLines(t *testing.T) {
	body := []byte("\n{\"a\":1}\n\n   \n{\"b\":2}\n")

	batch, err := ParseBatch(body)
	require.NoError(t, err)
	assert.Len(t, batch, 2)
}

func TestParseBatch_TrimsWhitespace(t *testing.T) {
	body := []byte("  {\"a\":1}  \r\n\t{\"b\":2}\t")

	batch, err := ParseBatch(body)
	require.NoError(t, err)
	assert.Len(t, batch, 2)
	assert.JSONEq(t, `{"a":1}`, string(batch[0]))
}

func TestParseBatch_InvalidLineRejectsWholeBatch(t *testing.T) {
	body := []byte("{\"a\":1}\nnot json\n{\"b\":2}")

	batch, err := ParseBatch(body)
	require.Error(t, err)
	assert.Nil(t, batch)
	assert.Contains(t, err.Error(), "line 2")
}

func TestParseBatch_EmptyBody(t *testing.T) {
	batch, err := ParseBatch([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, int64(0), batch.Weight())
}

func TestParseBatch_DetachesFromInput(t *testing.T) {
	body := []byte(`{"a":1}`)
	batch, err := ParseBatch(body)
	require.NoError(t, err)

	body[2] = 'z'
	assert.JSONEq(t, `{"a":1}`, string(batch[0]))
}
