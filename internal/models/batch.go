// Package models - Metric batch parsing.
//
// Batches arrive as newline-delimited JSON: one metric record per non-blank
// line. The record contents are opaque to the gateway; they are validated as
// JSON and passed through to the sink untouched. A batch is atomic: one
// malformed line rejects the whole submission.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Batch is an ordered sequence of opaque metric records.
type Batch []json.RawMessage

// ParseBatch parses a newline-delimited JSON payload into a Batch. Blank lines
// are skipped. Any line that is not valid JSON fails the entire batch.
func ParseBatch(body []byte) (Batch, error) {
	lines := bytes.Split(body, []byte("\n"))
	batch := make(Batch, 0, len(lines))
	for i, line := range lines {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if !json.Valid(line) {
			return nil, fmt.Errorf("invalid JSON record on line %d", i+1)
		}
		record := make(json.RawMessage, len(line))
		copy(record, line)
		batch = append(batch, record)
	}
	return batch, nil
}

// Weight returns the quota cost of the batch: its record count.
func (b Batch) Weight() int64 {
	return int64(len(b))
}
