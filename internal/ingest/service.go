// Package ingest carries admitted metric batches into the persistence sink.
// The service runs inside the admission core's per-key execution slot, so a
// single client never has two batches in flight at once.
package ingest

import (
	"context"

	"metricsgw/internal/models"
	"metricsgw/internal/sink"
)

// ServiceInterface defines the interface for batch ingestion operations
type ServiceInterface interface {
	// Ingest persists a batch and returns the number of records written.
	Ingest(ctx context.Context, batch models.Batch) (int, error)
}

// Ensure Service implements ServiceInterface
var _ ServiceInterface = (*Service)(nil)

// Service persists admitted batches through the configured sink.
type Service struct {
	sink sink.Sink
}

// NewService creates a new ingestion service with the given sink backend
func NewService(s sink.Sink) *Service {
	return &Service{sink: s}
}

// Ingest writes the whole batch through the sink. Any sink error fails the
// entire batch and surfaces as a SINK_FAILURE; there is no partial-success
// bookkeeping at this layer and no retry. The batch's quota was spent at
// admission, so a transient sink failure burns it; clients resubmit.
func (s *Service) Ingest(ctx context.Context, batch models.Batch) (int, error) {
	count, err := s.sink.InsertMany(ctx, batch)
	if err != nil {
		return 0, NewSinkFailureError(err)
	}
	return count, nil
}
