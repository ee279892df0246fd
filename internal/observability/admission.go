package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AdmissionMetrics records admission decision outcomes and batch weights.
// It satisfies the API layer's decision recorder interface.
type AdmissionMetrics struct {
	decisions metric.Int64Counter
	weights   metric.Int64Histogram
}

// NewAdmissionMetrics creates counters for admission decisions on the global
// meter provider.
func NewAdmissionMetrics() (*AdmissionMetrics, error) {
	meter := otel.Meter("metricsgw/admission")

	decisions, err := meter.Int64Counter(
		"admission.decisions",
		metric.WithDescription("Number of admission decisions by outcome"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, err
	}

	weights, err := meter.Int64Histogram(
		"admission.batch.weight",
		metric.WithDescription("Record count of submitted batches"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, err
	}

	return &AdmissionMetrics{decisions: decisions, weights: weights}, nil
}

// RecordDecision records one admission outcome. The weight is recorded only
// for batches that carried one; signature failures are counted with no weight.
func (m *AdmissionMetrics) RecordDecision(status string, weight int64) {
	ctx := context.Background()
	m.decisions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	if weight > 0 {
		m.weights.Record(ctx, weight, metric.WithAttributes(attribute.String("status", status)))
	}
}
