package observability

import (
	"context"
	"encoding/json"
	"time"

	"metricsgw/internal/sink"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedSink wraps a sink.Sink implementation with OpenTelemetry
// tracing and metrics instrumentation.
type InstrumentedSink struct {
	inner    sink.Sink
	tracer   trace.Tracer
	duration metric.Float64Histogram
	records  metric.Int64Counter
	errors   metric.Int64Counter
}

// NewInstrumentedSink creates a sink wrapper that records trace spans,
// operation latency histograms, inserted record counts, and error counters
// for every sink method call.
func NewInstrumentedSink(inner sink.Sink) (*InstrumentedSink, error) {
	tracer := otel.Tracer("metricsgw/sink")
	meter := otel.Meter("metricsgw/sink")

	duration, err := meter.Float64Histogram(
		"sink.operation.duration",
		metric.WithDescription("Duration of sink operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	records, err := meter.Int64Counter(
		"sink.records.inserted",
		metric.WithDescription("Number of metric records persisted"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, err
	}

	errCounter, err := meter.Int64Counter(
		"sink.operation.errors",
		metric.WithDescription("Number of sink operation errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedSink{
		inner:    inner,
		tracer:   tracer,
		duration: duration,
		records:  records,
		errors:   errCounter,
	}, nil
}

func (s *InstrumentedSink) startSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := s.tracer.Start(ctx, "sink."+operation,
		trace.WithAttributes(append([]attribute.KeyValue{
			attribute.String("sink.operation", operation),
		}, attrs...)...),
	)
	return ctx, span
}

func (s *InstrumentedSink) record(ctx context.Context, span trace.Span, operation string, start time.Time, err error) {
	elapsed := time.Since(start).Seconds()
	attrs := metric.WithAttributes(attribute.String("operation", operation))

	s.duration.Record(ctx, elapsed, attrs)

	if err != nil {
		s.errors.Add(ctx, 1, attrs)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End()
}

func (s *InstrumentedSink) InsertMany(ctx context.Context, batch []json.RawMessage) (int, error) {
	ctx, span := s.startSpan(ctx, "InsertMany", attribute.Int("batch.size", len(batch)))
	start := time.Now()
	inserted, err := s.inner.InsertMany(ctx, batch)
	if err == nil {
		s.records.Add(ctx, int64(inserted))
	}
	s.record(ctx, span, "InsertMany", start, err)
	return inserted, err
}

func (s *InstrumentedSink) Ping(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "Ping")
	start := time.Now()
	err := s.inner.Ping(ctx)
	s.record(ctx, span, "Ping", start, err)
	return err
}

func (s *InstrumentedSink) Close() error {
	return s.inner.Close()
}
