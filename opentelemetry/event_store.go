package opentelemetry

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/icontent-lms/go-icontent/event"
	"github.com/icontent-lms/go-icontent/version"
)

var _ event.Store = new(InstrumentedEventStore)

// InstrumentedEventStore is a wrapper to provide OpenTelemetry instrumentation
// for event.Store compatible implementations, and compatible
// with the same interface to be used seamlessly in your pre-existing code.
//
// Use NewInstrumentedEventStore to create new instance of this type.
type InstrumentedEventStore struct {
	eventStore event.Store
	tracer     trace.Tracer
	attributes []attribute.KeyValue

	appendCount    metric.Int64Counter
	appendDuration metric.Float64Histogram
	streamDuration metric.Float64Histogram
}

func (es *InstrumentedEventStore) registerMetrics(meter metric.Meter) error {
	var err error

	if es.appendCount, err = meter.Int64Counter(
		"icontent.events.appended",
		metric.WithDescription("Count of events appended to the Event Store"),
		metric.WithUnit("{event}"),
	); err != nil {
		return fmt.Errorf("opentelemetry: failed to register metric, %w", err)
	}

	if es.appendDuration, err = meter.Float64Histogram(
		"icontent.event_store.append.duration",
		metric.WithDescription("Duration of append operations performed"),
		metric.WithUnit("ms"),
	); err != nil {
		return fmt.Errorf("opentelemetry: failed to register metric, %w", err)
	}

	if es.streamDuration, err = meter.Float64Histogram(
		"icontent.event_store.stream.duration",
		metric.WithDescription("Duration of stream operations performed"),
		metric.WithUnit("ms"),
	); err != nil {
		return fmt.Errorf("opentelemetry: failed to register metric, %w", err)
	}

	return nil
}

// NewInstrumentedEventStore wraps es with tracing and metrics.
func NewInstrumentedEventStore(es event.Store, opts ...Option) (*InstrumentedEventStore, error) {
	cfg := newConfig(opts...)

	ies := &InstrumentedEventStore{
		eventStore: es,
		tracer:     cfg.tracer(),
		attributes: cfg.attributes,
	}

	if err := ies.registerMetrics(cfg.meter()); err != nil {
		return nil, err
	}

	return ies, nil
}

func milliseconds(since time.Time) float64 {
	return float64(time.Since(since)) / float64(time.Millisecond)
}

func recordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// with returns the configured attributes followed by extra.
func (es *InstrumentedEventStore) with(extra ...attribute.KeyValue) []attribute.KeyValue {
	attributes := make([]attribute.KeyValue, 0, len(es.attributes)+len(extra))
	attributes = append(attributes, es.attributes...)

	return append(attributes, extra...)
}

func versionCheckValue(check version.Check) string {
	if v, ok := check.(version.CheckExact); ok {
		return strconv.FormatUint(uint64(v), 10)
	}

	return "any"
}

// Stream delegates the call to the underlying Event Store and records
// a trace of the result.
func (es *InstrumentedEventStore) Stream(
	ctx context.Context,
	stream event.StreamWrite,
	id event.StreamID,
	selector version.Selector,
) (err error) {
	ctx, span := es.tracer.Start(ctx, StreamSpanName, trace.WithAttributes(es.with(
		StreamIDAttribute.String(string(id)),
		SelectFromAttribute.Int64(int64(selector.From)),
	)...))
	defer span.End()

	start := time.Now()
	defer func() {
		es.streamDuration.Record(ctx, milliseconds(start), metric.WithAttributes(es.with(ErrorAttribute.Bool(err != nil))...))
	}()

	err = es.eventStore.Stream(ctx, stream, id, selector)
	recordError(span, err)

	return err
}

// Append delegates the call to the underlying Event Store, records
// a trace of the result and counts the appended events by type.
func (es *InstrumentedEventStore) Append(
	ctx context.Context,
	id event.StreamID,
	expected version.Check,
	events ...event.Envelope,
) (newVersion version.Version, err error) {
	ctx, span := es.tracer.Start(ctx, AppendSpanName, trace.WithAttributes(es.with(
		StreamIDAttribute.String(string(id)),
		VersionCheckAttribute.String(versionCheckValue(expected)),
	)...))
	defer span.End()

	start := time.Now()
	defer func() {
		errAttribute := ErrorAttribute.Bool(err != nil)
		es.appendDuration.Record(ctx, milliseconds(start), metric.WithAttributes(es.with(errAttribute)...))

		for _, evt := range events {
			es.appendCount.Add(ctx, 1, metric.WithAttributes(es.with(
				errAttribute,
				EventTypeAttribute.String(evt.Message.Name()),
			)...))
		}
	}()

	newVersion, err = es.eventStore.Append(ctx, id, expected, events...)
	if err != nil {
		recordError(span, err)
		return newVersion, err
	}

	span.SetAttributes(VersionNewAttribute.Int64(int64(newVersion)))

	return newVersion, nil
}
