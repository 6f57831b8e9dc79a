package opentelemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/icontent-lms/go-icontent/event"
	"github.com/icontent-lms/go-icontent/event/eventtest"
	"github.com/icontent-lms/go-icontent/opentelemetry"
	"github.com/icontent-lms/go-icontent/version"
)

func TestInstrumentedEventStore(t *testing.T) {
	suite.Run(t, eventtest.NewStoreSuite(func() event.Store {
		es, err := opentelemetry.NewInstrumentedEventStore(event.NewInMemoryStore())
		require.NoError(t, err)

		return es
	}))
}

func TestInstrumentedEventStore_Telemetry(t *testing.T) {
	ctx := context.Background()

	spans := tracetest.NewSpanRecorder()
	tracerProvider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))

	reader := sdkmetric.NewManualReader()
	meterProvider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	es, err := opentelemetry.NewInstrumentedEventStore(
		event.NewInMemoryStore(),
		opentelemetry.WithTracerProvider(tracerProvider),
		opentelemetry.WithMeterProvider(meterProvider),
		opentelemetry.WithAttributes(opentelemetry.DriverAttribute.String("memory")),
	)
	require.NoError(t, err)

	_, err = es.Append(ctx, "stream", version.Any,
		event.Envelope{Message: eventtest.Opened{Page: 1}},
		event.Envelope{Message: eventtest.Opened{Page: 2}},
	)
	require.NoError(t, err)

	_, err = es.Append(ctx, "stream", version.CheckExact(0), event.Envelope{Message: eventtest.Opened{Page: 3}})
	require.Error(t, err)

	_, err = event.StreamToSlice(ctx, func(ctx context.Context, stream event.StreamWrite) error {
		return es.Stream(ctx, stream, "stream", version.SelectFromBeginning)
	})
	require.NoError(t, err)

	ended := spans.Ended()
	require.Len(t, ended, 3)
	assert.Equal(t, opentelemetry.AppendSpanName, ended[0].Name())
	assert.Equal(t, opentelemetry.AppendSpanName, ended[1].Name())
	assert.Equal(t, opentelemetry.StreamSpanName, ended[2].Name())
	assert.NotEmpty(t, ended[1].Events(), "the append failure must be recorded on the span")

	for _, span := range ended {
		assert.Contains(t, span.Attributes(), opentelemetry.DriverAttribute.String("memory"))
		assert.Contains(t, span.Attributes(), opentelemetry.StreamIDAttribute.String("stream"))
	}

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	metrics := make(map[string]metricdata.Metrics)
	for _, m := range rm.ScopeMetrics[0].Metrics {
		metrics[m.Name] = m
	}

	appended, ok := metrics["icontent.events.appended"].Data.(metricdata.Sum[int64])
	require.True(t, ok)

	var total int64
	for _, dp := range appended.DataPoints {
		total += dp.Value
	}

	assert.Equal(t, int64(3), total, "two appended events and one refused")

	for _, dp := range appended.DataPoints {
		driver, ok := dp.Attributes.Value(opentelemetry.DriverAttribute)
		assert.True(t, ok)
		assert.Equal(t, "memory", driver.AsString())
	}
	assert.Contains(t, metrics, "icontent.event_store.append.duration")
	assert.Contains(t, metrics, "icontent.event_store.stream.duration")
}
