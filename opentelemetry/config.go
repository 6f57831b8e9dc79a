// Package opentelemetry instruments the event.Store implementations
// with OpenTelemetry traces and metrics.
package opentelemetry

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/icontent-lms/go-icontent/opentelemetry"

type config struct {
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	attributes     []attribute.KeyValue
}

func (c config) meter() metric.Meter {
	return c.meterProvider.Meter(instrumentationName)
}

func (c config) tracer() trace.Tracer {
	return c.tracerProvider.Tracer(instrumentationName)
}

// Option specifies instrumentation configuration options.
type Option func(*config)

// WithMeterProvider specifies the metric.MeterProvider to use.
// By default, the global one is used.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(c *config) { c.meterProvider = provider }
}

// WithTracerProvider specifies the trace.TracerProvider to use.
// By default, the global one is used.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(c *config) { c.tracerProvider = provider }
}

// WithAttributes adds attributes to every span and measurement,
// e.g. the backend the Event Store runs on.
func WithAttributes(attributes ...attribute.KeyValue) Option {
	return func(c *config) { c.attributes = append(c.attributes, attributes...) }
}

func newConfig(opts ...Option) config {
	c := config{
		meterProvider:  otel.GetMeterProvider(),
		tracerProvider: otel.GetTracerProvider(),
	}

	for _, opt := range opts {
		opt(&c)
	}

	return c
}
