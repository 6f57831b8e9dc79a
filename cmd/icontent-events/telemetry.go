package main

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

type telemetry struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	shutdown       func(context.Context) error
}

// setupTelemetry exports traces and metrics over OTLP/HTTP to the
// configured endpoint, and registers the providers globally.
// With no endpoint the global no-op providers are returned.
func setupTelemetry(ctx context.Context, config *Config) (telemetry, error) {
	if config.Telemetry.Endpoint == "" {
		return telemetry{
			tracerProvider: otel.GetTracerProvider(),
			meterProvider:  otel.GetMeterProvider(),
			shutdown:       func(context.Context) error { return nil },
		}, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(config.Telemetry.ServiceName)),
	)
	if err != nil {
		return telemetry{}, fmt.Errorf("main: failed to create telemetry resource, %w", err)
	}

	traceExporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(config.Telemetry.Endpoint))
	if err != nil {
		return telemetry{}, fmt.Errorf("main: failed to create trace exporter, %w", err)
	}

	metricExporter, err := otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpointURL(config.Telemetry.Endpoint))
	if err != nil {
		return telemetry{}, fmt.Errorf("main: failed to create metric exporter, %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter,
			sdkmetric.WithInterval(config.Telemetry.ExportInterval),
		)),
		sdkmetric.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return telemetry{
		tracerProvider: tp,
		meterProvider:  mp,
		shutdown: func(ctx context.Context) error {
			return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
		},
	}, nil
}
