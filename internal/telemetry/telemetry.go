// Package telemetry initializes OpenTelemetry tracing for the worker.
// Traces correlate with logs via internal/obslog's TraceHandler.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

// Config holds configuration for OpenTelemetry.
type Config struct {
	ServiceName    string `env:"OTEL_SERVICE_NAME" env-default:"eventpipe-worker"`
	ServiceVersion string `env:"OTEL_SERVICE_VERSION" env-default:"0.0.1"`
	Environment    string `env:"APP_ENV" env-default:"development"`
	Endpoint       string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" env-default:"localhost:4317"`

	// Disabled skips exporter setup entirely and installs a no-op tracer
	// provider. Useful for local runs and tests with no collector.
	Disabled bool `env:"OTEL_DISABLED" env-default:"false"`
}

// Init initializes the tracer provider and returns a shutdown function.
func Init(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	if cfg.Disabled {
		otel.SetTracerProvider(trace.NewNoopTracerProvider())
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(cfg.ServiceVersion),
			semconv.DeploymentEnvironmentKey.String(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: build resource: %w", err)
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp.Shutdown, nil
}

// Tracer returns the worker's tracer, scoped under its instrumentation
// name so spans are distinguishable in a multi-service trace.
func Tracer() trace.Tracer {
	return otel.Tracer("github.com/nova-stream/eventpipe")
}
