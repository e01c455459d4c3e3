package infrastructure

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	// ServiceName identifies this binary in trace output.
	ServiceName = "trade-report"
	// ServiceVersion is stamped into the trace resource.
	ServiceVersion = "1.0.0"
)

// Tracing holds the tracer provider and the tracer used for stage spans.
type Tracing struct {
	provider *sdktrace.TracerProvider
	Tracer   trace.Tracer
}

// InitializeTracing sets up an OpenTelemetry tracer that exports spans to
// stdout. When enabled is false a no-op tracer is returned so callers never
// branch on tracing availability.
func InitializeTracing(enabled bool, logger *slog.Logger) (*Tracing, error) {
	if !enabled {
		return &Tracing{Tracer: otel.Tracer(ServiceName)}, nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("create stdout trace exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(ServiceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("create trace resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	logger.Info("tracing initialized",
		slog.String("service", ServiceName),
		slog.String("exporter", "stdout"))

	return &Tracing{
		provider: provider,
		Tracer:   provider.Tracer(ServiceName),
	}, nil
}

// Shutdown flushes pending spans. Safe to call on a disabled Tracing.
func (t *Tracing) Shutdown(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}

// Stage runs fn inside a span named after the pipeline stage, recording the
// error status on failure. Row counts and similar facts are attached by the
// stage itself through the returned context's span.
func (t *Tracing) Stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := t.Tracer.Start(ctx, name,
		trace.WithAttributes(attribute.String("pipeline.stage", name)))
	defer span.End()

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}
