// Package tracing wires OpenTelemetry spans for the step loop.
//
// Without InitTracer the global no-op provider is used and spans cost nothing.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of every span started here.
const TracerName = "sgr-base-agent"

// OTelConfig configures the OTLP/HTTP exporter.
type OTelConfig struct {
	ServiceName    string
	ExportEndpoint string
	Insecure       bool
}

// InitTracer installs a batching OTLP tracer provider as the global provider.
// Callers must Shutdown the returned provider on exit.
func InitTracer(ctx context.Context, config OTelConfig) (*sdktrace.TracerProvider, error) {
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(config.ExportEndpoint),
	}
	if config.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptrace.New(ctx, otlptracehttp.NewClient(opts...))
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(config.ServiceName),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	return tp, nil
}

// StartStepSpan starts the span covering one orchestrator step.
func StartStepSpan(ctx context.Context, sessionID string) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, "orchestrator.RunStep",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
		),
	)
}

// StartGenerateSpan starts the span covering one gateway call, across all its attempts.
func StartGenerateSpan(ctx context.Context, schema, model string) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, "gateway.Generate",
		trace.WithAttributes(
			attribute.String("sgr.schema", schema),
			attribute.String("llm.model", model),
		),
	)
}

// StartToolSpan starts the span covering one service invocation.
func StartToolSpan(ctx context.Context, tool string) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, "service.Invoke",
		trace.WithAttributes(
			attribute.String("sgr.tool", tool),
		),
	)
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
