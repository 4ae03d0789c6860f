package tracing

import (
	"context"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is the tracer used by the OAuth2 engine. Until InitTracerProvider
// runs it resolves to the global (no-op) provider.
var Tracer trace.Tracer = otel.Tracer(tracerName)

const (
	defaultServiceName = "shadow-oauth"
	tracerName         = "go.pilab.hu/shadow-oauth"
)

// InitTracerProvider initializes an OpenTelemetry TracerProvider exporting to
// stdout and registers it globally. opts are applied after pretty printing,
// so stdouttrace.WithWriter can move the spans elsewhere.
func InitTracerProvider(serviceName string, opts ...stdouttrace.Option) (*sdktrace.TracerProvider, error) {
	if serviceName == "" {
		serviceName = os.Getenv("OTEL_SERVICE_NAME")
	}
	if serviceName == "" {
		serviceName = defaultServiceName
	}

	exporter, err := stdouttrace.New(append([]stdouttrace.Option{stdouttrace.WithPrettyPrint()}, opts...)...)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(semconv.ServiceNameKey.String(serviceName)),
	)
	if err != nil {
		return nil, err
	}

	// TODO: switch to TraceIDRatioBased sampling once an OTLP exporter replaces stdout.
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

	Tracer = otel.Tracer(tracerName)

	return tp, nil
}

// Start opens a span on Tracer.
func Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer.Start(ctx, name, opts...)
}
