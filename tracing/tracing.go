package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Config contains tracing configuration
type Config struct {
	ServiceName string
	Endpoint    string // OTLP gRPC collector, e.g. localhost:4317
	Insecure    bool
}

// InitTracer installs a global tracer provider exporting spans over OTLP/gRPC.
// The caller must Shutdown the returned provider to flush pending spans.
func InitTracer(ctx context.Context, config Config) (*sdktrace.TracerProvider, error) {
	if config.ServiceName == "" {
		return nil, fmt.Errorf("service name is required")
	}

	opts := []otlptracegrpc.Option{}
	if config.Endpoint != "" {
		opts = append(opts, otlptracegrpc.WithEndpoint(config.Endpoint))
	}
	if config.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	return newProvider(config.ServiceName, sdktrace.WithBatcher(exporter)), nil
}

func newProvider(serviceName string, opts ...sdktrace.TracerProviderOption) *sdktrace.TracerProvider {
	res := resource.NewSchemaless(semconv.ServiceName(serviceName))

	tp := sdktrace.NewTracerProvider(append(opts, sdktrace.WithResource(res))...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp
}
