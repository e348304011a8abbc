package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const defaultServiceName = "mtbi-batch"

type Configuration struct {
	Endpoint    string `validate:"omitempty,url"`
	ServiceName string `yaml:"service-name"`
}

// Setup installs the global tracer provider. Tracing is disabled when no
// endpoint is configured. The returned function flushes pending spans.
func Setup(ctx context.Context, config Configuration) (func(context.Context) error, error) {
	if config.Endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(config.Endpoint))
	if err != nil {
		return nil, fmt.Errorf("fail to create the otlp exporter: %w", err)
	}
	serviceName := config.ServiceName
	if serviceName == "" {
		serviceName = defaultServiceName
	}
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", serviceName))),
	)
	otel.SetTracerProvider(provider)
	return provider.Shutdown, nil
}
