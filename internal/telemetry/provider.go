// Package telemetry exports batch and request spans over OTLP/gRPC when an
// endpoint is configured.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/unkn0wn-root/nethop/internal/errdef"
)

const instrumentationName = "github.com/unkn0wn-root/nethop"

// ShutdownFunc flushes pending spans.
type ShutdownFunc func(context.Context) error

// Setup returns a no-op tracer when cfg has no endpoint.
func Setup(ctx context.Context, cfg Config, version string) (trace.Tracer, ShutdownFunc, error) {
	if !cfg.Enabled() {
		return noop.NewTracerProvider().Tracer(instrumentationName), func(context.Context) error { return nil }, nil
	}

	exp, err := otlptrace.New(ctx, otlptracegrpc.NewClient(clientOptions(cfg)...))
	if err != nil {
		return nil, nil, errdef.Wrap(errdef.CodeTelemetry, err, "create otlp exporter")
	}
	tp := NewProvider(exp, cfg, version)
	shutdown := func(ctx context.Context) error {
		if err := tp.Shutdown(ctx); err != nil {
			return errdef.Wrap(errdef.CodeTelemetry, err, "shutdown tracer provider")
		}
		return nil
	}
	return tp.Tracer(instrumentationName), shutdown, nil
}

// NewProvider batches spans into exp under the configured service name.
func NewProvider(exp sdktrace.SpanExporter, cfg Config, version string) *sdktrace.TracerProvider {
	attrs := []attribute.KeyValue{attribute.String("service.name", cfg.ServiceName)}
	if version != "" {
		attrs = append(attrs, attribute.String("service.version", version))
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewSchemaless(attrs...)),
	)
}

func clientOptions(cfg Config) []otlptracegrpc.Option {
	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithTimeout(cfg.DialTimeout),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlptracegrpc.WithHeaders(cfg.Headers))
	}
	return opts
}
