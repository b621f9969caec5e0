// Package telemetry configures the global OpenTelemetry tracer provider.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"herms/internal/config"
)

const ServiceName = "herms"

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *zap.Logger
}

// NewTracer exports spans over OTLP/gRPC when an endpoint is configured and
// returns a no-op tracer otherwise.
func NewTracer(p Params) (trace.Tracer, error) {
	if p.Config.OTLPEndpoint == "" {
		p.Logger.Debug("tracing disabled")
		return noop.NewTracerProvider().Tracer(ServiceName), nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithEndpointURL(p.Config.OTLPEndpoint))
	if err != nil {
		cancel()
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			attribute.String("service.name", ServiceName),
		)),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			cancel()
			return provider.Shutdown(ctx)
		},
	})

	p.Logger.Info("tracing enabled", zap.String("endpoint", p.Config.OTLPEndpoint))
	return provider.Tracer(ServiceName), nil
}
