package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Endpoint is one OTLP collector address. GrpcEndpoint wins when both are set.
type Endpoint struct {
	GrpcEndpoint string            `json:"grpc_endpoint,omitempty"`
	HttpEndpoint string            `json:"http_endpoint,omitempty"`
	Headers      map[string]string `json:"headers,omitempty"`
}

func (e Endpoint) empty() bool {
	return e.GrpcEndpoint == "" && e.HttpEndpoint == ""
}

// Config selects where traces and metrics go. An empty endpoint leaves that
// signal on the global no-op provider.
type Config struct {
	Traces  Endpoint `json:"traces"`
	Metrics Endpoint `json:"metrics"`
}

// Enabled reports whether any exporter is configured.
func (c Config) Enabled() bool {
	return !c.Traces.empty() || !c.Metrics.empty()
}

// WithEnv fills empty endpoints from OTEL_EXPORTER_OTLP_ENDPOINT.
func (c Config) WithEnv() Config {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		return c
	}
	if c.Traces.empty() {
		c.Traces.HttpEndpoint = endpoint
	}
	if c.Metrics.empty() {
		c.Metrics.HttpEndpoint = endpoint
	}
	return c
}

// Telemetry owns the installed providers.
type Telemetry struct {
	TracerProvider *trace.TracerProvider
	MeterProvider  *metric.MeterProvider
}

// Shutdown flushes and stops every installed provider.
func (t Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.TracerProvider != nil {
		errs = append(errs, t.TracerProvider.Shutdown(ctx))
	}
	if t.MeterProvider != nil {
		errs = append(errs, t.MeterProvider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// Setup installs OTLP providers for the configured signals.
func Setup(ctx context.Context, serviceName string, config Config) (Telemetry, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	var tel Telemetry
	if !config.Enabled() {
		return tel, nil
	}

	r, err := newResource(serviceName)
	if err != nil {
		return tel, err
	}

	if !config.Traces.empty() {
		exporter, err := traceExporter(ctx, config.Traces)
		if err != nil {
			return tel, err
		}
		tel.TracerProvider = trace.NewTracerProvider(
			trace.WithBatcher(exporter),
			trace.WithResource(r),
		)
		otel.SetTracerProvider(tel.TracerProvider)
	}

	if !config.Metrics.empty() {
		exporter, err := metricExporter(ctx, config.Metrics)
		if err != nil {
			return tel, errors.Join(err, tel.Shutdown(ctx))
		}
		tel.MeterProvider = metric.NewMeterProvider(
			metric.WithReader(metric.NewPeriodicReader(exporter, metric.WithInterval(5*time.Second))),
			metric.WithResource(r),
		)
		otel.SetMeterProvider(tel.MeterProvider)
	}
	return tel, nil
}

func newResource(serviceName string) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
}

func traceExporter(ctx context.Context, e Endpoint) (trace.SpanExporter, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if e.GrpcEndpoint != "" {
		slog.Debug("tracer exporter initialized", "type", "grpc", "endpoint", e.GrpcEndpoint)
		return otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpointURL(e.GrpcEndpoint),
			otlptracegrpc.WithHeaders(e.Headers),
		)
	}
	slog.Debug("tracer exporter initialized", "type", "http", "endpoint", e.HttpEndpoint)
	return otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(e.HttpEndpoint),
		otlptracehttp.WithHeaders(e.Headers),
	)
}

func metricExporter(ctx context.Context, e Endpoint) (metric.Exporter, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if e.GrpcEndpoint != "" {
		slog.Debug("metric exporter initialized", "type", "grpc", "endpoint", e.GrpcEndpoint)
		return otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpointURL(e.GrpcEndpoint),
			otlpmetricgrpc.WithHeaders(e.Headers),
		)
	}
	slog.Debug("metric exporter initialized", "type", "http", "endpoint", e.HttpEndpoint)
	return otlpmetrichttp.New(ctx,
		otlpmetrichttp.WithEndpointURL(e.HttpEndpoint),
		otlpmetrichttp.WithHeaders(e.Headers),
	)
}
