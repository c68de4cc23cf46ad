// Package observe bootstraps OpenTelemetry tracing and metrics, and provides
// the instrumented transport used for outbound ESPN API calls.
package observe

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-logr/zerologr"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/gridiron-hq/fantasy-bridge/internal/config"
)

// Configure sets up trace and metric providers per configuration, returning a
// shutdown function that flushes both. When telemetry is disabled the
// returned shutdown is a no-op.
func Configure(ctx context.Context, cfg config.ObserveConfig) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	// Route OTel SDK diagnostics into the zerolog-based diagnostic channel.
	otel.SetLogger(zerologr.New(&log.Logger))
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		log.Warn().Err(err).Msg("otel error")
	}))

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry resource configuration failed: %w", err)
	}

	traceExporter, err := newTraceExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(
			traceExporter,
			sdktrace.WithBatchTimeout(time.Duration(cfg.TraceBatchTimeoutSeconds)*time.Second),
		),
	)
	otel.SetTracerProvider(tracerProvider)

	shutdown := func(ctx context.Context) error {
		return tracerProvider.Shutdown(ctx)
	}

	if cfg.MetricsEnabled {
		metricReader, err := newMetricReader(ctx, cfg)
		if err != nil {
			return nil, err
		}

		meterProvider := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(metricReader),
		)
		otel.SetMeterProvider(meterProvider)

		tracerShutdown := shutdown
		shutdown = func(ctx context.Context) error {
			traceErr := tracerShutdown(ctx)
			if err := meterProvider.Shutdown(ctx); err != nil {
				return err
			}
			return traceErr
		}
	}

	return shutdown, nil
}

// HTTPTransport wraps the supplied transport with OTel instrumentation when
// enabled, otherwise returns it unchanged.
func HTTPTransport(wrapped http.RoundTripper, cfg config.ObserveConfig) http.RoundTripper {
	if !cfg.Enabled || !cfg.HTTPTransportEnabled {
		return wrapped
	}
	return otelhttp.NewTransport(wrapped)
}

func newTraceExporter(ctx context.Context, cfg config.ObserveConfig) (sdktrace.SpanExporter, error) {
	switch cfg.Type {
	case "grpc":
		return otlptracegrpc.New(ctx)
	case "stdout":
		// stdout here is the diagnostic stream: the MCP transport owns the
		// real stdout, so traces go to stderr.
		return stdouttrace.New(stdouttrace.WithWriter(os.Stderr))
	default:
		return nil, fmt.Errorf("unknown observe type: %q", cfg.Type)
	}
}

func newMetricReader(ctx context.Context, cfg config.ObserveConfig) (sdkmetric.Reader, error) {
	interval := sdkmetric.WithInterval(time.Duration(cfg.MetricReadIntervalSeconds) * time.Second)

	switch cfg.Type {
	case "grpc":
		exporter, err := otlpmetricgrpc.New(ctx)
		if err != nil {
			return nil, err
		}
		return sdkmetric.NewPeriodicReader(exporter, interval), nil
	case "stdout":
		exporter, err := stdoutmetric.New(stdoutmetric.WithWriter(os.Stderr))
		if err != nil {
			return nil, err
		}
		return sdkmetric.NewPeriodicReader(exporter, interval), nil
	default:
		return nil, fmt.Errorf("unknown observe type: %q", cfg.Type)
	}
}
