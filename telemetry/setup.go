package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const defaultMetricInterval = 60 * time.Second

// Config selects where telemetry goes. Application Insights wins over a
// plain OTLP endpoint; with neither, instruments are no-ops.
type Config struct {
	ServiceName                 string
	ServiceVersion              string
	Environment                 string
	AppInsightsConnectionString string
	OTLPEndpoint                string
	OTLPInsecure                bool
	// SampleRate is the fraction of root traces kept. Zero keeps all.
	SampleRate     float64
	MetricInterval time.Duration
}

// Telemetry bundles the tracer and instruments used by the service.
type Telemetry struct {
	Tracer   trace.Tracer
	HTTP     *HTTPMetrics
	Emission *EmissionMetrics
	Database *DatabaseMetrics

	shutdown []func(context.Context) error
}

// Setup creates the exporters named by cfg, installs the global providers and
// builds the service instruments.
func Setup(ctx context.Context, cfg Config) (*Telemetry, error) {
	spans, metrics, err := exporters(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if spans == nil {
		return newTelemetry(tracenoop.NewTracerProvider().Tracer(cfg.ServiceName), metricnoop.NewMeterProvider().Meter(cfg.ServiceName))
	}

	res, err := resource.New(ctx, resource.WithAttributes(resourceAttributes(cfg)...))
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to create resource: %w", err), spans.Shutdown(ctx), metrics.Shutdown(ctx))
	}

	rate := cfg.SampleRate
	if rate == 0 {
		rate = 1
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(spans),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(rate)),
	)

	interval := cfg.MetricInterval
	if interval <= 0 {
		interval = defaultMetricInterval
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metrics, sdkmetric.WithInterval(interval))),
	)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	t, err := newTelemetry(tp.Tracer(cfg.ServiceName), mp.Meter(cfg.ServiceName))
	if err != nil {
		return nil, errors.Join(err, tp.Shutdown(ctx), mp.Shutdown(ctx))
	}
	t.shutdown = []func(context.Context) error{tp.Shutdown, mp.Shutdown}
	return t, nil
}

// exporters returns nil exporters when no destination is configured.
func exporters(ctx context.Context, cfg Config) (sdktrace.SpanExporter, sdkmetric.Exporter, error) {
	switch {
	case cfg.AppInsightsConnectionString != "":
		return azureExporters(ctx, cfg.AppInsightsConnectionString)
	case cfg.OTLPEndpoint != "":
		return otlpExporters(ctx, cfg.OTLPEndpoint, cfg.OTLPInsecure)
	default:
		return nil, nil, nil
	}
}

func otlpExporters(ctx context.Context, endpoint string, insecure bool) (sdktrace.SpanExporter, sdkmetric.Exporter, error) {
	traceOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
	metricOpts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(endpoint)}
	if insecure {
		traceOpts = append(traceOpts, otlptracehttp.WithInsecure())
		metricOpts = append(metricOpts, otlpmetrichttp.WithInsecure())
	}

	spans, err := otlptracehttp.New(ctx, traceOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	metrics, err := otlpmetrichttp.New(ctx, metricOpts...)
	if err != nil {
		_ = spans.Shutdown(ctx)
		return nil, nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}
	return spans, metrics, nil
}

func resourceAttributes(cfg Config) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		attribute.String("environment", cfg.Environment),
	}
	if cfg.AppInsightsConnectionString != "" {
		attrs = append(attrs, cloudRoleAttributes(cfg.ServiceName)...)
	}
	return attrs
}

// NewNop returns telemetry that records nothing.
func NewNop() *Telemetry {
	t, err := newTelemetry(tracenoop.NewTracerProvider().Tracer(""), metricnoop.NewMeterProvider().Meter(""))
	if err != nil {
		// Noop instruments never fail to register.
		panic(err)
	}
	return t
}

func newTelemetry(tracer trace.Tracer, meter metric.Meter) (*Telemetry, error) {
	httpMetrics, err := NewHTTPMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP metrics: %w", err)
	}
	emissionMetrics, err := NewEmissionMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create emission metrics: %w", err)
	}
	dbMetrics, err := NewDatabaseMetrics(meter, "postgres")
	if err != nil {
		return nil, fmt.Errorf("failed to create database metrics: %w", err)
	}

	return &Telemetry{
		Tracer:   tracer,
		HTTP:     httpMetrics,
		Emission: emissionMetrics,
		Database: dbMetrics,
	}, nil
}

// Shutdown flushes and stops every provider.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	for _, fn := range t.shutdown {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
