// Package telemetry wires OpenTelemetry tracing and metrics for the service
// and defines its HTTP, database and emission instruments.
package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// HTTPMetrics provides HTTP-related metrics.
type HTTPMetrics struct {
	requestsTotal   metric.Int64Counter
	requestDuration metric.Float64Histogram
	requestSize     metric.Int64Histogram
	responseSize    metric.Int64Histogram
	activeRequests  metric.Int64UpDownCounter
}

// NewHTTPMetrics creates HTTP metrics.
func NewHTTPMetrics(meter metric.Meter) (*HTTPMetrics, error) {
	requestsTotal, err := meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{requests}"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, err
	}

	requestSize, err := meter.Int64Histogram(
		"http_request_size_bytes",
		metric.WithDescription("HTTP request size in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	responseSize, err := meter.Int64Histogram(
		"http_response_size_bytes",
		metric.WithDescription("HTTP response size in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	activeRequests, err := meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of active HTTP requests"),
		metric.WithUnit("{requests}"),
	)
	if err != nil {
		return nil, err
	}

	return &HTTPMetrics{
		requestsTotal:   requestsTotal,
		requestDuration: requestDuration,
		requestSize:     requestSize,
		responseSize:    responseSize,
		activeRequests:  activeRequests,
	}, nil
}

// RecordRequest records HTTP request metrics.
func (m *HTTPMetrics) RecordRequest(ctx context.Context, method, route string, status int, duration time.Duration, reqSize, respSize int64) {
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status_code", status),
		attribute.String("status_class", statusClass(status)),
	)

	m.requestsTotal.Add(ctx, 1, attrs)
	m.requestDuration.Record(ctx, duration.Seconds(), attrs)
	if reqSize > 0 {
		m.requestSize.Record(ctx, reqSize, attrs)
	}
	m.responseSize.Record(ctx, respSize, attrs)
}

// IncrementActiveRequests increments active requests.
func (m *HTTPMetrics) IncrementActiveRequests(ctx context.Context) {
	m.activeRequests.Add(ctx, 1)
}

// DecrementActiveRequests decrements active requests.
func (m *HTTPMetrics) DecrementActiveRequests(ctx context.Context) {
	m.activeRequests.Add(ctx, -1)
}

func statusClass(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}

// DatabaseMetrics provides database-related metrics.
type DatabaseMetrics struct {
	operationsTotal   metric.Int64Counter
	operationDuration metric.Float64Histogram
	errorsTotal       metric.Int64Counter
}

// NewDatabaseMetrics creates database metrics.
func NewDatabaseMetrics(meter metric.Meter, dbType string) (*DatabaseMetrics, error) {
	prefix := fmt.Sprintf("db_%s", dbType)

	operationsTotal, err := meter.Int64Counter(
		prefix+"_operations_total",
		metric.WithDescription("Total database operations"),
		metric.WithUnit("{operations}"),
	)
	if err != nil {
		return nil, err
	}

	operationDuration, err := meter.Float64Histogram(
		prefix+"_operation_duration_seconds",
		metric.WithDescription("Database operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5),
	)
	if err != nil {
		return nil, err
	}

	errorsTotal, err := meter.Int64Counter(
		prefix+"_errors_total",
		metric.WithDescription("Total database errors"),
		metric.WithUnit("{errors}"),
	)
	if err != nil {
		return nil, err
	}

	return &DatabaseMetrics{
		operationsTotal:   operationsTotal,
		operationDuration: operationDuration,
		errorsTotal:       errorsTotal,
	}, nil
}

// RecordOperation records a database operation.
func (m *DatabaseMetrics) RecordOperation(ctx context.Context, operation string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("operation", operation))

	m.operationsTotal.Add(ctx, 1, attrs)
	m.operationDuration.Record(ctx, duration.Seconds(), attrs)

	if err != nil {
		m.errorsTotal.Add(ctx, 1, attrs)
	}
}

// EmissionMetrics provides business metrics of the emissions service.
type EmissionMetrics struct {
	recordsTotal    metric.Int64Counter
	rejectionsTotal metric.Int64Counter
	tripDistance    metric.Float64Histogram
	tripEmission    metric.Float64Histogram
	exportsTotal    metric.Int64Counter
	exportedRows    metric.Int64Counter
}

// NewEmissionMetrics creates business metrics.
func NewEmissionMetrics(meter metric.Meter) (*EmissionMetrics, error) {
	recordsTotal, err := meter.Int64Counter(
		"emission_records_total",
		metric.WithDescription("Total stored emission records"),
	)
	if err != nil {
		return nil, err
	}

	rejectionsTotal, err := meter.Int64Counter(
		"emission_rejections_total",
		metric.WithDescription("Total submissions rejected by validation"),
	)
	if err != nil {
		return nil, err
	}

	tripDistance, err := meter.Float64Histogram(
		"trip_distance_km",
		metric.WithDescription("Trip distance in kilometers"),
		metric.WithUnit("km"),
		metric.WithExplicitBucketBoundaries(1, 2, 5, 10, 15, 20, 30, 50, 100, 250, 500),
	)
	if err != nil {
		return nil, err
	}

	tripEmission, err := meter.Float64Histogram(
		"trip_emission_kg",
		metric.WithDescription("Trip CO2 emission in kilograms"),
		metric.WithUnit("kg"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2, 5, 10, 20, 50, 100),
	)
	if err != nil {
		return nil, err
	}

	exportsTotal, err := meter.Int64Counter(
		"emission_exports_total",
		metric.WithDescription("Total export runs"),
	)
	if err != nil {
		return nil, err
	}

	exportedRows, err := meter.Int64Counter(
		"emission_exported_rows_total",
		metric.WithDescription("Total rows written by exports"),
	)
	if err != nil {
		return nil, err
	}

	return &EmissionMetrics{
		recordsTotal:    recordsTotal,
		rejectionsTotal: rejectionsTotal,
		tripDistance:    tripDistance,
		tripEmission:    tripEmission,
		exportsTotal:    exportsTotal,
		exportedRows:    exportedRows,
	}, nil
}

// RecordSubmission records a stored trip.
func (m *EmissionMetrics) RecordSubmission(ctx context.Context, vehicle, fuel string, distanceKm, co2Kg float64) {
	attrs := metric.WithAttributes(
		attribute.String("vehicle", vehicle),
		attribute.String("fuel", fuel),
	)
	m.recordsTotal.Add(ctx, 1, attrs)
	m.tripDistance.Record(ctx, distanceKm, attrs)
	m.tripEmission.Record(ctx, co2Kg, attrs)
}

// RecordRejection records a submission rejected by validation.
func (m *EmissionMetrics) RecordRejection(ctx context.Context, reason string) {
	m.rejectionsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordExport records an export run.
func (m *EmissionMetrics) RecordExport(ctx context.Context, rows int, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.exportsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	if err == nil {
		m.exportedRows.Add(ctx, int64(rows))
	}
}

// MetricsMiddleware creates an HTTP middleware that records metrics. Requests
// are labelled by their chi route pattern so path parameters do not explode
// the label set.
func MetricsMiddleware(metrics *HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			metrics.IncrementActiveRequests(ctx)
			defer metrics.DecrementActiveRequests(ctx)

			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			metrics.RecordRequest(
				ctx,
				r.Method,
				routePattern(r),
				wrapped.status,
				time.Since(start),
				r.ContentLength,
				int64(wrapped.size),
			)
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

type responseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *responseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}
