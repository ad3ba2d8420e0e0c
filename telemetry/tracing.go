package telemetry

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

func sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1.0:
		return sdktrace.AlwaysSample()
	case rate <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
	}
}

// SetSpanAttributes sets attributes on the current span.
func SetSpanAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).SetAttributes(attrs...)
}

// DatabaseAttributes returns common database span attributes.
func DatabaseAttributes(dbType, operation, table string) []attribute.KeyValue {
	return []attribute.KeyValue{
		semconv.DBSystemKey.String(dbType),
		semconv.DBOperation(operation),
		semconv.DBSQLTable(table),
	}
}

// MessagingAttributes returns common messaging span attributes.
func MessagingAttributes(system, destination, operation string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("messaging.system", system),
		semconv.MessagingDestinationName(destination),
		attribute.String("messaging.operation.name", operation),
	}
}

// EmissionAttributes describes a recorded trip.
func EmissionAttributes(vehicle, fuel string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("emission.vehicle", vehicle),
		attribute.String("emission.fuel", fuel),
	}
}

// TracingMiddleware starts a server span per request, continuing any trace
// propagated by the caller. The span is renamed to the chi route once the
// router has matched it.
func TracingMiddleware(tracer trace.Tracer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPMethod(r.Method),
					semconv.HTTPURL(r.URL.String()),
					attribute.String("client.address", r.RemoteAddr),
					semconv.UserAgentOriginal(r.UserAgent()),
				),
			)
			defer span.End()

			wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			r = r.WithContext(ctx)
			next.ServeHTTP(wrapped, r)

			route := routePattern(r)
			span.SetName(r.Method + " " + route)
			span.SetAttributes(semconv.HTTPStatusCode(wrapped.status), semconv.HTTPRoute(route))
			if wrapped.status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(wrapped.status))
			}
		})
	}
}

// WrapDatabaseOperation runs fn inside a client span named "<operation> <table>".
func WrapDatabaseOperation(ctx context.Context, tracer trace.Tracer, dbType, operation, table string, fn func(context.Context) error) error {
	return inSpan(ctx, tracer, operation+" "+table, trace.SpanKindClient, DatabaseAttributes(dbType, operation, table), fn)
}

// WrapMessagingOperation runs fn inside a producer span named "<operation> <destination>".
func WrapMessagingOperation(ctx context.Context, tracer trace.Tracer, system, destination, operation string, fn func(context.Context) error) error {
	return inSpan(ctx, tracer, operation+" "+destination, trace.SpanKindProducer, MessagingAttributes(system, destination, operation), fn)
}

func inSpan(ctx context.Context, tracer trace.Tracer, name string, kind trace.SpanKind, attrs []attribute.KeyValue, fn func(context.Context) error) error {
	ctx, span := tracer.Start(ctx, name, trace.WithSpanKind(kind), trace.WithAttributes(attrs...))
	defer span.End()

	err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
