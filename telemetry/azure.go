package telemetry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// defaultIngestionEndpoint is the global Application Insights endpoint, used
// when the connection string names none.
const defaultIngestionEndpoint = "https://dc.services.visualstudio.com"

// parseConnectionString parses an Azure Application Insights connection string.
// Format: InstrumentationKey=xxx;IngestionEndpoint=https://xxx.in.applicationinsights.azure.com/
func parseConnectionString(connStr string) (instrumentationKey, ingestionEndpoint string) {
	for _, part := range strings.Split(connStr, ";") {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "InstrumentationKey":
			instrumentationKey = strings.TrimSpace(value)
		case "IngestionEndpoint":
			ingestionEndpoint = strings.TrimSuffix(strings.TrimSpace(value), "/")
		}
	}
	return instrumentationKey, ingestionEndpoint
}

// azureExporters returns OTLP exporters pointed at the ingestion endpoint of
// an Application Insights resource.
func azureExporters(ctx context.Context, connStr string) (sdktrace.SpanExporter, sdkmetric.Exporter, error) {
	key, endpoint := parseConnectionString(connStr)
	if key == "" {
		return nil, nil, errors.New("missing InstrumentationKey in connection string")
	}
	if endpoint == "" {
		endpoint = defaultIngestionEndpoint
	}

	host := hostOf(endpoint)
	headers := map[string]string{"x-ms-instrumentation-key": key}

	spans, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(host),
		otlptracehttp.WithURLPath("/v2/track"),
		otlptracehttp.WithHeaders(headers),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	metrics, err := otlpmetrichttp.New(ctx,
		otlpmetrichttp.WithEndpoint(host),
		otlpmetrichttp.WithHeaders(headers),
	)
	if err != nil {
		_ = spans.Shutdown(ctx)
		return nil, nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	return spans, metrics, nil
}

func hostOf(endpoint string) string {
	return strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "http://")
}

// cloudRoleAttributes name the service in the Application Insights
// application map.
func cloudRoleAttributes(serviceName string) []attribute.KeyValue {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return []attribute.KeyValue{
		attribute.String("ai.cloud.role", serviceName),
		attribute.String("ai.cloud.roleInstance", hostname),
	}
}
