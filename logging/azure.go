package logging

import (
	"context"
	"strconv"
	"time"

	"github.com/microsoft/ApplicationInsights-Go/appinsights"
)

// AppInsightsClient sends business events about trips and exports to
// Application Insights. A nil client drops everything.
type AppInsightsClient struct {
	client appinsights.TelemetryClient
}

// NewAppInsightsClient returns nil when instrumentationKey is empty.
// role names the service in the application map.
func NewAppInsightsClient(instrumentationKey, role string) *AppInsightsClient {
	if instrumentationKey == "" {
		return nil
	}

	config := appinsights.NewTelemetryConfiguration(instrumentationKey)
	config.MaxBatchSize = 8192
	config.MaxBatchInterval = 2 * time.Second

	client := appinsights.NewTelemetryClientFromConfig(config)
	if role != "" {
		client.Context().Tags.Cloud().SetRole(role)
	}
	return &AppInsightsClient{client: client}
}

func (c *AppInsightsClient) enabled() bool {
	return c != nil && c.client != nil
}

// TrackEvent tracks a custom event.
func (c *AppInsightsClient) TrackEvent(name string, properties map[string]string) {
	if !c.enabled() {
		return
	}
	event := appinsights.NewEventTelemetry(name)
	for k, v := range properties {
		event.Properties[k] = v
	}
	c.client.Track(event)
}

// TrackMetric tracks a custom metric.
func (c *AppInsightsClient) TrackMetric(name string, value float64) {
	if !c.enabled() {
		return
	}
	c.client.Track(appinsights.NewMetricTelemetry(name, value))
}

// TrackException tracks an error with its properties.
func (c *AppInsightsClient) TrackException(err error, properties map[string]string) {
	if !c.enabled() || err == nil {
		return
	}
	exception := appinsights.NewExceptionTelemetry(err)
	for k, v := range properties {
		exception.Properties[k] = v
	}
	c.client.Track(exception)
}

// RecordSubmission tracks a stored trip as a custom event with its
// distance and emission as metrics.
func (c *AppInsightsClient) RecordSubmission(_ context.Context, vehicle, fuel string, distanceKm, co2Kg float64) {
	c.TrackEvent("EmissionRecorded", map[string]string{
		"vehicle":     vehicle,
		"fuel":        fuel,
		"distance_km": strconv.FormatFloat(distanceKm, 'f', 2, 64),
		"emission_kg": strconv.FormatFloat(co2Kg, 'f', 2, 64),
	})
	c.TrackMetric("trip_emission_kg", co2Kg)
	c.TrackMetric("trip_distance_km", distanceKm)
}

// RecordRejection tracks a submission rejected by validation.
func (c *AppInsightsClient) RecordRejection(_ context.Context, reason string) {
	c.TrackEvent("EmissionRejected", map[string]string{"reason": reason})
}

// RecordExport tracks an export run. Failed runs are reported as exceptions.
func (c *AppInsightsClient) RecordExport(_ context.Context, rows int, err error) {
	if err != nil {
		c.TrackException(err, map[string]string{"operation": "export"})
		return
	}
	c.TrackEvent("EmissionsExported", map[string]string{"rows": strconv.Itoa(rows)})
}

// Close flushes pending telemetry and stops the channel.
func (c *AppInsightsClient) Close() {
	if !c.enabled() {
		return
	}
	c.client.Channel().Flush()
	c.client.Channel().Close()
}
