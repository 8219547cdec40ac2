// Package observability provides OpenTelemetry instrumentation for the
// postforge services: tracing, and the run and AI-call metrics exposed
// over Prometheus.
package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
)

// InitMetrics wires the global OpenTelemetry meter provider to a
// Prometheus exporter so the postforge_* instruments registered by the
// pipeline are scrapeable. It returns the handler to mount at /metrics
// and a shutdown function to call on exit.
func InitMetrics() (http.Handler, func(context.Context) error, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	return promhttp.Handler(), provider.Shutdown, nil
}
