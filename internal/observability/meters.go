package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RunMetrics holds the instruments for the generation pipeline.
type RunMetrics struct {
	runsTotal   metric.Int64Counter
	runDuration metric.Float64Histogram
	aiCalls     metric.Int64Counter
}

// NewRunMetrics registers the pipeline instruments on the global meter.
func NewRunMetrics() (*RunMetrics, error) {
	meter := otel.Meter("postforge")

	runsTotal, err := meter.Int64Counter("postforge_runs_total",
		metric.WithDescription("Completed generation runs by outcome"))
	if err != nil {
		return nil, fmt.Errorf("failed to create runs counter: %w", err)
	}

	runDuration, err := meter.Float64Histogram("postforge_run_duration_seconds",
		metric.WithDescription("Wall time of a generation run"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	aiCalls, err := meter.Int64Counter("postforge_ai_calls_total",
		metric.WithDescription("Outbound AI calls by result"))
	if err != nil {
		return nil, fmt.Errorf("failed to create ai calls counter: %w", err)
	}

	return &RunMetrics{
		runsTotal:   runsTotal,
		runDuration: runDuration,
		aiCalls:     aiCalls,
	}, nil
}

// ObserveRun records one finished run.
func (m *RunMetrics) ObserveRun(ctx context.Context, runType string, success bool, elapsed time.Duration) {
	outcome := "completed"
	if !success {
		outcome = "failed"
	}
	attrs := metric.WithAttributes(
		attribute.String("run_type", runType),
		attribute.String("outcome", outcome),
	)
	m.runsTotal.Add(ctx, 1, attrs)
	m.runDuration.Record(ctx, elapsed.Seconds(), attrs)
}

// ObserveAICall records one outbound model call.
func (m *RunMetrics) ObserveAICall(ctx context.Context, kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.aiCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("result", result),
	))
}
