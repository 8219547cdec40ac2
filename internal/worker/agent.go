// Package worker contains the polling agent that drives due schedules
// through the generation pipeline.
package worker

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ScheduleProcessor is the slice of the processor the agent drives.
type ScheduleProcessor interface {
	ProcessDue(ctx context.Context) (int, error)
}

// AgentConfig holds configuration for the worker agent.
type AgentConfig struct {
	ID           string
	PollInterval time.Duration // base tick between polls (default: 1m)
	MaxBackoff   time.Duration // cap on backoff when nothing is due (default: 5m)
}

// Agent runs the poll loop. Polling backs off exponentially while no
// schedules are due and snaps back to the base interval as soon as a
// tick finds work.
type Agent struct {
	processor ScheduleProcessor
	config    AgentConfig
	logger    *slog.Logger
	done      chan struct{}
}

// New creates a new worker agent.
func New(p ScheduleProcessor, config AgentConfig, logger *slog.Logger) *Agent {
	if config.PollInterval <= 0 {
		config.PollInterval = time.Minute
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = 5 * time.Minute
	}

	return &Agent{
		processor: p,
		config:    config,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Run starts the poll loop. It blocks until the context is cancelled;
// the tick in flight finishes before Run returns.
func (a *Agent) Run(ctx context.Context) error {
	a.logger.Info("worker agent starting",
		"agent_id", a.config.ID, "poll_interval", a.config.PollInterval)

	backoff := a.config.PollInterval
	timer := time.NewTimer(0) // immediate first tick
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("worker agent stopping")
			close(a.done)
			return ctx.Err()

		case <-timer.C:
			attempted := a.tick(ctx)

			if attempted > 0 {
				backoff = a.config.PollInterval
			} else {
				backoff *= 2
				if backoff > a.config.MaxBackoff {
					backoff = a.config.MaxBackoff
				}
			}
			timer.Reset(backoff)
		}
	}
}

// Done returns a channel that is closed when the agent has stopped.
func (a *Agent) Done() <-chan struct{} {
	return a.done
}

func (a *Agent) tick(ctx context.Context) int {
	tracer := otel.Tracer("worker-agent")
	spanCtx, span := tracer.Start(ctx, "process_due_schedules",
		trace.WithSpanKind(trace.SpanKindConsumer),
	)
	defer span.End()

	attempted, err := a.processor.ProcessDue(spanCtx)
	span.SetAttributes(attribute.Int("schedules.attempted", attempted))
	if err != nil {
		span.RecordError(err)
		a.logger.Error("schedule poll failed", "error", err)
		return attempted
	}

	if attempted > 0 {
		a.logger.Info("processed due schedules", "attempted", attempted)
	}
	return attempted
}
