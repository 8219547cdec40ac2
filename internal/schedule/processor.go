package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"postforge/internal/store"

	"github.com/google/uuid"
)

// DefaultBatchSize caps how many due schedules one tick processes.
const DefaultBatchSize = 5

// onceClaimGrace is how far a one-time schedule's next_run is pushed
// when claimed. The schedule is deleted on success; the grace window
// only matters if the worker dies mid-run, in which case the schedule
// becomes claimable again.
const onceClaimGrace = time.Hour

// RunRequest carries everything the generation pipeline needs for one run.
type RunRequest struct {
	RunType   string // "scheduled" or "manual"
	Schedule  *store.Schedule
	Template  *store.Template
	Structure *store.Structure
}

// RunResult reports the outcome of a generation run.
type RunResult struct {
	HistoryID  int64
	ArtifactID string
}

// Runner executes a single generation run end to end.
type Runner interface {
	Run(ctx context.Context, req RunRequest) (RunResult, error)
}

// ProcessorStore is the persistence surface the processor needs.
type ProcessorStore interface {
	store.ScheduleStore
	store.TemplateStore
	store.StructureStore
	store.HistoryStore
}

// Processor polls for due schedules and drives them through the
// generation pipeline. Claiming a schedule advances its next_run with
// a compare-and-set, so any number of workers can poll the same table
// without double-running a schedule.
type Processor struct {
	store     ProcessorStore
	selector  *StructureSelector
	runner    Runner
	logger    *slog.Logger
	batchSize int
	now       func() time.Time
}

// NewProcessor builds a processor. batchSize <= 0 uses DefaultBatchSize.
func NewProcessor(st ProcessorStore, runner Runner, logger *slog.Logger, batchSize int) *Processor {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Processor{
		store:     st,
		selector:  NewStructureSelector(st, st),
		runner:    runner,
		logger:    logger,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// ProcessDue claims and runs every due schedule in the current batch.
// Each schedule is processed in isolation; one failure never blocks
// the rest of the batch. Returns the number of runs attempted.
func (p *Processor) ProcessDue(ctx context.Context) (int, error) {
	now := p.now()

	due, err := p.store.ListDueSchedules(ctx, now, p.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list due schedules: %w", err)
	}

	attempted := 0
	for i := range due {
		if ctx.Err() != nil {
			return attempted, ctx.Err()
		}

		sched := &due[i]
		claimed, err := p.claim(ctx, sched, now)
		if err != nil {
			p.logger.Error("failed to claim schedule", "schedule_id", sched.ID, "error", err)
			continue
		}
		if !claimed {
			p.logger.Debug("schedule claimed by another worker", "schedule_id", sched.ID)
			continue
		}

		attempted++
		p.runOne(ctx, sched, now)
	}

	return attempted, nil
}

// claim advances the schedule's next_run before any work happens. The
// compare against the previously read value is the lock: losing the
// race means another worker owns this slot.
func (p *Processor) claim(ctx context.Context, sched *store.Schedule, now time.Time) (bool, error) {
	next, err := p.nextRun(sched, now)
	if err != nil {
		p.logger.Warn("rule window exhausted, deferring schedule",
			"schedule_id", sched.ID, "next_run", next)
	}
	return p.store.ClaimSchedule(ctx, sched.ID, sched.NextRun, next)
}

// nextRun computes the claim target for a schedule.
func (p *Processor) nextRun(sched *store.Schedule, now time.Time) (time.Time, error) {
	freq := Frequency(sched.Frequency)

	if freq == FreqOnce {
		return now.Add(onceClaimGrace), nil
	}

	if freq == FreqCustom {
		rules, err := ParseRules(sched.Rules)
		if err != nil {
			// Unparseable rules cannot stall the schedule.
			return now.AddDate(0, 0, 1), nil
		}
		return NextRuleRun(rules, now.Add(time.Minute))
	}

	return CalculateNextRun(freq, sched.NextRun, now), nil
}

// runOne executes a claimed schedule and performs post-run bookkeeping.
// A panic in the pipeline is contained here so the batch survives.
func (p *Processor) runOne(ctx context.Context, sched *store.Schedule, now time.Time) {
	log := p.logger.With("schedule_id", sched.ID, "frequency", sched.Frequency)

	defer func() {
		if r := recover(); r != nil {
			log.Error("generation run panicked", "panic", r)
			p.finish(ctx, sched, now, false)
		}
	}()

	result, err := p.execute(ctx, sched, "scheduled")
	if err != nil {
		log.Error("generation run failed", "error", err)
		p.finish(ctx, sched, now, false)
		return
	}

	log.Info("generation run completed",
		"history_id", result.HistoryID, "artifact_id", result.ArtifactID)
	p.finish(ctx, sched, now, true)
}

// execute resolves the template and structure and hands off to the runner.
func (p *Processor) execute(ctx context.Context, sched *store.Schedule, runType string) (RunResult, error) {
	tmpl, err := p.store.GetTemplateByID(ctx, sched.TemplateID)
	if err != nil {
		return RunResult{}, fmt.Errorf("failed to load template %s: %w", sched.TemplateID, err)
	}

	structure, err := p.selector.Select(ctx, sched)
	if err != nil {
		// Structure is an enhancement, not a requirement.
		p.logger.Warn("structure selection failed", "schedule_id", sched.ID, "error", err)
		structure = nil
	}

	return p.runner.Run(ctx, RunRequest{
		RunType:   runType,
		Schedule:  sched,
		Template:  tmpl,
		Structure: structure,
	})
}

// finish applies the post-run lifecycle. One-time schedules are
// deleted on success and deactivated as failed otherwise. Recurring
// schedules only record last_run; their next_run was already advanced
// at claim time.
func (p *Processor) finish(ctx context.Context, sched *store.Schedule, now time.Time, success bool) {
	if Frequency(sched.Frequency) == FreqOnce {
		if success {
			if err := p.store.DeleteSchedule(ctx, sched.ID); err != nil {
				p.logger.Error("failed to delete one-time schedule", "schedule_id", sched.ID, "error", err)
			}
			return
		}
		if err := p.store.DeactivateSchedule(ctx, sched.ID, store.ScheduleStatusFailed, now); err != nil {
			p.logger.Error("failed to deactivate one-time schedule", "schedule_id", sched.ID, "error", err)
		}
		return
	}

	if err := p.store.UpdateLastRun(ctx, sched.ID, now); err != nil {
		p.logger.Error("failed to record last run", "schedule_id", sched.ID, "error", err)
	}
}

// RunNow triggers an immediate manual run of a schedule, bypassing the
// claim protocol and lifecycle bookkeeping. The regular cadence is
// untouched: next_run stays where the scheduler left it.
func (p *Processor) RunNow(ctx context.Context, scheduleID uuid.UUID) (RunResult, error) {
	sched, err := p.store.GetScheduleByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return RunResult{}, err
		}
		return RunResult{}, fmt.Errorf("failed to load schedule %s: %w", scheduleID, err)
	}

	return p.execute(ctx, sched, "manual")
}
