package schedule

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"postforge/internal/store"
)

// Rotation patterns for structure selection.
const (
	RotationSequential  = "sequential"
	RotationRandom      = "random"
	RotationWeighted    = "weighted"
	RotationAlternating = "alternating"
)

// StructureSelector resolves which article structure a run should use,
// honoring a schedule's fixed structure reference or rotation pattern.
type StructureSelector struct {
	structures store.StructureStore
	history    store.HistoryStore
	intn       func(n int) int // swappable for tests
}

// NewStructureSelector builds a selector over the given stores.
func NewStructureSelector(structures store.StructureStore, history store.HistoryStore) *StructureSelector {
	return &StructureSelector{
		structures: structures,
		history:    history,
		intn:       rand.Intn,
	}
}

// Select picks the structure for the next run of sched. Resolution
// order: explicit structure reference, then the rotation pattern over
// all active structures, then the site default. A nil result with nil
// error means the run proceeds without a structure.
func (s *StructureSelector) Select(ctx context.Context, sched *store.Schedule) (*store.Structure, error) {
	if sched.StructureID != nil {
		st, err := s.structures.GetStructureByID(ctx, *sched.StructureID)
		if err == nil && st.IsActive {
			return st, nil
		}
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("failed to resolve structure reference: %w", err)
		}
		// Referenced structure gone or inactive; fall through.
	}

	if sched.Rotation != "" {
		st, err := s.rotate(ctx, sched)
		if err != nil {
			return nil, err
		}
		if st != nil {
			return st, nil
		}
	}

	st, err := s.structures.GetDefaultStructure(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get default structure: %w", err)
	}
	return st, nil
}

func (s *StructureSelector) rotate(ctx context.Context, sched *store.Schedule) (*store.Structure, error) {
	active, err := s.structures.ListActiveStructures(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list structures: %w", err)
	}
	if len(active) == 0 {
		return nil, nil
	}

	completed, err := s.history.CountCompletedBySchedule(ctx, sched.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed runs: %w", err)
	}
	count := int(completed)

	switch sched.Rotation {
	case RotationSequential:
		return &active[count%len(active)], nil
	case RotationRandom:
		return &active[s.intn(len(active))], nil
	case RotationWeighted:
		return s.pickWeighted(active), nil
	case RotationAlternating:
		// Flip between the two longest-standing structures.
		if len(active) == 1 {
			return &active[0], nil
		}
		return &active[count%2], nil
	}

	return nil, nil
}

func (s *StructureSelector) pickWeighted(active []store.Structure) *store.Structure {
	total := 0
	for _, st := range active {
		total += structureWeight(st)
	}

	n := s.intn(total)
	for i, st := range active {
		n -= structureWeight(st)
		if n < 0 {
			return &active[i]
		}
	}
	return &active[len(active)-1]
}

func structureWeight(st store.Structure) int {
	if st.Weight < 1 {
		return 2
	}
	return st.Weight
}
