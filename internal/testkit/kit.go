// Package testkit provides fixtures and an in-memory repository. The server
// falls back to it when no data file is configured.
package testkit

import (
	"context"
	"sync"

	"cellfade/domain/battery"
	"cellfade/ports"
)

// MemoryRepository implements ports.TestRepository over in-memory tables
type MemoryRepository struct {
	mu    sync.RWMutex
	tests []battery.TestSummary
	stats []battery.ChemistryStat
	ref   battery.KPIReference
}

var _ ports.TestRepository = (*MemoryRepository)(nil)

// NewMemoryRepository copies the given tables
func NewMemoryRepository(tests []battery.TestSummary, stats []battery.ChemistryStat, ref battery.KPIReference) *MemoryRepository {
	return &MemoryRepository{
		tests: append([]battery.TestSummary(nil), tests...),
		stats: append([]battery.ChemistryStat(nil), stats...),
		ref:   ref,
	}
}

// NewCanonicalRepository is a repository over the canonical fixtures
func NewCanonicalRepository() *MemoryRepository {
	return NewMemoryRepository(CanonicalTests(), CanonicalChemistryStats(), CanonicalKPIReference())
}

// Tests returns a copy of the test table
func (r *MemoryRepository) Tests(ctx context.Context) ([]battery.TestSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]battery.TestSummary(nil), r.tests...), nil
}

// ChemistryStats returns a copy of the reference table
func (r *MemoryRepository) ChemistryStats(ctx context.Context) ([]battery.ChemistryStat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]battery.ChemistryStat(nil), r.stats...), nil
}

// KPIReference returns the KPI reference figures
func (r *MemoryRepository) KPIReference(ctx context.Context) (battery.KPIReference, error) {
	if err := ctx.Err(); err != nil {
		return battery.KPIReference{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ref, nil
}
