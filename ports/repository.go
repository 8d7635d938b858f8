package ports

import (
	"context"

	"cellfade/domain/battery"
)

// TestRepository is the data-access layer feeding the analytics core.
// Returned slices are owned by the caller.
type TestRepository interface {
	Tests(ctx context.Context) ([]battery.TestSummary, error)
	ChemistryStats(ctx context.Context) ([]battery.ChemistryStat, error)
	KPIReference(ctx context.Context) (battery.KPIReference, error)
}
