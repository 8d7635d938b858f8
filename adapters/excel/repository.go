package excel

import (
	"context"

	"cellfade/domain/battery"
	"cellfade/internal"
	"cellfade/internal/errors"
	"cellfade/ports"
)

// LoadTests reads the Tests sheet of a workbook, or a csv of tests
func LoadTests(path string) ([]battery.TestSummary, error) {
	return loadTests(NewDataReader(path))
}

func loadTests(r *DataReader) ([]battery.TestSummary, error) {
	path := r.filePath
	table, err := r.ReadTable(SheetTests)
	if err != nil {
		return nil, err
	}
	tests, err := DecodeTests(table)
	if err != nil {
		return nil, errors.Wrapf(err, "decode tests from %s", path)
	}
	return tests, nil
}

// LoadStats reads the ChemistryStats sheet of a workbook, or a csv of stats
func LoadStats(path string) ([]battery.ChemistryStat, error) {
	return loadStats(NewDataReader(path))
}

func loadStats(r *DataReader) ([]battery.ChemistryStat, error) {
	path := r.filePath
	table, err := r.ReadTable(SheetStats)
	if err != nil {
		return nil, err
	}
	stats, err := DecodeStats(table)
	if err != nil {
		return nil, errors.Wrapf(err, "decode chemistry stats from %s", path)
	}
	return stats, nil
}

// RepositoryConfig says where the tables live
type RepositoryConfig struct {
	// DataFile is an xlsx workbook or a csv of tests
	DataFile string
	// StatsFile overrides where the chemistry table is read from. When empty
	// a workbook DataFile supplies it, else FallbackStats is used.
	StatsFile     string
	FallbackStats []battery.ChemistryStat
	KPIReference  battery.KPIReference
	Logger        *internal.Logger
}

// reader opens path with the configured logger, if any
func (cfg RepositoryConfig) reader(path string) *DataReader {
	r := NewDataReader(path)
	if cfg.Logger != nil {
		r.WithLogger(cfg.Logger.With("excel"))
	}
	return r
}

// Repository is a file-backed ports.TestRepository, loaded once
type Repository struct {
	tests []battery.TestSummary
	stats []battery.ChemistryStat
	ref   battery.KPIReference
}

var _ ports.TestRepository = (*Repository)(nil)

// NewRepository loads the configured files
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if cfg.DataFile == "" {
		return nil, errors.ConfigInvalid("data file is required")
	}
	tests, err := loadTests(cfg.reader(cfg.DataFile))
	if err != nil {
		return nil, err
	}
	for _, t := range tests {
		if !t.Chemistry.Known() {
			cfg.Logger.Warn("test %s has unrecognized chemistry %q, synthesized at the fallback fade rate", t.ID, t.Chemistry)
		}
	}

	var stats []battery.ChemistryStat
	switch data := cfg.reader(cfg.DataFile); {
	case cfg.StatsFile != "":
		stats, err = loadStats(cfg.reader(cfg.StatsFile))
	case data.IsWorkbook():
		stats, err = loadStats(data)
		if errors.Is(err, errors.ErrNotFound) && cfg.FallbackStats != nil {
			stats, err = cfg.FallbackStats, nil
		}
	default:
		stats = cfg.FallbackStats
	}
	if err != nil {
		return nil, err
	}
	cfg.Logger.Info("loaded %d tests and %d chemistry rows from %s", len(tests), len(stats), cfg.DataFile)

	return &Repository{
		tests: tests,
		stats: append([]battery.ChemistryStat(nil), stats...),
		ref:   cfg.KPIReference,
	}, nil
}

// Tests returns a copy of the loaded tests
func (r *Repository) Tests(ctx context.Context) ([]battery.TestSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]battery.TestSummary(nil), r.tests...), nil
}

// ChemistryStats returns a copy of the loaded reference table
func (r *Repository) ChemistryStats(ctx context.Context) ([]battery.ChemistryStat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]battery.ChemistryStat(nil), r.stats...), nil
}

// KPIReference returns the configured KPI reference figures
func (r *Repository) KPIReference(ctx context.Context) (battery.KPIReference, error) {
	if err := ctx.Err(); err != nil {
		return battery.KPIReference{}, err
	}
	return r.ref, nil
}
