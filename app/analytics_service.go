package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"cellfade/adapters/stats/aggregate"
	"cellfade/adapters/stats/filter"
	"cellfade/adapters/stats/regression"
	"cellfade/adapters/stats/telemetry"
	"cellfade/domain/analysis"
	"cellfade/domain/battery"
	"cellfade/domain/core"
	"cellfade/internal"
	"cellfade/internal/errors"
	"cellfade/ports"
)

// streamKey namespaces synthesis streams so a seed reproduces the same
// telemetry whichever entry point asked for it
const streamKey = "synthesize"

// AnalyticsService chains filter → synthesize → aggregate/fit over a
// repository. It holds no per-request state.
type AnalyticsService struct {
	repo    ports.TestRepository
	rngPort ports.RNGPort
	logger  *internal.Logger
	workers int
}

// AnalysisRequest defines one analysis pass
type AnalysisRequest struct {
	Criteria   analysis.FilterCriteria `json:"criteria"`
	Kind       analysis.RegressionKind `json:"kind"`
	Checkpoint analysis.Checkpoint     `json:"checkpoint"`
	// Seed pins the synthesized telemetry; 0 means fresh entropy
	Seed int64 `json:"seed"`
}

// ChemistryFit is the fitted retention curve for one chemistry. When no fit
// was possible Fit is empty and ErrorCode says why.
type ChemistryFit struct {
	Series    analysis.ChemistrySeries  `json:"series"`
	Fit       analysis.RegressionResult `json:"fit"`
	RSquared  float64                   `json:"r_squared"`
	ErrorCode string                    `json:"error_code,omitempty"`
	Error     string                    `json:"error,omitempty"`
}

// RetentionDrift compares the reference table with a synthesized series
type RetentionDrift struct {
	TestID    core.TestID       `json:"test_id"`
	Chemistry battery.Chemistry `json:"chemistry"`
	Reference float64           `json:"reference"`
	Observed  float64           `json:"observed"`
}

// AnalysisReport is everything a degradation view renders
type AnalysisReport struct {
	RunID              core.RunID                    `json:"run_id"`
	Seed               int64                         `json:"seed,omitempty"`
	Criteria           analysis.FilterCriteria       `json:"criteria"`
	Series             []battery.TestSeries          `json:"series"`
	Fits               []ChemistryFit                `json:"fits"`
	Stats              []battery.ChemistryStat       `json:"stats"`
	Checkpoint         analysis.Checkpoint           `json:"checkpoint"`
	Retention          map[battery.Chemistry]float64 `json:"retention"`
	Drift              []RetentionDrift              `json:"drift,omitempty"`
	KPIs               battery.KPISummary            `json:"kpis"`
	AvgCyclesToFailure float64                       `json:"avg_cycles_to_failure"`
	RuntimeMs          int64                         `json:"runtime_ms"`
}

// FitResponse is a standalone regression with its score
type FitResponse struct {
	analysis.RegressionResult
	RSquared float64 `json:"r_squared"`
}

// DistributionResponse holds display samples around a reference value
type DistributionResponse struct {
	Chemistry battery.Chemistry            `json:"chemistry"`
	Field     aggregate.StatField          `json:"field"`
	Samples   []float64                    `json:"samples"`
	Summary   analysis.DistributionSummary `json:"summary"`
}

// NewAnalyticsService creates an analytics service. workers < 1 means 1.
func NewAnalyticsService(repo ports.TestRepository, rngPort ports.RNGPort, logger *internal.Logger, workers int) *AnalyticsService {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &AnalyticsService{
		repo:    repo,
		rngPort: rngPort,
		logger:  logger.With("analytics"),
		workers: workers,
	}
}

// Analyze runs one full pass. Per-chemistry fit failures are reported in
// the result, not as an error; only bad requests and repository failures
// return an error.
func (s *AnalyticsService) Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisReport, error) {
	start := time.Now()
	if req.Kind == "" {
		req.Kind = analysis.KindLinear
	}
	if req.Checkpoint == 0 {
		req.Checkpoint = analysis.Checkpoint500
	}

	tests, err := s.repo.Tests(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load tests")
	}
	rows, err := s.repo.ChemistryStats(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load chemistry stats")
	}
	ref, err := s.repo.KPIReference(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load KPI reference")
	}

	selectedStats := filter.Stats(rows, req.Criteria.Chemistries)
	retention, err := aggregate.RetentionAt(selectedStats, req.Checkpoint)
	if err != nil {
		return nil, err
	}

	selected := filter.Tests(tests, req.Criteria)
	runID := core.NewRunID()
	s.logger.Info("run %s: %d of %d tests match, kind=%s seed=%d", runID, len(selected), len(tests), req.Kind, req.Seed)

	series, err := s.synthesizeAll(ctx, selected, req.Seed)
	if err != nil {
		return nil, err
	}

	groups := aggregate.GroupRetention(series)
	fits := make([]ChemistryFit, len(groups))
	for i, g := range groups {
		fits[i] = s.fitGroup(g, req.Kind)
	}

	report := &AnalysisReport{
		RunID:              runID,
		Seed:               req.Seed,
		Criteria:           req.Criteria,
		Series:             series,
		Fits:               fits,
		Stats:              selectedStats,
		Checkpoint:         req.Checkpoint,
		Retention:          retention,
		Drift:              drift(series, retention, req.Checkpoint),
		KPIs:               aggregate.KPIs(selected, ref),
		AvgCyclesToFailure: aggregate.AvgCyclesToFailure(selectedStats),
	}
	report.RuntimeMs = time.Since(start).Milliseconds()
	s.logger.Debug("run %s finished in %dms", runID, report.RuntimeMs)
	return report, nil
}

func (s *AnalyticsService) fitGroup(g analysis.ChemistrySeries, kind analysis.RegressionKind) ChemistryFit {
	out := ChemistryFit{Series: g}
	res, err := regression.Fit(g.Cycles, g.Retention, kind)
	out.Fit = res
	if err != nil {
		out.ErrorCode = errors.GetCode(err)
		out.Error = err.Error()
		s.logger.Warn("%s %s fit skipped: %v", g.Chemistry, kind, err)
		return out
	}
	out.RSquared = regression.GoodnessOfFit(g.Retention, res.Y)
	return out
}

// synthesizeAll expands tests in parallel, each on its own RNG stream, and
// returns series in input order
func (s *AnalyticsService) synthesizeAll(ctx context.Context, tests []battery.TestSummary, seed int64) ([]battery.TestSeries, error) {
	out := make([]battery.TestSeries, len(tests))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, test := range tests {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ts, err := s.synthesize(ctx, test, seed)
			if err != nil {
				return err
			}
			out[i] = ts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *AnalyticsService) synthesize(ctx context.Context, test battery.TestSummary, seed int64) (battery.TestSeries, error) {
	src, err := s.rngPort.Stream(ctx, streamKey, test.ID.String(), seed)
	if err != nil {
		return battery.TestSeries{}, err
	}
	cycles, err := telemetry.Synthesize(test, src)
	if err != nil {
		return battery.TestSeries{}, errors.Wrapf(err, "synthesize %s", test.ID)
	}
	s.logger.Trace("synthesized %d cycles for %s", len(cycles), test.ID)
	return battery.TestSeries{Test: test, Cycles: cycles}, nil
}

func drift(series []battery.TestSeries, retention map[battery.Chemistry]float64, n analysis.Checkpoint) []RetentionDrift {
	var out []RetentionDrift
	for _, ts := range series {
		ref, ok := retention[ts.Test.Chemistry]
		if !ok {
			continue
		}
		observed, ok := aggregate.ObservedRetentionAt(ts.Test, ts.Cycles, n)
		if !ok {
			continue
		}
		out = append(out, RetentionDrift{
			TestID:    ts.Test.ID,
			Chemistry: ts.Test.Chemistry,
			Reference: ref,
			Observed:  observed,
		})
	}
	return out
}

// Tests lists every test in the repository
func (s *AnalyticsService) Tests(ctx context.Context) ([]battery.TestSummary, error) {
	return s.repo.Tests(ctx)
}

// FilterTests lists the tests matching criteria
func (s *AnalyticsService) FilterTests(ctx context.Context, criteria analysis.FilterCriteria) ([]battery.TestSummary, error) {
	tests, err := s.repo.Tests(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load tests")
	}
	return filter.Tests(tests, criteria), nil
}

// CycleSeries synthesizes one test's cycles
func (s *AnalyticsService) CycleSeries(ctx context.Context, id core.TestID, seed int64) (battery.TestSeries, error) {
	tests, err := s.repo.Tests(ctx)
	if err != nil {
		return battery.TestSeries{}, errors.Wrap(err, "load tests")
	}
	for _, t := range tests {
		if t.ID == id {
			return s.synthesize(ctx, t, seed)
		}
	}
	return battery.TestSeries{}, errors.NotFound(fmt.Sprintf("test %s", id))
}

// KPIs rolls up the whole repository
func (s *AnalyticsService) KPIs(ctx context.Context) (battery.KPISummary, error) {
	tests, err := s.repo.Tests(ctx)
	if err != nil {
		return battery.KPISummary{}, errors.Wrap(err, "load tests")
	}
	ref, err := s.repo.KPIReference(ctx)
	if err != nil {
		return battery.KPISummary{}, errors.Wrap(err, "load KPI reference")
	}
	return aggregate.KPIs(tests, ref), nil
}

// Retention projects checkpoint n for the given chemistries (all when empty)
func (s *AnalyticsService) Retention(ctx context.Context, n analysis.Checkpoint, chemistries []battery.Chemistry) (map[battery.Chemistry]float64, error) {
	rows, err := s.repo.ChemistryStats(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load chemistry stats")
	}
	if len(chemistries) > 0 {
		rows = filter.Stats(rows, chemistries)
	}
	return aggregate.RetentionAt(rows, n)
}

// Fit fits and scores an arbitrary series
func (s *AnalyticsService) Fit(x, y []float64, kind analysis.RegressionKind) (FitResponse, error) {
	res, err := regression.Fit(x, y, kind)
	if err != nil {
		return FitResponse{RegressionResult: res}, err
	}
	return FitResponse{RegressionResult: res, RSquared: regression.GoodnessOfFit(y, res.Y)}, nil
}

// Report summarizes a selection of test IDs
func (s *AnalyticsService) Report(ctx context.Context, ids []core.TestID) (battery.ReportSummary, error) {
	tests, err := s.repo.Tests(ctx)
	if err != nil {
		return battery.ReportSummary{}, errors.Wrap(err, "load tests")
	}
	return aggregate.Report(tests, ids), nil
}

// Distribution spreads display samples around one reference value
func (s *AnalyticsService) Distribution(ctx context.Context, chem battery.Chemistry, field aggregate.StatField, seed int64) (DistributionResponse, error) {
	rows, err := s.repo.ChemistryStats(ctx)
	if err != nil {
		return DistributionResponse{}, errors.Wrap(err, "load chemistry stats")
	}
	matched := filter.Stats(rows, []battery.Chemistry{chem})
	if len(matched) == 0 {
		return DistributionResponse{}, errors.NotFound(fmt.Sprintf("chemistry %s", chem))
	}

	src, err := s.rngPort.SeededStream(ctx, "distribution/"+string(chem)+"/"+string(field), seed)
	if err != nil {
		return DistributionResponse{}, err
	}
	samples, err := aggregate.ReferenceSamples(matched[0], field, src)
	if err != nil {
		return DistributionResponse{}, err
	}
	summary, err := aggregate.Summarize(samples)
	if err != nil {
		return DistributionResponse{}, err
	}
	return DistributionResponse{Chemistry: chem, Field: field, Samples: samples, Summary: summary}, nil
}
