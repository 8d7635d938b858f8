// Package aggregate reduces tests, reference statistics and cycle series to
// display figures.
package aggregate

import (
	"github.com/montanaflynn/stats"

	"cellfade/domain/analysis"
	"cellfade/domain/battery"
	"cellfade/domain/core"
	"cellfade/internal/errors"
	"cellfade/ports"
)

// KPIs counts the collection; AvgCyclesTo80 comes from the reference table
func KPIs(tests []battery.TestSummary, ref battery.KPIReference) battery.KPISummary {
	kpi := battery.KPISummary{
		TotalCells:    len(tests),
		AvgCyclesTo80: ref.AvgCyclesTo80,
	}
	for _, t := range tests {
		switch t.Status {
		case battery.StatusActive:
			kpi.TestsInProgress++
		case battery.StatusCompleted:
			kpi.CompletedTests++
		}
	}
	return kpi
}

// RetentionAt projects the retention column for checkpoint n from each row.
// Only 500, 1000 and 2000 are recorded; anything else is InvalidArgument.
func RetentionAt(rows []battery.ChemistryStat, n analysis.Checkpoint) (map[battery.Chemistry]float64, error) {
	if !n.Supported() {
		return nil, errors.InvalidArgument("retention checkpoint %d not recorded (want 500, 1000 or 2000)", n)
	}
	out := make(map[battery.Chemistry]float64, len(rows))
	for _, s := range rows {
		out[s.Chemistry] = retentionField(s, n)
	}
	return out, nil
}

func retentionField(s battery.ChemistryStat, n analysis.Checkpoint) float64 {
	switch n {
	case analysis.Checkpoint500:
		return s.CapacityRetention500
	case analysis.Checkpoint1000:
		return s.CapacityRetention1000
	default:
		return s.CapacityRetention2000
	}
}

// AvgCyclesToFailure is the mean over the given rows, 0 when empty
func AvgCyclesToFailure(rows []battery.ChemistryStat) float64 {
	values := make([]float64, len(rows))
	for i, s := range rows {
		values[i] = s.AvgCyclesToFailure
	}
	mean, err := stats.Mean(values)
	if err != nil {
		return 0
	}
	return mean
}

// Report summarizes the tests whose IDs are in ids. Unknown IDs are listed
// in Missing and otherwise ignored.
func Report(tests []battery.TestSummary, ids []core.TestID) battery.ReportSummary {
	byID := make(map[core.TestID]battery.TestSummary, len(tests))
	for _, t := range tests {
		byID[t.ID] = t
	}

	var summary battery.ReportSummary
	seen := make(map[core.TestID]bool, len(ids))
	chemistries := make(map[battery.Chemistry]struct{})
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		t, ok := byID[id]
		if !ok {
			summary.Missing = append(summary.Missing, id)
			continue
		}
		summary.SelectedTests++
		chemistries[t.Chemistry] = struct{}{}
		if t.Status == battery.StatusActive {
			summary.ActiveTests++
		}
		summary.TotalCycles += t.CurrentCycle
	}
	summary.Chemistries = len(chemistries)
	return summary
}

// GroupRetention concatenates each chemistry's cycles and retention
// percentages across its tests. Groups appear in first-seen order.
func GroupRetention(series []battery.TestSeries) []analysis.ChemistrySeries {
	index := make(map[battery.Chemistry]int)
	var out []analysis.ChemistrySeries
	for _, ts := range series {
		i, ok := index[ts.Test.Chemistry]
		if !ok {
			i = len(out)
			index[ts.Test.Chemistry] = i
			out = append(out, analysis.ChemistrySeries{Chemistry: ts.Test.Chemistry})
		}
		g := &out[i]
		g.Tests++
		for _, c := range ts.Cycles {
			g.Cycles = append(g.Cycles, float64(c.Cycle))
			g.Retention = append(g.Retention, retention(c.Capacity, ts.Test.InitialCapacity))
		}
	}
	return out
}

// ObservedRetentionAt reads retention % off a synthesized series at cycle n.
// ok is false when the series never reached n.
func ObservedRetentionAt(test battery.TestSummary, samples []battery.CycleSample, n analysis.Checkpoint) (float64, bool) {
	for _, s := range samples {
		if s.Cycle == int(n) {
			return retention(s.Capacity, test.InitialCapacity), true
		}
		if s.Cycle > int(n) {
			break
		}
	}
	return 0, false
}

func retention(capacity, initial float64) float64 {
	if initial <= 0 {
		return 0
	}
	return capacity / initial * 100
}

// SpreadSamples draws n values uniformly from [center-width/2, center+width/2)
func SpreadSamples(center, width float64, n int, src ports.RandomSource) []float64 {
	if n <= 0 {
		return []float64{}
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = center + (src.Float64()-0.5)*width
	}
	return out
}

// Summarize computes a five-number summary plus mean and population std-dev
func Summarize(samples []float64) (analysis.DistributionSummary, error) {
	if len(samples) == 0 {
		return analysis.DistributionSummary{}, errors.InsufficientData("no samples to summarize")
	}

	summary := analysis.DistributionSummary{Count: len(samples)}
	summary.Min, _ = stats.Min(samples)
	summary.Max, _ = stats.Max(samples)
	summary.Mean, _ = stats.Mean(samples)
	summary.StdDev, _ = stats.StandardDeviation(samples)
	summary.Median, _ = stats.Median(samples)

	// Quartile leaves Q1/Q3 undefined below two samples
	if len(samples) < 2 {
		summary.Q1, summary.Q3 = summary.Median, summary.Median
		return summary, nil
	}
	q, err := stats.Quartile(samples)
	if err != nil {
		return analysis.DistributionSummary{}, errors.Wrap(err, "quartiles")
	}
	summary.Q1, summary.Q3 = q.Q1, q.Q3
	return summary, nil
}
