// Package battery holds the records a cycling lab produces: one TestSummary
// per cell under test, the per-cycle samples expanded from it, and the
// per-chemistry reference statistics shown alongside them.
package battery

import (
	"strings"
	"time"

	"cellfade/domain/core"
)

// Chemistry is the electrochemical cell type
type Chemistry string

const (
	ChemistryNMC Chemistry = "NMC"
	ChemistryLFP Chemistry = "LFP"
	ChemistryLCO Chemistry = "LCO"
	ChemistryNCA Chemistry = "NCA"
)

// Chemistries lists the known chemistries in display order
var Chemistries = []Chemistry{ChemistryNMC, ChemistryLFP, ChemistryLCO, ChemistryNCA}

// ParseChemistry normalizes a label. Unknown labels are kept as-is (upper
// cased) since the synthesizer has a fallback rate for them.
func ParseChemistry(s string) Chemistry {
	return Chemistry(strings.ToUpper(strings.TrimSpace(s)))
}

// Known reports whether c is one of the enumerated chemistries
func (c Chemistry) Known() bool {
	for _, k := range Chemistries {
		if c == k {
			return true
		}
	}
	return false
}

// TestStatus is the lifecycle state of a cycling test
type TestStatus string

const (
	StatusActive    TestStatus = "active"
	StatusCompleted TestStatus = "completed"
	StatusFailed    TestStatus = "failed"
)

// Valid reports whether s is one of the three known statuses
func (s TestStatus) Valid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// TestConditions are the set points a test runs under
type TestConditions struct {
	ChargeVoltage    float64 `json:"charge_voltage"`
	DischargeVoltage float64 `json:"discharge_voltage"`
	Temperature      float64 `json:"temperature"`
	Humidity         float64 `json:"humidity"`
}

// TestSummary is one record per physical cell under test
type TestSummary struct {
	ID              core.TestID    `json:"id"`
	CellID          core.CellID    `json:"cell_id"`
	Chemistry       Chemistry      `json:"chemistry"`
	StartDate       time.Time      `json:"start_date"`
	CurrentCycle    int            `json:"current_cycle"`
	Capacity        float64        `json:"capacity"`         // Ah, latest measured
	InitialCapacity float64        `json:"initial_capacity"` // Ah, rated
	Temperature     float64        `json:"temperature"`      // °C
	CRate           float64        `json:"c_rate"`
	Status          TestStatus     `json:"status"`
	Conditions      TestConditions `json:"test_conditions"`
}

// CycleSample is one synthesized measurement at a cycle index
type CycleSample struct {
	Cycle       int     `json:"cycle"`
	Capacity    float64 `json:"capacity"`
	Efficiency  float64 `json:"efficiency"` // coulombic, %
	Impedance   float64 `json:"impedance"`  // mΩ
	Temperature float64 `json:"temperature"`
}

// TestSeries pairs a test with its expanded cycle samples
type TestSeries struct {
	Test   TestSummary   `json:"test"`
	Cycles []CycleSample `json:"cycles"`
}

// ChemistryStat is a hand-maintained reference row per chemistry. It is not
// derived from cycle samples and can drift from them.
type ChemistryStat struct {
	Chemistry             Chemistry `json:"chemistry"`
	AvgCyclesToFailure    float64   `json:"avg_cycles_to_failure"`
	CapacityRetention500  float64   `json:"capacity_retention_500"`
	CapacityRetention1000 float64   `json:"capacity_retention_1000"`
	CapacityRetention2000 float64   `json:"capacity_retention_2000"`
	Efficiency            float64   `json:"efficiency"`
}

// KPIReference carries the KPI figures that come from the reference table
// rather than from the test collection.
type KPIReference struct {
	AvgCyclesTo80 float64 `json:"avg_cycles_to_80"`
}

// KPISummary is the dashboard rollup
type KPISummary struct {
	TotalCells      int     `json:"total_cells"`
	AvgCyclesTo80   float64 `json:"avg_cycles_to_80"`
	TestsInProgress int     `json:"tests_in_progress"`
	CompletedTests  int     `json:"completed_tests"`
}

// ReportSummary describes a selection of tests for a report
type ReportSummary struct {
	SelectedTests int           `json:"selected_tests"`
	Chemistries   int           `json:"chemistries"`
	ActiveTests   int           `json:"active_tests"`
	TotalCycles   int           `json:"total_cycles"`
	Missing       []core.TestID `json:"missing,omitempty"`
}
