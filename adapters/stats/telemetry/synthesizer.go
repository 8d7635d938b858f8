// Package telemetry expands a test summary into per-cycle samples.
//
// The output stands in for an ingestion pipeline: shape (cycle numbers,
// fade trend) is fixed by the summary, exact values come from the supplied
// random source. Pass a seeded source to pin values.
package telemetry

import (
	"iter"
	"math"

	"cellfade/domain/battery"
	"cellfade/internal/errors"
	"cellfade/ports"
)

const (
	// CycleStep is the spacing between synthesized cycle indices
	CycleStep = 50

	// CapacityFloor is the lowest fraction of initial capacity emitted
	CapacityFloor = 0.6

	capacityJitter    = 0.05 // full width, fraction of initial capacity
	baseEfficiency    = 95.0
	efficiencyJitter  = 10.0
	baseImpedance     = 50.0
	impedanceJitter   = 10.0
	temperatureJitter = 5.0
)

// DegradationRate is the linear capacity fade per 1000 cycles
func DegradationRate(c battery.Chemistry) float64 {
	switch c {
	case battery.ChemistryNMC:
		return 0.15
	case battery.ChemistryLFP:
		return 0.08
	default:
		return 0.25
	}
}

// Validate checks the numeric preconditions of a summary
func Validate(test battery.TestSummary) error {
	if test.CurrentCycle < 0 {
		return errors.InvalidArgument("test %s: current cycle %d is negative", test.ID, test.CurrentCycle)
	}
	if !(test.InitialCapacity > 0) || math.IsInf(test.InitialCapacity, 1) {
		return errors.InvalidArgument("test %s: initial capacity %v must be positive", test.ID, test.InitialCapacity)
	}
	return nil
}

// SampleCount is the number of samples Synthesize emits for currentCycle
func SampleCount(currentCycle int) int {
	if currentCycle < 0 {
		return 0
	}
	return currentCycle/CycleStep + 1
}

// Cycles lazily yields samples for cycles 0, 50, ... up to CurrentCycle.
// A trailing partial step is dropped. The sequence is empty when the test
// fails Validate. Each iteration draws fresh values from src.
func Cycles(test battery.TestSummary, src ports.RandomSource) iter.Seq[battery.CycleSample] {
	return func(yield func(battery.CycleSample) bool) {
		if Validate(test) != nil {
			return
		}
		rate := DegradationRate(test.Chemistry)
		for i := 0; i <= test.CurrentCycle; i += CycleStep {
			if !yield(sample(test, rate, i, src)) {
				return
			}
		}
	}
}

// Synthesize materializes Cycles into a slice
func Synthesize(test battery.TestSummary, src ports.RandomSource) ([]battery.CycleSample, error) {
	if err := Validate(test); err != nil {
		return nil, err
	}
	out := make([]battery.CycleSample, 0, SampleCount(test.CurrentCycle))
	for s := range Cycles(test, src) {
		out = append(out, s)
	}
	return out, nil
}

// draw order matters for seeded reproducibility: capacity, efficiency,
// impedance, temperature
func sample(test battery.TestSummary, rate float64, cycle int, src ports.RandomSource) battery.CycleSample {
	i := float64(cycle)
	fade := 1 - rate*i/1000
	return battery.CycleSample{
		Cycle:       cycle,
		Capacity:    test.InitialCapacity * math.Max(CapacityFloor, fade+centered(src)*capacityJitter),
		Efficiency:  baseEfficiency + centered(src)*efficiencyJitter,
		Impedance:   baseImpedance + i/100 + centered(src)*impedanceJitter,
		Temperature: test.Temperature + centered(src)*temperatureJitter,
	}
}

// centered maps a [0,1) draw onto [-0.5, 0.5)
func centered(src ports.RandomSource) float64 {
	return src.Float64() - 0.5
}

// RetentionSeries is capacity as a percentage of initial capacity, per sample
func RetentionSeries(test battery.TestSummary, samples []battery.CycleSample) []float64 {
	out := make([]float64, len(samples))
	if test.InitialCapacity <= 0 {
		return out
	}
	for i, s := range samples {
		out[i] = s.Capacity / test.InitialCapacity * 100
	}
	return out
}

// CycleAxis returns the cycle numbers of samples as floats, ready for Fit
func CycleAxis(samples []battery.CycleSample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = float64(s.Cycle)
	}
	return out
}
