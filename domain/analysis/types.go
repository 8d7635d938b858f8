package analysis

import (
	"strings"

	"cellfade/domain/battery"
	"cellfade/internal/errors"
)

// Range is an inclusive [Lo, Hi] interval
type Range struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
}

// Contains reports Lo <= v <= Hi. An inverted range contains nothing.
func (r Range) Contains(v float64) bool {
	return r.Lo <= v && v <= r.Hi
}

// Valid reports whether the endpoints are ordered
func (r Range) Valid() bool {
	return r.Lo <= r.Hi
}

// FilterCriteria selects tests; all three predicates must hold
type FilterCriteria struct {
	Chemistries []battery.Chemistry `json:"chemistries"`
	Temperature Range               `json:"temperature"`
	CRate       Range               `json:"c_rate"`
}

// DefaultCriteria is the dashboard's initial selection
func DefaultCriteria() FilterCriteria {
	return FilterCriteria{
		Chemistries: append([]battery.Chemistry(nil), battery.Chemistries...),
		Temperature: Range{Lo: 20, Hi: 50},
		CRate:       Range{Lo: 0.5, Hi: 2.0},
	}
}

// Checkpoint is a cycle count at which the reference table records retention
type Checkpoint int

const (
	Checkpoint500  Checkpoint = 500
	Checkpoint1000 Checkpoint = 1000
	Checkpoint2000 Checkpoint = 2000
)

// Checkpoints lists the supported retention checkpoints
var Checkpoints = []Checkpoint{Checkpoint500, Checkpoint1000, Checkpoint2000}

// Supported reports whether c is one of the fixed checkpoints
func (c Checkpoint) Supported() bool {
	switch c {
	case Checkpoint500, Checkpoint1000, Checkpoint2000:
		return true
	}
	return false
}

// RegressionKind names a curve family
type RegressionKind string

const (
	KindLinear      RegressionKind = "linear"
	KindExponential RegressionKind = "exponential"
	// KindPolynomial is the approximate degree-2 blend kept for parity with
	// the dashboard's historical curves.
	KindPolynomial RegressionKind = "polynomial"
	// KindQuadratic is a true least-squares degree-2 fit.
	KindQuadratic RegressionKind = "quadratic"
)

// ParseKind maps a name to a RegressionKind
func ParseKind(s string) (RegressionKind, error) {
	switch k := RegressionKind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindLinear, KindExponential, KindPolynomial, KindQuadratic:
		return k, nil
	case "":
		return KindLinear, nil
	default:
		return "", errors.InvalidArgument("unknown regression kind %q", s)
	}
}

// Coefficients of a fitted curve. Which fields are set depends on the kind:
// linear uses Intercept+Slope, exponential A+B (y = A·e^(B·x)),
// polynomial and quadratic Intercept+Slope+Curvature.
type Coefficients struct {
	Intercept float64 `json:"intercept,omitempty"`
	Slope     float64 `json:"slope,omitempty"`
	Curvature float64 `json:"curvature,omitempty"`
	A         float64 `json:"a,omitempty"`
	B         float64 `json:"b,omitempty"`
}

// RegressionResult is the fitted y over the input x. Empty on failure.
type RegressionResult struct {
	Kind         RegressionKind `json:"kind,omitempty"`
	X            []float64      `json:"x"`
	Y            []float64      `json:"y"`
	Coefficients Coefficients   `json:"coefficients"`
}

// Empty reports whether no fit was produced
func (r RegressionResult) Empty() bool {
	return len(r.X) == 0
}

// ChemistrySeries is every cycle of every test of one chemistry, as capacity
// retention percentages
type ChemistrySeries struct {
	Chemistry battery.Chemistry `json:"chemistry"`
	Tests     int               `json:"tests"`
	Cycles    []float64         `json:"cycles"`
	Retention []float64         `json:"retention"`
}

// DistributionSummary is a five-number summary plus moments
type DistributionSummary struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}
