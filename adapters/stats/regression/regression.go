// Package regression fits cycle-vs-capacity curves.
//
// Every fit is closed form over precomputed moments. Failures come back as an error
// together with an empty (non-nil) result, so a caller can render "not
// enough data" without special-casing a nil.
package regression

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"cellfade/domain/analysis"
	"cellfade/internal/errors"
)

const (
	// logFloor keeps the exponential fit away from log(<=0)
	logFloor = 0.01

	// curvatureScale damps the polynomial curvature term
	curvatureScale = 0.0001
)

// sums holds the moments every fit needs. Linear and exponential moments are
// taken over u = x − mean(x); the polynomial curvature moments stay on raw x.
type sums struct {
	n, meanX     float64
	u, y, uy, u2 float64
	logY, uLogY  float64
	x4, x2y      float64
}

func accumulate(x, y []float64) sums {
	s := sums{n: float64(len(x))}
	for _, xi := range x {
		s.meanX += xi
	}
	s.meanX /= s.n

	for i, xi := range x {
		yi := y[i]
		u := xi - s.meanX
		x2 := xi * xi
		ly := math.Log(math.Max(yi, logFloor))

		s.u += u
		s.y += yi
		s.uy += u * yi
		s.u2 += u * u
		s.logY += ly
		s.uLogY += u * ly
		s.x4 += x2 * x2
		s.x2y += x2 * yi
	}
	return s
}

// denominator is nΣu² − (Σu)², or ok=false when it vanishes
func (s sums) denominator() (float64, bool) {
	d := s.n*s.u2 - s.u*s.u
	if !(d > 0) {
		return 0, false
	}
	return d, true
}

// Fit fits kind to (x, y) and evaluates it at every x.
//
// InsufficientData when the lengths differ or fewer than two points are
// given; DegenerateInput when every x is equal (or, for quadratic, fewer
// than three x are distinct). Non-finite inputs are rejected as
// InvalidArgument.
func Fit(x, y []float64, kind analysis.RegressionKind) (analysis.RegressionResult, error) {
	if len(x) != len(y) {
		return empty(), errors.InsufficientData("x has %d values, y has %d", len(x), len(y))
	}
	if len(x) < 2 {
		return empty(), errors.InsufficientData("need at least 2 points, got %d", len(x))
	}
	if err := checkFinite(x, y); err != nil {
		return empty(), err
	}

	if distinct(x) < 2 {
		return empty(), errors.DegenerateInput("x has zero variance over %d points", len(x))
	}
	s := accumulate(x, y)
	denom, ok := s.denominator()
	if !ok {
		return empty(), errors.DegenerateInput("x has zero variance over %d points", len(x))
	}

	var coef analysis.Coefficients
	var eval func(float64) float64

	switch kind {
	case analysis.KindLinear, "":
		kind = analysis.KindLinear
		coef.Slope, coef.Intercept = s.linear(denom)
		eval = func(xi float64) float64 { return coef.Slope*xi + coef.Intercept }

	case analysis.KindExponential:
		coef.B = (s.n*s.uLogY - s.u*s.logY) / denom
		coef.A = math.Exp((s.logY-coef.B*s.u)/s.n - coef.B*s.meanX)
		eval = func(xi float64) float64 { return coef.A * math.Exp(coef.B*xi) }

	case analysis.KindPolynomial:
		coef.Slope, coef.Intercept = s.linear(denom)
		if s.x4 != 0 {
			coef.Curvature = s.x2y / s.x4
		}
		eval = func(xi float64) float64 {
			return coef.Intercept + coef.Slope*xi + coef.Curvature*xi*xi*curvatureScale
		}

	case analysis.KindQuadratic:
		c, err := solveQuadratic(x, y)
		if err != nil {
			return empty(), err
		}
		coef = c
		eval = func(xi float64) float64 { return coef.Intercept + coef.Slope*xi + coef.Curvature*xi*xi }

	default:
		return empty(), errors.InvalidArgument("unknown regression kind %q", kind)
	}

	fitted := make([]float64, len(x))
	for i, xi := range x {
		fitted[i] = eval(xi)
	}
	if err := checkFinite(fitted); err != nil {
		return empty(), errors.Wrapf(err, "%s fit overflowed", kind)
	}

	return analysis.RegressionResult{
		Kind:         kind,
		X:            append([]float64(nil), x...),
		Y:            fitted,
		Coefficients: coef,
	}, nil
}

func (s sums) linear(denom float64) (slope, intercept float64) {
	slope = (s.n*s.uy - s.u*s.y) / denom
	intercept = (s.y-slope*s.u)/s.n - slope*s.meanX
	return slope, intercept
}

// solveQuadratic solves the 3x3 normal equations for y = c0 + c1·x + c2·x².
// x is centered first so cycle counts in the thousands stay well conditioned.
func solveQuadratic(x, y []float64) (analysis.Coefficients, error) {
	if distinct(x) < 3 {
		return analysis.Coefficients{}, errors.DegenerateInput("quadratic fit needs 3 distinct x values")
	}
	var mean float64
	for _, xi := range x {
		mean += xi
	}
	mean /= float64(len(x))

	var m [5]float64 // Σu^0..Σu^4
	var r [3]float64 // Σy, Σuy, Σu²y
	for i, xi := range x {
		u := xi - mean
		p := 1.0
		for k := 0; k < 5; k++ {
			m[k] += p
			if k < 3 {
				r[k] += p * y[i]
			}
			p *= u
		}
	}

	a := mat.NewDense(3, 3, []float64{
		m[0], m[1], m[2],
		m[1], m[2], m[3],
		m[2], m[3], m[4],
	})
	b := mat.NewVecDense(3, r[:])

	var c mat.VecDense
	if err := c.SolveVec(a, b); err != nil {
		return analysis.Coefficients{}, errors.DegenerateInput("quadratic normal equations are singular: %v", err)
	}

	// expand c0 + c1·(x−μ) + c2·(x−μ)² back to powers of x
	c0, c1, c2 := c.AtVec(0), c.AtVec(1), c.AtVec(2)
	return analysis.Coefficients{
		Intercept: c0 - c1*mean + c2*mean*mean,
		Slope:     c1 - 2*c2*mean,
		Curvature: c2,
	}, nil
}

// distinct counts distinct values in x, stopping at 3
func distinct(x []float64) int {
	seen := make(map[float64]struct{}, 3)
	for _, v := range x {
		seen[v] = struct{}{}
		if len(seen) >= 3 {
			break
		}
	}
	return len(seen)
}

func checkFinite(series ...[]float64) error {
	for _, values := range series {
		for i, v := range values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return errors.InvalidArgument("non-finite value %v at index %d", v, i)
			}
		}
	}
	return nil
}

func empty() analysis.RegressionResult {
	return analysis.RegressionResult{X: []float64{}, Y: []float64{}}
}

// GoodnessOfFit is R² = 1 − SSres/SStot with the population mean of actual.
//
// Returns 0 when the lengths differ or actual is empty. When actual has no
// variance the score is 1 for an exact prediction and 0 otherwise.
func GoodnessOfFit(actual, predicted []float64) float64 {
	if len(actual) != len(predicted) || len(actual) == 0 {
		return 0
	}
	var mean float64
	for _, v := range actual {
		mean += v
	}
	mean /= float64(len(actual))

	var ssTot, ssRes float64
	for i, v := range actual {
		d := v - mean
		ssTot += d * d
		e := v - predicted[i]
		ssRes += e * e
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	r2 := 1 - ssRes/ssTot
	if math.IsNaN(r2) {
		return 0
	}
	return r2
}
