package period

import (
	"math"
	"sort"
)

// Summary holds descriptive statistics over a set of values.
type Summary struct {
	N      int
	Mean   float64
	Median float64
	Std    float64 // sample standard deviation; NaN for fewer than two values
	Min    float64
	Max    float64
	Q1     float64
	Q3     float64
}

// Describe summarizes values. NaN entries are ignored. With no values every
// statistic is NaN.
func Describe(values []float64) Summary {
	vs := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			vs = append(vs, v)
		}
	}

	nan := math.NaN()
	s := Summary{N: len(vs), Mean: nan, Median: nan, Std: nan, Min: nan, Max: nan, Q1: nan, Q3: nan}
	if len(vs) == 0 {
		return s
	}
	sort.Float64s(vs)

	var sum float64
	for _, v := range vs {
		sum += v
	}
	s.Mean = sum / float64(len(vs))
	s.Min = vs[0]
	s.Max = vs[len(vs)-1]
	s.Median = quantile(vs, 0.5)
	s.Q1 = quantile(vs, 0.25)
	s.Q3 = quantile(vs, 0.75)

	if len(vs) > 1 {
		var ss float64
		for _, v := range vs {
			d := v - s.Mean
			ss += d * d
		}
		s.Std = math.Sqrt(ss / float64(len(vs)-1))
	}
	return s
}

// Quantile returns the q-th quantile (0..1) of values using linear
// interpolation between closest ranks. NaN for empty input.
func Quantile(values []float64, q float64) float64 {
	vs := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			vs = append(vs, v)
		}
	}
	if len(vs) == 0 {
		return math.NaN()
	}
	sort.Float64s(vs)
	return quantile(vs, q)
}

// quantile expects sorted, non-empty input.
func quantile(sorted []float64, q float64) float64 {
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
