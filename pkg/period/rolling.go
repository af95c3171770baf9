package period

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Align is the placement of a rolling window relative to the point it smooths.
type Align string

const (
	// Trailing averages a point with the Window-1 points before it.
	Trailing Align = "trailing"
	// Centered averages a point with its neighbours on both sides.
	Centered Align = "centered"
)

var (
	ErrInvalidWindow = errors.New("rolling window must be at least 1")
	ErrInvalidAlign  = errors.New("rolling alignment must be trailing or centered")
)

func ParseAlign(s string) (Align, error) {
	switch a := Align(strings.ToLower(strings.TrimSpace(s))); a {
	case Trailing, Centered:
		return a, nil
	case "center":
		return Centered, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAlign, s)
}

// RollingOptions configures Rolling. There is no default alignment: callers
// must pick one.
type RollingOptions struct {
	Window int
	Align  Align
}

func (o RollingOptions) Validate() error {
	if o.Window < 1 {
		return ErrInvalidWindow
	}
	if o.Align != Trailing && o.Align != Centered {
		return ErrInvalidAlign
	}
	return nil
}

// Rolling smooths values with a moving average. Windows at the edges use only
// the values available, so the output has the same length as the input. NaN
// inputs are skipped; a window holding no numbers yields NaN.
func Rolling(values []float64, opts RollingOptions) ([]float64, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	out := make([]float64, len(values))
	for i := range values {
		lo, hi := i-opts.Window+1, i
		if opts.Align == Centered {
			lo, hi = i-opts.Window/2, i+(opts.Window-1)/2
		}
		if lo < 0 {
			lo = 0
		}
		if hi > len(values)-1 {
			hi = len(values) - 1
		}

		var sum float64
		var n int
		for _, v := range values[lo : hi+1] {
			if math.IsNaN(v) {
				continue
			}
			sum += v
			n++
		}
		if n == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(n)
	}
	return out, nil
}

// Point is one step of a smoothed bucket series.
type Point struct {
	Key     string
	Start   time.Time
	Count   int
	Value   float64
	Rolling float64
}

// RollingBuckets smooths the Mean of time buckets, leaving out the
// missing_date bucket.
func RollingBuckets(buckets []Bucket, opts RollingOptions) ([]Point, error) {
	series := make([]Bucket, 0, len(buckets))
	for _, b := range buckets {
		if b.Key == string(MissingDate) {
			continue
		}
		series = append(series, b)
	}

	values := make([]float64, len(series))
	for i, b := range series {
		values[i] = b.Mean
	}
	smoothed, err := Rolling(values, opts)
	if err != nil {
		return nil, err
	}

	points := make([]Point, len(series))
	for i, b := range series {
		points[i] = Point{Key: b.Key, Start: b.Start, Count: b.Count, Value: b.Mean, Rolling: smoothed[i]}
	}
	return points, nil
}
