package predictor

import (
	"fmt"
	"sort"
)

// Calibrator maps raw softmax confidence to empirically calibrated
// confidence through a monotonic piecewise-linear curve fit offline.
// The table is immutable once built; lookups use binary search for the
// interpolation segment.
type Calibrator struct {
	breakpoints []float64
	values      []float64
}

// NewCalibrator validates the parallel breakpoint/value arrays. An empty
// table yields the identity calibration.
func NewCalibrator(breakpoints, values []float64) (*Calibrator, error) {
	if len(breakpoints) != len(values) {
		return nil, fmt.Errorf("calibration arrays differ in length: %d breakpoints, %d values",
			len(breakpoints), len(values))
	}
	for i := 1; i < len(breakpoints); i++ {
		if breakpoints[i] <= breakpoints[i-1] {
			return nil, fmt.Errorf("calibration breakpoints must be strictly increasing at index %d", i)
		}
		if values[i] < values[i-1] {
			return nil, fmt.Errorf("calibration values must be non-decreasing at index %d", i)
		}
	}
	return &Calibrator{breakpoints: breakpoints, values: values}, nil
}

// Identity returns a calibrator with no fitted data.
func Identity() *Calibrator {
	return &Calibrator{}
}

// Calibrate maps a raw confidence through the curve. Outside the fitted
// domain the boundary values apply; with no data loaded this is the
// identity function.
func (c *Calibrator) Calibrate(raw float64) float64 {
	n := len(c.breakpoints)
	if n == 0 {
		return raw
	}
	if raw <= c.breakpoints[0] {
		return c.values[0]
	}
	if raw >= c.breakpoints[n-1] {
		return c.values[n-1]
	}

	// First breakpoint strictly greater than raw; the segment is [i-1, i].
	i := sort.SearchFloat64s(c.breakpoints, raw)
	if c.breakpoints[i] == raw {
		return c.values[i]
	}

	x0, x1 := c.breakpoints[i-1], c.breakpoints[i]
	y0, y1 := c.values[i-1], c.values[i]
	t := (raw - x0) / (x1 - x0)
	return y0 + t*(y1-y0)
}

// Fitted reports whether calibration data is loaded.
func (c *Calibrator) Fitted() bool {
	return len(c.breakpoints) > 0
}
