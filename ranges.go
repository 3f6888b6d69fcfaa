package fhsweep

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Arange returns start, start+step, ... stopping before stop, with
// ceil((stop-start)/step) values. step may be negative; it may not be zero.
func Arange(start, stop, step float64) ([]float64, error) {
	if step == 0 {
		return nil, errors.New("arange step must not be zero")
	}
	if math.IsNaN(start) || math.IsNaN(stop) || math.IsNaN(step) {
		return nil, errors.New("arange bounds must be numbers")
	}
	n := int(math.Ceil((stop - start) / step))
	if n <= 0 {
		return []float64{}, nil
	}
	vals := make([]float64, n)
	for idx := range vals {
		vals[idx] = start + float64(float64(idx)*step)
	}
	return vals, nil
}

// Linspace returns n evenly spaced values from lo to hi inclusive
func Linspace(lo, hi float64, n int) ([]float64, error) {
	if n < 2 {
		return nil, fmt.Errorf("linspace needs at least 2 points, got %d", n)
	}
	return floats.Span(make([]float64, n), lo, hi), nil
}
