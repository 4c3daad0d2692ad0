// SPDX-License-Identifier: MIT
/*
Package dsp holds the small signal primitives shared by the analyzer, the
visual modes and the render loop: an asymmetric exponential smoother, a 1-D
Gaussian blur and linear resampling.

None of the types here are safe for concurrent use. They are owned by the
render goroutine.
*/
package dsp

import "fmt"

// ExpFilter is a recursive smoother with separate rise and decay rates.
// Value keeps the same length for the lifetime of the filter; a scalar filter
// is simply a filter of length one.
type ExpFilter struct {
	Value []float64
	Decay float64 // alpha used when the sample is at or below the value
	Rise  float64 // alpha used when the sample is above the value
}

// NewExpFilter creates a vector filter of length n with every component set
// to initial.
func NewExpFilter(n int, initial, decay, rise float64) *ExpFilter {
	v := make([]float64, n)
	for i := range v {
		v[i] = initial
	}
	return &ExpFilter{Value: v, Decay: decay, Rise: rise}
}

// NewScalarFilter creates a single-valued filter.
func NewScalarFilter(initial, decay, rise float64) *ExpFilter {
	return NewExpFilter(1, initial, decay, rise)
}

// Update folds sample into the state component-wise and returns the state.
// The returned slice is the filter's own storage; callers that keep it across
// updates must copy it.
func (f *ExpFilter) Update(sample []float64) []float64 {
	if len(sample) != len(f.Value) {
		panic(fmt.Sprintf("dsp: filter shape %d, sample shape %d", len(f.Value), len(sample)))
	}
	for i, x := range sample {
		alpha := f.Decay
		if x > f.Value[i] {
			alpha = f.Rise
		}
		f.Value[i] = alpha*x + (1-alpha)*f.Value[i]
	}
	return f.Value
}

// UpdateScalar folds x into a length-one filter and returns the new value.
func (f *ExpFilter) UpdateScalar(x float64) float64 {
	alpha := f.Decay
	if x > f.Value[0] {
		alpha = f.Rise
	}
	f.Value[0] = alpha*x + (1-alpha)*f.Value[0]
	return f.Value[0]
}

// Scalar returns the first component, the whole state for scalar filters.
func (f *ExpFilter) Scalar() float64 {
	return f.Value[0]
}

// SetDecay changes the decay rate for subsequent updates.
func (f *ExpFilter) SetDecay(decay float64) {
	f.Decay = decay
}
