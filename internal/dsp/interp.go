// SPDX-License-Identifier: MIT
package dsp

// Resample stretches or squeezes y onto n evenly spaced points with linear
// interpolation, keeping both end points.
func Resample(y []float64, n int) []float64 {
	out := make([]float64, n)
	if len(y) == 0 || n == 0 {
		return out
	}
	if len(y) == 1 || n == 1 {
		for i := range out {
			out[i] = y[0]
		}
		return out
	}
	step := float64(len(y)-1) / float64(n-1)
	for i := range out {
		x := float64(i) * step
		lo := int(x)
		if lo >= len(y)-1 {
			out[i] = y[len(y)-1]
			continue
		}
		frac := x - float64(lo)
		out[i] = y[lo]*(1-frac) + y[lo+1]*frac
	}
	return out
}
