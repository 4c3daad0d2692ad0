// SPDX-License-Identifier: MIT
package analysis

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

func hzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1.0+hz/700.0)
}

func melToHz(mel float64) float64 {
	return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
}

// melFilterbank builds a numBands x len(freqs) matrix of triangular filters
// spaced evenly on the mel scale between lowHz and highHz. freqs holds the
// centre frequency of each FFT bin. A band too narrow to cover any bin gets
// weight one on the bin nearest its centre so no band is permanently dark.
func melFilterbank(numBands int, lowHz, highHz float64, freqs []float64) *mat.Dense {
	bank := mat.NewDense(numBands, len(freqs), nil)

	lowMel := hzToMel(lowHz)
	step := (hzToMel(highHz) - lowMel) / float64(numBands+1)
	edges := make([]float64, numBands+2)
	for i := range edges {
		edges[i] = melToHz(lowMel + float64(i)*step)
	}

	for b := range numBands {
		lower, center, upper := edges[b], edges[b+1], edges[b+2]
		covered := false
		for k, f := range freqs {
			var w float64
			switch {
			case f > lower && f <= center:
				w = (f - lower) / (center - lower)
			case f > center && f < upper:
				w = (upper - f) / (upper - center)
			}
			if w > 0 {
				bank.Set(b, k, w)
				covered = true
			}
		}
		if !covered {
			bank.Set(b, nearestBin(freqs, center), 1)
		}
	}
	return bank
}

func nearestBin(freqs []float64, hz float64) int {
	best := 0
	for k, f := range freqs {
		if math.Abs(f-hz) < math.Abs(freqs[best]-hz) {
			best = k
		}
	}
	return best
}
