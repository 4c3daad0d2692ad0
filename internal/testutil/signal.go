// SPDX-License-Identifier: MIT
//
// Package testutil generates int16 microphone chunks for tests.
package testutil

import "math"

// SineChunk returns size samples of a sine at frequency Hz, scaled to
// amplitude (0..1 of int16 full scale), starting at sample offset.
func SineChunk(size int, sampleRate, frequency, amplitude float64, offset int) []int16 {
	chunk := make([]int16, size)
	for i := range chunk {
		t := float64(i+offset) / sampleRate
		chunk[i] = int16(math.Sin(2*math.Pi*frequency*t) * amplitude * math.MaxInt16)
	}
	return chunk
}

// ChordChunk returns a 440 Hz fundamental with two harmonics, like a played
// note, at 90% of full scale.
func ChordChunk(size int, sampleRate float64, offset int) []int16 {
	chunk := make([]int16, size)
	for i := range chunk {
		t := float64(i+offset) / sampleRate
		signal := math.Sin(2*math.Pi*440*t)*0.5 +
			math.Sin(2*math.Pi*880*t)*0.3 +
			math.Sin(2*math.Pi*1320*t)*0.2
		chunk[i] = int16(signal * math.MaxInt16 * 0.9)
	}
	return chunk
}

// SilentChunk returns size zero samples.
func SilentChunk(size int) []int16 {
	return make([]int16, size)
}

// PeakBin returns the index of the largest value in v[startBin:endBin+1].
func PeakBin(v []float64, startBin, endBin int) int {
	if len(v) == 0 {
		return 0
	}
	startBin = max(startBin, 0)
	endBin = min(endBin, len(v)-1)

	peak := startBin
	for i := startBin + 1; i <= endBin; i++ {
		if v[i] > v[peak] {
			peak = i
		}
	}
	return peak
}
