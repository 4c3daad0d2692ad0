// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
	"slices"
	"testing"

	"ledstrip/internal/testutil"
)

const (
	testSampleRate = 44100
	testFPS        = 60
)

func testConfig() Config {
	return Config{
		SampleRate:      testSampleRate,
		FPS:             testFPS,
		History:         2,
		Bins:            24,
		MinFrequency:    200,
		MaxFrequency:    12000,
		VolumeThreshold: 1e-7,
		Window:          Hamming,
	}
}

func TestRollingWindowLengthInvariant(t *testing.T) {
	w := NewRollingWindow(3, 4)
	inputs := [][]float64{
		{1, 2, 3, 4},
		{5},
		{},
		{6, 7, 8, 9, 10, 11},
		nil,
	}
	flat := make([]float64, w.Len())
	for i, in := range inputs {
		w.Push(in)
		if w.Len() != 12 {
			t.Fatalf("push %d: Len() = %d, want 12", i, w.Len())
		}
		if got := len(w.Flatten(flat)); got != 12 {
			t.Fatalf("push %d: flattened length = %d, want 12", i, got)
		}
	}
}

func TestRollingWindowEvictsOldest(t *testing.T) {
	w := NewRollingWindow(2, 2)
	w.Push([]float64{1, 2})
	w.Push([]float64{3, 4})
	w.Push([]float64{5})

	got := w.Flatten(make([]float64, w.Len()))
	want := []float64{3, 4, 5, 0}
	if !slices.Equal(got, want) {
		t.Errorf("Flatten() = %v, want %v", got, want)
	}
}

func TestPaddedLength(t *testing.T) {
	tests := []struct{ n, want int }{
		{-4, 1},
		{0, 1},
		{1, 1},
		{8, 8},
		{10, 16},
		{1470, 2048},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d→%d", tt.n, tt.want), func(t *testing.T) {
			got := paddedLength(tt.n)
			if got != tt.want {
				t.Errorf("paddedLength(%d) = %d, want %d", tt.n, got, tt.want)
			}
			if got&(got-1) != 0 {
				t.Errorf("paddedLength(%d) = %d is not a power of two", tt.n, got)
			}
		})
	}
}

func TestParseWindowFunc(t *testing.T) {
	tests := []struct {
		name    string
		want    WindowFunc
		wantErr bool
	}{
		{"hamming", Hamming, false},
		{"Hanning", Hann, false},
		{"", Hamming, false},
		{"BlackmanNuttall", BlackmanNuttall, false},
		{"square", Hamming, true},
	}
	for _, tt := range tests {
		got, err := ParseWindowFunc(tt.name)
		if got != tt.want || (err != nil) != tt.wantErr {
			t.Errorf("ParseWindowFunc(%q) = %v, %v", tt.name, got, err)
		}
	}
}

func TestMelFilterbankCoversEveryBand(t *testing.T) {
	spec, err := newSpectrum(1470, testSampleRate, Hamming)
	if err != nil {
		t.Fatal(err)
	}
	freqs := make([]float64, spec.bins())
	for i := range freqs {
		freqs[i] = spec.binFrequency(i)
	}
	bank := melFilterbank(24, 200, 12000, freqs)

	rows, cols := bank.Dims()
	if rows != 24 || cols != 735 {
		t.Fatalf("bank dims = %dx%d, want 24x735", rows, cols)
	}
	prevPeak := -1
	for b := range rows {
		row := bank.RawRowView(b)
		peak := testutil.PeakBin(row, 0, len(row)-1)
		if row[peak] <= 0 {
			t.Fatalf("band %d has no weight", b)
		}
		if peak < prevPeak {
			t.Errorf("band %d peaks at bin %d, before band %d (bin %d)", b, peak, b-1, prevPeak)
		}
		prevPeak = peak
	}
}

func TestSpectrumHotPath(t *testing.T) {
	spec, err := newSpectrum(1470, testSampleRate, Hamming)
	if err != nil {
		t.Fatal(err)
	}
	signal := make([]float64, 1470)
	for i, s := range testutil.ChordChunk(1470, testSampleRate, 0) {
		signal[i] = float64(s) / sampleScale
	}

	spec.magnitudes(signal)
	allocs := testing.AllocsPerRun(100, func() {
		spec.magnitudes(signal)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in spectrum hot path, got %.1f", allocs)
	}
}

func TestSpectralAnalyzerSkipsSilence(t *testing.T) {
	a, err := NewSpectralAnalyzer(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	before := a.SmoothedState()
	gainBefore := a.Gain()

	for range 5 {
		if mel, ok := a.Update(testutil.SilentChunk(a.ChunkSize())); ok || mel != nil {
			t.Fatalf("silent chunk produced a mel vector: %v", mel)
		}
	}
	if !slices.Equal(before, a.SmoothedState()) {
		t.Error("smoothing state changed on silent input")
	}
	if a.Gain() != gainBefore {
		t.Error("gain state changed on silent input")
	}
}

func TestSpectralAnalyzerSkipKeepsStateAfterSound(t *testing.T) {
	cfg := testConfig()
	cfg.History = 1
	a, err := NewSpectralAnalyzer(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := a.Update(testutil.ChordChunk(a.ChunkSize(), testSampleRate, 0)); !ok {
		t.Fatal("loud chunk was skipped")
	}
	state := a.SmoothedState()

	if _, ok := a.Update(testutil.SilentChunk(a.ChunkSize())); ok {
		t.Fatal("silent chunk was not skipped")
	}
	if !slices.Equal(state, a.SmoothedState()) {
		t.Error("smoothing state changed on a skipped frame")
	}
}

func TestSpectralAnalyzerEmptyChunkIsSkip(t *testing.T) {
	a, err := NewSpectralAnalyzer(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := a.Update(nil); ok {
		t.Error("empty chunk should be skipped")
	}
	if a.WindowLen() != 2*a.ChunkSize() {
		t.Errorf("WindowLen() = %d, want %d", a.WindowLen(), 2*a.ChunkSize())
	}
}

func TestSpectralAnalyzerTracksPitch(t *testing.T) {
	peakFor := func(freq float64) int {
		a, err := NewSpectralAnalyzer(testConfig())
		if err != nil {
			t.Fatal(err)
		}
		var mel []float64
		for frame := range 4 {
			chunk := testutil.SineChunk(a.ChunkSize(), testSampleRate, freq, 0.8, frame*a.ChunkSize())
			var ok bool
			if mel, ok = a.Update(chunk); !ok {
				t.Fatalf("%v Hz frame %d skipped", freq, frame)
			}
		}
		if len(mel) != a.Bins() {
			t.Fatalf("mel length = %d, want %d", len(mel), a.Bins())
		}
		for i, v := range mel {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("mel[%d] = %v", i, v)
			}
		}
		return testutil.PeakBin(mel, 0, len(mel)-1)
	}

	low, high := peakFor(440), peakFor(4000)
	if low >= high {
		t.Errorf("440 Hz peaks at band %d, 4 kHz at band %d; want low < high", low, high)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero fps", func(c *Config) { c.FPS = 0 }},
		{"no history", func(c *Config) { c.History = 0 }},
		{"no bins", func(c *Config) { c.Bins = 0 }},
		{"inverted range", func(c *Config) { c.MinFrequency = 5000; c.MaxFrequency = 100 }},
		{"above nyquist", func(c *Config) { c.MaxFrequency = 30000 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			if _, err := NewSpectralAnalyzer(cfg); err == nil {
				t.Error("expected configuration error")
			}
		})
	}
}

func TestEnergyEstimator(t *testing.T) {
	e := NewEnergyEstimator(0.5)
	if e.Value() != 1 {
		t.Fatalf("initial energy = %v, want 1", e.Value())
	}

	// 0.25 is below the state so the decay (sensitivity) rate applies.
	got := e.Update([]float64{0, 0.5, 0.25, 0.25})
	if want := 0.5*0.25 + 0.5*1; math.Abs(got-want) > 1e-12 {
		t.Errorf("Update() = %v, want %v", got, want)
	}
	if e.Update(nil) != got {
		t.Error("empty mel should leave the energy unchanged")
	}
}

func TestClampSensitivity(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{-1, MinSensitivity},
		{0, MinSensitivity},
		{0.5, 0.5},
		{1, MaxSensitivity},
	}
	for _, tt := range tests {
		if got := ClampSensitivity(tt.in); got != tt.want {
			t.Errorf("ClampSensitivity(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
	e := NewEnergyEstimator(0.5)
	e.SetSensitivity(5)
	if e.Sensitivity() != MaxSensitivity {
		t.Errorf("Sensitivity() = %v after SetSensitivity(5)", e.Sensitivity())
	}
}
