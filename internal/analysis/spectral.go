// SPDX-License-Identifier: MIT
/*
Package analysis turns raw microphone chunks into the features the visual
modes consume: a smoothed, gain-normalized mel spectrum and a single energy
value derived from it.

Pipeline per frame (SpectralAnalyzer.Update):

	int16 chunk -> [-1,1] -> rolling window (H chunks) -> peak gate
	-> window taper -> zero pad -> |rFFT| -> mel projection -> power
	-> gain normalization -> smoothing -> mel vector

Everything is owned by the render goroutine and preallocated at
construction; Update performs no allocations besides the returned copy.
*/
package analysis

import (
	"errors"
	"fmt"
	"math"

	"ledstrip/internal/dsp"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Smoothing constants for the mel pipeline.
const (
	gainInitial  = 0.1
	gainDecay    = 0.01
	gainRise     = 0.99
	smoothDecay  = 0.5
	smoothRise   = 0.99
	gainSigma    = 1.0
	sampleScale  = 1 << 15 // int16 full scale
	minGainValue = 1e-12
)

// Config describes the analysis geometry and thresholds.
type Config struct {
	SampleRate      float64    // microphone sample rate in Hz
	FPS             int        // frames per second; one chunk per frame
	History         int        // rolling window depth H in chunks
	Bins            int        // mel bands B
	MinFrequency    float64    // lowest mel edge in Hz
	MaxFrequency    float64    // highest mel edge in Hz
	VolumeThreshold float64    // peak amplitude below which a frame is skipped
	Window          WindowFunc // taper applied before the FFT
}

// ChunkSize returns L, the number of samples captured per frame.
func (c Config) ChunkSize() int {
	if c.FPS <= 0 {
		return 0
	}
	return int(c.SampleRate / float64(c.FPS))
}

// Validate checks that the configuration describes a usable pipeline.
func (c Config) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("sample rate must be positive, got %f", c.SampleRate)
	case c.FPS <= 0:
		return fmt.Errorf("fps must be positive, got %d", c.FPS)
	case c.ChunkSize() < 1:
		return fmt.Errorf("sample rate %f too low for %d fps", c.SampleRate, c.FPS)
	case c.History < 1:
		return fmt.Errorf("rolling history must be at least 1, got %d", c.History)
	case c.Bins < 1:
		return fmt.Errorf("mel bins must be at least 1, got %d", c.Bins)
	case c.MinFrequency < 0 || c.MaxFrequency <= c.MinFrequency:
		return fmt.Errorf("invalid mel frequency range [%f, %f]", c.MinFrequency, c.MaxFrequency)
	case c.MaxFrequency > c.SampleRate/2:
		return fmt.Errorf("max frequency %f above Nyquist %f", c.MaxFrequency, c.SampleRate/2)
	case c.VolumeThreshold < 0:
		return errors.New("volume threshold must not be negative")
	}
	return nil
}

// SpectralAnalyzer computes the mel vector for each captured chunk.
type SpectralAnalyzer struct {
	cfg      Config
	window   *RollingWindow
	spectrum *spectrum
	melBank  *mat.Dense
	gain     *dsp.ExpFilter
	smooth   *dsp.ExpFilter
	kernel   []float64

	// Preallocated workspace.
	chunk    []float64
	flat     []float64
	magVec   *mat.VecDense // aliases spectrum.magnitude
	mel      *mat.VecDense
	smoothed []float64
}

// NewSpectralAnalyzer validates cfg and preallocates the whole pipeline.
func NewSpectralAnalyzer(cfg Config) (*SpectralAnalyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis config: %w", err)
	}
	chunkSize := cfg.ChunkSize()
	window := NewRollingWindow(cfg.History, chunkSize)

	spec, err := newSpectrum(window.Len(), cfg.SampleRate, cfg.Window)
	if err != nil {
		return nil, err
	}
	freqs := make([]float64, spec.bins())
	for i := range freqs {
		freqs[i] = spec.binFrequency(i)
	}

	return &SpectralAnalyzer{
		cfg:      cfg,
		window:   window,
		spectrum: spec,
		melBank:  melFilterbank(cfg.Bins, cfg.MinFrequency, cfg.MaxFrequency, freqs),
		gain:     dsp.NewScalarFilter(gainInitial, gainDecay, gainRise),
		smooth:   dsp.NewExpFilter(cfg.Bins, gainInitial, smoothDecay, smoothRise),
		kernel:   dsp.GaussianKernel(gainSigma),
		chunk:    make([]float64, chunkSize),
		flat:     make([]float64, window.Len()),
		magVec:   mat.NewVecDense(spec.bins(), spec.magnitude),
		mel:      mat.NewVecDense(cfg.Bins, nil),
		smoothed: make([]float64, cfg.Bins),
	}, nil
}

// Update feeds one captured chunk through the pipeline. It returns the new
// mel vector and true, or nil and false when the frame is skipped: an empty
// chunk (failed capture) or a window whose peak stays under the volume
// threshold. A skipped frame leaves both smoothing filters untouched.
func (a *SpectralAnalyzer) Update(chunk []int16) ([]float64, bool) {
	if len(chunk) == 0 {
		return nil, false
	}

	for i := range a.chunk {
		if i < len(chunk) {
			a.chunk[i] = float64(chunk[i]) / sampleScale
		} else {
			a.chunk[i] = 0
		}
	}
	a.window.Push(a.chunk)
	signal := a.window.Flatten(a.flat)

	var peak float64
	for _, x := range signal {
		peak = math.Max(peak, math.Abs(x))
	}
	if peak < a.cfg.VolumeThreshold {
		return nil, false
	}

	a.spectrum.magnitudes(signal)
	a.mel.MulVec(a.melBank, a.magVec)
	power := a.mel.RawVector().Data
	for i, v := range power {
		power[i] = v * v
	}

	dsp.GaussianSmooth(a.smoothed, power, a.kernel)
	gain := math.Max(a.gain.UpdateScalar(floats.Max(a.smoothed)), minGainValue)
	floats.Scale(1/gain, power)

	out := make([]float64, len(power))
	copy(out, a.smooth.Update(power))
	return out, true
}

// Bins returns the mel vector length B.
func (a *SpectralAnalyzer) Bins() int {
	return a.cfg.Bins
}

// ChunkSize returns L.
func (a *SpectralAnalyzer) ChunkSize() int {
	return len(a.chunk)
}

// WindowLen returns H*L, the flattened rolling window length.
func (a *SpectralAnalyzer) WindowLen() int {
	return a.window.Len()
}

// SmoothedState returns a copy of the smoothing filter state.
func (a *SpectralAnalyzer) SmoothedState() []float64 {
	out := make([]float64, len(a.smooth.Value))
	copy(out, a.smooth.Value)
	return out
}

// Gain returns the current gain normalization value.
func (a *SpectralAnalyzer) Gain() float64 {
	return a.gain.Scalar()
}
