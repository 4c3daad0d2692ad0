// SPDX-License-Identifier: MIT
package effects

import (
	"math"

	"ledstrip/internal/dsp"
	"ledstrip/internal/pixel"

	"gonum.org/v1/gonum/floats"
)

// skipFade dims the held frame each time a visualizer gets no mel vector.
const skipFade = 0.9

// visualizer carries what the three audio modes share: the last output,
// held and faded on skipped frames, and the half-strip geometry they render
// into before mirroring.
type visualizer struct {
	last pixel.Buffer
}

// skip fades and returns the held frame, resized to n if needed.
func (v *visualizer) skip(n int) pixel.Buffer {
	if v.last.Len() != n {
		v.last = pixel.New(n)
	}
	v.last = v.last.Scale(skipFade)
	return v.last
}

func (v *visualizer) hold(b pixel.Buffer) pixel.Buffer {
	v.last = b
	return b
}

// halfLen is the number of pixels rendered before mirroring.
func halfLen(n int) int {
	return (n + 1) / 2
}

// mirror writes half reversed followed by half into an n pixel buffer, so
// the pattern grows outwards from the middle of the strip.
func mirror(half [3][]float64, n int) pixel.Buffer {
	out := pixel.New(n)
	h := len(half[0])
	for c := range half {
		for i := range n {
			j := i - (n - h)
			if i < n-h {
				j = n - h - 1 - i
			}
			if j >= 0 && j < h {
				out[c][i] = half[c][j]
			}
		}
	}
	return out
}

// Scroll pushes a new color in at the centre every frame and scrolls older
// colors outwards. The color is the peak of the low, mid and high thirds of
// the mel vector.
type Scroll struct {
	visualizer
	gain   *dsp.ExpFilter
	half   [3][]float64
	tmp    []float64
	kernel []float64
}

func NewScroll() *Scroll {
	return &Scroll{kernel: dsp.GaussianKernel(0.2)}
}

func (*Scroll) Name() string      { return "scroll" }
func (*Scroll) Visualizer() bool  { return true }
func (*Scroll) UsesFilters() bool { return true }
func (*Scroll) Vars() []VarSpec   { return nil }

func (s *Scroll) Run(f *Frame) pixel.Buffer {
	if f.Mel == nil {
		return s.skip(f.Pixels)
	}
	h := halfLen(f.Pixels)
	if len(s.half[0]) != h {
		s.half = [3][]float64{make([]float64, h), make([]float64, h), make([]float64, h)}
		s.tmp = make([]float64, h)
	}
	if s.gain == nil || len(s.gain.Value) != len(f.Mel) {
		s.gain = dsp.NewExpFilter(len(f.Mel), 0.01, 0.001, 0.99)
	}

	y := make([]float64, len(f.Mel))
	for i, v := range f.Mel {
		y[i] = v * v
	}
	gain := s.gain.Update(y)
	for i := range y {
		y[i] = y[i] / math.Max(gain[i], 1e-12) * 255
	}
	colors := thirds(y, floats.Max)

	for c := range s.half {
		row := s.half[c]
		if h == 0 {
			continue
		}
		copy(row[1:], row[:h-1])
		floats.Scale(0.98, row)
		dsp.GaussianSmooth(s.tmp, row, s.kernel)
		copy(row, s.tmp)
		row[0] = colors[c]
	}
	return s.hold(mirror(s.half, f.Pixels))
}

// thirds reduces the low, mid and high thirds of y with fn. A third that is
// empty (fewer than three bands) yields zero.
func thirds(y []float64, fn func([]float64) float64) [3]float64 {
	var out [3]float64
	n := len(y)
	bounds := [4]int{0, n / 3, 2 * n / 3, n}
	for c := range out {
		part := y[bounds[c]:bounds[c+1]]
		if len(part) > 0 {
			out[c] = fn(part)
		}
	}
	return out
}

// Spectrum maps the mel vector directly across the strip: red follows the
// level above the long-term average, green the frame-to-frame change and
// blue the slowly smoothed level.
type Spectrum struct {
	visualizer
	prev       []float64
	red        *dsp.ExpFilter
	blue       *dsp.ExpFilter
	commonMode *dsp.ExpFilter
}

func NewSpectrum() *Spectrum { return &Spectrum{} }

func (*Spectrum) Name() string      { return "spectrum" }
func (*Spectrum) Visualizer() bool  { return true }
func (*Spectrum) UsesFilters() bool { return true }
func (*Spectrum) Vars() []VarSpec   { return nil }

func (s *Spectrum) Run(f *Frame) pixel.Buffer {
	if f.Mel == nil {
		return s.skip(f.Pixels)
	}
	h := halfLen(f.Pixels)
	if len(s.prev) != h {
		s.prev = make([]float64, h)
		s.red = dsp.NewExpFilter(h, 0.01, 0.2, 0.99)
		s.blue = dsp.NewExpFilter(h, 0.01, 0.1, 0.5)
		s.commonMode = dsp.NewExpFilter(h, 0.01, 0.99, 0.01)
	}

	y := dsp.Resample(f.Mel, h)
	common := s.commonMode.Update(y)
	above := make([]float64, h)
	diff := make([]float64, h)
	for i, v := range y {
		above[i] = v - common[i]
		diff[i] = math.Abs(v - s.prev[i])
	}
	copy(s.prev, y)

	half := [3][]float64{
		append([]float64(nil), s.red.Update(above)...),
		diff,
		append([]float64(nil), s.blue.Update(y)...),
	}
	for c := range half {
		floats.Scale(255, half[c])
	}
	return s.hold(mirror(half, f.Pixels))
}

// Energy lights a bar per channel from the centre outwards whose length
// follows the mean level of the low, mid and high thirds.
type Energy struct {
	visualizer
	gain   *dsp.ExpFilter
	filt   [3]*dsp.ExpFilter
	kernel []float64
}

func NewEnergy() *Energy {
	return &Energy{kernel: dsp.GaussianKernel(4)}
}

func (*Energy) Name() string      { return "energy" }
func (*Energy) Visualizer() bool  { return true }
func (*Energy) UsesFilters() bool { return true }
func (*Energy) Vars() []VarSpec   { return nil }

func (e *Energy) Run(f *Frame) pixel.Buffer {
	if f.Mel == nil {
		return e.skip(f.Pixels)
	}
	h := halfLen(f.Pixels)
	if e.filt[0] == nil || len(e.filt[0].Value) != h {
		for c := range e.filt {
			e.filt[c] = dsp.NewExpFilter(h, 1, 0.1, 0.99)
		}
	}
	if e.gain == nil || len(e.gain.Value) != len(f.Mel) {
		e.gain = dsp.NewExpFilter(len(f.Mel), 0.01, 0.001, 0.99)
	}

	y := append([]float64(nil), f.Mel...)
	gain := e.gain.Update(y)
	for i := range y {
		y[i] = y[i] / math.Max(gain[i], 1e-12) * float64(h-1)
	}
	levels := thirds(y, func(part []float64) float64 {
		var sum float64
		for _, v := range part {
			sum += math.Pow(math.Max(v, 0), 0.9)
		}
		return sum / float64(len(part))
	})

	var half [3][]float64
	bar := make([]float64, h)
	for c := range half {
		lit := min(int(levels[c]), h)
		for i := range bar {
			bar[i] = 0
			if i < lit {
				bar[i] = 255
			}
		}
		smoothed := e.filt[c].Update(bar)
		rounded := make([]float64, h)
		for i, v := range smoothed {
			rounded[i] = math.Round(v)
		}
		half[c] = make([]float64, h)
		dsp.GaussianSmooth(half[c], rounded, e.kernel)
	}
	return e.hold(mirror(half, f.Pixels))
}
