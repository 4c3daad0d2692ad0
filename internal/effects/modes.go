// SPDX-License-Identifier: MIT
package effects

import (
	"math"

	"ledstrip/internal/pixel"

	"github.com/charmbracelet/harmonica"
)

const fullOn = 255.0

// defaultDt stands in for the frame period on the first frame.
const defaultDt = 1.0 / 60

func frameDt(f *Frame) float64 {
	if f.Dt <= 0 {
		return defaultDt
	}
	return f.Dt
}

// Full lights the whole strip white; a filter gives it color.
type Full struct{}

func NewFull() *Full { return &Full{} }

func (*Full) Name() string      { return "full" }
func (*Full) Visualizer() bool  { return false }
func (*Full) UsesFilters() bool { return true }
func (*Full) Vars() []VarSpec   { return nil }

func (*Full) Run(f *Frame) pixel.Buffer {
	b := pixel.New(f.Pixels)
	b.Fill(fullOn, fullOn, fullOn)
	return b
}

// Stack drops pixels from the start of the strip that pile up at the end
// until the strip is full, then starts over. stack_concurrent pixels may be
// falling at once; stack_speed is in strip lengths per second.
type Stack struct {
	drops  []float64
	height int
	pixels int
}

func NewStack() *Stack { return &Stack{} }

func (*Stack) Name() string      { return "stack" }
func (*Stack) Visualizer() bool  { return false }
func (*Stack) UsesFilters() bool { return true }

func (*Stack) Vars() []VarSpec {
	return []VarSpec{
		{Key: "stack_concurrent", Validator: IntVar{Name: "concurrent", Min: 1}, Default: 1},
		{Key: "stack_speed", Validator: FloatVar{Name: "speed"}, Default: 1.0},
	}
}

func (s *Stack) Run(f *Frame) pixel.Buffer {
	n := f.Pixels
	out := pixel.New(n)
	if n == 0 {
		return out
	}
	if s.pixels != n {
		s.drops, s.height, s.pixels = nil, 0, n
	}
	concurrent := max(1, f.Vars.Int("stack_concurrent", 1))
	speed := math.Abs(f.Vars.Float("stack_speed", 1)) * f.Speed

	top := n - s.height
	if top <= 0 {
		s.drops, s.height, top = nil, 0, n
	}

	spacing := float64(top) / float64(concurrent)
	if len(s.drops) < concurrent && (len(s.drops) == 0 || s.drops[len(s.drops)-1] >= spacing) {
		s.drops = append(s.drops, 0)
	}

	step := speed * float64(n) * frameDt(f)
	kept := s.drops[:0]
	for _, pos := range s.drops {
		pos += step
		if pos >= float64(top-1) {
			s.height++
			top--
			continue
		}
		kept = append(kept, pos)
	}
	s.drops = kept

	for _, pos := range s.drops {
		i := int(pos)
		out.Set(i, fullOn, fullOn, fullOn)
	}
	for i := max(n-s.height, 0); i < n; i++ {
		out.Set(i, fullOn, fullOn, fullOn)
	}
	return out
}

// Scanner sweeps a block of scanner_size pixels back and forth with a fading
// tail of scanner_shadow pixels. Motion follows a critically damped spring
// towards the far end, which flips once reached.
type Scanner struct {
	pos, vel float64
	target   float64
	started  bool
}

// Spring tuning for the sweep.
const (
	scannerFrequency = 4.0
	scannerDamping   = 1.0
	scannerMinSpeed  = 0.05
	scannerArrival   = 0.5
)

func NewScanner() *Scanner { return &Scanner{} }

func (*Scanner) Name() string      { return "scanner" }
func (*Scanner) Visualizer() bool  { return false }
func (*Scanner) UsesFilters() bool { return true }

func (*Scanner) Vars() []VarSpec {
	return []VarSpec{
		{Key: "scanner_shadow", Validator: IntVar{Name: "shadow", Min: 0}, Default: 3},
		{Key: "scanner_size", Validator: IntVar{Name: "size", Min: 1}, Default: 2},
	}
}

func (s *Scanner) Run(f *Frame) pixel.Buffer {
	n := f.Pixels
	out := pixel.New(n)
	if n == 0 {
		return out
	}
	size := min(max(1, f.Vars.Int("scanner_size", 2)), n)
	shadow := max(0, f.Vars.Int("scanner_shadow", 3))
	travel := float64(n - size)

	if !s.started {
		s.pos, s.vel, s.target, s.started = 0, 0, travel, true
	}
	s.pos = math.Min(math.Max(s.pos, 0), travel)
	if s.target != 0 {
		s.target = travel
	}

	speed := math.Max(f.Speed, scannerMinSpeed)
	spring := harmonica.NewSpring(frameDt(f), scannerFrequency*speed, scannerDamping)
	s.pos, s.vel = spring.Update(s.pos, s.vel, s.target)
	if math.Abs(s.target-s.pos) < scannerArrival {
		if s.target == 0 {
			s.target = travel
		} else {
			s.target = 0
		}
	}

	head := int(math.Round(s.pos))
	for i := head; i < head+size; i++ {
		out.Set(i, fullOn, fullOn, fullOn)
	}
	// The tail trails behind the direction of travel.
	for k := 1; k <= shadow; k++ {
		level := fullOn * (1 - float64(k)/float64(shadow+1))
		idx := head - k
		if s.vel < 0 {
			idx = head + size - 1 + k
		}
		out.Set(idx, level, level, level)
	}
	return out
}
