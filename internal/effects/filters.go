// SPDX-License-Identifier: MIT
package effects

import (
	"math"
	"slices"

	"ledstrip/internal/gradient"
	"ledstrip/internal/pixel"

	"github.com/lucasb-eyer/go-colorful"
)

// brightness returns the strongest channel of pixel i.
func brightness(b pixel.Buffer, i int) float64 {
	r, g, bl := b.At(i)
	return max(r, g, bl)
}

// Normal passes the mode's output through unchanged.
type Normal struct{}

func NewNormal() *Normal { return &Normal{} }

func (*Normal) Name() string    { return "normal" }
func (*Normal) Vars() []VarSpec { return nil }

func (*Normal) Apply(_ *Frame, b pixel.Buffer) pixel.Buffer { return b }

// Rainbow spreads the full hue circle along the strip and rotates it over
// time at rainbow_speed turns per second. Each pixel keeps the brightness of
// its strongest channel.
type Rainbow struct {
	offset float64 // degrees
}

func NewRainbow() *Rainbow { return &Rainbow{} }

func (*Rainbow) Name() string { return "rainbow" }

func (*Rainbow) Vars() []VarSpec {
	return []VarSpec{
		{Key: "rainbow_speed", Validator: FloatVar{Name: "speed"}, Default: 0.2},
	}
}

func (r *Rainbow) Apply(f *Frame, b pixel.Buffer) pixel.Buffer {
	n := b.Len()
	speed := f.Vars.Float("rainbow_speed", 0.2) * f.Speed
	r.offset = math.Mod(r.offset+speed*360*frameDt(f), 360)
	if r.offset < 0 {
		r.offset += 360
	}

	out := pixel.New(n)
	for i := range n {
		hue := math.Mod(r.offset+360*float64(i)/float64(n), 360)
		c := colorful.Hsv(hue, 1, 1)
		v := brightness(b, i)
		out.Set(i, v*c.R, v*c.G, v*c.B)
	}
	return out
}

// Hex colors the strip with the hex_gradient gradient, scaled per pixel by
// the strongest channel of the mode's output.
type Hex struct {
	cached  gradient.Gradient
	width   int
	samples [][3]float64
}

// DefaultGradient is used until a gradient has been set.
var DefaultGradient = gradient.Gradient{
	{Position: 0, R: 1},
	{Position: 1, B: 1},
}

func NewHex() *Hex { return &Hex{} }

func (*Hex) Name() string { return "hex" }

func (*Hex) Vars() []VarSpec {
	return []VarSpec{
		{Key: "hex_gradient", Validator: GradientVar{Name: "gradient"}, Default: DefaultGradient},
	}
}

func (h *Hex) Apply(f *Frame, b pixel.Buffer) pixel.Buffer {
	var g gradient.Gradient
	if err := f.Vars.Decode("hex_gradient", &g); err != nil || len(g) == 0 {
		g = DefaultGradient
	}
	n := b.Len()
	if n != h.width || !slices.Equal(g, h.cached) {
		h.samples = gradient.Sample(n, g, 1)
		h.cached, h.width = g, n
	}

	out := pixel.New(n)
	for i := range n {
		v := brightness(b, i)
		c := h.samples[i]
		out.Set(i, v*c[0], v*c[1], v*c[2])
	}
	return out
}
