// SPDX-License-Identifier: MIT
/*
Package gradient validates user supplied color gradients and samples them
onto a strip.

A gradient is written as a JSON list of [position, "#rrggbb"] pairs with
positions in [0,1]:

	[[0, "#ff0000"], [0.5, "#00ff00"], [1, "#0000ff"]]

Sampling places a Gaussian bump of each stop's color at position*width and
sums the bumps per channel, capped at 1.
*/
package gradient

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"slices"

	"github.com/lucasb-eyer/go-colorful"
)

// hexColor matches #rgb and #rrggbb.
var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Stop is one color at a normalized position. Channels are in [0,1].
type Stop struct {
	Position float64 `msgpack:"p"`
	R        float64 `msgpack:"r"`
	G        float64 `msgpack:"g"`
	B        float64 `msgpack:"b"`
}

// Hex returns the stop color as #rrggbb.
func (s Stop) Hex() string {
	return colorful.Color{R: s.R, G: s.G, B: s.B}.Clamped().Hex()
}

// Gradient is a list of stops sorted by position that always contains a stop
// at 0 and a stop at 1.
type Gradient []Stop

// MarshalJSON writes the gradient back in its input form.
func (g Gradient) MarshalJSON() ([]byte, error) {
	pairs := make([][2]any, len(g))
	for i, s := range g {
		pairs[i] = [2]any{s.Position, s.Hex()}
	}
	return json.Marshal(pairs)
}

// ValidationError describes why a gradient was rejected. The message is
// suitable for returning to an API client.
type ValidationError struct {
	Index  int // offending element, -1 for the gradient as a whole
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return "gradient: " + e.Reason
	}
	return fmt.Sprintf("gradient element %d: %s", e.Index, e.Reason)
}

func invalid(index int, format string, args ...any) error {
	return &ValidationError{Index: index, Reason: fmt.Sprintf(format, args...)}
}

// Parse decodes a JSON gradient and validates it.
func Parse(raw string) (Gradient, error) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, invalid(-1, "has to be JSON, e.g. [[0, \"#ff0000\"], [1, \"#00ff37\"]]: %v", err)
	}
	return Validate(v)
}

// Validate checks a decoded gradient and normalizes it: stops are sorted by
// position, and when no stop sits at 0 (or 1) one is added there with the
// color of the lowest (or highest) stop.
func Validate(raw any) (Gradient, error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, invalid(-1, "has to be a list, e.g. [[0, \"#ff0000\"], [1, \"#00ff37\"]]")
	}
	if len(list) == 0 {
		return nil, invalid(-1, "has to have at least one stop")
	}

	g := make(Gradient, 0, len(list)+2)
	for i, el := range list {
		pair, ok := el.([]any)
		if !ok {
			return nil, invalid(i, "has to be a list")
		}
		if len(pair) != 2 {
			return nil, invalid(i, "has to have a length of 2, got %d", len(pair))
		}
		pos, ok := toFloat(pair[0])
		if !ok {
			return nil, invalid(i, "position has to be a number")
		}
		if math.IsNaN(pos) || pos < 0 || pos > 1 {
			return nil, invalid(i, "position has to be between 0 and 1, got %v", pos)
		}
		hex, ok := pair[1].(string)
		if !ok {
			return nil, invalid(i, "color has to be a string")
		}
		if !hexColor.MatchString(hex) {
			return nil, invalid(i, "color %q has to be a hex color", hex)
		}
		c, err := colorful.Hex(hex)
		if err != nil {
			return nil, invalid(i, "color %q has to be a hex color", hex)
		}
		g = append(g, Stop{Position: pos, R: c.R, G: c.G, B: c.B})
	}

	slices.SortStableFunc(g, func(a, b Stop) int {
		switch {
		case a.Position < b.Position:
			return -1
		case a.Position > b.Position:
			return 1
		}
		return 0
	})
	if g[0].Position != 0 {
		first := g[0]
		first.Position = 0
		g = slices.Insert(g, 0, first)
	}
	if g[len(g)-1].Position != 1 {
		last := g[len(g)-1]
		last.Position = 1
		g = append(g, last)
	}
	return g, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// Sample evaluates g at each of width pixels. Each stop contributes
// ch*exp(-(x-pos*width)^2 / (2c^2)) with c = width/(spread*len(g)); channel
// sums are capped at 1. A non-positive spread is treated as 1.
func Sample(width int, g Gradient, spread float64) [][3]float64 {
	out := make([][3]float64, max(width, 0))
	if width <= 0 || len(g) == 0 {
		return out
	}
	if spread <= 0 {
		spread = 1
	}
	w := float64(width)
	c := w / (spread * float64(len(g)))
	denom := 2 * c * c

	for x := range out {
		var r, gr, b float64
		for _, s := range g {
			d := float64(x) - s.Position*w
			k := math.Exp(-d * d / denom)
			r += s.R * k
			gr += s.G * k
			b += s.B * k
		}
		out[x] = [3]float64{min(1, r), min(1, gr), min(1, b)}
	}
	return out
}
