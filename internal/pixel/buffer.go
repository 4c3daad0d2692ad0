// SPDX-License-Identifier: MIT
//
// Package pixel defines the frame buffer passed between modes, filters and
// sinks.
package pixel

import "math"

// Channel indices.
const (
	Red = iota
	Green
	Blue
)

// Buffer holds one frame as three channel rows of equal length. Values are
// nominally in [0,255] but may stray outside while a frame is being composed;
// they are clamped only when converted for output.
type Buffer [3][]float64

// New returns a black buffer of n pixels.
func New(n int) Buffer {
	return Buffer{make([]float64, n), make([]float64, n), make([]float64, n)}
}

// Len returns the number of pixels.
func (b Buffer) Len() int {
	return len(b[Red])
}

// Clone returns a deep copy of b.
func (b Buffer) Clone() Buffer {
	var out Buffer
	for c := range b {
		out[c] = append([]float64(nil), b[c]...)
	}
	return out
}

// Scale returns a new buffer with every value multiplied by f.
func (b Buffer) Scale(f float64) Buffer {
	out := New(b.Len())
	for c := range b {
		for i, v := range b[c] {
			out[c][i] = v * f
		}
	}
	return out
}

// Fill sets every pixel to the same color.
func (b Buffer) Fill(r, g, bl float64) {
	for i := range b.Len() {
		b[Red][i], b[Green][i], b[Blue][i] = r, g, bl
	}
}

// Set assigns one pixel. Out of range indices are ignored.
func (b Buffer) Set(i int, r, g, bl float64) {
	if i < 0 || i >= b.Len() {
		return
	}
	b[Red][i], b[Green][i], b[Blue][i] = r, g, bl
}

// At returns the color of pixel i.
func (b Buffer) At(i int) (r, g, bl float64) {
	return b[Red][i], b[Green][i], b[Blue][i]
}

// RGB converts the buffer to clamped, rounded 8-bit triples.
func (b Buffer) RGB() [][3]uint8 {
	out := make([][3]uint8, b.Len())
	for i := range out {
		for c := range b {
			out[i][c] = toByte(b[c][i])
		}
	}
	return out
}

func toByte(v float64) uint8 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(math.Round(v))
}
