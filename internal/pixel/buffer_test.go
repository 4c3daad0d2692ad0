// SPDX-License-Identifier: MIT
package pixel

import (
	"math"
	"testing"
)

func TestRGBClampsAndRounds(t *testing.T) {
	b := New(4)
	b.Set(0, -10, 0.4, 0.5)
	b.Set(1, 254.6, 255, 300)
	b.Set(2, math.NaN(), math.Inf(1), math.Inf(-1))
	b.Set(3, 12.49, 12.5, 128)

	want := [][3]uint8{
		{0, 0, 1},
		{255, 255, 255},
		{0, 255, 0},
		{12, 13, 128},
	}
	got := b.RGB()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pixel %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestScaleReturnsNewBuffer(t *testing.T) {
	b := New(2)
	b.Fill(100, 50, 10)

	half := b.Scale(0.5)
	if r, g, bl := half.At(1); r != 50 || g != 25 || bl != 5 {
		t.Errorf("scaled pixel = %v,%v,%v", r, g, bl)
	}
	if r, _, _ := b.At(1); r != 100 {
		t.Errorf("Scale modified its receiver: r = %v", r)
	}
}

func TestCloneIsDeep(t *testing.T) {
	b := New(3)
	c := b.Clone()
	c.Set(1, 1, 2, 3)
	if r, _, _ := b.At(1); r != 0 {
		t.Error("Clone shares storage with the original")
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}
}

func TestSetIgnoresOutOfRange(t *testing.T) {
	b := New(2)
	b.Set(-1, 1, 1, 1)
	b.Set(2, 1, 1, 1)
	for _, px := range b.RGB() {
		if px != [3]uint8{} {
			t.Fatalf("unexpected write: %v", px)
		}
	}
}
