// SPDX-License-Identifier: MIT
package dsp

import (
	"math"
	"testing"
)

func TestExpFilterRiseAndDecay(t *testing.T) {
	f := NewExpFilter(2, 0.5, 0.1, 0.9)
	got := f.Update([]float64{1, 0})

	wantRise := 0.9*1 + 0.1*0.5
	wantDecay := 0.1*0 + 0.9*0.5
	if math.Abs(got[0]-wantRise) > 1e-12 {
		t.Errorf("rising component = %v, want %v", got[0], wantRise)
	}
	if math.Abs(got[1]-wantDecay) > 1e-12 {
		t.Errorf("decaying component = %v, want %v", got[1], wantDecay)
	}
}

func TestExpFilterScalarMatchesVector(t *testing.T) {
	scalar := NewScalarFilter(1, 0.3, 0.7)
	vector := NewExpFilter(1, 1, 0.3, 0.7)
	for _, x := range []float64{0.2, 2, 2, 0.5, -1} {
		s := scalar.UpdateScalar(x)
		v := vector.Update([]float64{x})[0]
		if s != v {
			t.Fatalf("scalar %v != vector %v after sample %v", s, v, x)
		}
	}
}

func TestExpFilterConvergesMonotonically(t *testing.T) {
	tests := []struct {
		name    string
		initial float64
		sample  float64
	}{
		{"from below", 0, 1},
		{"from above", 5, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewScalarFilter(tt.initial, 0.2, 0.6)
			prevDist := math.Abs(tt.sample - tt.initial)
			for range 50 {
				v := f.UpdateScalar(tt.sample)
				dist := math.Abs(tt.sample - v)
				if dist > prevDist {
					t.Fatalf("distance grew from %v to %v", prevDist, dist)
				}
				prevDist = dist
			}
			if prevDist > 1e-3 {
				t.Errorf("did not converge, distance %v", prevDist)
			}
		})
	}
}

func TestExpFilterShapeMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on shape mismatch")
		}
	}()
	NewExpFilter(3, 0, 0.5, 0.5).Update([]float64{1})
}

func TestGaussianKernelNormalized(t *testing.T) {
	for _, sigma := range []float64{0.2, 1, 4} {
		k := GaussianKernel(sigma)
		var sum float64
		for _, w := range k {
			sum += w
		}
		if math.Abs(sum-1) > 1e-12 {
			t.Errorf("sigma %v: kernel sums to %v", sigma, sum)
		}
		if len(k) != 2*int(4*sigma+0.5)+1 {
			t.Errorf("sigma %v: kernel length %d", sigma, len(k))
		}
	}
}

func TestGaussianSmoothKeepsConstantSignal(t *testing.T) {
	src := []float64{3, 3, 3, 3, 3}
	dst := make([]float64, len(src))
	GaussianSmooth(dst, src, GaussianKernel(1))
	for i, v := range dst {
		if math.Abs(v-3) > 1e-12 {
			t.Errorf("dst[%d] = %v, want 3", i, v)
		}
	}
}

func TestGaussianSmoothSpreadsImpulse(t *testing.T) {
	src := []float64{0, 0, 1, 0, 0}
	dst := make([]float64, len(src))
	GaussianSmooth(dst, src, GaussianKernel(1))
	if dst[2] >= 1 || dst[2] <= dst[1] || dst[1] != dst[3] {
		t.Errorf("unexpected blur of impulse: %v", dst)
	}
}

func TestReflectIndex(t *testing.T) {
	tests := []struct{ j, n, want int }{
		{-1, 4, 0},
		{-2, 4, 1},
		{4, 4, 3},
		{5, 4, 2},
		{2, 4, 2},
		{-3, 1, 0},
	}
	for _, tt := range tests {
		if got := reflectIndex(tt.j, tt.n); got != tt.want {
			t.Errorf("reflectIndex(%d, %d) = %d, want %d", tt.j, tt.n, got, tt.want)
		}
	}
}

func TestResample(t *testing.T) {
	got := Resample([]float64{0, 1}, 3)
	want := []float64{0, 0.5, 1}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("Resample = %v, want %v", got, want)
		}
	}
	if len(Resample(nil, 4)) != 4 {
		t.Error("Resample of empty input should still return n points")
	}
}
