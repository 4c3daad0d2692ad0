// SPDX-License-Identifier: MIT
package dsp

import "math"

// GaussianKernel returns a normalized Gaussian kernel truncated at four
// standard deviations, radius int(4*sigma+0.5).
func GaussianKernel(sigma float64) []float64 {
	radius := int(4*sigma + 0.5)
	kernel := make([]float64, 2*radius+1)
	if sigma <= 0 {
		kernel[radius] = 1
		return kernel
	}
	var sum float64
	for i := -radius; i <= radius; i++ {
		w := math.Exp(-0.5 * float64(i*i) / (sigma * sigma))
		kernel[i+radius] = w
		sum += w
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// GaussianSmooth blurs src into dst with the given kernel, reflecting the
// signal at both edges (d c b a | a b c d | d c b a). dst and src must have
// the same length and must not overlap.
func GaussianSmooth(dst, src, kernel []float64) {
	n := len(src)
	if n == 0 {
		return
	}
	radius := len(kernel) / 2
	for i := range n {
		var acc float64
		for k, w := range kernel {
			acc += w * src[reflectIndex(i+k-radius, n)]
		}
		dst[i] = acc
	}
}

// reflectIndex folds j into [0,n) by half-sample symmetric reflection.
func reflectIndex(j, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * n
	j %= period
	if j < 0 {
		j += period
	}
	if j >= n {
		j = period - 1 - j
	}
	return j
}
