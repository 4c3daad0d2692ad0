// SPDX-License-Identifier: MIT
package analysis

import "math/bits"

// paddedLength returns the FFT length used for a signal of n samples: the
// next power of two >= n. Subtracting one first keeps exact powers of two
// unchanged (8 -> 8, not 16).
func paddedLength(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}
