// SPDX-License-Identifier: MIT
package analysis

// RollingWindow keeps the most recent H chunks of L normalized samples.
// Its total length is H*L at all times; pushing a chunk evicts the oldest.
type RollingWindow struct {
	chunks [][]float64 // oldest first
	size   int         // samples per chunk (L)
}

// NewRollingWindow creates a zero-filled window of history chunks of size
// samples each.
func NewRollingWindow(history, size int) *RollingWindow {
	chunks := make([][]float64, history)
	for i := range chunks {
		chunks[i] = make([]float64, size)
	}
	return &RollingWindow{chunks: chunks, size: size}
}

// Push shifts every chunk one slot towards the front, reusing the evicted
// chunk's storage for the new samples. Short input is zero-padded and long
// input truncated so the chunk length never changes.
func (w *RollingWindow) Push(samples []float64) {
	if len(w.chunks) == 0 {
		return
	}
	oldest := w.chunks[0]
	copy(w.chunks, w.chunks[1:])
	n := copy(oldest, samples)
	for i := n; i < len(oldest); i++ {
		oldest[i] = 0
	}
	w.chunks[len(w.chunks)-1] = oldest
}

// Flatten concatenates the window oldest-first into dst, which must have
// length Len().
func (w *RollingWindow) Flatten(dst []float64) []float64 {
	off := 0
	for _, c := range w.chunks {
		off += copy(dst[off:], c)
	}
	return dst[:off]
}

// Len returns the total number of samples held, H*L.
func (w *RollingWindow) Len() int {
	return len(w.chunks) * w.size
}

// History returns H, the number of chunks held.
func (w *RollingWindow) History() int {
	return len(w.chunks)
}
