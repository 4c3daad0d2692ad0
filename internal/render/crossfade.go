// SPDX-License-Identifier: MIT
package render

// Crossfade rates in state units per second.
const (
	fadeInRate  = 8.0
	fadeOutRate = 3.0
)

// Crossfade tracks how far the strip has faded in: 1 is fully on, 0 fully
// off. Enabling fades in quickly, disabling fades out more slowly.
type Crossfade struct {
	state float64
}

// NewCrossfade starts at the given state, clamped to [0,1].
func NewCrossfade(state float64) *Crossfade {
	return &Crossfade{state: min(max(state, 0), 1)}
}

// Value returns the current state.
func (c *Crossfade) Value() float64 {
	return c.state
}

// Step advances the fade by dt seconds towards on (enabled) or off and
// returns the scale to apply to this frame, which is the state before the
// step. A negative dt counts as zero.
func (c *Crossfade) Step(enabled bool, dt float64) float64 {
	dt = max(dt, 0)
	scale := c.state
	switch {
	case enabled && c.state < 1:
		c.state = min(c.state+dt*fadeInRate, 1)
	case !enabled && c.state > 0:
		c.state = max(c.state-dt*fadeOutRate, 0)
	}
	return scale
}
