// SPDX-License-Identifier: MIT
package sink

import (
	"time"

	"ledstrip/internal/log"
	"ledstrip/internal/pixel"
)

// Logging writes a one-line summary of the current frame at debug level, at
// most once per interval. Useful for running headless without hardware.
type Logging struct {
	limiter *log.Limiter
	now     func() time.Time
	frames  uint64
}

// NewLogging creates a logging sink that reports once per interval.
func NewLogging(interval time.Duration) *Logging {
	logger.Infof("using logging output")
	return &Logging{limiter: log.NewLimiter(interval), now: time.Now}
}

func (*Logging) Name() string { return "log" }

func (l *Logging) Update(b pixel.Buffer) error {
	l.frames++
	if !l.limiter.Allow(l.now()) {
		return nil
	}
	var lit int
	var sum float64
	for _, px := range b.RGB() {
		level := max(px[0], px[1], px[2])
		if level > 0 {
			lit++
		}
		sum += float64(level)
	}
	mean := 0.0
	if b.Len() > 0 {
		mean = sum / float64(b.Len())
	}
	logger.Debugf("frame %d: %d/%d pixels lit, mean level %.1f", l.frames, lit, b.Len(), mean)
	return nil
}

func (*Logging) Close() error { return nil }

var _ Sink = (*Logging)(nil)
