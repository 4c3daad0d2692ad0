// SPDX-License-Identifier: MIT
/*
Package render runs the per-frame loop: read the microphone when needed,
run the selected mode and filter, apply energy brightness and the
enable/disable crossfade, and push the result to every sink.

The Controller is driven by a single goroutine. Other goroutines only
observe it through State.
*/
package render

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"ledstrip/internal/analysis"
	"ledstrip/internal/effects"
	"ledstrip/internal/log"
	"ledstrip/internal/pixel"
	"ledstrip/internal/sink"
	"ledstrip/internal/store"
)

// ErrShutdown is returned when a sink asked the renderer to stop.
var ErrShutdown = errors.New("render: shutdown requested by sink")

// DefaultRefreshInterval is how often settings are reread from the store
// when nothing has been written.
const DefaultRefreshInterval = 3 * time.Second

// fpsReportInterval spaces the frame-rate debug messages.
const fpsReportInterval = 500 * time.Millisecond

// Capture yields one chunk of microphone samples per call; nil when the
// read failed.
type Capture interface {
	Read() []int16
}

// Analyzer turns a chunk into a mel vector; false means the frame is
// skipped.
type Analyzer interface {
	Update(chunk []int16) ([]float64, bool)
}

// Options wires a Controller.
type Options struct {
	Pixels          int
	FPS             int
	RefreshInterval time.Duration
	Registry        *effects.Registry
	Store           store.Store
	Capture         Capture
	Analyzer        Analyzer
	Energy          *analysis.EnergyEstimator
	Sinks           []sink.Sink
	// Now defaults to time.Now.
	Now func() time.Time
}

// State is a point-in-time view of the renderer for the control API.
type State struct {
	Mode      string  `json:"mode"`
	Filter    string  `json:"filter"`
	Enabled   bool    `json:"enabled"`
	Energy    float64 `json:"energy_curr"`
	Crossfade float64 `json:"crossfade"`
	FPS       float64 `json:"fps"`
	Frames    uint64  `json:"frames"`
}

// Controller owns every piece of per-frame state.
type Controller struct {
	opts     Options
	now      func() time.Time
	logger   *log.Logger
	sinkWarn *log.Limiter
	fade     *Crossfade

	settings    Settings
	version     uint64
	lastRefresh time.Time
	loaded      bool

	micDown bool

	lastFrame time.Time
	frames    uint64
	fpsStart  time.Time
	fpsFrames int
	fps       float64

	state atomic.Pointer[State]
}

// New validates opts and creates a controller. The first frame loads the
// settings from the store.
func New(opts Options) (*Controller, error) {
	switch {
	case opts.Pixels < 1:
		return nil, fmt.Errorf("pixel count must be positive, got %d", opts.Pixels)
	case opts.FPS < 1:
		return nil, fmt.Errorf("fps must be positive, got %d", opts.FPS)
	case opts.Registry == nil:
		return nil, errors.New("render: registry is required")
	case opts.Store == nil:
		return nil, errors.New("render: store is required")
	case opts.Capture == nil || opts.Analyzer == nil || opts.Energy == nil:
		return nil, errors.New("render: capture, analyzer and energy estimator are required")
	case len(opts.Sinks) == 0:
		return nil, sink.ErrNoSink
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = DefaultRefreshInterval
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	c := &Controller{
		opts:     opts,
		now:      now,
		logger:   log.For("render"),
		sinkWarn: log.NewLimiter(time.Second),
		fade:     NewCrossfade(1),
	}
	c.state.Store(&State{Enabled: true, Crossfade: 1})
	return c, nil
}

// State returns the latest published state. Safe for concurrent use.
func (c *Controller) State() State {
	return *c.state.Load()
}

// refresh rereads the settings when the interval elapsed or the store was
// written since the last read.
func (c *Controller) refresh(now time.Time) {
	version := c.opts.Store.Version()
	if c.loaded && version == c.version && now.Sub(c.lastRefresh) < c.opts.RefreshInterval {
		return
	}
	snap, err := c.opts.Store.Snapshot()
	if err != nil {
		c.logger.Warnf("failed to read settings, keeping previous: %v", err)
		c.lastRefresh = now
		return
	}
	c.settings = LoadSettings(snap)
	c.version = version
	c.lastRefresh = now
	c.loaded = true
	c.opts.Energy.SetSensitivity(c.settings.EnergySensitivity)
}

// Frame renders and dispatches one frame.
func (c *Controller) Frame() error {
	now := c.now()
	var dt float64
	if !c.lastFrame.IsZero() {
		dt = now.Sub(c.lastFrame).Seconds()
	}
	c.lastFrame = now
	c.refresh(now)
	s := c.settings

	if !s.Enabled && c.fade.Value() == 0 {
		c.publish(s, nil, nil, 0, false)
		return c.dispatch(pixel.New(c.opts.Pixels))
	}

	mode := c.opts.Registry.ResolveMode(s.Mode)
	filter := c.opts.Registry.ResolveFilter(s.Filter)
	frame := effects.Frame{
		Now:    now,
		Dt:     dt,
		Pixels: c.opts.Pixels,
		Speed:  1,
		Vars:   s.Vars,
	}

	if mode.Visualizer() || s.EnergyBrightness || s.EnergySpeed {
		mel, ok := c.listen()
		switch {
		case mode.Visualizer():
			if ok {
				frame.Mel = mel
			}
		case ok:
			frame.Energy, frame.HasEnergy = c.opts.Energy.Update(mel), true
		default:
			frame.Energy, frame.HasEnergy = c.opts.Energy.Value(), true
		}
	}
	if frame.HasEnergy && s.EnergySpeed {
		frame.Speed = frame.Energy
	}

	out := mode.Run(&frame)
	if mode.UsesFilters() {
		out = filter.Apply(&frame, out)
		if frame.HasEnergy && s.EnergyBrightness {
			out = out.Scale(frame.Energy * s.EnergyBrightnessMult)
		}
	}

	if scale := c.fade.Step(s.Enabled, dt); scale != 1 {
		out = out.Scale(scale)
	}

	c.publish(s, mode, filter, frame.Energy, frame.HasEnergy)
	c.countFrame(now)
	return c.dispatch(out)
}

// listen reads and analyzes one chunk. A capture that reports it is not
// running is not read; the frame is a skip and the state is logged once.
func (c *Controller) listen() ([]float64, bool) {
	if r, ok := c.opts.Capture.(interface{ Running() bool }); ok && !r.Running() {
		if !c.micDown {
			c.logger.Warnf("capture is not running, audio frames are skipped")
			c.micDown = true
		}
		return nil, false
	}
	if c.micDown {
		c.logger.Infof("capture is running again")
		c.micDown = false
	}
	return c.opts.Analyzer.Update(c.opts.Capture.Read())
}

// dispatch sends the frame to every sink. A stop request from any sink ends
// the loop; other failures are logged and the frame continues.
func (c *Controller) dispatch(b pixel.Buffer) error {
	stop := false
	for _, s := range c.opts.Sinks {
		err := s.Update(b)
		switch {
		case err == nil:
		case errors.Is(err, sink.ErrStop):
			c.logger.Infof("%s requested shutdown", s.Name())
			stop = true
		default:
			if c.sinkWarn.Allow(c.now()) {
				c.logger.Warnf("%s update failed: %v", s.Name(), err)
			}
		}
	}
	if stop {
		return ErrShutdown
	}
	return nil
}

func (c *Controller) publish(s Settings, mode effects.Mode, filter effects.Filter, energy float64, hasEnergy bool) {
	prev := c.state.Load()
	st := &State{
		Mode:      s.Mode,
		Filter:    s.Filter,
		Enabled:   s.Enabled,
		Energy:    prev.Energy,
		Crossfade: c.fade.Value(),
		FPS:       c.fps,
		Frames:    c.frames,
	}
	if mode != nil {
		st.Mode = mode.Name()
	}
	if filter != nil {
		st.Filter = filter.Name()
	}
	if hasEnergy {
		st.Energy = energy
	}
	c.state.Store(st)
}

// countFrame tracks the achieved frame rate and logs it at debug level.
func (c *Controller) countFrame(now time.Time) {
	c.frames++
	c.fpsFrames++
	if c.fpsStart.IsZero() {
		c.fpsStart = now
		return
	}
	if elapsed := now.Sub(c.fpsStart); elapsed >= fpsReportInterval {
		c.fps = float64(c.fpsFrames) / elapsed.Seconds()
		c.logger.Debugf("FPS %.0f / %d", c.fps, c.opts.FPS)
		c.fpsStart, c.fpsFrames = now, 0
	}
}

// Run renders frames at the configured rate until ctx is done or a sink
// requests shutdown, in which case it returns ErrShutdown.
func (c *Controller) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(c.opts.FPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	c.logger.Infof("rendering %d pixels at %d fps", c.opts.Pixels, c.opts.FPS)

	for {
		select {
		case <-ctx.Done():
			c.logger.Infof("render loop stopped after %d frames", c.frames)
			return nil
		case <-ticker.C:
			if err := c.Frame(); err != nil {
				return err
			}
		}
	}
}
