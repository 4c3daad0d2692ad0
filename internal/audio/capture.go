// SPDX-License-Identifier: MIT
/*
Package audio reads the microphone through a PortAudio blocking input
stream, one frame-sized chunk of mono int16 samples at a time.

Read is called from the render goroutine only. Audio that arrives faster
than frames are rendered is dropped rather than queued, so the strip never
lags behind the room.
*/
package audio

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"ledstrip/internal/log"

	"github.com/gordonklaus/portaudio"
)

var (
	ErrAlreadyRunning = errors.New("audio: capture already running")
	ErrNotRunning     = errors.New("audio: capture not running")
)

// overflowReportInterval limits capture diagnostics to one per interval.
const overflowReportInterval = time.Second

// CaptureConfig selects the device and chunk geometry.
type CaptureConfig struct {
	DeviceID   int
	SampleRate float64
	// ChunkSize is the number of samples returned by each Read,
	// sample_rate / fps.
	ChunkSize  int
	LowLatency bool
}

func (c CaptureConfig) validate() error {
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("sample rate must be positive, got %v", c.SampleRate)
	case c.ChunkSize < 1:
		return fmt.Errorf("chunk size must be positive, got %d", c.ChunkSize)
	}
	return nil
}

// inputStream is the part of *portaudio.Stream used by Capture.
type inputStream interface {
	Start() error
	Read() error
	AvailableToRead() (int, error)
	Stop() error
	Close() error
}

// openStream opens a blocking mono stream whose Read fills buf.
var openStream = func(cfg CaptureConfig, buf []int16) (inputStream, error) {
	device, err := InputDevice(cfg.DeviceID)
	if err != nil {
		return nil, err
	}
	latency := device.DefaultHighInputLatency
	if cfg.LowLatency {
		latency = device.DefaultLowInputLatency
	}
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: 1,
			Latency:  latency,
		},
		SampleRate:      cfg.SampleRate,
		FramesPerBuffer: len(buf),
	}
	return portaudio.OpenStream(params, buf)
}

// Capture owns the microphone stream.
type Capture struct {
	cfg    CaptureConfig
	logger *log.Logger
	now    func() time.Time

	mu     sync.Mutex
	stream inputStream
	buf    []int16

	overflows atomic.Uint64
	warn      *log.Limiter

	rec     *recorder
	recWarn *log.Limiter
}

// NewCapture creates a stopped capture.
func NewCapture(cfg CaptureConfig) (*Capture, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Capture{
		cfg:     cfg,
		logger:  log.For("capture"),
		now:     time.Now,
		buf:     make([]int16, cfg.ChunkSize),
		warn:    log.NewLimiter(overflowReportInterval),
		recWarn: log.NewLimiter(overflowReportInterval),
	}, nil
}

// ChunkSize is the number of samples returned by Read.
func (c *Capture) ChunkSize() int {
	return c.cfg.ChunkSize
}

// Start opens and starts the stream.
func (c *Capture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream != nil {
		return ErrAlreadyRunning
	}

	stream, err := openStream(c.cfg, c.buf)
	if err != nil {
		return fmt.Errorf("failed to open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("failed to start input stream: %w", err)
	}
	c.stream = stream
	c.logger.Infof("capturing %d samples per chunk at %.0f Hz", c.cfg.ChunkSize, c.cfg.SampleRate)
	return nil
}

// Stop stops and closes the stream. Calling it on a stopped capture logs a
// warning and returns ErrNotRunning.
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream == nil {
		c.logger.Warnf("stop called on a stopped capture")
		return ErrNotRunning
	}

	stream := c.stream
	c.stream = nil
	stopErr := stream.Stop()
	closeErr := stream.Close()
	if stopErr != nil {
		return fmt.Errorf("failed to stop input stream: %w", stopErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close input stream: %w", closeErr)
	}
	if n := c.overflows.Load(); n > 0 {
		c.logger.Infof("capture stopped after %d overflows", n)
	}
	return nil
}

// Running reports whether the stream is open.
func (c *Capture) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stream != nil
}

// Overflows is the number of failed reads since creation.
func (c *Capture) Overflows() uint64 {
	return c.overflows.Load()
}

// Read blocks for one chunk and returns a copy of it. Whole buffers that
// piled up while the caller was busy are read and discarded. Any read
// failure, including an input overflow, returns nil.
func (c *Capture) Read() []int16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream == nil {
		c.fail(ErrNotRunning)
		return nil
	}

	if err := c.stream.Read(); err != nil {
		c.fail(err)
		return nil
	}
	chunk := slices.Clone(c.buf)

	for {
		n, err := c.stream.AvailableToRead()
		if err != nil || n < len(c.buf) {
			break
		}
		if err := c.stream.Read(); err != nil {
			c.fail(err)
			break
		}
	}

	c.record(chunk)
	return chunk
}

func (c *Capture) fail(err error) {
	n := c.overflows.Add(1)
	if !c.warn.Allow(c.now()) {
		return
	}
	if errors.Is(err, portaudio.InputOverflowed) {
		c.logger.Warnf("audio buffer has overflowed %d times", n)
		return
	}
	c.logger.Warnf("audio read failed (%d failures): %v", n, err)
}
