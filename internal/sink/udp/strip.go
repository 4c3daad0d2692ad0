// SPDX-License-Identifier: MIT
package udp

import (
	"fmt"
	"sync"
	"time"

	"ledstrip/internal/log"
	"ledstrip/internal/pixel"
)

// Packet geometry of the ESP8266 strip firmware.
const (
	// MaxPixelsPerPacket is the firmware's receive limit per datagram.
	MaxPixelsPerPacket = 126

	// MaxPixels is the largest strip addressable with a one byte index.
	MaxPixels = 256

	bytesPerPixel = 4
)

/*
Strip packet layout (one datagram, up to MaxPixelsPerPacket entries):

	+-------+-----+-----+-----+-------+-----+-----+-----+----
	| index |  r  |  g  |  b  | index |  r  |  g  |  b  | ...
	| uint8 |uint8|uint8|uint8| uint8 |uint8|uint8|uint8|
	+-------+-----+-----+-----+-------+-----+-----+-----+----

Only pixels that changed since the previous frame are sent. A frame with
more changed pixels than fit one datagram is split across several.
*/

// Strip pushes frames to an ESP8266 running the strip firmware. When a
// keepalive interval is set, the whole frame is periodically resent so a
// controller that rebooted catches up without waiting for every pixel to
// change.
type Strip struct {
	sender    *Sender
	pixels    int
	keepalive time.Duration

	mu       sync.Mutex // protects prev and havePrev against the keepalive loop
	prev     [][3]uint8
	havePrev bool
	packet   []byte
	warn     *log.Limiter

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewStrip creates a strip sink for a strip of n pixels. A keepalive of zero
// disables periodic full refreshes.
func NewStrip(sender *Sender, n int, keepalive time.Duration) (*Strip, error) {
	if sender == nil {
		return nil, fmt.Errorf("strip: UDP sender cannot be nil")
	}
	if n < 1 || n > MaxPixels {
		return nil, fmt.Errorf("strip: pixel count %d outside [1, %d]", n, MaxPixels)
	}
	logger.Infof("strip of %d pixels at %s (keepalive %s)", n, sender.Target(), keepalive)
	return &Strip{
		sender:    sender,
		pixels:    n,
		keepalive: keepalive,
		prev:      make([][3]uint8, n),
		packet:    make([]byte, 0, MaxPixelsPerPacket*bytesPerPixel),
		warn:      log.NewLimiter(time.Second),
	}, nil
}

func (*Strip) Name() string { return "udp strip" }

// Update sends every pixel that differs from the previous frame.
func (s *Strip) Update(b pixel.Buffer) error {
	rgb := b.RGB()
	s.mu.Lock()
	defer s.mu.Unlock()

	var changed []int
	for i := range min(len(rgb), s.pixels) {
		if !s.havePrev || rgb[i] != s.prev[i] {
			changed = append(changed, i)
		}
	}
	err := s.send(rgb, changed)
	if err != nil {
		if s.warn.Allow(time.Now()) {
			logger.Warnf("failed to update strip: %v", err)
		}
		// Resend everything next frame; some pixels may be stale.
		s.havePrev = false
		return err
	}
	copy(s.prev, rgb)
	s.havePrev = true
	return nil
}

// send packs the given pixel indices into as many datagrams as needed.
func (s *Strip) send(rgb [][3]uint8, indices []int) error {
	for start := 0; start < len(indices); start += MaxPixelsPerPacket {
		end := min(start+MaxPixelsPerPacket, len(indices))
		s.packet = s.packet[:0]
		for _, i := range indices[start:end] {
			px := rgb[i]
			s.packet = append(s.packet, byte(i), px[0], px[1], px[2])
		}
		if err := s.sender.Send(s.packet); err != nil {
			return err
		}
	}
	return nil
}

// Start launches the keepalive loop. It does nothing when keepalive is off
// or the loop is already running.
func (s *Strip) Start() {
	if s.keepalive <= 0 {
		return
	}
	s.mu.Lock()
	if s.ticker != nil {
		s.mu.Unlock()
		logger.Warnf("strip keepalive already running")
		return
	}
	s.ticker = time.NewTicker(s.keepalive)
	s.doneChan = make(chan struct{})
	s.stopOnce = sync.Once{}
	ticker, done := s.ticker, s.doneChan
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-ticker.C:
				s.refresh()
			case <-done:
				return
			}
		}
	}()
}

// refresh resends the last frame in full.
func (s *Strip) refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.havePrev {
		return
	}
	all := make([]int, s.pixels)
	for i := range all {
		all[i] = i
	}
	if err := s.send(s.prev, all); err != nil && s.warn.Allow(time.Now()) {
		logger.Warnf("keepalive refresh failed: %v", err)
	}
}

// Stop ends the keepalive loop and waits for it to exit.
func (s *Strip) Stop() {
	s.mu.Lock()
	if s.ticker == nil {
		s.mu.Unlock()
		return
	}
	s.stopOnce.Do(func() {
		close(s.doneChan)
		s.ticker.Stop()
		s.ticker = nil
	})
	s.mu.Unlock()
	s.wg.Wait()
}

// Close stops the keepalive loop, blanks the strip and closes the socket.
func (s *Strip) Close() error {
	s.Stop()
	if err := s.Update(pixel.New(s.pixels)); err != nil {
		logger.Debugf("could not blank strip on close: %v", err)
	}
	return s.sender.Close()
}
