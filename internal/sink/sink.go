// SPDX-License-Identifier: MIT
/*
Package sink defines the outputs a rendered frame is pushed to: the physical
strip (see sink/udp), the WebSocket and terminal previews and a logging sink.

Update is called from the render goroutine once per frame. Every sink
receives the same buffer and must not modify it.
*/
package sink

import (
	"errors"
	"fmt"

	"ledstrip/internal/log"
	"ledstrip/internal/pixel"
)

var (
	// ErrStop is returned by Update when the sink asks the renderer to shut
	// down, e.g. the user closed a preview.
	ErrStop = errors.New("sink: stop requested")

	// ErrNoSink is returned by OpenAll when no sink could be opened.
	ErrNoSink = errors.New("sink: no output could be opened")
)

// Sink receives rendered frames.
type Sink interface {
	Name() string
	Update(b pixel.Buffer) error
	Close() error
}

// Opener lazily creates a sink so startup can try each configured output
// and continue past the ones that fail.
type Opener struct {
	Name string
	Open func() (Sink, error)
}

var logger = log.For("sink")

// OpenAll opens every sink, logging the ones that fail. It returns ErrNoSink
// when none could be opened.
func OpenAll(openers []Opener) ([]Sink, error) {
	var sinks []Sink
	for _, o := range openers {
		s, err := o.Open()
		if err != nil {
			logger.Warnf("could not open %s, disabling it: %v", o.Name, err)
			continue
		}
		logger.Infof("opened %s", s.Name())
		sinks = append(sinks, s)
	}
	if len(sinks) == 0 {
		return nil, fmt.Errorf("tried %d outputs: %w", len(openers), ErrNoSink)
	}
	return sinks, nil
}

// CloseAll closes every sink, logging failures.
func CloseAll(sinks []Sink) {
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			logger.Errorf("error closing %s: %v", s.Name(), err)
		}
	}
}
