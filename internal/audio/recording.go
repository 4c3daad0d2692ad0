// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

var ErrAlreadyRecording = errors.New("audio: already recording")

const (
	recordBitDepth = 16
	wavFormatPCM   = 1
)

// recorder tees captured chunks into a 16-bit mono WAV file.
type recorder struct {
	path    string
	file    *os.File
	encoder *wav.Encoder
	buf     *audio.IntBuffer
}

// StartRecording writes every chunk returned by Read to a WAV file at path
// until StopRecording.
func (c *Capture) StartRecording(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rec != nil {
		return ErrAlreadyRecording
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create recording: %w", err)
	}
	c.rec = &recorder{
		path:    path,
		file:    file,
		encoder: wav.NewEncoder(file, int(c.cfg.SampleRate), recordBitDepth, 1, wavFormatPCM),
		buf: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: 1,
				SampleRate:  int(c.cfg.SampleRate),
			},
			Data:           make([]int, c.cfg.ChunkSize),
			SourceBitDepth: recordBitDepth,
		},
	}
	c.logger.Infof("recording to %s", path)
	return nil
}

// StopRecording finalizes the WAV header and closes the file. It is a no-op
// when not recording.
func (c *Capture) StopRecording() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rec == nil {
		return nil
	}

	rec := c.rec
	c.rec = nil
	encErr := rec.encoder.Close()
	fileErr := rec.file.Close()
	if encErr != nil {
		return fmt.Errorf("failed to finalize %s: %w", rec.path, encErr)
	}
	if fileErr != nil {
		return fmt.Errorf("failed to close %s: %w", rec.path, fileErr)
	}
	c.logger.Infof("recording saved to %s", rec.path)
	return nil
}

// Recording reports whether chunks are being written to a file.
func (c *Capture) Recording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rec != nil
}

// record is called with c.mu held.
func (c *Capture) record(chunk []int16) {
	if c.rec == nil {
		return
	}
	data := c.rec.buf.Data[:0]
	for _, s := range chunk {
		data = append(data, int(s))
	}
	c.rec.buf.Data = data
	if err := c.rec.encoder.Write(c.rec.buf); err != nil {
		if c.recWarn.Allow(c.now()) {
			c.logger.Errorf("failed to write recording: %v", err)
		}
	}
}

// Close stops recording and the stream, whichever are active.
func (c *Capture) Close() error {
	if err := c.StopRecording(); err != nil {
		return err
	}
	if c.Running() {
		return c.Stop()
	}
	return nil
}
