// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"ledstrip/internal/analysis"
	"ledstrip/internal/log"
	"ledstrip/internal/sink/udp"
	"ledstrip/internal/store"

	"gopkg.in/yaml.v3"
)

var logger = log.For("config")

// defaultCandidates are searched in order when no path is given.
var defaultCandidates = []string{"config.yaml", "ledstrip.yaml"}

// LoadConfig loads configuration from a YAML file specified by path. If path
// is empty, it searches the default locations and falls back to built-in
// defaults when none exists. Environment overrides are applied last, then
// the result is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		for _, candidate := range defaultCandidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		logger.Debugf("loaded %s", path)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	if _, ok := log.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel)
	}

	if c.Audio.InputDevice < DefaultDeviceID {
		return fmt.Errorf("audio.input_device must be %d or a device index, got %d", DefaultDeviceID, c.Audio.InputDevice)
	}
	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		return fmt.Errorf("audio.sample_rate %.0f outside [%d, %d]", c.Audio.SampleRate, MinSampleRate, MaxSampleRate)
	}

	if c.Render.Pixels < 1 {
		return fmt.Errorf("render.n_pixels must be positive, got %d", c.Render.Pixels)
	}
	if c.Render.FPS < 1 || c.Render.FPS > MaxFPS {
		return fmt.Errorf("render.fps must be in [1, %d], got %d", MaxFPS, c.Render.FPS)
	}
	if c.Render.RefreshInterval <= 0 {
		return fmt.Errorf("render.refresh_interval must be positive, got %s", c.Render.RefreshInterval)
	}

	if _, err := analysis.ParseWindowFunc(c.Analysis.FFTWindow); err != nil {
		return fmt.Errorf("analysis.fft_window: %w", err)
	}
	if err := c.AnalysisConfig().Validate(); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}

	if c.Sinks.UDP.Enabled {
		if c.Render.Pixels > udp.MaxPixels {
			return fmt.Errorf("render.n_pixels %d exceeds the %d pixels a UDP strip can address", c.Render.Pixels, udp.MaxPixels)
		}
		if !strings.Contains(c.Sinks.UDP.Address, ":") {
			return fmt.Errorf("sinks.udp.address %q appears invalid (missing port?)", c.Sinks.UDP.Address)
		}
		if c.Sinks.UDP.Keepalive < 0 {
			return fmt.Errorf("sinks.udp.keepalive must not be negative")
		}
	}
	if c.Sinks.WebSocket.Enabled && c.Sinks.WebSocket.Address == "" {
		return fmt.Errorf("sinks.websocket.address must be set when the websocket sink is enabled")
	}
	if c.Sinks.Log.Enabled && c.Sinks.Log.Interval <= 0 {
		return fmt.Errorf("sinks.log.interval must be positive")
	}
	if c.API.Enabled && c.API.Address == "" {
		return fmt.Errorf("api.address must be set when the API is enabled")
	}

	switch c.Store.Backend {
	case store.BackendMemory:
	case store.BackendBadger:
		if c.Store.Dir == "" {
			return fmt.Errorf("store.dir must be set for the badger backend")
		}
	default:
		return fmt.Errorf("store.backend must be %q or %q, got %q", store.BackendBadger, store.BackendMemory, c.Store.Backend)
	}

	if c.Recording.Enabled && c.Recording.OutputDir == "" && c.Recording.OutputFile == "" {
		return fmt.Errorf("recording.output_dir must be set when recording is enabled")
	}
	return nil
}

// RecordingPath is the WAV file recording writes to, named after start when
// no output_file is configured.
func (c *Config) RecordingPath(start time.Time) string {
	if c.Recording.OutputFile != "" {
		return c.Recording.OutputFile
	}
	name := "recording-" + start.UTC().Format("02-01-2006-150405") + ".wav"
	return filepath.Join(c.Recording.OutputDir, name)
}

// applyEnvOverrides applies ENV_* variables over file values. Unparsable
// values are reported and ignored.
func (c *Config) applyEnvOverrides() {
	// ENV_LOG_LEVEL
	if val, ok := os.LookupEnv("ENV_LOG_LEVEL"); ok {
		c.LogLevel = val
		logger.Infof("overriding log_level from env: %s", val)
	}

	// ENV_DEVICE
	envInt("ENV_DEVICE", "audio.input_device", &c.Audio.InputDevice)
	// ENV_PIXELS
	envInt("ENV_PIXELS", "render.n_pixels", &c.Render.Pixels)
	// ENV_FPS
	envInt("ENV_FPS", "render.fps", &c.Render.FPS)

	// ENV_UDP_{...}
	// These are specific to the strip controller.

	// ENV_UDP_ENABLED
	if val, ok := os.LookupEnv("ENV_UDP_ENABLED"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Sinks.UDP.Enabled = b
			logger.Infof("overriding sinks.udp.enabled from env: %v", b)
		} else {
			logger.Warnf("ignoring ENV_UDP_ENABLED=%q: %v", val, err)
		}
	}
	// ENV_UDP_ADDRESS
	if val, ok := os.LookupEnv("ENV_UDP_ADDRESS"); ok {
		c.Sinks.UDP.Address = val
		logger.Infof("overriding sinks.udp.address from env: %s", val)
	}

	// ENV_API_ADDRESS
	if val, ok := os.LookupEnv("ENV_API_ADDRESS"); ok {
		c.API.Address = val
		logger.Infof("overriding api.address from env: %s", val)
	}

	// ENV_STORE_{...}

	// ENV_STORE_BACKEND
	if val, ok := os.LookupEnv("ENV_STORE_BACKEND"); ok {
		c.Store.Backend = val
		logger.Infof("overriding store.backend from env: %s", val)
	}
	// ENV_STORE_DIR
	if val, ok := os.LookupEnv("ENV_STORE_DIR"); ok {
		c.Store.Dir = val
		logger.Infof("overriding store.dir from env: %s", val)
	}
}

func envInt(name, key string, dst *int) {
	val, ok := os.LookupEnv(name)
	if !ok {
		return
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		logger.Warnf("ignoring %s=%q: %v", name, val, err)
		return
	}
	*dst = n
	logger.Infof("overriding %s from env: %d", key, n)
}
