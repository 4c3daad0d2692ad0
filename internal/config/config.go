// SPDX-License-Identifier: MIT
package config

import (
	"time"

	"ledstrip/internal/analysis"
	"ledstrip/internal/audio"
	"ledstrip/internal/render"
	"ledstrip/internal/store"
)

// Built-in defaults, used when no config file is found and for any key a
// file leaves out.
const (
	DefaultLogLevel        = "info"
	DefaultDeviceID        = audio.DefaultDeviceID
	DefaultSampleRate      = 44100
	DefaultFFTBins         = 24
	DefaultRollingHistory  = 2
	DefaultMinFrequency    = 200
	DefaultMaxFrequency    = 12000
	DefaultVolumeThreshold = 1e-7
	DefaultFFTWindow       = "hamming"
	DefaultPixels          = 60
	DefaultFPS             = 60
	DefaultRecordingDir    = "./recordings"
	DefaultUDPAddress      = "192.168.0.150:7777"
	DefaultUDPKeepalive    = 2 * time.Second
	DefaultWebSocketAddr   = ":8080"
	DefaultLogSinkInterval = 5 * time.Second
	DefaultAPIAddr         = ":8000"
	DefaultStoreDir        = "./tunables"

	// Hardware and processing limits.
	MinSampleRate = 8000
	MaxSampleRate = 192000
	MaxFPS        = 240
)

// Config holds all runtime configuration, loaded from YAML.
type Config struct {
	LogLevel  string          `yaml:"log_level"`
	Audio     AudioConfig     `yaml:"audio"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Render    RenderConfig    `yaml:"render"`
	Recording RecordingConfig `yaml:"recording"`
	Sinks     SinksConfig     `yaml:"sinks"`
	API       APIConfig       `yaml:"api"`
	Store     StoreConfig     `yaml:"store"`
}

// AudioConfig selects the microphone.
type AudioConfig struct {
	InputDevice int     `yaml:"input_device"` // PortAudio device index, -1 for the default input.
	SampleRate  float64 `yaml:"sample_rate"`  // Hz.
	LowLatency  bool    `yaml:"low_latency"`
}

// AnalysisConfig shapes the mel pipeline.
type AnalysisConfig struct {
	FFTBins         int     `yaml:"fft_bins"`
	RollingHistory  int     `yaml:"rolling_history"`
	MinFrequency    float64 `yaml:"min_frequency"`
	MaxFrequency    float64 `yaml:"max_frequency"`
	VolumeThreshold float64 `yaml:"min_volume_threshold"`
	FFTWindow       string  `yaml:"fft_window"` // e.g. "hamming", "hann", "blackman".
}

// RenderConfig sizes the strip and the frame loop.
type RenderConfig struct {
	Pixels          int           `yaml:"n_pixels"`
	FPS             int           `yaml:"fps"`
	RefreshInterval time.Duration `yaml:"refresh_interval"` // How often tunables are reread when nothing was written.
}

// RecordingConfig tees the microphone into a WAV file.
type RecordingConfig struct {
	Enabled    bool   `yaml:"enabled"`
	OutputDir  string `yaml:"output_dir"`
	OutputFile string `yaml:"output_file,omitempty"` // Generated from the start time when empty.
}

// SinksConfig enables the pixel outputs. At least one must open.
type SinksConfig struct {
	UDP       UDPSinkConfig       `yaml:"udp"`
	WebSocket WebSocketSinkConfig `yaml:"websocket"`
	Terminal  bool                `yaml:"terminal"`
	Log       LogSinkConfig       `yaml:"log"`
}

// UDPSinkConfig addresses an ESP8266 strip controller.
type UDPSinkConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Address   string        `yaml:"address"`
	Keepalive time.Duration `yaml:"keepalive"` // Full-frame resend period, 0 disables.
}

// WebSocketSinkConfig serves frames to browser previews.
type WebSocketSinkConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// LogSinkConfig prints a frame summary at debug level.
type LogSinkConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// APIConfig serves the HTTP control API.
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// StoreConfig selects where tunables live.
type StoreConfig struct {
	Backend string `yaml:"backend"` // "badger" or "memory".
	Dir     string `yaml:"dir"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel: DefaultLogLevel,
		Audio: AudioConfig{
			InputDevice: DefaultDeviceID,
			SampleRate:  DefaultSampleRate,
		},
		Analysis: AnalysisConfig{
			FFTBins:         DefaultFFTBins,
			RollingHistory:  DefaultRollingHistory,
			MinFrequency:    DefaultMinFrequency,
			MaxFrequency:    DefaultMaxFrequency,
			VolumeThreshold: DefaultVolumeThreshold,
			FFTWindow:       DefaultFFTWindow,
		},
		Render: RenderConfig{
			Pixels:          DefaultPixels,
			FPS:             DefaultFPS,
			RefreshInterval: render.DefaultRefreshInterval,
		},
		Recording: RecordingConfig{
			OutputDir: DefaultRecordingDir,
		},
		Sinks: SinksConfig{
			UDP: UDPSinkConfig{
				Address:   DefaultUDPAddress,
				Keepalive: DefaultUDPKeepalive,
			},
			WebSocket: WebSocketSinkConfig{
				Address: DefaultWebSocketAddr,
			},
			Log: LogSinkConfig{
				Interval: DefaultLogSinkInterval,
			},
		},
		API: APIConfig{
			Enabled: true,
			Address: DefaultAPIAddr,
		},
		Store: StoreConfig{
			Backend: store.BackendBadger,
			Dir:     DefaultStoreDir,
		},
	}
}

// AnalysisConfig converts to the analyzer's configuration. Validate must
// have accepted the config.
func (c *Config) AnalysisConfig() analysis.Config {
	window, _ := analysis.ParseWindowFunc(c.Analysis.FFTWindow)
	return analysis.Config{
		SampleRate:      c.Audio.SampleRate,
		FPS:             c.Render.FPS,
		History:         c.Analysis.RollingHistory,
		Bins:            c.Analysis.FFTBins,
		MinFrequency:    c.Analysis.MinFrequency,
		MaxFrequency:    c.Analysis.MaxFrequency,
		VolumeThreshold: c.Analysis.VolumeThreshold,
		Window:          window,
	}
}

// CaptureConfig converts to the microphone's configuration.
func (c *Config) CaptureConfig() audio.CaptureConfig {
	return audio.CaptureConfig{
		DeviceID:   c.Audio.InputDevice,
		SampleRate: c.Audio.SampleRate,
		ChunkSize:  c.AnalysisConfig().ChunkSize(),
		LowLatency: c.Audio.LowLatency,
	}
}

// AnySink reports whether at least one sink is enabled.
func (c *Config) AnySink() bool {
	s := c.Sinks
	return s.UDP.Enabled || s.WebSocket.Enabled || s.Terminal || s.Log.Enabled
}
