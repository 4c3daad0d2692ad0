// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"ledstrip/cmd"
	"ledstrip/internal/analysis"
	"ledstrip/internal/api"
	"ledstrip/internal/audio"
	"ledstrip/internal/config"
	"ledstrip/internal/effects"
	"ledstrip/internal/log"
	"ledstrip/internal/render"
	"ledstrip/internal/sink"
	"ledstrip/internal/sink/udp"
	"ledstrip/internal/store"
	"ledstrip/internal/tui"
	"ledstrip/pkg/build"
)

// shutdownTimeout bounds how long the API server may take to drain.
const shutdownTimeout = 3 * time.Second

// previewLogFile receives log output while the terminal preview owns the
// screen.
const previewLogFile = "ledstrip.log"

// main is the entry point for the LED strip renderer.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Initialize PortAudio
//   - Parse command line arguments and load the config
//   - Execute one-off commands if requested
//
// 2. Concurrent Phase (Hot Path):
//   - Open the tunables store and seed defaults
//   - Start the microphone capture and optional recording
//   - Open the pixel sinks and the control API
//   - Run the frame loop until a signal or a sink stops it
//
// 3. Shutdown Phase (Cold Path):
//   - Stop the API server
//   - Close sinks, capture and store
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	if err := build.Initialize(); err != nil {
		log.Debugf("build: %v", err)
	}

	if err := audio.Initialize(); err != nil {
		log.Fatalf("%v", err)
	}
	defer audio.Terminate()

	opts, err := cmd.ParseArgs()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	// --help and --version are handled by cobra
	if opts == nil {
		return
	}

	cfg := opts.Config
	level, _ := log.ParseLevel(cfg.LogLevel)
	log.SetLevel(level)

	if opts.Command != cmd.CommandRun {
		if err := executeCommand(opts); err != nil {
			log.Fatalf("%v", err)
		}
		return
	}

	if err := run(cfg); err != nil && !errors.Is(err, render.ErrShutdown) {
		log.Fatalf("%v", err)
	}
}

func run(cfg *config.Config) error {
	// ==================== CONCURRENT PHASE (Hot Path) ====================

	st, err := store.Open(cfg.Store.Backend, cfg.Store.Dir)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Errorf("Error closing store: %v", err)
		}
	}()

	reg := effects.NewRegistry()
	if err := store.Seed(st, render.Defaults(reg)); err != nil {
		return fmt.Errorf("seeding tunables: %w", err)
	}

	capture, err := audio.NewCapture(cfg.CaptureConfig())
	if err != nil {
		return err
	}
	defer func() {
		if err := capture.Close(); err != nil {
			log.Errorf("Error closing capture: %v", err)
		}
	}()

	analyzer, err := analysis.NewSpectralAnalyzer(cfg.AnalysisConfig())
	if err != nil {
		return err
	}
	energy := analysis.NewEnergyEstimator(render.DefaultEnergySensitivity)

	// The preview asks for the state of a controller that does not exist
	// yet when the sinks are opened.
	var ctrlRef atomic.Pointer[render.Controller]
	sinks, err := sink.OpenAll(sinkOpeners(cfg, &ctrlRef))
	if err != nil {
		return err
	}
	defer sink.CloseAll(sinks)

	ctrl, err := render.New(render.Options{
		Pixels:          cfg.Render.Pixels,
		FPS:             cfg.Render.FPS,
		RefreshInterval: cfg.Render.RefreshInterval,
		Registry:        reg,
		Store:           st,
		Capture:         capture,
		Analyzer:        analyzer,
		Energy:          energy,
		Sinks:           sinks,
	})
	if err != nil {
		return err
	}
	ctrlRef.Store(ctrl)

	// Without a microphone the visualizers see skipped frames and the
	// time-driven modes keep running.
	if err := capture.Start(); err != nil {
		log.Errorf("Audio capture unavailable: %v", err)
	} else if cfg.Recording.Enabled {
		path := cfg.RecordingPath(time.Now())
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("creating recording directory: %w", err)
		}
		if err := capture.StartRecording(path); err != nil {
			return err
		}
		log.Infof("Recording to %s", path)
	}

	var server *api.Server
	if cfg.API.Enabled {
		server = api.NewServer(cfg.API.Address, st, reg, ctrl.State)
		if err := server.Start(); err != nil {
			return err
		}
		log.Infof("Control API listening on %s", cfg.API.Address)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := ctrl.Run(ctx)

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Errorf("Error stopping API server: %v", err)
		}
		cancel()
	}

	if capture.Recording() {
		if err := capture.StopRecording(); err != nil {
			log.Errorf("Error stopping recording: %v", err)
		}
	}

	return runErr
}

// sinkOpeners lists the outputs enabled in cfg, in the order they are
// opened.
func sinkOpeners(cfg *config.Config, ctrl *atomic.Pointer[render.Controller]) []sink.Opener {
	var openers []sink.Opener

	if cfg.Sinks.UDP.Enabled {
		openers = append(openers, sink.Opener{
			Name: "udp strip",
			Open: func() (sink.Sink, error) {
				sender, err := udp.NewSender(cfg.Sinks.UDP.Address)
				if err != nil {
					return nil, err
				}
				strip, err := udp.NewStrip(sender, cfg.Render.Pixels, cfg.Sinks.UDP.Keepalive)
				if err != nil {
					sender.Close()
					return nil, err
				}
				strip.Start()
				return strip, nil
			},
		})
	}

	if cfg.Sinks.WebSocket.Enabled {
		openers = append(openers, sink.Opener{
			Name: "websocket preview",
			Open: func() (sink.Sink, error) {
				ws := sink.NewWebSocket(cfg.Sinks.WebSocket.Address)
				if err := ws.Start(); err != nil {
					return nil, err
				}
				return ws, nil
			},
		})
	}

	if cfg.Sinks.Terminal {
		openers = append(openers, sink.Opener{
			Name: "terminal preview",
			Open: func() (sink.Sink, error) {
				redirectLogs()
				return tui.NewPreview(func() string {
					c := ctrl.Load()
					if c == nil {
						return "starting"
					}
					s := c.State()
					return fmt.Sprintf("mode %s • filter %s • energy %.2f • %.0f fps", s.Mode, s.Filter, s.Energy, s.FPS)
				}), nil
			},
		})
	}

	if cfg.Sinks.Log.Enabled {
		openers = append(openers, sink.Opener{
			Name: "log",
			Open: func() (sink.Sink, error) {
				return sink.NewLogging(cfg.Sinks.Log.Interval), nil
			},
		})
	}

	return openers
}

// redirectLogs moves log output off the terminal while the preview draws
// on it.
func redirectLogs() {
	f, err := os.OpenFile(previewLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.SetOutput(io.Discard)
		return
	}
	log.SetOutput(f)
}

// executeCommand handles one-off commands that don't need the renderer.
func executeCommand(opts *cmd.Options) error {
	switch opts.Command {
	case cmd.CommandList:
		if !opts.Interactive {
			return audio.ListDevices(os.Stdout)
		}
		devices, err := audio.HostDevices()
		if err != nil {
			return err
		}
		sel, ok, err := tui.PickDevice(devices)
		if err != nil || !ok {
			return err
		}
		fmt.Print(sel.YAML())
		return nil
	case cmd.CommandModes:
		api.NewCatalog(effects.NewRegistry()).Print(os.Stdout)
		return nil
	default:
		return fmt.Errorf("unknown command %q", opts.Command)
	}
}
