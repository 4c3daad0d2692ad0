// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"os"

	"ledstrip/internal/config"
	"ledstrip/pkg/build"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Commands selected on the command line.
const (
	CommandRun   = ""
	CommandList  = "list"
	CommandModes = "modes"
)

// Options is the parsed command line: the loaded configuration with flag
// overrides applied, and the command to execute.
type Options struct {
	Config      *config.Config
	Command     string
	Verbose     bool
	Interactive bool
}

type flagValues struct {
	configPath  string
	device      int
	pixels      int
	fps         int
	terminal    bool
	record      bool
	verbose     bool
	interactive bool
}

// ParseArgs parses os.Args. It returns nil options when cobra handled the
// invocation itself, e.g. --help or --version.
func ParseArgs() (*Options, error) {
	return parse(os.Args[1:])
}

func parse(args []string) (*Options, error) {
	buildInfo := build.GetBuildFlags()
	var (
		flags   flagValues
		options *Options
	)

	load := func(cmd *cobra.Command, command string) error {
		cfg, err := config.LoadConfig(flags.configPath)
		if err != nil {
			return err
		}
		applyFlags(cmd.Flags(), &flags, cfg)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid flags: %w", err)
		}
		options = &Options{
			Config:      cfg,
			Command:     command,
			Verbose:     flags.verbose,
			Interactive: flags.interactive,
		}
		return nil
	}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return load(cmd, CommandRun)
		},
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// List command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio input devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			return load(cmd, CommandList)
		},
	}
	listCmd.Flags().BoolVarP(&flags.interactive, "interactive", "i", false,
		"Pick a device and sample rate and print the matching config")
	rootCmd.AddCommand(listCmd)

	// Modes command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "modes",
		Short: "List modes, filters and their variables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return load(cmd, CommandModes)
		},
	})

	pf := rootCmd.PersistentFlags()

	// Configuration file
	pf.StringVarP(&flags.configPath, "config", "c", "",
		"Path to a YAML config file. Defaults to ./config.yaml when present.")

	// Audio Device Configuration
	pf.IntVarP(&flags.device, "device", "d", config.DefaultDeviceID,
		"Specify input device ID. Use 'list' command to see available devices.")

	// Strip Configuration
	pf.IntVarP(&flags.pixels, "pixels", "n", config.DefaultPixels,
		"Number of pixels on the strip")
	pf.IntVarP(&flags.fps, "fps", "f", config.DefaultFPS,
		"Frames rendered per second")

	// Outputs
	pf.BoolVarP(&flags.terminal, "terminal", "t", false,
		"Show a preview of the strip in the terminal")
	pf.BoolVarP(&flags.record, "record", "r", false,
		"Record audio from the input device to a WAV file")

	// Debug Configuration
	pf.BoolVarP(&flags.verbose, "verbose", "v", false,
		"Show verbose output")

	// cobra falls back to os.Args when given nil
	if args == nil {
		args = []string{}
	}
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}
	return options, nil
}

// applyFlags copies every flag the user set over the file configuration.
func applyFlags(fs *pflag.FlagSet, flags *flagValues, cfg *config.Config) {
	if fs.Changed("device") {
		cfg.Audio.InputDevice = flags.device
	}
	if fs.Changed("pixels") {
		cfg.Render.Pixels = flags.pixels
	}
	if fs.Changed("fps") {
		cfg.Render.FPS = flags.fps
	}
	if fs.Changed("terminal") {
		cfg.Sinks.Terminal = flags.terminal
	}
	if fs.Changed("record") {
		cfg.Recording.Enabled = flags.record
	}
	if flags.verbose {
		cfg.LogLevel = "debug"
	}
}
