// SPDX-License-Identifier: MIT
//
// Package build exposes the metadata embedded at link time: application
// name, build timestamp, Git commit and semantic version.
//
//	go build -ldflags "-X ledstrip/pkg/build.buildVersion=0.3.0 -X ledstrip/pkg/build.buildCommit=$(git rev-parse --short HEAD)"
package build

import (
	"errors"
	"fmt"
	"strings"
)

const (
	defaultName        = "ledstrip"
	defaultDescription = "Audio-reactive LED strip renderer"
	unknown            = "unknown"
)

type ldFlags struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// String is the one-line version banner.
func (f *ldFlags) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", f.Name, f.Version, f.Commit, f.Time)
}

// Package-level variables for build information. These are populated by
// -ldflags during compilation.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = &ldFlags{
		Name:        defaultName,
		Description: defaultDescription,
		Time:        unknown,
		Commit:      unknown,
		Version:     "dev",
	}
)

// Initialize copies every ldflags value that was set into the build
// information. Missing values keep their development defaults and are
// reported in the returned error, so callers can warn and carry on.
func Initialize() error {
	var missing []string
	set := func(dst *string, val, flag string) {
		if val == "" {
			missing = append(missing, flag)
			return
		}
		*dst = val
	}
	set(&buildFlags.Name, buildName, "BuildName")
	set(&buildFlags.Time, buildTime, "BuildTime")
	set(&buildFlags.Commit, buildCommit, "BuildCommit")
	set(&buildFlags.Version, buildVersion, "BuildVersion")

	if len(missing) > 0 {
		return errors.New(strings.Join(missing, ", ") + " not set, using development defaults")
	}
	return nil
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *ldFlags {
	return buildFlags
}
