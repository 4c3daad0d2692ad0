// SPDX-License-Identifier: MIT
/*
Package effects holds the visual modes and color filters and the registry
that maps their names to implementations.

A mode produces a pixel.Buffer each frame. Visualizer modes consume the mel
vector; the others are driven by time alone. When a mode uses filters the
selected filter recolors the mode's output afterwards.

Modes and filters keep animation state between frames and are owned by the
render goroutine.
*/
package effects

import (
	"slices"
	"time"

	"ledstrip/internal/pixel"
)

// Vars gives modes and filters typed access to their persisted variables.
// store.Snapshot implements it.
type Vars interface {
	Int(key string, def int) int
	Float(key string, def float64) float64
	Bool(key string, def bool) bool
	String(key string, def string) string
	Decode(key string, v any) error
}

// Frame is the per-frame context passed to modes and filters.
type Frame struct {
	Now    time.Time
	Dt     float64   // seconds since the previous frame
	Pixels int       // strip length
	Mel    []float64 // visualizers only; nil when the frame was skipped
	Energy float64   // smoothed energy, valid when HasEnergy
	// HasEnergy is set when the energy estimator ran for this frame.
	HasEnergy bool
	// Speed multiplies animation speed: 1, or the energy when energy speed
	// is enabled.
	Speed float64
	Vars  Vars
}

// VarSpec declares one variable a mode or filter requires. Key carries the
// owner's name as prefix, e.g. "stack_speed".
type VarSpec struct {
	Key       string
	Validator Validator
	Default   any
}

// Mode renders a frame.
type Mode interface {
	Name() string
	// Visualizer reports whether the mode needs the mel vector.
	Visualizer() bool
	// UsesFilters reports whether the selected filter applies to its output.
	UsesFilters() bool
	Vars() []VarSpec
	Run(f *Frame) pixel.Buffer
}

// Filter recolors a mode's output.
type Filter interface {
	Name() string
	Vars() []VarSpec
	Apply(f *Frame, b pixel.Buffer) pixel.Buffer
}

// Registry names every available mode and filter. It is built once at
// startup and never modified.
type Registry struct {
	modes         map[string]Mode
	filters       map[string]Filter
	modeOrder     []string
	filterOrder   []string
	defaultMode   string
	defaultFilter string
}

// Default mode and filter names.
const (
	DefaultMode   = "full"
	DefaultFilter = "normal"
)

// NewRegistry returns the built-in modes and filters.
func NewRegistry() *Registry {
	return NewRegistryWith(
		[]Mode{
			NewScroll(),
			NewSpectrum(),
			NewEnergy(),
			NewFull(),
			NewStack(),
			NewScanner(),
		},
		[]Filter{
			NewNormal(),
			NewRainbow(),
			NewHex(),
		},
		DefaultMode, DefaultFilter,
	)
}

// NewRegistryWith builds a registry from explicit tables. defaultMode and
// defaultFilter must name entries of the tables.
func NewRegistryWith(modes []Mode, filters []Filter, defaultMode, defaultFilter string) *Registry {
	r := &Registry{
		modes:         make(map[string]Mode, len(modes)),
		filters:       make(map[string]Filter, len(filters)),
		defaultMode:   defaultMode,
		defaultFilter: defaultFilter,
	}
	for _, m := range modes {
		r.modes[m.Name()] = m
		r.modeOrder = append(r.modeOrder, m.Name())
	}
	for _, f := range filters {
		r.filters[f.Name()] = f
		r.filterOrder = append(r.filterOrder, f.Name())
	}
	if _, ok := r.modes[defaultMode]; !ok {
		panic("effects: default mode " + defaultMode + " not registered")
	}
	if _, ok := r.filters[defaultFilter]; !ok {
		panic("effects: default filter " + defaultFilter + " not registered")
	}
	return r
}

// Mode looks up a mode by name.
func (r *Registry) Mode(name string) (Mode, bool) {
	m, ok := r.modes[name]
	return m, ok
}

// Filter looks up a filter by name.
func (r *Registry) Filter(name string) (Filter, bool) {
	f, ok := r.filters[name]
	return f, ok
}

// ResolveMode returns the named mode, or the default mode when the name is
// unknown.
func (r *Registry) ResolveMode(name string) Mode {
	if m, ok := r.modes[name]; ok {
		return m
	}
	return r.modes[r.defaultMode]
}

// ResolveFilter returns the named filter, or the default filter.
func (r *Registry) ResolveFilter(name string) Filter {
	if f, ok := r.filters[name]; ok {
		return f
	}
	return r.filters[r.defaultFilter]
}

// ModeNames lists modes in registration order.
func (r *Registry) ModeNames() []string { return slices.Clone(r.modeOrder) }

// FilterNames lists filters in registration order.
func (r *Registry) FilterNames() []string { return slices.Clone(r.filterOrder) }

// DefaultModeName returns the fallback mode name.
func (r *Registry) DefaultModeName() string { return r.defaultMode }

// DefaultFilterName returns the fallback filter name.
func (r *Registry) DefaultFilterName() string { return r.defaultFilter }

// Defaults returns the default value of every declared variable.
func (r *Registry) Defaults() map[string]any {
	out := make(map[string]any)
	for _, name := range r.modeOrder {
		for _, v := range r.modes[name].Vars() {
			out[v.Key] = v.Default
		}
	}
	for _, name := range r.filterOrder {
		for _, v := range r.filters[name].Vars() {
			out[v.Key] = v.Default
		}
	}
	return out
}
