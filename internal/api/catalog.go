// SPDX-License-Identifier: MIT
package api

import (
	"fmt"
	"io"
	"strings"

	"ledstrip/internal/effects"
)

// VarInfo describes one variable to clients.
type VarInfo struct {
	Key         string         `json:"key"`
	Param       string         `json:"param"` // request parameter name
	Type        string         `json:"type"`
	Constraints map[string]any `json:"constraints,omitempty"`
	Default     any            `json:"default"`
}

// EntryInfo describes a mode or filter.
type EntryInfo struct {
	Name        string    `json:"name"`
	Visualizer  bool      `json:"visualizer,omitempty"`
	UsesFilters bool      `json:"uses_filters,omitempty"`
	Vars        []VarInfo `json:"vars"`
}

// Catalog lists everything a client can select.
type Catalog struct {
	Modes         []EntryInfo `json:"modes"`
	Filters       []EntryInfo `json:"filters"`
	DefaultMode   string      `json:"default_mode"`
	DefaultFilter string      `json:"default_filter"`
}

// NewCatalog describes reg in registration order.
func NewCatalog(reg *effects.Registry) Catalog {
	c := Catalog{
		DefaultMode:   reg.DefaultModeName(),
		DefaultFilter: reg.DefaultFilterName(),
	}
	for _, name := range reg.ModeNames() {
		m, _ := reg.Mode(name)
		c.Modes = append(c.Modes, EntryInfo{
			Name:        name,
			Visualizer:  m.Visualizer(),
			UsesFilters: m.UsesFilters(),
			Vars:        varInfos(name, m.Vars()),
		})
	}
	for _, name := range reg.FilterNames() {
		f, _ := reg.Filter(name)
		c.Filters = append(c.Filters, EntryInfo{
			Name: name,
			Vars: varInfos(name, f.Vars()),
		})
	}
	return c
}

func varInfos(owner string, specs []effects.VarSpec) []VarInfo {
	out := make([]VarInfo, 0, len(specs))
	for _, s := range specs {
		out = append(out, VarInfo{
			Key:         s.Key,
			Param:       strings.TrimPrefix(s.Key, owner+"_"),
			Type:        s.Validator.Type(),
			Constraints: s.Validator.Constraints(),
			Default:     s.Default,
		})
	}
	return out
}

// Print writes the catalog as plain text, one entry per line.
func (c Catalog) Print(w io.Writer) {
	section := func(title, def string, entries []EntryInfo) {
		fmt.Fprintf(w, "\n%s\n\n", title)
		for _, e := range entries {
			var tags []string
			if e.Name == def {
				tags = append(tags, "default")
			}
			if e.Visualizer {
				tags = append(tags, "visualizer")
			}
			if e.UsesFilters {
				tags = append(tags, "filters")
			}
			fmt.Fprintf(w, "  %s", e.Name)
			if len(tags) > 0 {
				fmt.Fprintf(w, " (%s)", strings.Join(tags, ", "))
			}
			fmt.Fprintln(w)
			for _, v := range e.Vars {
				fmt.Fprintf(w, "      %s: %s, default %v", v.Param, v.Type, v.Default)
				if lo, ok := v.Constraints["min"]; ok {
					fmt.Fprintf(w, ", min %v", lo)
				}
				fmt.Fprintln(w)
			}
		}
	}
	section("Modes", c.DefaultMode, c.Modes)
	section("Filters", c.DefaultFilter, c.Filters)
}
