// SPDX-License-Identifier: MIT
package render

import (
	"ledstrip/internal/analysis"
	"ledstrip/internal/effects"
	"ledstrip/internal/store"
)

// Tunable keys owned by the renderer.
const (
	KeyEnergySensitivity    = "energy_sensitivity"
	KeyEnergySpeed          = "energy_speed"
	KeyEnergyBrightness     = "energy_brightness"
	KeyEnergyBrightnessMult = "energy_brightness_mult"
)

// Tunable defaults.
const (
	DefaultEnergySensitivity    = 0.99
	DefaultEnergyBrightnessMult = 1.0
)

// Tunables declares the renderer's own variables so the control API can
// validate them like mode variables.
func Tunables() []effects.VarSpec {
	return []effects.VarSpec{
		{Key: KeyEnergySensitivity, Validator: effects.FloatVar{Name: KeyEnergySensitivity}, Default: DefaultEnergySensitivity},
		{Key: KeyEnergySpeed, Validator: effects.BoolVar{Name: KeyEnergySpeed}, Default: false},
		{Key: KeyEnergyBrightness, Validator: effects.BoolVar{Name: KeyEnergyBrightness}, Default: false},
		{Key: KeyEnergyBrightnessMult, Validator: effects.FloatVar{Name: KeyEnergyBrightnessMult}, Default: DefaultEnergyBrightnessMult},
	}
}

// Defaults returns the initial value of every tunable: selection, enable
// flag, renderer variables and every mode and filter variable.
func Defaults(reg *effects.Registry) map[string]any {
	out := reg.Defaults()
	out[store.KeyMode] = reg.DefaultModeName()
	out[store.KeyFilter] = reg.DefaultFilterName()
	out[store.KeyEnabled] = true
	for _, v := range Tunables() {
		out[v.Key] = v.Default
	}
	return out
}

// Settings is the renderer's view of the tunables, read from one store
// snapshot.
type Settings struct {
	Mode                 string
	Filter               string
	Enabled              bool
	EnergySensitivity    float64
	EnergySpeed          bool
	EnergyBrightness     bool
	EnergyBrightnessMult float64
	Vars                 store.Snapshot
}

// LoadSettings decodes a snapshot, substituting defaults for missing keys.
func LoadSettings(snap store.Snapshot) Settings {
	if snap == nil {
		snap = store.Snapshot{}
	}
	return Settings{
		Mode:                 snap.String(store.KeyMode, effects.DefaultMode),
		Filter:               snap.String(store.KeyFilter, effects.DefaultFilter),
		Enabled:              snap.Bool(store.KeyEnabled, true),
		EnergySensitivity:    analysis.ClampSensitivity(snap.Float(KeyEnergySensitivity, DefaultEnergySensitivity)),
		EnergySpeed:          snap.Bool(KeyEnergySpeed, false),
		EnergyBrightness:     snap.Bool(KeyEnergyBrightness, false),
		EnergyBrightnessMult: snap.Float(KeyEnergyBrightnessMult, DefaultEnergyBrightnessMult),
		Vars:                 snap,
	}
}
