// SPDX-License-Identifier: MIT
package analysis

import (
	"ledstrip/internal/dsp"

	"gonum.org/v1/gonum/stat"
)

// Energy sensitivity bounds and rise rate.
const (
	MinSensitivity = 0.0001
	MaxSensitivity = 0.99
	energyRise     = 0.99
	energyInitial  = 1.0
)

// EnergyEstimator reduces a mel vector to one smoothed loudness value used
// for energy-driven brightness and speed.
type EnergyEstimator struct {
	filter *dsp.ExpFilter
}

// NewEnergyEstimator creates an estimator whose decay rate is the given
// sensitivity, clamped to [MinSensitivity, MaxSensitivity].
func NewEnergyEstimator(sensitivity float64) *EnergyEstimator {
	return &EnergyEstimator{
		filter: dsp.NewScalarFilter(energyInitial, ClampSensitivity(sensitivity), energyRise),
	}
}

// Update averages mel and folds the mean into the smoothed energy.
func (e *EnergyEstimator) Update(mel []float64) float64 {
	if len(mel) == 0 {
		return e.filter.Scalar()
	}
	return e.filter.UpdateScalar(stat.Mean(mel, nil))
}

// Value returns the last smoothed energy without updating it.
func (e *EnergyEstimator) Value() float64 {
	return e.filter.Scalar()
}

// SetSensitivity changes the decay rate for subsequent updates.
func (e *EnergyEstimator) SetSensitivity(sensitivity float64) {
	e.filter.SetDecay(ClampSensitivity(sensitivity))
}

// Sensitivity returns the decay rate in use.
func (e *EnergyEstimator) Sensitivity() float64 {
	return e.filter.Decay
}

// ClampSensitivity bounds s to [MinSensitivity, MaxSensitivity].
func ClampSensitivity(s float64) float64 {
	switch {
	case s < MinSensitivity:
		return MinSensitivity
	case s > MaxSensitivity:
		return MaxSensitivity
	}
	return s
}
