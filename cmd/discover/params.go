// Package main provides CMA-ES search for solver and ecosystem parameters
// that produce long-lived creature populations.
package main

import (
	"github.com/pthm-cable/lenia/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
// Kernel radius and grid size are locked: changing them mid-search makes
// evaluations incomparable.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Growth / solver
			{Name: "growth_mu", Path: "growth.mu", Min: 0.05, Max: 0.30, Default: 0.15},
			{Name: "growth_sigma", Path: "growth.sigma", Min: 0.005, Max: 0.05, Default: 0.015},
			{Name: "flow_strength", Path: "growth.flow_strength", Min: 0.3, Max: 3.0, Default: 1.0},
			{Name: "diffusion", Path: "growth.diffusion", Min: 0.02, Max: 0.3, Default: 0.1},
			// Energy economy
			{Name: "food_energy_gain", Path: "energy.food_energy_gain", Min: 0.5, Max: 6.0, Default: 2.0},
			{Name: "max_food_per_cell", Path: "energy.max_food_per_cell", Min: 0.01, Max: 0.2, Default: 0.05},
			{Name: "size_metabolism", Path: "energy.size_metabolism", Min: 0.0005, Max: 0.01, Default: 0.002},
			{Name: "death_food_fraction", Path: "energy.death_food_fraction", Min: 0.1, Max: 0.6, Default: 0.3},
			// Environment
			{Name: "food_regen", Path: "environment.food_regen", Min: 0.002, Max: 0.05, Default: 0.01},
			{Name: "food_capacity", Path: "environment.food_capacity", Min: 0.3, Max: 2.0, Default: 1.0},
			// Predation
			{Name: "catch_radius_factor", Path: "predation.catch_radius_factor", Min: 0.3, Max: 1.0, Default: 0.6},
			{Name: "predation_energy", Path: "predation.predation_energy", Min: 0.5, Max: 3.0, Default: 1.5},
			// Mutation
			{Name: "mutation_rate", Path: "mutation.rate", Min: 0.05, Max: 0.5, Default: 0.25},
			{Name: "mutation_strength", Path: "mutation.strength", Min: 0.02, Max: 0.3, Default: 0.1},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)
	i := 0

	cfg.Growth.Mu = clamped[i]
	i++
	cfg.Growth.Sigma = clamped[i]
	i++
	cfg.Growth.FlowStrength = clamped[i]
	i++
	cfg.Growth.Diffusion = clamped[i]
	i++

	cfg.Energy.FoodEnergyGain = clamped[i]
	i++
	cfg.Energy.MaxFoodPerCell = clamped[i]
	i++
	cfg.Energy.SizeMetabolism = clamped[i]
	i++
	cfg.Energy.DeathFoodFraction = clamped[i]
	i++

	cfg.Environment.FoodRegen = clamped[i]
	i++
	cfg.Environment.FoodCapacity = clamped[i]
	i++

	cfg.Predation.CatchRadiusFactor = clamped[i]
	i++
	cfg.Predation.PredationEnergy = clamped[i]
	i++

	cfg.Mutation.Rate = clamped[i]
	i++
	cfg.Mutation.Strength = clamped[i]
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Growth.Mu,
		cfg.Growth.Sigma,
		cfg.Growth.FlowStrength,
		cfg.Growth.Diffusion,
		cfg.Energy.FoodEnergyGain,
		cfg.Energy.MaxFoodPerCell,
		cfg.Energy.SizeMetabolism,
		cfg.Energy.DeathFoodFraction,
		cfg.Environment.FoodRegen,
		cfg.Environment.FoodCapacity,
		cfg.Predation.CatchRadiusFactor,
		cfg.Predation.PredationEnergy,
		cfg.Mutation.Rate,
		cfg.Mutation.Strength,
	}
}
