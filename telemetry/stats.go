// Package telemetry provides windowed ecosystem statistics, per-creature
// lifetime tracking, CSV output, and a SQLite run store.
package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for one frame window.
type WindowStats struct {
	WindowStart int `csv:"-"`
	WindowEnd   int `csv:"window_end"`

	// Population at window end
	Population    int `csv:"population"`
	PredatorCount int `csv:"predators"`
	MaxGeneration int `csv:"max_generation"`

	// Events during the window
	Births         int `csv:"births"`
	Deaths         int `csv:"deaths"`
	Kills          int `csv:"kills"`
	StaleRemoved   int `csv:"stale_removed"`
	SignalsEmitted int `csv:"signals_emitted"`

	// Field diagnostics at window end
	TotalMass float64 `csv:"total_mass"`
	MassDrift float64 `csv:"mass_drift"` // worst per-step relative drift in the window

	// Energy distribution at window end
	EnergyMean float64 `csv:"energy_mean"`
	EnergyStd  float64 `csv:"energy_std"`
	EnergyP10  float64 `csv:"energy_p10"`
	EnergyP50  float64 `csv:"energy_p50"`
	EnergyP90  float64 `csv:"energy_p90"`

	// Trait distribution at window end
	MassMean       float64 `csv:"mass_mean"`
	SpeedMean      float64 `csv:"speed_mean"`
	FoodWeightMean float64 `csv:"food_weight_mean"`
	MetabolismMean float64 `csv:"metabolism_mean"`
}

// Percentile calculates the p-th percentile of a sorted slice with linear
// interpolation. p is in [0, 1]. Returns 0 for an empty slice.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Distribution computes mean, std, and percentiles from raw values.
func Distribution(values []float64) (mean, std, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0, 0
	}
	mean = stat.Mean(values, nil)
	if len(values) > 1 {
		std = stat.StdDev(values, nil)
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return mean, std, Percentile(sorted, 0.10), Percentile(sorted, 0.50), Percentile(sorted, 0.90)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStart),
		slog.Int("window_end", s.WindowEnd),
		slog.Int("population", s.Population),
		slog.Int("predators", s.PredatorCount),
		slog.Int("max_generation", s.MaxGeneration),
		slog.Int("births", s.Births),
		slog.Int("deaths", s.Deaths),
		slog.Int("kills", s.Kills),
		slog.Int("stale_removed", s.StaleRemoved),
		slog.Int("signals_emitted", s.SignalsEmitted),
		slog.Float64("total_mass", s.TotalMass),
		slog.Float64("mass_drift", s.MassDrift),
		slog.Float64("energy_mean", s.EnergyMean),
		slog.Float64("energy_std", s.EnergyStd),
		slog.Float64("energy_p10", s.EnergyP10),
		slog.Float64("energy_p50", s.EnergyP50),
		slog.Float64("energy_p90", s.EnergyP90),
		slog.Float64("mass_mean", s.MassMean),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("food_weight_mean", s.FoodWeightMean),
		slog.Float64("metabolism_mean", s.MetabolismMean),
	)
}

// LogStats logs the window stats at info level.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
