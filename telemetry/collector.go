package telemetry

import (
	"math"

	"github.com/pthm-cable/lenia/creatures"
)

// Collector accumulates per-step events into frame windows and produces
// WindowStats on flush.
type Collector struct {
	windowFrames int
	windowStart  int

	births         int
	deaths         int
	kills          int
	staleRemoved   int
	signalsEmitted int
	worstDrift     float64

	// Scratch for distribution math, reused across flushes.
	energies []float64
}

// NewCollector creates a collector with the given window length in frames.
func NewCollector(windowFrames int) *Collector {
	if windowFrames < 1 {
		windowFrames = 1
	}
	return &Collector{windowFrames: windowFrames}
}

// RecordStep folds one tracker step's events into the current window.
// drift is the relative mass change across the transport pass.
func (c *Collector) RecordStep(s creatures.StepStats, drift float64) {
	c.births += s.Births
	c.deaths += s.Deaths
	c.kills += s.Kills
	c.staleRemoved += s.StaleRemoved
	c.signalsEmitted += s.SignalsEmitted
	if d := math.Abs(drift); d > c.worstDrift {
		c.worstDrift = d
	}
}

// ShouldFlush reports whether the window is complete at the given frame.
func (c *Collector) ShouldFlush(frame int) bool {
	return frame-c.windowStart >= c.windowFrames
}

// Flush produces WindowStats from the accumulated events and the roster at
// window end, then resets for the next window.
func (c *Collector) Flush(frame int, roster []*creatures.Creature, totalMass float64) WindowStats {
	c.energies = c.energies[:0]
	var predators, maxGen int
	var massSum, speedSum, foodSum, metaSum float64
	for _, cr := range roster {
		c.energies = append(c.energies, cr.Energy)
		if cr.Genome.IsPredator {
			predators++
		}
		if cr.Generation > maxGen {
			maxGen = cr.Generation
		}
		massSum += cr.Mass
		speedSum += cr.Speed()
		foodSum += cr.Genome.FoodWeight
		metaSum += cr.Genome.MetabolismRate
	}

	mean, std, p10, p50, p90 := Distribution(c.energies)

	stats := WindowStats{
		WindowStart: c.windowStart,
		WindowEnd:   frame,

		Population:    len(roster),
		PredatorCount: predators,
		MaxGeneration: maxGen,

		Births:         c.births,
		Deaths:         c.deaths,
		Kills:          c.kills,
		StaleRemoved:   c.staleRemoved,
		SignalsEmitted: c.signalsEmitted,

		TotalMass: totalMass,
		MassDrift: c.worstDrift,

		EnergyMean: mean,
		EnergyStd:  std,
		EnergyP10:  p10,
		EnergyP50:  p50,
		EnergyP90:  p90,
	}
	if n := float64(len(roster)); n > 0 {
		stats.MassMean = massSum / n
		stats.SpeedMean = speedSum / n
		stats.FoodWeightMean = foodSum / n
		stats.MetabolismMean = metaSum / n
	}

	c.windowStart = frame
	c.births = 0
	c.deaths = 0
	c.kills = 0
	c.staleRemoved = 0
	c.signalsEmitted = 0
	c.worstDrift = 0

	return stats
}

// WindowFrames returns the configured window length.
func (c *Collector) WindowFrames() int {
	return c.windowFrames
}
