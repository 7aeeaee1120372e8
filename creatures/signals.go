package creatures

import "time"

// SignalType identifies one of the broadcast signal channels creatures emit
// into the environment.
type SignalType int

const (
	SignalAlarm SignalType = iota
	SignalHunting
	SignalMating
	SignalTerritory

	NumSignalTypes = 4
)

func (t SignalType) String() string {
	switch t {
	case SignalAlarm:
		return "alarm"
	case SignalHunting:
		return "hunting"
	case SignalMating:
		return "mating"
	case SignalTerritory:
		return "territory"
	}
	return "unknown"
}

// Environment is the external layer the tracker senses and acts on. The
// tracker treats it as a black box; a nil Environment disables food, signals,
// pheromones, and current.
type Environment interface {
	// Gradients, as world-space vectors at a position.
	FoodGradient(x, y float64) (gx, gy float64)
	PheromoneGradient(x, y float64) (gx, gy float64)
	SignalGradient(t SignalType, x, y float64) (gx, gy float64)

	// Current returns the ambient drift vector at a position.
	Current(x, y float64) (cx, cy float64)

	// ConsumeFood removes up to max food at a position and returns the
	// amount actually taken.
	ConsumeFood(x, y, max float64) float64

	// AddFood deposits food over a disc. Used by death-to-food recycling.
	AddFood(x, y, amount, radius float64)

	// EmitSignal broadcasts into a signal channel at a position.
	EmitSignal(t SignalType, x, y, intensity float64)

	// DepositPheromone lays trail pheromone at a position.
	DepositPheromone(x, y, amount float64)
}

// emissionWindow bounds how long an emission stays in the recent list.
const emissionWindow = 500 * time.Millisecond

// Emission records one recent signal broadcast. The list exists for
// presentation and diagnostics only; signal propagation itself lives in the
// environment grids.
type Emission struct {
	CreatureID uint64
	Type       SignalType
	X, Y       float64
	At         time.Time
}

func (t *Tracker) emitSignal(c *Creature, st SignalType, intensity float64) {
	if t.env == nil {
		return
	}
	intensity *= c.Genome.SignalEmissionRate
	if intensity <= 0 {
		return
	}
	t.env.EmitSignal(st, c.X, c.Y, intensity)
	t.emissions = append(t.emissions, Emission{
		CreatureID: c.ID,
		Type:       st,
		X:          c.X,
		Y:          c.Y,
		At:         t.now(),
	})
	t.stats.SignalsEmitted++
}

// RecentEmissions returns signal broadcasts from the last half second,
// pruning older entries in place.
func (t *Tracker) RecentEmissions() []Emission {
	cutoff := t.now().Add(-emissionWindow)
	kept := t.emissions[:0]
	for _, e := range t.emissions {
		if e.At.After(cutoff) {
			kept = append(kept, e)
		}
	}
	t.emissions = kept
	return t.emissions
}
