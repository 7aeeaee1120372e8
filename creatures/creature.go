// Package creatures implements the emergent layer on top of the mass field:
// detection of connected blobs, identity tracking across frames, sensing,
// energy, reproduction, and predation. Creatures are observations, not
// authoritative state; the field is the only source of truth for mass.
package creatures

import (
	"log/slog"
	"math"

	"github.com/pthm-cable/lenia/genome"
)

// Cell is one field cell owned by a creature this frame.
type Cell struct {
	X, Y  int
	Index int // flat index into the field grid
	Value float64
}

// Creature is one tracked identity. Position, mass, and cells are refreshed
// from detection every frame; genome, energy, memory, and home persist for
// the creature's lifetime.
type Creature struct {
	ID   uint64
	X, Y float64 // mass-weighted centroid, wrapped

	Mass  float64
	Cells []Cell // owned cells, valid for the current frame only

	VX, VY        float64 // EMA-smoothed cells per frame
	Heading       float64
	TargetHeading float64

	Age      int // frames matched
	LastSeen int // frame of last successful match

	Energy     float64
	Genome     *genome.Genome
	Generation int
	ParentID   uint64 // 0 when generation zero; never dereferenced
	BirthFrame int

	// Birthplace, fixed at spawn. Homing steers back here when the creature
	// wanders beyond its territory radius.
	HomeX, HomeY float64

	Memory *Memory

	alarmed bool // one alarm emission per predation pass
}

// Radius approximates body radius in cells from total mass.
func (c *Creature) Radius() float64 {
	return math.Max(1, math.Sqrt(c.Mass))
}

// Fertility is the mating drive in [0, 1]: zero below half the reproduction
// threshold, one at the threshold.
func (c *Creature) Fertility() float64 {
	half := c.Genome.ReproductionThreshold / 2
	if half <= 0 {
		return 0
	}
	f := (c.Energy - half) / half
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// Speed returns the current smoothed speed in cells per frame.
func (c *Creature) Speed() float64 {
	return math.Hypot(c.VX, c.VY)
}

// LogValue implements slog.LogValuer for compact structured logging.
func (c *Creature) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("id", c.ID),
		slog.Float64("x", c.X),
		slog.Float64("y", c.Y),
		slog.Float64("mass", c.Mass),
		slog.Float64("energy", c.Energy),
		slog.Int("gen", c.Generation),
		slog.Bool("predator", c.Genome.IsPredator),
	)
}
