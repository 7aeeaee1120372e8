package creatures

import (
	"math"

	"github.com/pthm-cable/lenia/field"
)

// memoryGain amplifies the memory gradient, which lives on a coarse grid and
// is numerically small next to direct sensory gradients.
const memoryGain = 10

// Sense computes every creature's desired heading from its sensory channels,
// then decays its memory. Channels are summed as weighted world-space
// vectors; the resulting direction becomes the target heading that
// UpdateHeadings integrates toward.
//
// A directional focus filter scales each stimulus by how well it aligns with
// the sensor cone: weight = (1-focus) + focus*(1+cos(delta))/2, where delta
// is the angle between the stimulus and heading+sensorAngle. Memory and
// ambient current bypass the filter: recall is positional, not directional,
// and current is advection rather than perception.
func (t *Tracker) Sense() {
	for _, cr := range t.creatures {
		t.senseOne(cr)
		cr.Memory.Decay(cr.Genome.MemoryDecay)
	}
}

func (t *Tracker) senseOne(cr *Creature) {
	g := cr.Genome
	var sx, sy float64

	coneAngle := cr.Heading + g.SensorAngle
	focus := g.SensorFocus
	addFocused := func(vx, vy float64) {
		if vx == 0 && vy == 0 {
			return
		}
		delta := math.Atan2(vy, vx) - coneAngle
		w := (1 - focus) + focus*(1+math.Cos(delta))/2
		sx += vx * w
		sy += vy * w
	}

	if t.env != nil {
		fx, fy := t.env.FoodGradient(cr.X, cr.Y)
		addFocused(fx*g.FoodWeight, fy*g.FoodWeight)

		px, py := t.env.PheromoneGradient(cr.X, cr.Y)
		addFocused(px*g.PheromoneWeight, py*g.PheromoneWeight)

		ax, ay := t.env.SignalGradient(SignalAlarm, cr.X, cr.Y)
		if !g.IsPredator {
			addFocused(-ax*g.AlarmSensitivity, -ay*g.AlarmSensitivity)
		}

		hx, hy := t.env.SignalGradient(SignalHunting, cr.X, cr.Y)
		if g.IsPredator {
			addFocused(hx*g.HuntingSensitivity, hy*g.HuntingSensitivity)
		} else {
			addFocused(-hx*g.HuntingSensitivity, -hy*g.HuntingSensitivity)
		}

		fert := cr.Fertility()
		if fert > 0 {
			mx, my := t.env.SignalGradient(SignalMating, cr.X, cr.Y)
			addFocused(mx*g.MatingSensitivity*fert, my*g.MatingSensitivity*fert)
		}

		tx, ty := t.env.SignalGradient(SignalTerritory, cr.X, cr.Y)
		addFocused(-tx*g.TerritorySensitivity, -ty*g.TerritorySensitivity)

		// Ambient current: pure advection, unfiltered.
		cx, cy := t.env.Current(cr.X, cr.Y)
		sx += cx
		sy += cy
	}

	// Remembered food pull / danger push, unfiltered.
	mx, my := cr.Memory.Gradient(cr.X, cr.Y)
	sx += mx * g.MemoryWeight * memoryGain
	sy += my * g.MemoryWeight * memoryGain

	socX, socY := t.socialForce(cr)
	addFocused(socX*g.SocialWeight, socY*g.SocialWeight)

	if g.IsPredator {
		px, py := t.packPursuit(cr)
		addFocused(px*g.HuntingSensitivity, py*g.HuntingSensitivity)
	} else {
		ax, ay := t.flockAlignment(cr)
		addFocused(ax*g.AlignmentWeight, ay*g.AlignmentWeight)
	}

	// Homing: pull back toward birthplace once outside the territory.
	hd := field.ToroidalDistance(cr.X, cr.Y, cr.HomeX, cr.HomeY, t.n)
	if hd > g.TerritoryRadius {
		dx, dy := field.ToroidalDelta(cr.X, cr.Y, cr.HomeX, cr.HomeY, t.n)
		addFocused(dx/hd*g.HomingStrength, dy/hd*g.HomingStrength)
	}

	t.maybeBroadcast(cr)

	if math.Hypot(sx, sy) > 1e-9 {
		cr.TargetHeading = math.Atan2(sy, sx)
	}
}

// socialForce sums pairwise attraction/repulsion over neighbors within twice
// the flocking radius. Predators are drawn to smaller creatures and repelled
// by equal or larger ones; non-predators attract mutually, weighted by body
// size similarity.
func (t *Tracker) socialForce(cr *Creature) (fx, fy float64) {
	g := cr.Genome
	reach := 2 * g.FlockingRadius
	for _, other := range t.creatures {
		if other == cr {
			continue
		}
		dx, dy := field.ToroidalDelta(cr.X, cr.Y, other.X, other.Y, t.n)
		d := math.Hypot(dx, dy)
		if d > reach || d < 1e-9 {
			continue
		}
		ux, uy := dx/d, dy/d
		w := 1 / (d + 1)

		if g.IsPredator {
			if other.Mass < cr.Mass {
				fx += ux * w
				fy += uy * w
			} else {
				fx -= ux * w
				fy -= uy * w
			}
			continue
		}

		sim := 1 - math.Abs(cr.Mass-other.Mass)/(cr.Mass+other.Mass)
		fx += ux * w * sim
		fy += uy * w * sim
	}
	return fx, fy
}

// flockAlignment averages neighboring prey headings within the flocking
// radius, giving schooling.
func (t *Tracker) flockAlignment(cr *Creature) (ax, ay float64) {
	var count int
	for _, other := range t.creatures {
		if other == cr || other.Genome.IsPredator {
			continue
		}
		if t.distance(cr, other) > cr.Genome.FlockingRadius {
			continue
		}
		ax += math.Cos(other.Heading)
		ay += math.Sin(other.Heading)
		count++
	}
	if count == 0 {
		return 0, 0
	}
	return ax / float64(count), ay / float64(count)
}

// packPursuit returns the predator's approach vector toward the nearest prey,
// blended between direct pursuit and a flanking approach rotated 90 degrees
// off the average co-hunter bearing. Coordination makes a pack converge from
// different sides instead of stacking on one line.
func (t *Tracker) packPursuit(cr *Creature) (px, py float64) {
	var prey *Creature
	best := math.MaxFloat64
	for _, other := range t.creatures {
		if other.Genome.IsPredator {
			continue
		}
		if d := t.distance(cr, other); d < best {
			best = d
			prey = other
		}
	}
	if prey == nil {
		return 0, 0
	}

	dx, dy := field.ToroidalDelta(cr.X, cr.Y, prey.X, prey.Y, t.n)
	d := math.Hypot(dx, dy)
	if d < 1e-9 {
		return 0, 0
	}
	dirX, dirY := dx/d, dy/d

	var bx, by float64
	var hunters int
	for _, other := range t.creatures {
		if other == cr || !other.Genome.IsPredator {
			continue
		}
		odx, ody := field.ToroidalDelta(other.X, other.Y, prey.X, prey.Y, t.n)
		od := math.Hypot(odx, ody)
		if od < 1e-9 {
			continue
		}
		bx += odx / od
		by += ody / od
		hunters++
	}

	pc := cr.Genome.PackCoordination
	if hunters == 0 || pc <= 0 {
		return dirX, dirY
	}
	bx /= float64(hunters)
	by /= float64(hunters)

	// Two candidate flanks, rotated +-90 off the pack bearing; take the one
	// closer to direct pursuit.
	f1x, f1y := -by, bx
	f2x, f2y := by, -bx
	if f1x*dirX+f1y*dirY < f2x*dirX+f2y*dirY {
		f1x, f1y = f2x, f2y
	}

	return dirX*(1-pc) + f1x*pc, dirY*(1-pc) + f1y*pc
}

// maybeBroadcast emits occasional mating and territory signals. Alarm and
// hunting emissions are event-driven and live in the predation pass.
func (t *Tracker) maybeBroadcast(cr *Creature) {
	if t.env == nil {
		return
	}
	if fert := cr.Fertility(); fert >= 0.8 && t.rng.Float64() < 0.1 {
		t.emitSignal(cr, SignalMating, fert)
	}
	home := field.ToroidalDistance(cr.X, cr.Y, cr.HomeX, cr.HomeY, t.n)
	if home <= cr.Genome.TerritoryRadius && t.rng.Float64() < 0.02 {
		t.emitSignal(cr, SignalTerritory, 1)
	}
}
