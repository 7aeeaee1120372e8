package creatures

import (
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/pthm-cable/lenia/config"
	"github.com/pthm-cable/lenia/field"
	"github.com/pthm-cable/lenia/genome"
)

// StepStats counts roster events within one tracker step. Reset at the start
// of every step; the telemetry collector accumulates them across a window.
type StepStats struct {
	Births         int
	Deaths         int
	Kills          int
	StaleRemoved   int
	SignalsEmitted int
}

// Tracker maintains creature identity across detection frames and runs the
// behavioral passes: energy, predation, lifecycle, sensing, and heading.
//
// Matching is greedy nearest-neighbor in mass order. Heavier candidates claim
// first, so when two candidates contest one identity the bigger body keeps
// it. The ordering dependence is accepted; a globally optimal assignment
// changes outcomes only in rare contested frames and costs far more.
type Tracker struct {
	n   int
	cfg *config.Config
	rng *rand.Rand
	env Environment // nil disables environment interaction

	field *field.MassField
	log   *slog.Logger

	creatures []*Creature
	nextID    uint64
	frame     int

	pending []PendingOffspring

	// Per-cell creature attribution, rebuilt each match pass. Zero = unowned.
	labels []uint64

	// Per-cell steering force sprayed from creature headings, consumed by the
	// field's gradient assembly.
	steerX, steerY []float64

	influences []field.Influence
	claimed    []bool
	emissions  []Emission
	killers    []uint64 // hunter IDs for this step's kills

	stats StepStats

	// now is replaceable for tests of the emission window.
	now func() time.Time
}

// PendingOffspring is a reproduction event awaiting reconciliation with a
// detected blob. Expires after a configured number of frames.
type PendingOffspring struct {
	X, Y       float64
	Genome     *genome.Genome
	Energy     float64
	Generation int
	ParentID   uint64
	Memory     *Memory
	Frame      int
}

// NewTracker creates a tracker bound to a field and an optional environment.
func NewTracker(cfg *config.Config, f *field.MassField, env Environment, rng *rand.Rand, log *slog.Logger) *Tracker {
	if log == nil {
		log = slog.Default()
	}
	n := f.N
	return &Tracker{
		n:      n,
		cfg:    cfg,
		rng:    rng,
		env:    env,
		field:  f,
		log:    log,
		labels: make([]uint64, n*n),
		steerX: make([]float64, n*n),
		steerY: make([]float64, n*n),
		now:    time.Now,
	}
}

// Creatures returns the live roster. Callers must not mutate it.
func (t *Tracker) Creatures() []*Creature { return t.creatures }

// Labels returns the per-cell creature attribution grid for the last match
// pass. Zero means unowned.
func (t *Tracker) Labels() []uint64 { return t.labels }

// Stats returns the event counts for the last step.
func (t *Tracker) Stats() StepStats { return t.stats }

// Pending returns reproduction events awaiting reconciliation.
func (t *Tracker) Pending() []PendingOffspring { return t.pending }

// Killers returns the hunter ID for each kill in the last step.
func (t *Tracker) Killers() []uint64 { return t.killers }

// Frame returns the last matched frame number.
func (t *Tracker) Frame() int { return t.frame }

// Resize drops all tracked state and reallocates grids for a new field size.
func (t *Tracker) Resize(n int) {
	t.n = n
	t.creatures = t.creatures[:0]
	t.pending = t.pending[:0]
	t.labels = make([]uint64, n*n)
	t.steerX = make([]float64, n*n)
	t.steerY = make([]float64, n*n)
}

// Clear drops all tracked creatures and pending offspring.
func (t *Tracker) Clear() {
	t.creatures = t.creatures[:0]
	t.pending = t.pending[:0]
	for i := range t.labels {
		t.labels[i] = 0
	}
}

// Match reconciles detection candidates with the existing roster.
//
// Candidates arrive sorted by mass descending. Each claims the nearest
// unclaimed creature within the match distance; a claimed creature is updated
// in place. Unclaimed candidates first try pending offspring reconciliation,
// then spawn as fresh generation-0 creatures. Creatures unseen for the
// staleness window are removed afterward.
func (t *Tracker) Match(cands []Candidate, frame int) {
	t.frame = frame
	t.stats = StepStats{}
	t.killers = t.killers[:0]

	det := &t.cfg.Detection
	n := t.n

	// Drop expired pending offspring.
	kept := t.pending[:0]
	for _, p := range t.pending {
		if frame-p.Frame <= t.cfg.Energy.PendingTimeout {
			kept = append(kept, p)
		}
	}
	t.pending = kept

	if cap(t.claimed) < len(t.creatures) {
		t.claimed = make([]bool, len(t.creatures))
	}
	t.claimed = t.claimed[:len(t.creatures)]
	for i := range t.claimed {
		t.claimed[i] = false
	}

	for ci := range cands {
		c := &cands[ci]

		best := -1
		bestDist := det.MatchDistance
		for i, cr := range t.creatures {
			if t.claimed[i] {
				continue
			}
			d := field.ToroidalDistance(c.X, c.Y, cr.X, cr.Y, n)
			if d < bestDist {
				bestDist = d
				best = i
			}
		}

		if best >= 0 {
			t.claimed[best] = true
			t.updateCreature(t.creatures[best], c, frame)
			continue
		}

		if cr := t.captureOffspring(c, frame); cr != nil {
			t.creatures = append(t.creatures, cr)
			continue
		}

		t.creatures = append(t.creatures, t.spawn(c, frame))
	}

	// Staleness sweep.
	live := t.creatures[:0]
	for _, cr := range t.creatures {
		if frame-cr.LastSeen > det.StaleFrames {
			t.stats.StaleRemoved++
			t.log.Debug("creature lost", "creature", cr, "frame", frame)
			continue
		}
		live = append(live, cr)
	}
	t.creatures = live

	t.rebuildLabels()
}

// updateCreature refreshes a matched creature's kinematics from its candidate.
func (t *Tracker) updateCreature(cr *Creature, c *Candidate, frame int) {
	det := &t.cfg.Detection

	dx, dy := field.ToroidalDelta(cr.X, cr.Y, c.X, c.Y, t.n)
	s := det.VelocitySmooth
	cr.VX = cr.VX*(1-s) + dx*s
	cr.VY = cr.VY*(1-s) + dy*s

	cr.X, cr.Y = c.X, c.Y
	cr.Mass = c.Mass
	cr.Cells = c.Cells
	cr.Age++
	cr.LastSeen = frame

	if cr.Speed() > det.SpeedNoiseFloor {
		cr.Heading = math.Atan2(cr.VY, cr.VX)
	}
}

// captureOffspring tries to reconcile an unmatched candidate with a pending
// reproduction event within the capture radius.
func (t *Tracker) captureOffspring(c *Candidate, frame int) *Creature {
	best := -1
	bestDist := t.cfg.Energy.PendingCaptureDist
	for i, p := range t.pending {
		d := field.ToroidalDistance(c.X, c.Y, p.X, p.Y, t.n)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	if best < 0 {
		return nil
	}

	p := t.pending[best]
	t.pending = append(t.pending[:best], t.pending[best+1:]...)

	t.nextID++
	cr := &Creature{
		ID:         t.nextID,
		X:          c.X,
		Y:          c.Y,
		Mass:       c.Mass,
		Cells:      c.Cells,
		Heading:    t.rng.Float64()*2*math.Pi - math.Pi,
		LastSeen:   frame,
		Energy:     p.Energy,
		Genome:     p.Genome,
		Generation: p.Generation,
		ParentID:   p.ParentID,
		BirthFrame: frame,
		HomeX:      c.X,
		HomeY:      c.Y,
		Memory:     p.Memory,
	}
	t.stats.Births++
	t.log.Debug("offspring captured", "creature", cr, "parent", p.ParentID)
	return cr
}

// spawn creates a fresh generation-0 creature for an unmatched candidate.
func (t *Tracker) spawn(c *Candidate, frame int) *Creature {
	t.nextID++
	cr := &Creature{
		ID:         t.nextID,
		X:          c.X,
		Y:          c.Y,
		Mass:       c.Mass,
		Cells:      c.Cells,
		Heading:    t.rng.Float64()*2*math.Pi - math.Pi,
		LastSeen:   frame,
		Energy:     t.cfg.Energy.Initial,
		Genome:     genome.New(t.rng),
		BirthFrame: frame,
		HomeX:      c.X,
		HomeY:      c.Y,
		Memory:     NewMemory(t.cfg.Memory.Resolution, t.n),
	}
	t.stats.Births++
	return cr
}

// rebuildLabels rewrites the per-cell attribution grid from the roster.
func (t *Tracker) rebuildLabels() {
	for i := range t.labels {
		t.labels[i] = 0
	}
	for _, cr := range t.creatures {
		if cr.LastSeen != t.frame {
			continue // unmatched this frame: cells are stale
		}
		for _, cell := range cr.Cells {
			t.labels[cell.Index] = cr.ID
		}
	}
}

// UpdateHeadings integrates each creature's heading toward its target along
// the shortest arc, scaled by the genome turn rate.
func (t *Tracker) UpdateHeadings() {
	for _, cr := range t.creatures {
		delta := wrapAngle(cr.TargetHeading - cr.Heading)
		cr.Heading = wrapAngle(cr.Heading + delta*cr.Genome.TurnRate)
	}
}

// Influences fills and returns the morphology influence list for the blender.
func (t *Tracker) Influences() []field.Influence {
	t.influences = t.influences[:0]
	for _, cr := range t.creatures {
		g := cr.Genome
		t.influences = append(t.influences, field.Influence{
			X:           cr.X,
			Y:           cr.Y,
			Heading:     cr.Heading,
			Mu:          g.GrowthMu,
			Sigma:       g.GrowthSigma,
			Radius:      g.KernelRadius,
			Bias:        g.KernelBias,
			Orientation: g.KernelOrientation,
		})
	}
	return t.influences
}

// steerScale converts heading drive into flow-field units.
const steerScale = 0.5

// Steering rebuilds and returns the per-cell steering force grids. Each
// creature sprays a heading-aligned force over its owned cells, scaled by its
// speed preference, so transport carries the body where behavior points it.
func (t *Tracker) Steering() (sx, sy []float64) {
	for i := range t.steerX {
		t.steerX[i] = 0
		t.steerY[i] = 0
	}
	for _, cr := range t.creatures {
		if cr.LastSeen != t.frame {
			continue
		}
		f := cr.Genome.SpeedPreference * steerScale
		fx := math.Cos(cr.Heading) * f
		fy := math.Sin(cr.Heading) * f
		for _, cell := range cr.Cells {
			t.steerX[cell.Index] += fx
			t.steerY[cell.Index] += fy
		}
	}
	return t.steerX, t.steerY
}

func (t *Tracker) distance(a, b *Creature) float64 {
	return field.ToroidalDistance(a.X, a.Y, b.X, b.Y, t.n)
}

// wrapAngle maps an angle into (-pi, pi].
func wrapAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
