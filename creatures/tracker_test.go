package creatures

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/lenia/config"
	"github.com/pthm-cable/lenia/field"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	return cfg
}

func newTestTracker(t *testing.T, n int) (*Tracker, *field.MassField) {
	t.Helper()
	cfg := testConfig(t)
	cfg.Grid.Size = n
	f := field.New(n, cfg.Growth.Mu, cfg.Growth.Sigma, cfg.Growth.FlowStrength, 0)
	rng := rand.New(rand.NewSource(1))
	return NewTracker(cfg, f, nil, rng, nil), f
}

func TestMatchPreservesIdentity(t *testing.T) {
	tr, _ := newTestTracker(t, 64)

	tr.Match([]Candidate{{X: 20, Y: 20, Mass: 10}}, 1)
	if len(tr.Creatures()) != 1 {
		t.Fatalf("roster = %d, want 1", len(tr.Creatures()))
	}
	id := tr.Creatures()[0].ID

	// Moved a little: same identity.
	tr.Match([]Candidate{{X: 22, Y: 21, Mass: 10.5}}, 2)
	if len(tr.Creatures()) != 1 {
		t.Fatalf("roster = %d after move, want 1", len(tr.Creatures()))
	}
	cr := tr.Creatures()[0]
	if cr.ID != id {
		t.Errorf("identity changed: %d -> %d", id, cr.ID)
	}
	if cr.Age != 1 {
		t.Errorf("age = %d, want 1", cr.Age)
	}
	if cr.Mass != 10.5 {
		t.Errorf("mass = %v, want 10.5", cr.Mass)
	}
}

func TestMatchClaimsAreExclusive(t *testing.T) {
	tr, _ := newTestTracker(t, 64)

	tr.Match([]Candidate{{X: 20, Y: 20, Mass: 10}}, 1)
	id := tr.Creatures()[0].ID

	// Two candidates near the one creature: the heavier claims it, the
	// lighter spawns fresh.
	tr.Match([]Candidate{
		{X: 21, Y: 20, Mass: 8},
		{X: 19, Y: 20, Mass: 3},
	}, 2)

	roster := tr.Creatures()
	if len(roster) != 2 {
		t.Fatalf("roster = %d, want 2", len(roster))
	}
	if roster[0].ID != id {
		t.Errorf("existing creature lost its identity")
	}
	if roster[0].Mass != 8 {
		t.Errorf("claimed creature mass = %v, want heavier candidate's 8", roster[0].Mass)
	}
	if roster[1].ID == id {
		t.Error("second candidate reused an already claimed identity")
	}
	if roster[1].Generation != 0 {
		t.Errorf("fresh spawn generation = %d, want 0", roster[1].Generation)
	}
}

func TestMatchBeyondDistanceSpawnsNew(t *testing.T) {
	tr, _ := newTestTracker(t, 64)

	tr.Match([]Candidate{{X: 10, Y: 10, Mass: 10}}, 1)
	id := tr.Creatures()[0].ID

	// Far from the existing creature: new identity, old one goes stale later.
	tr.Match([]Candidate{{X: 40, Y: 40, Mass: 10}}, 2)

	if len(tr.Creatures()) != 2 {
		t.Fatalf("roster = %d, want 2", len(tr.Creatures()))
	}
	if tr.Creatures()[1].ID == id {
		t.Error("distant candidate matched instead of spawning")
	}
}

func TestStaleCreatureRemoved(t *testing.T) {
	tr, _ := newTestTracker(t, 64)
	stale := tr.cfg.Detection.StaleFrames

	tr.Match([]Candidate{{X: 20, Y: 20, Mass: 10}}, 1)

	// Unseen for the grace window: still tracked.
	tr.Match(nil, 1+stale)
	if len(tr.Creatures()) != 1 {
		t.Fatalf("creature dropped within staleness window")
	}

	// One frame past the window: removed.
	tr.Match(nil, 2+stale)
	if len(tr.Creatures()) != 0 {
		t.Fatalf("stale creature survived %d unseen frames", stale+1)
	}
	if tr.Stats().StaleRemoved != 1 {
		t.Errorf("stale removals = %d, want 1", tr.Stats().StaleRemoved)
	}
}

func TestVelocityEMAAndToroidalMotion(t *testing.T) {
	tr, _ := newTestTracker(t, 64)
	s := tr.cfg.Detection.VelocitySmooth

	tr.Match([]Candidate{{X: 63, Y: 10, Mass: 10}}, 1)
	// Crossing the seam: displacement is +2, not -61.
	tr.Match([]Candidate{{X: 1, Y: 10, Mass: 10}}, 2)

	cr := tr.Creatures()[0]
	want := 2 * s
	if math.Abs(cr.VX-want) > 1e-9 {
		t.Errorf("VX = %v, want %v (EMA of wrapped displacement)", cr.VX, want)
	}
	if math.Abs(cr.VY) > 1e-9 {
		t.Errorf("VY = %v, want 0", cr.VY)
	}
}

func TestHeadingSmoothingShortestArc(t *testing.T) {
	tr, _ := newTestTracker(t, 64)
	tr.Match([]Candidate{{X: 20, Y: 20, Mass: 10}}, 1)

	cr := tr.Creatures()[0]
	cr.Heading = 3.0
	cr.TargetHeading = -3.0
	cr.Genome.TurnRate = 0.5

	// Shortest arc from 3.0 to -3.0 goes through pi, not through zero.
	tr.UpdateHeadings()
	if cr.Heading <= 3.0 && cr.Heading > 0 {
		t.Errorf("heading = %v, moved the long way around", cr.Heading)
	}

	cr.Genome.TurnRate = 1.0
	tr.UpdateHeadings()
	if math.Abs(wrapAngle(cr.Heading-(-3.0))) > 1e-9 {
		t.Errorf("heading = %v, want -3.0 after full-rate turn", cr.Heading)
	}
}

func TestWrapAngle(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{0, 0},
		{math.Pi + 0.5, -math.Pi + 0.5},
		{-math.Pi - 0.5, math.Pi - 0.5},
		{2 * math.Pi, 0},
	}
	for _, c := range cases {
		if got := wrapAngle(c.in); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("wrapAngle(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestLabelsFollowRoster(t *testing.T) {
	tr, _ := newTestTracker(t, 32)

	cells := []Cell{{X: 5, Y: 5, Index: 5*32 + 5, Value: 1}, {X: 6, Y: 5, Index: 5*32 + 6, Value: 1}}
	tr.Match([]Candidate{{X: 5.5, Y: 5, Mass: 2, Cells: cells}}, 1)

	id := tr.Creatures()[0].ID
	labels := tr.Labels()
	if labels[5*32+5] != id || labels[5*32+6] != id {
		t.Error("owned cells not labeled with creature ID")
	}
	if labels[0] != 0 {
		t.Error("unowned cell labeled")
	}
}

func TestSteeringSprayedOverCells(t *testing.T) {
	tr, _ := newTestTracker(t, 32)

	cells := []Cell{{X: 5, Y: 5, Index: 5*32 + 5, Value: 1}}
	tr.Match([]Candidate{{X: 5, Y: 5, Mass: 2, Cells: cells}}, 1)

	cr := tr.Creatures()[0]
	cr.Heading = 0 // pointing +x
	cr.Genome.SpeedPreference = 1.0

	sx, sy := tr.Steering()
	if sx[5*32+5] <= 0 {
		t.Errorf("steering x = %v, want positive along heading", sx[5*32+5])
	}
	if math.Abs(sy[5*32+5]) > 1e-12 {
		t.Errorf("steering y = %v, want 0", sy[5*32+5])
	}
	if sx[0] != 0 {
		t.Error("steering leaked to unowned cell")
	}
}
