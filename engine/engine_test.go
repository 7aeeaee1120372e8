package engine

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/pthm-cable/lenia/config"
)

func newTestEngine(t *testing.T, n int) *Engine {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	cfg.Grid.Size = n
	cfg.Grid.Seed = 1
	cfg.Telemetry.OutputDir = ""
	cfg.Telemetry.StorePath = ""

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	e, err := New(cfg, log)
	if err != nil {
		t.Fatalf("building engine: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func TestEngineStepsConserveMass(t *testing.T) {
	e := newTestEngine(t, 64)
	e.SeedBlob(32, 32, 5, 40)
	e.SeedBlob(16, 48, 4, 25)

	start := e.Field.TotalMass()
	for i := 0; i < 20; i++ {
		if err := e.Step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if e.Frame() != 20 {
		t.Errorf("frame = %d, want 20", e.Frame())
	}

	// Creature behavior may add or drain field mass; the per-step transport
	// drift stays within the solver tolerance.
	if math.Abs(e.LastDrift()) > 1e-4 {
		t.Errorf("transport drift = %v", e.LastDrift())
	}
	if e.Field.TotalMass() <= 0 {
		t.Errorf("mass vanished from %v", start)
	}
}

func TestEngineTracksSeededCreature(t *testing.T) {
	e := newTestEngine(t, 64)
	e.SeedBlob(32, 32, 5, 40)

	if err := e.Step(); err != nil {
		t.Fatal(err)
	}
	roster := e.Tracker.Creatures()
	if len(roster) != 1 {
		t.Fatalf("roster = %d after seeding one blob, want 1", len(roster))
	}
	cr := roster[0]
	if cr.Generation != 0 {
		t.Errorf("founder generation = %d", cr.Generation)
	}
	if math.Hypot(cr.X-32, cr.Y-32) > 2 {
		t.Errorf("founder centroid = (%v, %v), want near (32, 32)", cr.X, cr.Y)
	}
}

func TestEngineClear(t *testing.T) {
	e := newTestEngine(t, 64)
	e.SeedRandom(4, 4, 20)
	for i := 0; i < 3; i++ {
		if err := e.Step(); err != nil {
			t.Fatal(err)
		}
	}

	e.Clear()
	if e.Field.TotalMass() != 0 {
		t.Errorf("field mass = %v after clear", e.Field.TotalMass())
	}
	if len(e.Tracker.Creatures()) != 0 {
		t.Error("roster survived clear")
	}
}

func TestEngineResize(t *testing.T) {
	e := newTestEngine(t, 64)
	if err := e.Resize(32); err != nil {
		t.Fatal(err)
	}
	if e.Field.N != 32 {
		t.Errorf("field size = %d, want 32", e.Field.N)
	}
	if err := e.Resize(4); err == nil {
		t.Error("resize below minimum did not error")
	}

	e.SeedBlob(16, 16, 3, 20)
	if err := e.Step(); err != nil {
		t.Fatalf("step after resize: %v", err)
	}
}

func TestEngineRunHonorsContext(t *testing.T) {
	e := newTestEngine(t, 64)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := e.Run(ctx, 100); err != context.Canceled {
		t.Errorf("run returned %v, want context.Canceled", err)
	}
	if e.Frame() != 0 {
		t.Errorf("frames ran under canceled context: %d", e.Frame())
	}

	if err := e.Run(context.Background(), 5); err != nil {
		t.Fatal(err)
	}
	if e.Frame() != 5 {
		t.Errorf("frame = %d after bounded run, want 5", e.Frame())
	}
}
