package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.db")
	s, err := OpenStore(path, 128, 42)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	if s.RunID() == "" {
		t.Fatal("empty run ID")
	}

	if err := s.SaveWindow(WindowStats{WindowEnd: 100, Population: 7, TotalMass: 500.5}); err != nil {
		t.Fatalf("saving window: %v", err)
	}
	if err := s.SaveLifetime(&LifetimeStats{CreatureID: 3, Generation: 2, BirthFrame: 10, DeathFrame: 80, PeakEnergy: 33}); err != nil {
		t.Fatalf("saving lifetime: %v", err)
	}

	var pop int
	if err := s.db.Get(&pop, `SELECT population FROM windows WHERE run_id = ? AND window_end = 100`, s.runID); err != nil {
		t.Fatalf("querying window: %v", err)
	}
	if pop != 7 {
		t.Errorf("population = %d, want 7", pop)
	}

	var life LifetimeStats
	if err := s.db.Get(&life, `SELECT creature_id, parent_id, generation, predator, birth_frame,
		death_frame, children, kills, peak_energy, peak_mass FROM lifetimes WHERE creature_id = 3`); err != nil {
		t.Fatalf("querying lifetime: %v", err)
	}
	if life.Generation != 2 || life.PeakEnergy != 33 {
		t.Errorf("lifetime row = %+v", life)
	}

	if err := s.Close(1000); err != nil {
		t.Fatalf("closing store: %v", err)
	}
}

func TestStoreDisabled(t *testing.T) {
	s, err := OpenStore("", 128, 1)
	if err != nil {
		t.Fatalf("disabled store errored: %v", err)
	}
	if s != nil {
		t.Fatal("disabled store is not nil")
	}

	// Nil store is a safe no-op everywhere.
	if err := s.SaveWindow(WindowStats{}); err != nil {
		t.Error(err)
	}
	if err := s.SaveLifetime(&LifetimeStats{}); err != nil {
		t.Error(err)
	}
	if err := s.Close(0); err != nil {
		t.Error(err)
	}
	if s.RunID() != "" {
		t.Error("nil store has a run ID")
	}
}

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil {
		t.Fatalf("disabled output errored: %v", err)
	}
	if om != nil {
		t.Fatal("disabled output manager is not nil")
	}
	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Error(err)
	}
	if err := om.WriteLifetime(&LifetimeStats{}); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}

func TestOutputManagerWritesCSV(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("creating output manager: %v", err)
	}
	defer om.Close()

	if err := om.WriteTelemetry(WindowStats{WindowEnd: 60, Population: 3}); err != nil {
		t.Fatalf("writing telemetry: %v", err)
	}
	if err := om.WriteTelemetry(WindowStats{WindowEnd: 120, Population: 4}); err != nil {
		t.Fatalf("writing telemetry: %v", err)
	}

	lines := readLines(t, filepath.Join(dir, "telemetry.csv"))
	// One header plus two records; the header is not repeated.
	if len(lines) != 3 {
		t.Fatalf("telemetry.csv has %d lines, want 3", len(lines))
	}
}
