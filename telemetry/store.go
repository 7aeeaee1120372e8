package telemetry

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	started_at  TIMESTAMP NOT NULL,
	finished_at TIMESTAMP,
	grid_size   INTEGER NOT NULL,
	seed        INTEGER NOT NULL,
	frames      INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS windows (
	run_id          TEXT NOT NULL REFERENCES runs(id),
	window_end      INTEGER NOT NULL,
	population      INTEGER NOT NULL,
	predators       INTEGER NOT NULL,
	max_generation  INTEGER NOT NULL,
	births          INTEGER NOT NULL,
	deaths          INTEGER NOT NULL,
	kills           INTEGER NOT NULL,
	total_mass      REAL NOT NULL,
	mass_drift      REAL NOT NULL,
	energy_mean     REAL NOT NULL,
	energy_p50      REAL NOT NULL,
	PRIMARY KEY (run_id, window_end)
);

CREATE TABLE IF NOT EXISTS lifetimes (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	creature_id INTEGER NOT NULL,
	parent_id   INTEGER NOT NULL,
	generation  INTEGER NOT NULL,
	predator    INTEGER NOT NULL,
	birth_frame INTEGER NOT NULL,
	death_frame INTEGER NOT NULL,
	children    INTEGER NOT NULL,
	kills       INTEGER NOT NULL,
	peak_energy REAL NOT NULL,
	peak_mass   REAL NOT NULL,
	PRIMARY KEY (run_id, creature_id)
);
`

// Store persists runs, window stats, and creature lifetimes to SQLite.
// A nil Store is a no-op, mirroring OutputManager.
type Store struct {
	db    *sqlx.DB
	runID string
}

// OpenStore opens (or creates) the run database at path and starts a new run
// row. Returns nil if path is empty (store disabled).
func OpenStore(path string, gridSize int, seed int64) (*Store, error) {
	if path == "" {
		return nil, nil
	}

	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening run store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating run store: %w", err)
	}

	s := &Store{db: db, runID: uuid.NewString()}
	_, err = db.Exec(
		`INSERT INTO runs (id, started_at, grid_size, seed) VALUES (?, ?, ?, ?)`,
		s.runID, time.Now().UTC(), gridSize, seed,
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("inserting run: %w", err)
	}
	return s, nil
}

// RunID returns the unique ID of the current run.
func (s *Store) RunID() string {
	if s == nil {
		return ""
	}
	return s.runID
}

// SaveWindow persists one window stats row.
func (s *Store) SaveWindow(w WindowStats) error {
	if s == nil {
		return nil
	}
	_, err := s.db.Exec(
		`INSERT INTO windows (run_id, window_end, population, predators, max_generation,
			births, deaths, kills, total_mass, mass_drift, energy_mean, energy_p50)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.runID, w.WindowEnd, w.Population, w.PredatorCount, w.MaxGeneration,
		w.Births, w.Deaths, w.Kills, w.TotalMass, w.MassDrift, w.EnergyMean, w.EnergyP50,
	)
	if err != nil {
		return fmt.Errorf("saving window: %w", err)
	}
	return nil
}

// SaveLifetime persists one finalized creature record.
func (s *Store) SaveLifetime(l *LifetimeStats) error {
	if s == nil || l == nil {
		return nil
	}
	_, err := s.db.Exec(
		`INSERT INTO lifetimes (run_id, creature_id, parent_id, generation, predator,
			birth_frame, death_frame, children, kills, peak_energy, peak_mass)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.runID, l.CreatureID, l.ParentID, l.Generation, l.Predator,
		l.BirthFrame, l.DeathFrame, l.Children, l.Kills, l.PeakEnergy, l.PeakMass,
	)
	if err != nil {
		return fmt.Errorf("saving lifetime: %w", err)
	}
	return nil
}

// Close finalizes the run row and closes the database.
func (s *Store) Close(frames int) error {
	if s == nil {
		return nil
	}
	_, err := s.db.Exec(
		`UPDATE runs SET finished_at = ?, frames = ? WHERE id = ?`,
		time.Now().UTC(), frames, s.runID,
	)
	if cerr := s.db.Close(); err == nil {
		err = cerr
	}
	return err
}
