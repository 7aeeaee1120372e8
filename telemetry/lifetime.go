package telemetry

// LifetimeStats tracks one creature's statistics from birth to removal.
type LifetimeStats struct {
	CreatureID uint64  `csv:"creature_id" db:"creature_id"`
	ParentID   uint64  `csv:"parent_id" db:"parent_id"`
	Generation int     `csv:"generation" db:"generation"`
	Predator   bool    `csv:"predator" db:"predator"`
	BirthFrame int     `csv:"birth_frame" db:"birth_frame"`
	DeathFrame int     `csv:"death_frame" db:"death_frame"`
	Children   int     `csv:"children" db:"children"`
	Kills      int     `csv:"kills" db:"kills"`
	PeakEnergy float64 `csv:"peak_energy" db:"peak_energy"`
	PeakMass   float64 `csv:"peak_mass" db:"peak_mass"`
}

// LifetimeTracker manages per-creature lifetime statistics keyed by ID.
type LifetimeTracker struct {
	stats map[uint64]*LifetimeStats
}

// NewLifetimeTracker creates an empty tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{stats: make(map[uint64]*LifetimeStats)}
}

// Register creates lifetime stats for a newly tracked creature.
func (lt *LifetimeTracker) Register(id, parentID uint64, generation, birthFrame int, predator bool) {
	lt.stats[id] = &LifetimeStats{
		CreatureID: id,
		ParentID:   parentID,
		Generation: generation,
		Predator:   predator,
		BirthFrame: birthFrame,
	}
	if parent := lt.stats[parentID]; parent != nil {
		parent.Children++
	}
}

// Get returns the stats for a creature, or nil if unknown.
func (lt *LifetimeTracker) Get(id uint64) *LifetimeStats {
	return lt.stats[id]
}

// RecordKill increments a hunter's kill count.
func (lt *LifetimeTracker) RecordKill(id uint64) {
	if s := lt.stats[id]; s != nil {
		s.Kills++
	}
}

// Update tracks peak energy and mass.
func (lt *LifetimeTracker) Update(id uint64, energy, mass float64) {
	s := lt.stats[id]
	if s == nil {
		return
	}
	if energy > s.PeakEnergy {
		s.PeakEnergy = energy
	}
	if mass > s.PeakMass {
		s.PeakMass = mass
	}
}

// Remove finalizes and removes a creature's stats, returning them for output.
func (lt *LifetimeTracker) Remove(id uint64, deathFrame int) *LifetimeStats {
	s := lt.stats[id]
	if s == nil {
		return nil
	}
	s.DeathFrame = deathFrame
	delete(lt.stats, id)
	return s
}

// Count returns the number of tracked creatures.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}
