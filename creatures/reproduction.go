package creatures

import "math"

// ProcessLifecycle runs death and reproduction for the whole roster.
//
// Death: a creature at or below zero energy is removed and a fraction of its
// body mass is recycled into environment food at its position.
//
// Reproduction: a creature at or above its genome threshold splits. The
// parent's body is erased and re-deposited as two blobs offset perpendicular
// to its heading, with a randomized mass split. The parent keeps its roster
// entry at reduced energy; two pending offspring are registered and
// reconciled against blobs on subsequent detection passes. Whichever blob
// the parent re-matches consumes one pending slot's chance, and the
// leftover pending entry times out. Offspring are never instantiated
// directly, because identity belongs to detection.
func (t *Tracker) ProcessLifecycle() {
	ec := &t.cfg.Energy

	live := t.creatures[:0]
	for _, cr := range t.creatures {
		if cr.Energy <= 0 {
			t.stats.Deaths++
			if t.env != nil && ec.DeathFoodFraction > 0 {
				t.env.AddFood(cr.X, cr.Y, cr.Mass*ec.DeathFoodFraction, cr.Radius())
			}
			t.log.Debug("creature died", "creature", cr, "frame", t.frame)
			continue
		}
		live = append(live, cr)
	}
	t.creatures = live

	for _, cr := range t.creatures {
		if cr.Energy < cr.Genome.ReproductionThreshold {
			continue
		}
		if cr.LastSeen != t.frame {
			// Unmatched this frame: Cells alias the detection arena and no
			// longer describe this body. The split waits for a re-match.
			continue
		}
		if len(t.creatures)+len(t.pending) >= ec.MaxPopulation {
			break
		}
		t.reproduce(cr)
	}
	t.rebuildLabels()
}

// reproduce splits one parent into two field blobs and registers the
// matching pending offspring.
func (t *Tracker) reproduce(parent *Creature) {
	ec := &t.cfg.Energy
	mc := &t.cfg.Mutation

	removed := t.eraseCreature(parent)
	if removed <= 0 {
		return
	}

	// Randomized split in [low, 1-low], e.g. 45/55.
	low := ec.ReproMassSplitLow
	split := low + t.rng.Float64()*(1-2*low)

	offset := ec.ReproOffsetFactor * parent.Radius()
	perp := parent.Heading + math.Pi/2
	ox := math.Cos(perp) * offset
	oy := math.Sin(perp) * offset
	blobRadius := math.Max(2, parent.Radius()*0.7)

	cost := parent.Genome.ReproductionCost
	childEnergy := parent.Energy * cost / 2
	parent.Energy *= 1 - cost

	positions := [2][2]float64{
		{wrapFloat(parent.X+ox, t.n), wrapFloat(parent.Y+oy, t.n)},
		{wrapFloat(parent.X-ox, t.n), wrapFloat(parent.Y-oy, t.n)},
	}
	masses := [2]float64{removed * split, removed * (1 - split)}

	for i := 0; i < 2; i++ {
		t.field.SeedBlob(positions[i][0], positions[i][1], blobRadius, masses[i])

		g := parent.Genome.Clone()
		g.Mutate(t.rng, mc.Rate, mc.Strength, mc.FlipRate)
		t.pending = append(t.pending, PendingOffspring{
			X:          positions[i][0],
			Y:          positions[i][1],
			Genome:     g,
			Energy:     childEnergy,
			Generation: parent.Generation + 1,
			ParentID:   parent.ID,
			Memory:     parent.Memory.DampedCopy(t.cfg.Memory.InheritFactor),
			Frame:      t.frame,
		})
	}

	parent.Cells = nil // body redistributed; cells refresh on next match
	t.log.Debug("reproduction", "parent", parent, "mass", removed, "split", split)
}

// wrapFloat wraps a world coordinate into [0, n).
func wrapFloat(x float64, n int) float64 {
	fn := float64(n)
	x = math.Mod(x, fn)
	if x < 0 {
		x += fn
	}
	return x
}
