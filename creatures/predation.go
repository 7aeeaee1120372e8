package creatures

// ProcessPredation runs the hunt pass. A predator within catch range of a
// prey consumes it: the prey's cells are erased from the field in the same
// step, its energy value transfers to the hunter, and the prey leaves the
// roster immediately so no later pass can act on a dead body.
//
// Prey inside the danger radius but out of catch range record danger in
// memory and broadcast one alarm per pass.
func (t *Tracker) ProcessPredation() {
	if !t.cfg.Predation.Enabled {
		return
	}
	pc := &t.cfg.Predation

	for _, cr := range t.creatures {
		cr.alarmed = false
	}

	eaten := make(map[uint64]bool)
	for _, hunter := range t.creatures {
		if !hunter.Genome.IsPredator || eaten[hunter.ID] {
			continue
		}
		for _, prey := range t.creatures {
			if prey.Genome.IsPredator || eaten[prey.ID] {
				continue
			}
			d := t.distance(hunter, prey)
			catch := pc.CatchRadiusFactor * (hunter.Radius() + prey.Radius())

			// A prey unmatched this frame has stale Cells aliasing the
			// detection arena; erasing them would hit other bodies.
			if d <= catch && prey.LastSeen == t.frame {
				removed := t.eraseCreature(prey)
				hunter.Energy += pc.PredationEnergy * removed
				eaten[prey.ID] = true
				t.stats.Kills++
				t.killers = append(t.killers, hunter.ID)
				t.emitSignal(hunter, SignalHunting, 1)
				t.log.Debug("predation", "hunter", hunter, "prey", prey, "mass", removed)
				continue
			}

			if d <= pc.DangerRadius {
				prey.Memory.RecordDanger(prey.X, prey.Y, 1)
				if !prey.alarmed {
					prey.alarmed = true
					t.emitSignal(prey, SignalAlarm, 1)
				}
			}
		}
	}

	if len(eaten) > 0 {
		live := t.creatures[:0]
		for _, cr := range t.creatures {
			if !eaten[cr.ID] {
				live = append(live, cr)
			}
		}
		t.creatures = live
		t.rebuildLabels()
	}
}

// eraseCreature zeroes a creature's cells in the field and returns the mass
// removed.
func (t *Tracker) eraseCreature(cr *Creature) float64 {
	var removed float64
	for _, cell := range cr.Cells {
		removed += t.field.A[cell.Index]
		t.field.A[cell.Index] = 0
	}
	return removed
}
