package creatures

// UpdateEnergy applies metabolism and feeding to every creature.
//
// Drain per step is MetabolismRate + mass * SizeMetabolism, so growing big is
// a standing cost. Feeding consumes a capped amount of environment food per
// owned cell; successful feeding reinforces the creature's food memory and
// lays a pheromone trail. Energy floors at zero, where the lifecycle pass
// removes the creature.
func (t *Tracker) UpdateEnergy() {
	ec := &t.cfg.Energy
	for _, cr := range t.creatures {
		cr.Energy -= cr.Genome.MetabolismRate + cr.Mass*ec.SizeMetabolism

		if t.env != nil {
			var eaten float64
			for _, cell := range cr.Cells {
				eaten += t.env.ConsumeFood(float64(cell.X)+0.5, float64(cell.Y)+0.5, ec.MaxFoodPerCell)
			}
			if eaten > 0 {
				cr.Energy += eaten * ec.FoodEnergyGain
				cr.Memory.RecordFood(cr.X, cr.Y, eaten)
				t.env.DepositPheromone(cr.X, cr.Y, eaten)
			}
		}
		if cr.Energy < 0 {
			cr.Energy = 0
		}
	}
}
