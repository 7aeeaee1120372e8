package creatures

import (
	"math"
	"testing"
	"time"
)

// stubEnv is a controllable Environment for behavior tests.
type stubEnv struct {
	foodGrad    [2]float64
	alarmGrad   [2]float64
	huntingGrad [2]float64

	foodPerCell float64
	consumed    float64
	pheromone   float64
	emitted     map[SignalType]float64
}

func newStubEnv() *stubEnv {
	return &stubEnv{emitted: make(map[SignalType]float64)}
}

func (s *stubEnv) FoodGradient(x, y float64) (float64, float64) {
	return s.foodGrad[0], s.foodGrad[1]
}
func (s *stubEnv) PheromoneGradient(x, y float64) (float64, float64) { return 0, 0 }
func (s *stubEnv) SignalGradient(t SignalType, x, y float64) (float64, float64) {
	switch t {
	case SignalAlarm:
		return s.alarmGrad[0], s.alarmGrad[1]
	case SignalHunting:
		return s.huntingGrad[0], s.huntingGrad[1]
	}
	return 0, 0
}
func (s *stubEnv) Current(x, y float64) (float64, float64) { return 0, 0 }
func (s *stubEnv) ConsumeFood(x, y, max float64) float64 {
	take := math.Min(s.foodPerCell, max)
	s.consumed += take
	return take
}
func (s *stubEnv) AddFood(x, y, amount, radius float64) {}
func (s *stubEnv) EmitSignal(t SignalType, x, y, intensity float64) {
	s.emitted[t] += intensity
}
func (s *stubEnv) DepositPheromone(x, y, amount float64) { s.pheromone += amount }

// muteSenses zeroes every sensory weight so tests can enable one channel.
func muteSenses(cr *Creature) {
	g := cr.Genome
	g.FoodWeight = 0
	g.PheromoneWeight = 0
	g.AlarmSensitivity = 0
	g.HuntingSensitivity = 0
	g.MatingSensitivity = 0
	g.TerritorySensitivity = 0
	g.MemoryWeight = 0
	g.SocialWeight = 0
	g.AlignmentWeight = 0
	g.HomingStrength = 0
	g.PackCoordination = 0
	g.SensorFocus = 0
	g.SignalEmissionRate = 0
}

func newStubTracker(t *testing.T, env *stubEnv) *Tracker {
	t.Helper()
	tr, _ := newTestTracker(t, 64)
	tr.env = env
	return tr
}

func spawnAt(t *testing.T, tr *Tracker, x, y float64) *Creature {
	t.Helper()
	tr.Match([]Candidate{{X: x, Y: y, Mass: 10}}, tr.frame+1)
	roster := tr.Creatures()
	cr := roster[len(roster)-1]
	muteSenses(cr)
	return cr
}

func TestSenseFollowsFoodGradient(t *testing.T) {
	env := newStubEnv()
	env.foodGrad = [2]float64{1, 0}
	tr := newStubTracker(t, env)
	cr := spawnAt(t, tr, 32, 32)
	cr.Genome.FoodWeight = 1.0

	tr.Sense()
	if math.Abs(wrapAngle(cr.TargetHeading)) > 1e-9 {
		t.Errorf("target heading = %v, want 0 toward food", cr.TargetHeading)
	}
}

func TestPreyFleesAlarmPredatorIgnoresIt(t *testing.T) {
	env := newStubEnv()
	env.alarmGrad = [2]float64{1, 0}
	tr := newStubTracker(t, env)

	prey := spawnAt(t, tr, 20, 20)
	prey.Genome.IsPredator = false
	prey.Genome.AlarmSensitivity = 1.0

	pred := spawnAt(t, tr, 50, 50)
	pred.Genome.IsPredator = true
	pred.Genome.AlarmSensitivity = 1.0
	pred.TargetHeading = 1.23 // sentinel: no stimulus means no update

	tr.Sense()
	if math.Abs(wrapAngle(prey.TargetHeading-math.Pi)) > 1e-9 {
		t.Errorf("prey target heading = %v, want pi away from alarm", prey.TargetHeading)
	}
	if pred.TargetHeading != 1.23 {
		t.Errorf("predator reacted to alarm: target heading = %v", pred.TargetHeading)
	}
}

func TestHuntingSignalSplitsGuilds(t *testing.T) {
	// Separate trackers so pack pursuit toward roster prey cannot blend in.
	env := newStubEnv()
	env.huntingGrad = [2]float64{0, 1}

	predTr := newStubTracker(t, env)
	pred := spawnAt(t, predTr, 20, 20)
	pred.Genome.IsPredator = true
	pred.Genome.HuntingSensitivity = 1.0

	preyTr := newStubTracker(t, env)
	prey := spawnAt(t, preyTr, 50, 50)
	prey.Genome.IsPredator = false
	prey.Genome.HuntingSensitivity = 1.0

	predTr.Sense()
	preyTr.Sense()
	// Predators converge on hunting signals; prey scatter from them.
	if math.Abs(wrapAngle(pred.TargetHeading-math.Pi/2)) > 1e-9 {
		t.Errorf("predator target heading = %v, want pi/2", pred.TargetHeading)
	}
	if math.Abs(wrapAngle(prey.TargetHeading+math.Pi/2)) > 1e-9 {
		t.Errorf("prey target heading = %v, want -pi/2", prey.TargetHeading)
	}
}

func TestFullFocusMutesRearStimulus(t *testing.T) {
	env := newStubEnv()
	env.foodGrad = [2]float64{-1, 0} // directly behind the sensor cone
	tr := newStubTracker(t, env)
	cr := spawnAt(t, tr, 32, 32)
	cr.Genome.FoodWeight = 1.0
	cr.Genome.SensorFocus = 1.0
	cr.Genome.SensorAngle = 0
	cr.Heading = 0
	cr.TargetHeading = 1.23

	tr.Sense()
	if cr.TargetHeading != 1.23 {
		t.Errorf("fully focused creature steered toward rear stimulus: %v", cr.TargetHeading)
	}
}

func TestMemorySteersWithoutEnvironment(t *testing.T) {
	tr, _ := newTestTracker(t, 64) // nil environment
	cr := spawnAt(t, tr, 20, 32)
	cr.Genome.MemoryWeight = 1.0

	// Remembered food one memory cell east of the creature.
	cr.Memory.RecordFood(24, 32, 5.0)

	tr.Sense()
	if math.Abs(wrapAngle(cr.TargetHeading)) > 1e-9 {
		t.Errorf("target heading = %v, want 0 toward remembered food", cr.TargetHeading)
	}
}

func TestRecentEmissionsPruned(t *testing.T) {
	env := newStubEnv()
	tr := newStubTracker(t, env)
	cr := spawnAt(t, tr, 32, 32)
	cr.Genome.SignalEmissionRate = 1.0

	clock := time.Unix(1000, 0)
	tr.now = func() time.Time { return clock }

	tr.emitSignal(cr, SignalAlarm, 2.0)
	if env.emitted[SignalAlarm] != 2.0 {
		t.Errorf("emitted intensity = %v, want 2.0", env.emitted[SignalAlarm])
	}
	if got := len(tr.RecentEmissions()); got != 1 {
		t.Fatalf("recent emissions = %d, want 1", got)
	}
	if tr.Stats().SignalsEmitted != 1 {
		t.Errorf("emission stat = %d, want 1", tr.Stats().SignalsEmitted)
	}

	clock = clock.Add(600 * time.Millisecond)
	if got := len(tr.RecentEmissions()); got != 0 {
		t.Errorf("recent emissions = %d past the window, want 0", got)
	}
}

func TestZeroEmissionRateSuppressesSignal(t *testing.T) {
	env := newStubEnv()
	tr := newStubTracker(t, env)
	cr := spawnAt(t, tr, 32, 32)

	tr.emitSignal(cr, SignalHunting, 1.0)
	if len(env.emitted) != 0 {
		t.Error("muted creature emitted a signal")
	}
}

func TestUpdateEnergyFeedsAndDrains(t *testing.T) {
	env := newStubEnv()
	env.foodPerCell = 0.05
	tr := newStubTracker(t, env)

	cells := placeCells(tr, 10, 10, 1, 1.0) // 9 cells
	tr.Match([]Candidate{{X: 10, Y: 10, Mass: 9, Cells: cells}}, tr.frame+1)
	cr := tr.Creatures()[0]
	muteSenses(cr)
	cr.Genome.MetabolismRate = 0.1

	before := cr.Energy
	tr.UpdateEnergy()

	ec := &tr.cfg.Energy
	take := math.Min(0.05, ec.MaxFoodPerCell)
	drain := 0.1 + 9.0*ec.SizeMetabolism
	gain := 9 * take * ec.FoodEnergyGain
	want := before - drain + gain
	if math.Abs(cr.Energy-want) > 1e-9 {
		t.Errorf("energy = %v, want %v", cr.Energy, want)
	}
	if math.Abs(env.pheromone-9*take) > 1e-12 {
		t.Errorf("pheromone trail = %v, want eaten total %v", env.pheromone, 9*take)
	}

	var remembered float64
	for _, v := range cr.Memory.Food {
		remembered += v
	}
	if remembered <= 0 {
		t.Error("feeding did not reinforce food memory")
	}
}

func TestEnergyFloorsAtZero(t *testing.T) {
	tr, _ := newTestTracker(t, 64)
	cr := spawnAt(t, tr, 32, 32)
	cr.Energy = 0.01
	cr.Genome.MetabolismRate = 5.0

	tr.UpdateEnergy()
	if cr.Energy != 0 {
		t.Errorf("energy = %v after drain, want floor at 0", cr.Energy)
	}

	tr.ProcessLifecycle()
	if len(tr.Creatures()) != 0 {
		t.Error("creature at the energy floor survived the lifecycle pass")
	}
}
