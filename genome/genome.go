// Package genome defines the heritable parameter vector carried by every creature.
//
// Every numeric field has a documented [min, max] range in the bounds table
// below. The same table drives default construction, randomized founder
// genomes, and post-mutation clamping, so a genome can never leave its
// documented ranges no matter how many times it mutates.
package genome

import "math/rand"

// Genome is one creature's heritable behavior and morphology.
// Value semantics: clone on copy, never share between two live creatures.
type Genome struct {
	// Sensory weights
	FoodWeight      float64 // Attraction to food gradient
	PheromoneWeight float64 // Attraction to pheromone gradient
	SocialWeight    float64 // Scale on social forces (schooling / stalking)

	// Movement
	TurnRate        float64 // Heading smoothing gain
	SpeedPreference float64 // Preferred cruise speed scale

	// Metabolism
	MetabolismRate        float64 // Flat energy drain per step
	ReproductionThreshold float64 // Energy level that triggers reproduction
	ReproductionCost      float64 // Fraction of parent energy given to offspring

	// Morphology
	KernelRadius      float64 // Influence disc scale for morphology blending
	GrowthMu          float64 // Local growth center injected into the field
	GrowthSigma       float64 // Local growth width injected into the field
	KernelBias        float64 // Directional bias magnitude
	KernelOrientation float64 // Bias angle offset from heading, radians

	// Sensing
	SensorAngle float64 // Sensor cone offset from heading, radians
	SensorFocus float64 // 0 = isotropic, 1 = narrow forward cone

	// Memory
	MemoryWeight float64 // Weight of remembered food/danger gradient
	MemoryDecay  float64 // Geometric decay applied each sensing pass

	// Signal sensitivities
	AlarmSensitivity     float64
	HuntingSensitivity   float64
	MatingSensitivity    float64
	TerritorySensitivity float64
	SignalEmissionRate   float64

	// Collective behavior
	AlignmentWeight  float64 // Flocking alignment strength (prey)
	FlockingRadius   float64 // Neighbor radius for alignment
	PackCoordination float64 // Blend toward flanking approach (predators)
	TerritoryRadius  float64 // Homing kicks in beyond this distance
	HomingStrength   float64 // Pull toward birthplace

	// Guild
	IsPredator bool
}

// Bound documents the valid range and default of one genome field.
type Bound struct {
	Name     string
	Min, Max float64
	Default  float64
}

// Bounds is the single source of truth for field ranges.
// Order matches fieldRefs below.
var Bounds = []Bound{
	{"food_weight", 0, 3, 1.0},
	{"pheromone_weight", 0, 2, 0.5},
	{"social_weight", 0, 2, 0.6},
	{"turn_rate", 0.02, 0.5, 0.15},
	{"speed_preference", 0.2, 3, 1.0},
	{"metabolism_rate", 0.01, 0.3, 0.05},
	{"reproduction_threshold", 20, 120, 50},
	{"reproduction_cost", 0.3, 0.8, 0.6},
	{"kernel_radius", 4, 20, 10},
	{"growth_mu", 0.05, 0.35, 0.15},
	{"growth_sigma", 0.005, 0.08, 0.015},
	{"kernel_bias", 0, 1, 0.2},
	{"kernel_orientation", -3.14159265, 3.14159265, 0},
	{"sensor_angle", -1.5707963, 1.5707963, 0},
	{"sensor_focus", 0, 1, 0.5},
	{"memory_weight", 0, 1, 0.3},
	{"memory_decay", 0.9, 0.999, 0.98},
	{"alarm_sensitivity", 0, 2, 1.0},
	{"hunting_sensitivity", 0, 2, 1.0},
	{"mating_sensitivity", 0, 2, 0.8},
	{"territory_sensitivity", 0, 1, 0.3},
	{"signal_emission_rate", 0.1, 2, 1.0},
	{"alignment_weight", 0, 1.5, 0.5},
	{"flocking_radius", 5, 40, 18},
	{"pack_coordination", 0, 1, 0.4},
	{"territory_radius", 10, 80, 35},
	{"homing_strength", 0, 1, 0.25},
}

// fieldRefs returns pointers to every numeric field, aligned with Bounds.
func (g *Genome) fieldRefs() []*float64 {
	return []*float64{
		&g.FoodWeight, &g.PheromoneWeight, &g.SocialWeight,
		&g.TurnRate, &g.SpeedPreference,
		&g.MetabolismRate, &g.ReproductionThreshold, &g.ReproductionCost,
		&g.KernelRadius, &g.GrowthMu, &g.GrowthSigma, &g.KernelBias, &g.KernelOrientation,
		&g.SensorAngle, &g.SensorFocus,
		&g.MemoryWeight, &g.MemoryDecay,
		&g.AlarmSensitivity, &g.HuntingSensitivity, &g.MatingSensitivity,
		&g.TerritorySensitivity, &g.SignalEmissionRate,
		&g.AlignmentWeight, &g.FlockingRadius, &g.PackCoordination,
		&g.TerritoryRadius, &g.HomingStrength,
	}
}

// Base returns the deterministic default genome. Used when a detected creature
// has no genome to inherit: a recoverable condition, never an error.
func Base() *Genome {
	g := &Genome{}
	refs := g.fieldRefs()
	for i, b := range Bounds {
		*refs[i] = b.Default
	}
	return g
}

// New returns a founder genome: defaults jittered within range.
func New(rng *rand.Rand) *Genome {
	g := Base()
	refs := g.fieldRefs()
	for i, b := range Bounds {
		span := b.Max - b.Min
		*refs[i] = clamp(b.Default+(rng.Float64()-0.5)*0.4*span, b.Min, b.Max)
	}
	g.IsPredator = rng.Float64() < 0.15
	return g
}

// Clone returns an independent copy.
func (g *Genome) Clone() *Genome {
	c := *g
	return &c
}

// Mutate perturbs each field with probability rate by a normal step scaled to
// the field's range, then clamps into range. The predator bit flips with
// probability flipRate.
func (g *Genome) Mutate(rng *rand.Rand, rate, strength, flipRate float64) {
	refs := g.fieldRefs()
	for i, b := range Bounds {
		if rng.Float64() >= rate {
			continue
		}
		span := b.Max - b.Min
		*refs[i] = clamp(*refs[i]+rng.NormFloat64()*strength*span, b.Min, b.Max)
	}
	if rng.Float64() < flipRate {
		g.IsPredator = !g.IsPredator
	}
}

// InRange reports whether every field sits inside its documented bounds.
func (g *Genome) InRange() bool {
	refs := g.fieldRefs()
	for i, b := range Bounds {
		if *refs[i] < b.Min || *refs[i] > b.Max {
			return false
		}
	}
	return true
}

func clamp(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
