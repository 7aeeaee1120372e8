// Package env implements the environment layer: regenerating food, pheromone
// trails, broadcast signal channels, and an ambient drift current. The core
// solver never touches these grids; creatures sense and modify them through
// the tracker.
package env

import (
	"math"

	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/lenia/config"
	"github.com/pthm-cable/lenia/creatures"
)

// Environment holds all external-world grids for an n x n toroidal field.
// It satisfies creatures.Environment.
type Environment struct {
	n int

	food     []float64
	capacity []float64 // static simplex-shaped carrying capacity
	phero    []float64

	signals [creatures.NumSignalTypes][]float64
	scratch []float64 // signal diffusion buffer

	noise opensimplex.Noise
	time  float64

	regen        float64
	pheroDecay   float64
	signalDecay  float64
	signalSpread float64
	currentSpeed float64
	currentDrift float64
	noiseScale   float64
}

// New creates an environment for an n x n field. Food starts at capacity,
// which is shaped by simplex noise so the world has fertile patches and
// barren stretches.
func New(n int, ec *config.EnvironmentConfig) *Environment {
	cells := n * n
	e := &Environment{
		n:            n,
		food:         make([]float64, cells),
		capacity:     make([]float64, cells),
		phero:        make([]float64, cells),
		scratch:      make([]float64, cells),
		noise:        opensimplex.NewNormalized(ec.NoiseSeed),
		regen:        ec.FoodRegen,
		pheroDecay:   ec.PheromoneDecay,
		signalDecay:  ec.SignalDecay,
		signalSpread: ec.SignalDiffuse,
		currentSpeed: ec.CurrentSpeed,
		currentDrift: ec.CurrentDrift,
		noiseScale:   ec.NoiseScale,
	}
	for i := range e.signals {
		e.signals[i] = make([]float64, cells)
	}
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			c := e.noise.Eval2(float64(x)*ec.NoiseScale, float64(y)*ec.NoiseScale) * ec.FoodCapacity
			i := y*n + x
			e.capacity[i] = c
			e.food[i] = c
		}
	}
	return e
}

// Food exposes the food grid for presentation and tests.
func (e *Environment) Food() []float64 { return e.food }

// Pheromone exposes the pheromone grid.
func (e *Environment) Pheromone() []float64 { return e.phero }

// Signal exposes one signal channel grid.
func (e *Environment) Signal(t creatures.SignalType) []float64 { return e.signals[t] }

// Step advances the environment by dt: signals decay and diffuse, pheromone
// decays, food regenerates toward capacity, and the current field drifts.
func (e *Environment) Step(dt float64) {
	e.time += dt

	for i := range e.phero {
		e.phero[i] *= 1 - e.pheroDecay
		e.food[i] += (e.capacity[i] - e.food[i]) * e.regen
	}

	for s := range e.signals {
		grid := e.signals[s]
		e.diffuse(grid)
		for i := range grid {
			grid[i] *= 1 - e.signalDecay
		}
	}
}

// diffuse shares signal with the four toroidal neighbors.
func (e *Environment) diffuse(grid []float64) {
	n := e.n
	rate := e.signalSpread
	if rate <= 0 {
		return
	}
	for y := 0; y < n; y++ {
		yN := wrap(y-1, n) * n
		yS := wrap(y+1, n) * n
		yC := y * n
		for x := 0; x < n; x++ {
			xW := wrap(x-1, n)
			xE := wrap(x+1, n)
			i := yC + x
			neighbors := grid[yN+x] + grid[yS+x] + grid[yC+xW] + grid[yC+xE]
			e.scratch[i] = grid[i]*(1-rate) + neighbors*rate/4
		}
	}
	copy(grid, e.scratch)
}

func (e *Environment) idx(x, y float64) int {
	n := e.n
	return wrap(int(y), n)*n + wrap(int(x), n)
}

// FoodGradient returns the food slope at a position as a world-space vector.
func (e *Environment) FoodGradient(x, y float64) (gx, gy float64) {
	return e.gradient(e.food, x, y)
}

// PheromoneGradient returns the pheromone slope at a position.
func (e *Environment) PheromoneGradient(x, y float64) (gx, gy float64) {
	return e.gradient(e.phero, x, y)
}

// SignalGradient returns one signal channel's slope at a position.
func (e *Environment) SignalGradient(t creatures.SignalType, x, y float64) (gx, gy float64) {
	return e.gradient(e.signals[t], x, y)
}

// gradient is a central difference at the containing cell.
func (e *Environment) gradient(grid []float64, x, y float64) (gx, gy float64) {
	n := e.n
	cx := wrap(int(x), n)
	cy := wrap(int(y), n)
	gx = (grid[cy*n+wrap(cx+1, n)] - grid[cy*n+wrap(cx-1, n)]) / 2
	gy = (grid[wrap(cy+1, n)*n+cx] - grid[wrap(cy-1, n)*n+cx]) / 2
	return gx, gy
}

// Current returns the ambient drift at a position: a slowly rotating vector
// field driven by time-varying simplex noise.
func (e *Environment) Current(x, y float64) (cx, cy float64) {
	angle := e.noise.Eval3(x*e.noiseScale, y*e.noiseScale, e.time*e.currentDrift) * 2 * math.Pi
	return math.Cos(angle) * e.currentSpeed, math.Sin(angle) * e.currentSpeed
}

// ConsumeFood removes up to max food at a position and returns the amount taken.
func (e *Environment) ConsumeFood(x, y, max float64) float64 {
	i := e.idx(x, y)
	take := math.Min(e.food[i], max)
	if take <= 0 {
		return 0
	}
	e.food[i] -= take
	return take
}

// AddFood deposits amount over a disc with tent falloff, conserving the total.
func (e *Environment) AddFood(x, y, amount, radius float64) {
	if radius < 1 {
		radius = 1
	}
	n := e.n
	r := int(math.Ceil(radius))
	cx, cy := int(math.Round(x)), int(math.Round(y))

	var wsum float64
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			d := math.Hypot(float64(dx), float64(dy))
			if d <= radius {
				wsum += 1 - d/(radius+1)
			}
		}
	}
	if wsum <= 0 {
		return
	}
	scale := amount / wsum
	for dy := -r; dy <= r; dy++ {
		yy := wrap(cy+dy, n) * n
		for dx := -r; dx <= r; dx++ {
			d := math.Hypot(float64(dx), float64(dy))
			if d <= radius {
				e.food[yy+wrap(cx+dx, n)] += (1 - d/(radius+1)) * scale
			}
		}
	}
}

// EmitSignal injects intensity into a signal channel at a position. Diffusion
// spreads it over subsequent steps.
func (e *Environment) EmitSignal(t creatures.SignalType, x, y, intensity float64) {
	e.signals[t][e.idx(x, y)] += intensity
}

// DepositPheromone lays trail pheromone at a position.
func (e *Environment) DepositPheromone(x, y, amount float64) {
	e.phero[e.idx(x, y)] += amount
}

func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
