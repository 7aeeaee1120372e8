package creatures

import (
	"math"
	"sort"
)

// Candidate is one connected mass component found by a detection pass. Its
// cell slice aliases the detector's arena and is valid until the next Detect.
type Candidate struct {
	X, Y  float64 // mass-weighted centroid, wrapped into [0, n)
	Mass  float64
	Cells []Cell
}

// Detector finds connected components of above-threshold cells with an
// iterative 4-connected toroidal flood fill. All scratch (visited marks,
// fill stack, cell arena) is owned by the detector and reused across frames,
// so a steady-state detection pass does not allocate.
type Detector struct {
	n int

	massThreshold float64
	minMass       float64
	maxCreatures  int

	visited []bool
	stack   []int
	arena   []Cell
	cands   []Candidate
}

// NewDetector creates a detector for an n x n field.
func NewDetector(n int, massThreshold, minMass float64, maxCreatures int) *Detector {
	return &Detector{
		n:             n,
		massThreshold: massThreshold,
		minMass:       minMass,
		maxCreatures:  maxCreatures,
		visited:       make([]bool, n*n),
		stack:         make([]int, 0, 1024),
		arena:         make([]Cell, 0, 4096),
	}
}

// Resize reallocates scratch for a new field size.
func (d *Detector) Resize(n int) {
	d.n = n
	d.visited = make([]bool, n*n)
	d.stack = d.stack[:0]
	d.arena = d.arena[:0]
}

// Detect scans the density grid and returns candidates sorted by mass
// descending, truncated to the configured maximum. The returned slice and
// the cells it references are valid until the next call.
func (d *Detector) Detect(a []float64) []Candidate {
	n := d.n
	for i := range d.visited {
		d.visited[i] = false
	}
	d.arena = d.arena[:0]
	d.cands = d.cands[:0]

	for seed := range a {
		if d.visited[seed] || a[seed] < d.massThreshold {
			continue
		}

		start := len(d.arena)
		seedX := seed % n
		seedY := seed / n

		var mass, wx, wy float64
		d.stack = append(d.stack[:0], seed)
		d.visited[seed] = true

		for len(d.stack) > 0 {
			i := d.stack[len(d.stack)-1]
			d.stack = d.stack[:len(d.stack)-1]

			x := i % n
			y := i / n
			v := a[i]
			d.arena = append(d.arena, Cell{X: x, Y: y, Index: i, Value: v})

			// Accumulate the centroid in coordinates unwrapped relative to
			// the seed, so components spanning the wrap seam stay coherent.
			mass += v
			wx += float64(seedX+shortestDelta(x-seedX, n)) * v
			wy += float64(seedY+shortestDelta(y-seedY, n)) * v

			d.push(a, wrapCell(x-1, n), y)
			d.push(a, wrapCell(x+1, n), y)
			d.push(a, x, wrapCell(y-1, n))
			d.push(a, x, wrapCell(y+1, n))
		}

		if mass < d.minMass {
			d.arena = d.arena[:start]
			continue
		}

		cx := math.Mod(wx/mass, float64(n))
		if cx < 0 {
			cx += float64(n)
		}
		cy := math.Mod(wy/mass, float64(n))
		if cy < 0 {
			cy += float64(n)
		}
		d.cands = append(d.cands, Candidate{
			X: cx, Y: cy, Mass: mass,
			Cells: d.arena[start:len(d.arena):len(d.arena)],
		})
	}

	sort.Slice(d.cands, func(i, j int) bool {
		return d.cands[i].Mass > d.cands[j].Mass
	})
	if len(d.cands) > d.maxCreatures {
		d.cands = d.cands[:d.maxCreatures]
	}
	return d.cands
}

func (d *Detector) push(a []float64, x, y int) {
	i := y*d.n + x
	if d.visited[i] || a[i] < d.massThreshold {
		return
	}
	d.visited[i] = true
	d.stack = append(d.stack, i)
}

func wrapCell(i, n int) int {
	if i < 0 {
		return i + n
	}
	if i >= n {
		return i - n
	}
	return i
}

// shortestDelta maps an integer coordinate difference to its shortest
// toroidal equivalent.
func shortestDelta(d, n int) int {
	if d > n/2 {
		return d - n
	}
	if d < -n/2 {
		return d + n
	}
	return d
}
