package creatures

// Memory is a creature's coarse spatial recall of food and danger experience.
// Two parallel resolution x resolution grids map world positions onto memory
// cells via modulo-scaled indexing. Both grids decay geometrically on every
// sensing pass, so stale experience fades unless reinforced.
type Memory struct {
	res    int
	worldN int

	Food   []float64
	Danger []float64
}

// NewMemory creates an empty memory covering an n x n world.
func NewMemory(res, worldN int) *Memory {
	return &Memory{
		res:    res,
		worldN: worldN,
		Food:   make([]float64, res*res),
		Danger: make([]float64, res*res),
	}
}

// cell maps a world position to a memory grid index.
func (m *Memory) cell(x, y float64) int {
	cx := int(x*float64(m.res)/float64(m.worldN)) % m.res
	cy := int(y*float64(m.res)/float64(m.worldN)) % m.res
	if cx < 0 {
		cx += m.res
	}
	if cy < 0 {
		cy += m.res
	}
	return cy*m.res + cx
}

// RecordFood reinforces the food memory at a world position.
func (m *Memory) RecordFood(x, y, amount float64) {
	m.Food[m.cell(x, y)] += amount
}

// RecordDanger reinforces the danger memory at a world position.
func (m *Memory) RecordDanger(x, y, amount float64) {
	m.Danger[m.cell(x, y)] += amount
}

// Decay fades both grids geometrically. rate is the retained fraction.
func (m *Memory) Decay(rate float64) {
	for i := range m.Food {
		m.Food[i] *= rate
		m.Danger[i] *= rate
	}
}

// Gradient returns the remembered pull at a world position: toward recalled
// food, away from recalled danger. Central difference over the neighboring
// memory cells, wrapped toroidally.
func (m *Memory) Gradient(x, y float64) (gx, gy float64) {
	cx := int(x * float64(m.res) / float64(m.worldN))
	cy := int(y * float64(m.res) / float64(m.worldN))

	v := func(ix, iy int) float64 {
		ix %= m.res
		if ix < 0 {
			ix += m.res
		}
		iy %= m.res
		if iy < 0 {
			iy += m.res
		}
		i := iy*m.res + ix
		return m.Food[i] - m.Danger[i]
	}

	gx = (v(cx+1, cy) - v(cx-1, cy)) / 2
	gy = (v(cx, cy+1) - v(cx, cy-1)) / 2
	return gx, gy
}

// DampedCopy returns an independent copy with every value scaled by factor.
// Offspring inherit parent memory this way.
func (m *Memory) DampedCopy(factor float64) *Memory {
	c := NewMemory(m.res, m.worldN)
	for i := range m.Food {
		c.Food[i] = m.Food[i] * factor
		c.Danger[i] = m.Danger[i] * factor
	}
	return c
}
