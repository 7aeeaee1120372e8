package field

import "math"

// Influence is one creature's contribution to morphology blending, produced
// by the tracker from its roster each step.
type Influence struct {
	X, Y    float64 // center of mass
	Heading float64

	// Genome-derived morphology
	Mu          float64 // local growth center
	Sigma       float64 // local growth width
	Radius      float64 // genome kernel radius; influence disc is 1.5x this
	Bias        float64 // directional bias magnitude
	Orientation float64 // bias angle offset from heading
}

// Blender derives per-cell local growth parameters from nearby creatures.
//
// Each creature splats a falloff-weighted influence disc around its center.
// Overlapping creatures do NOT average: the single strongest contribution
// wins each cell. Averaging softens distinct identities until neighboring
// creatures fuse into one blended organism and mass runs away; keeping only
// the strongest influence preserves species boundaries.
type Blender struct {
	n int

	Mu     []float64
	Sigma  []float64
	Weight []float64
	BiasX  []float64
	BiasY  []float64
}

// NewBlender creates a blender with reusable per-cell grids for an n x n field.
func NewBlender(n int) *Blender {
	cells := n * n
	return &Blender{
		n:      n,
		Mu:     make([]float64, cells),
		Sigma:  make([]float64, cells),
		Weight: make([]float64, cells),
		BiasX:  make([]float64, cells),
		BiasY:  make([]float64, cells),
	}
}

// Resize reallocates the grids for a new field size.
func (b *Blender) Resize(n int) {
	*b = *NewBlender(n)
}

// Rebuild recomputes all per-cell parameters from the live creature set and
// the current density grid. Influence weight at a cell is
// (1 - dist/radius)^2 * localMassDensity, with radius = 1.5 * genome radius.
func (b *Blender) Rebuild(creatures []Influence, density []float64) {
	for i := range b.Weight {
		b.Weight[i] = 0
		b.BiasX[i] = 0
		b.BiasY[i] = 0
	}

	n := b.n
	for _, c := range creatures {
		radius := 1.5 * c.Radius
		if radius <= 0 {
			continue
		}
		r := int(math.Ceil(radius))
		cx := int(math.Round(c.X))
		cy := int(math.Round(c.Y))

		angle := c.Heading + c.Orientation
		dirX := math.Cos(angle)
		dirY := math.Sin(angle)

		for dy := -r; dy <= r; dy++ {
			yy := wrapInt(cy+dy, n) * n
			for dx := -r; dx <= r; dx++ {
				dist := math.Sqrt(float64(dx*dx + dy*dy))
				if dist > radius {
					continue
				}
				i := yy + wrapInt(cx+dx, n)

				fall := 1 - dist/radius
				w := fall * fall * density[i]
				if w <= b.Weight[i] {
					continue // strongest influence wins
				}
				b.Weight[i] = w
				b.Mu[i] = c.Mu
				b.Sigma[i] = c.Sigma
				b.BiasX[i] = dirX * c.Bias * w
				b.BiasY[i] = dirY * c.Bias * w
			}
		}
	}
}
