// Package kernels generates normalized convolution kernels for the field solver.
package kernels

import (
	"fmt"
	"math"
)

// Type selects the kernel shape.
type Type string

const (
	Ring      Type = "ring"      // Donut shell peaked at half radius
	Gaussian  Type = "gaussian"  // Center-weighted bell
	MultiRing Type = "multiring" // Concentric shells with per-shell amplitudes
)

// Params holds optional shape parameters.
type Params struct {
	Peaks []float64 // Shell amplitudes for MultiRing (outermost last)
	Width float64   // Relative shell width; 0 uses the default
}

// Kernel is a normalized weight matrix. Weights sum to 1.
type Kernel struct {
	Weights [][]float64
	Radius  int
	Size    int // 2*Radius + 1
}

// Generate builds a kernel of the given type and radius.
// Pure function: same inputs always produce the same matrix.
func Generate(typ Type, radius int, params Params) (Kernel, error) {
	if radius < 1 {
		return Kernel{}, fmt.Errorf("kernels: radius must be >= 1, got %d", radius)
	}

	size := 2*radius + 1
	w := make([][]float64, size)
	for i := range w {
		w[i] = make([]float64, size)
	}

	width := params.Width
	if width <= 0 {
		width = 0.15
	}

	var sum float64
	r := float64(radius)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			dist := math.Sqrt(float64(dx*dx+dy*dy)) / r
			if dist > 1 {
				continue
			}

			var v float64
			switch typ {
			case Ring:
				v = shell(dist, 0.5, width)
			case Gaussian:
				v = math.Exp(-dist * dist / (2 * 0.3 * 0.3))
			case MultiRing:
				peaks := params.Peaks
				if len(peaks) == 0 {
					peaks = []float64{1}
				}
				n := float64(len(peaks))
				for i, amp := range peaks {
					center := (float64(i) + 0.5) / n
					v += amp * shell(dist, center, width/n*2)
				}
			default:
				return Kernel{}, fmt.Errorf("kernels: unknown type %q", typ)
			}

			w[dy+radius][dx+radius] = v
			sum += v
		}
	}

	if sum <= 0 {
		return Kernel{}, fmt.Errorf("kernels: degenerate %s kernel at radius %d", typ, radius)
	}
	for y := range w {
		for x := range w[y] {
			w[y][x] /= sum
		}
	}

	return Kernel{Weights: w, Radius: radius, Size: size}, nil
}

// shell is a gaussian bump centered on a normalized radius.
func shell(dist, center, width float64) float64 {
	d := dist - center
	return math.Exp(-d * d / (2 * width * width))
}
