// Package field implements the toroidal mass-conservative field solver:
// convolution, growth/affinity, flow-field assembly, reintegration-tracking
// transport, and diffusion.
package field

import (
	"fmt"
	"math"

	"github.com/pthm-cable/lenia/kernels"
)

// transportEpsilon is the mass floor below which a cell is skipped by transport.
const transportEpsilon = 1e-9

// ConservationError reports mass drift beyond tolerance across a transport
// step. It indicates a defect in the transport/diffusion math, not a state
// the field self-corrects.
type ConservationError struct {
	Before, After float64
}

func (e ConservationError) Error() string {
	return fmt.Sprintf("field: mass not conserved: %.6f -> %.6f (drift %.4f%%)",
		e.Before, e.After, 100*math.Abs(e.After-e.Before)/math.Max(e.Before, 1e-12))
}

// MassField owns the density grid and its step-scoped derived buffers.
// The buffers (potential, affinity, flow) are invalidated and recomputed
// every step; only A persists across steps.
type MassField struct {
	N int
	A []float64 // density, row-major N x N, toroidal

	potential []float64
	affinity  []float64
	fx, fy    []float64
	next      []float64 // transport/diffusion scratch

	// Solver parameters
	Mu           float64
	Sigma        float64
	FlowStrength float64

	kernel     kernels.Kernel
	fftConv    *fftConvolver // nil when the naive path is active
	fftMinSize int           // kernel size at or above which FFT is used
}

// New creates an empty field of n x n cells with the given growth parameters.
func New(n int, mu, sigma, flowStrength float64, fftMinSize int) *MassField {
	cells := n * n
	return &MassField{
		N:            n,
		A:            make([]float64, cells),
		potential:    make([]float64, cells),
		affinity:     make([]float64, cells),
		fx:           make([]float64, cells),
		fy:           make([]float64, cells),
		next:         make([]float64, cells),
		Mu:           mu,
		Sigma:        sigma,
		FlowStrength: flowStrength,
		fftMinSize:   fftMinSize,
	}
}

// SetKernel installs the active convolution kernel. Called on parameter
// change only; the FFT spectrum is precomputed here, off the hot path.
func (f *MassField) SetKernel(k kernels.Kernel) {
	f.kernel = k
	if f.fftMinSize > 0 && k.Size >= f.fftMinSize {
		f.fftConv = newFFTConvolver(f.N, k)
	} else {
		f.fftConv = nil
	}
}

// Kernel returns the active kernel.
func (f *MassField) Kernel() kernels.Kernel { return f.kernel }

// Potential returns the potential buffer computed by ComputePotential.
func (f *MassField) Potential() []float64 { return f.potential }

// Affinity returns the affinity buffer computed by ComputeAffinity.
func (f *MassField) Affinity() []float64 { return f.affinity }

// Flow returns the flow buffers computed by ComputeGradient.
func (f *MassField) Flow() (fx, fy []float64) { return f.fx, f.fy }

// Idx maps wrapped cell coordinates to a flat index.
func (f *MassField) Idx(x, y int) int {
	return wrapInt(y, f.N)*f.N + wrapInt(x, f.N)
}

// ComputePotential convolves A with the active kernel over the torus.
// The naive and FFT paths produce identical results up to numerical tolerance.
func (f *MassField) ComputePotential() {
	if f.fftConv != nil {
		f.fftConv.convolve(f.A, f.potential)
		return
	}
	if f.N*f.N >= parallelThreshold {
		f.convolveParallel()
		return
	}
	f.convolveRows(0, f.N)
}

// ComputeAffinity maps potential to [-1, 1] via the growth function
// G(u) = 2*exp(-((u-mu)/sigma)^2 / 2) - 1. When a blender is supplied,
// cells under creature influence blend the global (mu, sigma) toward the
// per-cell local values with blendFactor = min(1, 2*weight).
func (f *MassField) ComputeAffinity(b *Blender) {
	for i := range f.affinity {
		mu, sigma := f.Mu, f.Sigma
		if b != nil && b.Weight[i] > 0 {
			bf := math.Min(1, 2*b.Weight[i])
			mu = mu*(1-bf) + b.Mu[i]*bf
			sigma = sigma*(1-bf) + b.Sigma[i]*bf
		}
		d := (f.potential[i] - mu) / sigma
		f.affinity[i] = 2*math.Exp(-d*d/2) - 1
	}
}

// ComputeGradient assembles the flow field: a Sobel 8-neighbor toroidal
// gradient of affinity scaled by FlowStrength, plus the blender's directional
// bias and any externally supplied steering field (may be nil).
func (f *MassField) ComputeGradient(b *Blender, steerX, steerY []float64) {
	n := f.N
	a := f.affinity
	for y := 0; y < n; y++ {
		yN := wrapInt(y-1, n) * n
		yC := y * n
		yS := wrapInt(y+1, n) * n
		for x := 0; x < n; x++ {
			xW := wrapInt(x-1, n)
			xE := wrapInt(x+1, n)

			nw, no, ne := a[yN+xW], a[yN+x], a[yN+xE]
			we, ea := a[yC+xW], a[yC+xE]
			sw, so, se := a[yS+xW], a[yS+x], a[yS+xE]

			gx := (ne + 2*ea + se - nw - 2*we - sw) / 8
			gy := (sw + 2*so + se - nw - 2*no - ne) / 8

			i := yC + x
			fx := gx * f.FlowStrength
			fy := gy * f.FlowStrength
			if b != nil {
				fx += b.BiasX[i]
				fy += b.BiasY[i]
			}
			if steerX != nil {
				fx += steerX[i]
				fy += steerY[i]
			}
			f.fx[i] = fx
			f.fy[i] = fy
		}
	}
}

// TransportMass advects every cell's mass along the flow field using
// reintegration tracking: each source cell's mass lands bilinearly on the
// four toroidally-wrapped cells around position + flow*dt. The four bilinear
// weights sum to 1, so the step conserves total mass exactly; the only
// clamping is a guard against floating-point underflow negatives.
func (f *MassField) TransportMass(dt float64) {
	n := f.N
	for i := range f.next {
		f.next[i] = 0
	}

	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			i := y*n + x
			m := f.A[i]
			if m <= transportEpsilon {
				if m > 0 {
					f.next[i] += m
				}
				continue
			}

			destX := float64(x) + f.fx[i]*dt
			destY := float64(y) + f.fy[i]*dt

			x0 := int(math.Floor(destX))
			y0 := int(math.Floor(destY))
			tx := destX - float64(x0)
			ty := destY - float64(y0)

			x0w := wrapInt(x0, n)
			x1w := wrapInt(x0+1, n)
			y0w := wrapInt(y0, n) * n
			y1w := wrapInt(y0+1, n) * n

			f.next[y0w+x0w] += m * (1 - tx) * (1 - ty)
			f.next[y0w+x1w] += m * tx * (1 - ty)
			f.next[y1w+x0w] += m * (1 - tx) * ty
			f.next[y1w+x1w] += m * tx * ty
		}
	}

	for i, v := range f.next {
		if v < 0 {
			v = 0
		}
		f.A[i] = v
	}
}

// ApplyDiffusion shares a fixed fraction of every cell's mass with its four
// neighbors. Give and take are symmetric, so net mass change is zero. This
// keeps density from collapsing into isolated points the growth function
// would crush.
func (f *MassField) ApplyDiffusion(rate float64) {
	if rate <= 0 {
		return
	}
	n := f.N
	for y := 0; y < n; y++ {
		yN := wrapInt(y-1, n) * n
		yS := wrapInt(y+1, n) * n
		yC := y * n
		for x := 0; x < n; x++ {
			xW := wrapInt(x-1, n)
			xE := wrapInt(x+1, n)
			i := yC + x
			neighbors := f.A[yN+x] + f.A[yS+x] + f.A[yC+xW] + f.A[yC+xE]
			f.next[i] = f.A[i]*(1-rate) + neighbors*rate/4
		}
	}
	copy(f.A, f.next)
}

// TotalMass returns the diagnostic sum of all density. Drift across a
// transport+diffusion pass signals a defect, not a condition to repair.
func (f *MassField) TotalMass() float64 {
	var sum float64
	for _, v := range f.A {
		sum += v
	}
	return sum
}

// CheckConservation compares the current total against a pre-step total and
// returns a ConservationError when drift exceeds 1%.
func (f *MassField) CheckConservation(before float64) error {
	after := f.TotalMass()
	if math.Abs(after-before) > 0.01*math.Max(before, 1e-12) {
		return ConservationError{Before: before, After: after}
	}
	return nil
}

// SeedBlob deposits a gaussian blob of exactly total mass centered at
// (cx, cy) with the given radius. External injection: callers own the
// resulting change to TotalMass.
func (f *MassField) SeedBlob(cx, cy, radius, total float64) {
	r := int(math.Ceil(radius))
	sigma := radius / 2
	if sigma <= 0 {
		sigma = 1
	}

	// First pass: unnormalized weights so the deposit sums to total exactly.
	var wsum float64
	icx, icy := int(math.Round(cx)), int(math.Round(cy))
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			d2 := float64(dx*dx + dy*dy)
			if d2 > radius*radius {
				continue
			}
			wsum += math.Exp(-d2 / (2 * sigma * sigma))
		}
	}
	if wsum <= 0 {
		return
	}
	scale := total / wsum
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			d2 := float64(dx*dx + dy*dy)
			if d2 > radius*radius {
				continue
			}
			i := f.Idx(icx+dx, icy+dy)
			f.A[i] += math.Exp(-d2/(2*sigma*sigma)) * scale
		}
	}
}

// EraseCells zeroes the given flat indices and returns the mass removed.
// Used by predation to consume a prey's body.
func (f *MassField) EraseCells(indices []int) float64 {
	var removed float64
	for _, i := range indices {
		removed += f.A[i]
		f.A[i] = 0
	}
	return removed
}

// Clear zeroes all state.
func (f *MassField) Clear() {
	for i := range f.A {
		f.A[i] = 0
		f.potential[i] = 0
		f.affinity[i] = 0
		f.fx[i] = 0
		f.fy[i] = 0
	}
}

// Resize reallocates all buffers for a new grid size, dropping state.
func (f *MassField) Resize(n int) {
	f.N = n
	cells := n * n
	f.A = make([]float64, cells)
	f.potential = make([]float64, cells)
	f.affinity = make([]float64, cells)
	f.fx = make([]float64, cells)
	f.fy = make([]float64, cells)
	f.next = make([]float64, cells)
	if f.kernel.Size > 0 {
		f.SetKernel(f.kernel) // rebuild the FFT plan for the new size
	}
}

// wrapInt returns i modulo n, always non-negative.
func wrapInt(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// ToroidalDelta returns the shortest-path delta from (x1,y1) to (x2,y2)
// on an n x n torus.
func ToroidalDelta(x1, y1, x2, y2 float64, n int) (dx, dy float64) {
	half := float64(n) / 2
	dx = x2 - x1
	dy = y2 - y1
	if dx > half {
		dx -= float64(n)
	} else if dx < -half {
		dx += float64(n)
	}
	if dy > half {
		dy -= float64(n)
	} else if dy < -half {
		dy += float64(n)
	}
	return dx, dy
}

// ToroidalDistance returns the shortest distance between two points on the torus.
func ToroidalDistance(x1, y1, x2, y2 float64, n int) float64 {
	dx, dy := ToroidalDelta(x1, y1, x2, y2, n)
	return math.Hypot(dx, dy)
}
