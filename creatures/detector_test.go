package creatures

import (
	"math"
	"testing"
)

// blob writes a square patch of uniform density.
func blob(a []float64, n, cx, cy, half int, v float64) {
	for dy := -half; dy <= half; dy++ {
		for dx := -half; dx <= half; dx++ {
			x := (cx + dx + n) % n
			y := (cy + dy + n) % n
			a[y*n+x] = v
		}
	}
}

func TestDetectSeparateComponents(t *testing.T) {
	const n = 64
	a := make([]float64, n*n)
	blob(a, n, 10, 10, 2, 0.5) // 25 cells, mass 12.5
	blob(a, n, 40, 40, 1, 0.5) // 9 cells, mass 4.5

	d := NewDetector(n, 0.08, 2.0, 64)
	cands := d.Detect(a)

	if len(cands) != 2 {
		t.Fatalf("detected %d components, want 2", len(cands))
	}
	// Sorted by mass descending.
	if cands[0].Mass < cands[1].Mass {
		t.Errorf("candidates not mass-sorted: %v < %v", cands[0].Mass, cands[1].Mass)
	}
	if math.Abs(cands[0].Mass-12.5) > 1e-9 {
		t.Errorf("heavy component mass = %v, want 12.5", cands[0].Mass)
	}
	if math.Abs(cands[0].X-10) > 1e-9 || math.Abs(cands[0].Y-10) > 1e-9 {
		t.Errorf("heavy centroid = (%v, %v), want (10, 10)", cands[0].X, cands[0].Y)
	}
}

func TestDetectComponentAcrossWrapSeam(t *testing.T) {
	const n = 32
	a := make([]float64, n*n)
	// Component straddling x = 0: cells at x = 30, 31, 0, 1.
	for _, x := range []int{30, 31, 0, 1} {
		a[16*n+x] = 1.0
	}

	d := NewDetector(n, 0.08, 2.0, 64)
	cands := d.Detect(a)

	if len(cands) != 1 {
		t.Fatalf("detected %d components, want 1 across the seam", len(cands))
	}
	// Centroid is the wrap midpoint x = 31.5, never the arithmetic mean 15.5.
	if math.Abs(cands[0].X-31.5) > 1e-9 {
		t.Errorf("seam centroid X = %v, want 31.5", cands[0].X)
	}
	if math.Abs(cands[0].Y-16) > 1e-9 {
		t.Errorf("seam centroid Y = %v, want 16", cands[0].Y)
	}
}

func TestDetectFiltersSmallComponents(t *testing.T) {
	const n = 32
	a := make([]float64, n*n)
	a[5*n+5] = 0.5 // single cell, mass 0.5 < minimum 2.0
	blob(a, n, 20, 20, 2, 0.5)

	d := NewDetector(n, 0.08, 2.0, 64)
	cands := d.Detect(a)

	if len(cands) != 1 {
		t.Fatalf("detected %d components, want 1 after mass filter", len(cands))
	}
}

func TestDetectTruncatesToMaxCreatures(t *testing.T) {
	const n = 64
	a := make([]float64, n*n)
	for i := 0; i < 6; i++ {
		blob(a, n, 5+i*10, 5, 1, 0.5+float64(i)*0.1)
	}

	d := NewDetector(n, 0.08, 2.0, 3)
	cands := d.Detect(a)

	if len(cands) != 3 {
		t.Fatalf("detected %d components, want 3 after truncation", len(cands))
	}
	// The survivors are the heaviest.
	for i := 1; i < len(cands); i++ {
		if cands[i].Mass > cands[i-1].Mass {
			t.Errorf("truncated candidates out of order at %d", i)
		}
	}
}

func TestDetectBelowThresholdIgnored(t *testing.T) {
	const n = 16
	a := make([]float64, n*n)
	blob(a, n, 8, 8, 2, 0.05) // below the 0.08 threshold

	d := NewDetector(n, 0.08, 2.0, 64)
	if cands := d.Detect(a); len(cands) != 0 {
		t.Fatalf("detected %d components in sub-threshold noise, want 0", len(cands))
	}
}
