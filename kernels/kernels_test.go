package kernels

import (
	"math"
	"testing"
)

func TestGenerateNormalized(t *testing.T) {
	for _, typ := range []Type{Ring, Gaussian, MultiRing} {
		k, err := Generate(typ, 13, Params{Peaks: []float64{1, 0.6, 0.3}})
		if err != nil {
			t.Fatalf("Generate(%s): %v", typ, err)
		}
		if k.Size != 27 {
			t.Errorf("%s: size = %d, want 27", typ, k.Size)
		}

		var sum float64
		for _, row := range k.Weights {
			for _, v := range row {
				if v < 0 {
					t.Errorf("%s: negative weight %v", typ, v)
				}
				sum += v
			}
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("%s: weights sum = %v, want 1", typ, sum)
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a, err := Generate(Ring, 7, Params{})
	if err != nil {
		t.Fatal(err)
	}
	b, _ := Generate(Ring, 7, Params{})
	for y := range a.Weights {
		for x := range a.Weights[y] {
			if a.Weights[y][x] != b.Weights[y][x] {
				t.Fatalf("non-deterministic weight at (%d,%d)", x, y)
			}
		}
	}
}

func TestGenerateErrors(t *testing.T) {
	if _, err := Generate(Ring, 0, Params{}); err == nil {
		t.Error("expected error for radius 0")
	}
	if _, err := Generate(Type("hexagon"), 5, Params{}); err == nil {
		t.Error("expected error for unknown type")
	}
}
