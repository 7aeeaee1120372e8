package genome

import (
	"math/rand"
	"testing"
)

func TestBoundsTableAligned(t *testing.T) {
	g := Base()
	if got, want := len(g.fieldRefs()), len(Bounds); got != want {
		t.Fatalf("fieldRefs has %d entries, Bounds has %d", got, want)
	}
	if !g.InRange() {
		t.Error("base genome outside documented bounds")
	}
	for _, b := range Bounds {
		if b.Default < b.Min || b.Default > b.Max {
			t.Errorf("%s: default %v outside [%v, %v]", b.Name, b.Default, b.Min, b.Max)
		}
	}
}

func TestFoundersInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		if g := New(rng); !g.InRange() {
			t.Fatalf("founder %d outside bounds: %+v", i, g)
		}
	}
}

func TestMutateStaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	g := New(rng)
	for i := 0; i < 1000; i++ {
		g.Mutate(rng, 0.5, 0.3, 0.02)
		if !g.InRange() {
			t.Fatalf("genome left bounds after %d mutations: %+v", i+1, g)
		}
	}
}

func TestCloneIndependence(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	parent := New(rng)
	child := parent.Clone()

	child.FoodWeight = parent.FoodWeight + 0.1
	child.IsPredator = !parent.IsPredator

	if parent.FoodWeight == child.FoodWeight {
		t.Error("clone shares state with parent")
	}
	if parent.IsPredator == child.IsPredator {
		t.Error("clone shares predator bit with parent")
	}
}

func TestMutateFlipsPredatorBit(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	g := Base()
	was := g.IsPredator

	flipped := false
	for i := 0; i < 1000; i++ {
		g.Mutate(rng, 0, 0, 0.05)
		if g.IsPredator != was {
			flipped = true
			break
		}
	}
	if !flipped {
		t.Error("predator bit never flipped in 1000 mutations at flipRate 0.05")
	}
}
