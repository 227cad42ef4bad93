package flow

import (
	"testing"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

func TestFlowIdentityAtInit(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	f := NewFlow(4, 3, 16, Checkerboard(2, 2), rng)

	z := randomBatch(6, 4, rng)
	ldj := make([]float64, 6)

	out, outLdj := f.Forward(z, ldj, false)

	if !mat.Equal(z, out) {
		t.Error("freshly constructed flow should be the identity map")
	}
	for i, v := range outLdj {
		if v != 0 {
			t.Errorf("identity flow accumulated ldj[%d] = %v", i, v)
		}
	}
}

func TestFlowInvertible(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	f := NewFlow(4, 3, 16, Checkerboard(2, 2), rng)
	perturb(f.Params(), rng, 0.2)

	z := randomBatch(8, 4, rng)
	ldj := make([]float64, 8)

	fwd, _ := f.Forward(z, ldj, false)
	back, _ := f.Forward(fwd, ldj, true)

	if !mat.EqualApprox(z, back, 1e-9) {
		t.Fatal("reverse(forward(z)) did not reconstruct z through the full stack")
	}
}

// Invertibility has to survive parameter updates, not just hold at the
// identity initialization.
func TestFlowInvertibleAfterUpdates(t *testing.T) {
	rng := rand.New(rand.NewSource(29))
	f := NewFlow(4, 2, 16, Checkerboard(2, 2), rng)

	for range 3 {
		perturb(f.Params(), rng, 0.3)

		z := randomBatch(4, 4, rng)
		fwd, _ := f.Forward(z, make([]float64, 4), false)
		back, _ := f.Forward(fwd, make([]float64, 4), true)

		if !mat.EqualApprox(z, back, 1e-9) {
			t.Fatal("flow stopped being invertible after parameter change")
		}
	}
}

func TestFlowLdjAccumulatesAcrossLayers(t *testing.T) {
	rng := rand.New(rand.NewSource(31))
	f := NewFlow(4, 2, 16, Checkerboard(2, 2), rng)
	perturb(f.Params(), rng, 0.3)

	z := randomBatch(1, 4, rng)

	// stack ldj must equal the sum of the per-layer contributions
	var want float64
	cur := z
	for _, layer := range f.layers {
		var ldj []float64
		cur, ldj = layer.Forward(cur, make([]float64, 1), false)
		want += ldj[0]
	}

	_, got := f.Forward(z, make([]float64, 1), false)
	if diff := want - got[0]; diff > 1e-12 || diff < -1e-12 {
		t.Fatalf("stack ldj %v != sum of layer ldjs %v", got[0], want)
	}
}
