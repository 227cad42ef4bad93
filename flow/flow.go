package flow

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/flowgen/flowgen/nn"
)

// Flow is an ordered stack of coupling layers with alternating masks,
// blocks pairs where the second layer uses the complementary mask.
type Flow struct {
	dim    int
	layers []*Coupling
}

func NewFlow(dim, blocks, hidden int, mask []float64, rng *rand.Rand) *Flow {
	inv := complement(mask)

	f := &Flow{dim: dim}
	for range blocks {
		f.layers = append(f.layers,
			NewCoupling(dim, mask, hidden, rng),
			NewCoupling(dim, inv, hidden, rng),
		)
	}
	return f
}

// Forward composes every layer in construction order; reverse composes
// the layer inverses in reverse order, which is what makes the stack an
// exact bijection: (f_n ∘ … ∘ f_1)⁻¹ = f_1⁻¹ ∘ … ∘ f_n⁻¹.
func (f *Flow) Forward(z *mat.Dense, ldj []float64, reverse bool) (*mat.Dense, []float64) {
	if !reverse {
		for _, layer := range f.layers {
			z, ldj = layer.Forward(z, ldj, false)
		}
	} else {
		for i := len(f.layers) - 1; i >= 0; i-- {
			z, ldj = f.layers[i].Forward(z, ldj, true)
		}
	}

	return z, ldj
}

// Backward runs the layers in reverse order against the caches of the
// last forward pass, accumulating parameter gradients. gz is the loss
// gradient at the latent output, gl the per-example gradient of the
// accumulated log-determinant.
func (f *Flow) Backward(gz *mat.Dense, gl []float64) *mat.Dense {
	for i := len(f.layers) - 1; i >= 0; i-- {
		gz = f.layers[i].Backward(gz, gl)
	}
	return gz
}

func (f *Flow) Params() []*nn.Param {
	var params []*nn.Param
	for _, layer := range f.layers {
		params = append(params, layer.Params()...)
	}
	return params
}
