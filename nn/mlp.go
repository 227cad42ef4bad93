package nn

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// MLP is the shared Linear-ReLU-Linear-ReLU-Linear sub-network that
// produces the scale and translation parameters of a coupling layer.
// The final linear stage is zero-initialized so the network computes
// the zero map at construction time.
type MLP struct {
	layers []*Linear

	// post-activation outputs of the hidden layers, cached for Backward
	acts []*mat.Dense
}

func NewMLP(in, hidden, out int, rng *rand.Rand) *MLP {
	return &MLP{
		layers: []*Linear{
			NewLinear(in, hidden, rng),
			NewLinear(hidden, hidden, rng),
			NewLinear(hidden, out, nil),
		},
	}
}

func (m *MLP) Forward(x *mat.Dense) *mat.Dense {
	m.acts = m.acts[:0]

	h := x
	for i, l := range m.layers {
		h = l.Forward(h)
		if i < len(m.layers)-1 {
			relu(h)
			m.acts = append(m.acts, h)
		}
	}

	return h
}

// Backward propagates grad through the network, accumulating parameter
// gradients, and returns the gradient with respect to the input of the
// last Forward call.
func (m *MLP) Backward(grad *mat.Dense) *mat.Dense {
	g := grad
	for i := len(m.layers) - 1; i >= 0; i-- {
		g = m.layers[i].Backward(g)
		if i > 0 {
			// g is now the gradient at the output of hidden layer i-1;
			// zero the entries where the ReLU did not fire
			act := m.acts[i-1].RawMatrix().Data
			data := g.RawMatrix().Data
			for j, a := range act {
				if a <= 0 {
					data[j] = 0
				}
			}
		}
	}

	return g
}

func (m *MLP) Params() []*Param {
	var params []*Param
	for _, l := range m.layers {
		params = append(params, l.Params()...)
	}
	return params
}

// relu clamps negative entries to zero in place.
func relu(x *mat.Dense) {
	data := x.RawMatrix().Data
	for i, v := range data {
		if v < 0 {
			data[i] = 0
		}
	}
}
