// Package nn implements the small feed-forward machinery the coupling
// layers are built from: dense layers with hand-written backward passes,
// an Adam optimizer and global gradient-norm clipping. Everything runs
// on gonum dense matrices, one row per example.
package nn

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Param is a trainable tensor together with its gradient accumulator.
// Gradients are accumulated by Backward calls and consumed by the
// optimizer; nothing else writes to either matrix.
type Param struct {
	Value *mat.Dense
	Grad  *mat.Dense
}

func NewParam(value *mat.Dense) *Param {
	r, c := value.Dims()
	return &Param{
		Value: value,
		Grad:  mat.NewDense(r, c, nil),
	}
}

// NumElements returns the number of scalars in the parameter.
func (p *Param) NumElements() int {
	r, c := p.Value.Dims()
	return r * c
}

// ZeroGrad clears the gradient accumulators of all params.
func ZeroGrad(params []*Param) {
	for _, p := range params {
		p.Grad.Zero()
	}
}

// NumParams returns the total scalar parameter count.
func NumParams(params []*Param) int {
	var n int
	for _, p := range params {
		n += p.NumElements()
	}
	return n
}

// ClipGradNorm rescales all gradients so their global L2 norm does not
// exceed maxNorm. Returns the norm before clipping.
func ClipGradNorm(params []*Param, maxNorm float64) float64 {
	var sumsq float64
	for _, p := range params {
		g := p.Grad.RawMatrix().Data
		sumsq += floats.Dot(g, g)
	}
	norm := math.Sqrt(sumsq)

	if norm > maxNorm {
		scale := maxNorm / norm
		for _, p := range params {
			floats.Scale(scale, p.Grad.RawMatrix().Data)
		}
	}

	return norm
}
