package nn

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Linear is a fully connected layer computing y = xW + b for a batch x
// with one example per row.
type Linear struct {
	Weight *Param // in×out
	Bias   *Param // 1×out

	// input cached by the last Forward call, consumed by Backward
	x *mat.Dense
}

// NewLinear creates a layer with Xavier-uniform weights drawn from rng.
// A nil rng zero-initializes the layer, which makes it compute the zero
// map regardless of input.
func NewLinear(in, out int, rng *rand.Rand) *Linear {
	if in <= 0 || out <= 0 {
		panic(fmt.Sprintf("nn: invalid linear dimensions %dx%d", in, out))
	}

	w := mat.NewDense(in, out, nil)
	if rng != nil {
		limit := math.Sqrt(6 / float64(in+out))
		data := w.RawMatrix().Data
		for i := range data {
			data[i] = 2*limit*rng.Float64() - limit
		}
	}

	return &Linear{
		Weight: NewParam(w),
		Bias:   NewParam(mat.NewDense(1, out, nil)),
	}
}

func (l *Linear) Forward(x *mat.Dense) *mat.Dense {
	l.x = x

	var y mat.Dense
	y.Mul(x, l.Weight.Value)

	rows, cols := y.Dims()
	bias := l.Bias.Value.RawMatrix().Data
	data := y.RawMatrix().Data
	for i := 0; i < rows; i++ {
		floats.Add(data[i*cols:(i+1)*cols], bias)
	}

	return &y
}

// Backward accumulates parameter gradients for the upstream gradient
// grad and returns the gradient with respect to the layer input. Must
// follow the Forward call whose activations it consumes.
func (l *Linear) Backward(grad *mat.Dense) *mat.Dense {
	var dw mat.Dense
	dw.Mul(l.x.T(), grad)
	l.Weight.Grad.Add(l.Weight.Grad, &dw)

	rows, cols := grad.Dims()
	db := l.Bias.Grad.RawMatrix().Data
	data := grad.RawMatrix().Data
	for i := 0; i < rows; i++ {
		floats.Add(db, data[i*cols:(i+1)*cols])
	}

	var dx mat.Dense
	dx.Mul(grad, l.Weight.Value.T())
	return &dx
}

func (l *Linear) Params() []*Param {
	return []*Param{l.Weight, l.Bias}
}
