package nn

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func randomDense(r, c int, rng *rand.Rand) *mat.Dense {
	d := mat.NewDense(r, c, nil)
	data := d.RawMatrix().Data
	for i := range data {
		data[i] = rng.NormFloat64()
	}
	return d
}

func TestLinearZeroInit(t *testing.T) {
	l := NewLinear(4, 6, nil)

	rng := rand.New(rand.NewSource(0))
	y := l.Forward(randomDense(3, 4, rng))

	for _, v := range y.RawMatrix().Data {
		if v != 0 {
			t.Fatalf("zero-initialized layer produced nonzero output %v", v)
		}
	}
}

// TestMLPGradients verifies the hand-written backward pass against
// central finite differences for the scalar loss sum(MLP(x)).
func TestMLPGradients(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	m := NewMLP(3, 8, 6, rng)
	// randomize the final (normally zero-initialized) stage so the
	// check exercises every layer
	for _, p := range m.layers[2].Params() {
		data := p.Value.RawMatrix().Data
		for i := range data {
			data[i] = 0.1 * rng.NormFloat64()
		}
	}

	x := randomDense(4, 3, rng)
	params := m.Params()

	ZeroGrad(params)
	y := m.Forward(x)
	r, c := y.Dims()
	ones := mat.NewDense(r, c, nil)
	for i := range ones.RawMatrix().Data {
		ones.RawMatrix().Data[i] = 1
	}
	m.Backward(ones)

	for pi, p := range params {
		data := p.Value.RawMatrix().Data
		theta := append([]float64(nil), data...)

		f := func(v []float64) float64 {
			copy(data, v)
			return floats.Sum(m.Forward(x).RawMatrix().Data)
		}
		numeric := fd.Gradient(nil, f, theta, &fd.Settings{Formula: fd.Central})
		copy(data, theta)

		analytic := p.Grad.RawMatrix().Data
		for i := range numeric {
			if math.Abs(numeric[i]-analytic[i]) > 1e-5 {
				t.Fatalf("param %d element %d: analytic %v numeric %v", pi, i, analytic[i], numeric[i])
			}
		}
	}
}

func TestMLPInputGradient(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	m := NewMLP(5, 16, 4, rng)
	x := randomDense(1, 5, rng)

	ZeroGrad(m.Params())
	m.Forward(x)
	ones := mat.NewDense(1, 4, []float64{1, 1, 1, 1})
	dx := m.Backward(ones)

	theta := append([]float64(nil), x.RawMatrix().Data...)
	f := func(v []float64) float64 {
		return floats.Sum(m.Forward(mat.NewDense(1, 5, v)).RawMatrix().Data)
	}
	numeric := fd.Gradient(nil, f, theta, &fd.Settings{Formula: fd.Central})

	for i := range numeric {
		if math.Abs(numeric[i]-dx.RawMatrix().Data[i]) > 1e-5 {
			t.Fatalf("input gradient %d: analytic %v numeric %v", i, dx.RawMatrix().Data[i], numeric[i])
		}
	}
}

func TestClipGradNorm(t *testing.T) {
	p := NewParam(mat.NewDense(1, 2, nil))
	p.Grad.Set(0, 0, 3)
	p.Grad.Set(0, 1, 4)

	norm := ClipGradNorm([]*Param{p}, 1)
	if math.Abs(norm-5) > 1e-12 {
		t.Fatalf("expected pre-clip norm 5, got %v", norm)
	}

	var clipped float64
	for _, g := range p.Grad.RawMatrix().Data {
		clipped += g * g
	}
	if math.Abs(math.Sqrt(clipped)-1) > 1e-12 {
		t.Fatalf("expected clipped norm 1, got %v", math.Sqrt(clipped))
	}

	// below the threshold, gradients are untouched
	p.Grad.Set(0, 0, 0.3)
	p.Grad.Set(0, 1, 0.4)
	ClipGradNorm([]*Param{p}, 1)
	if p.Grad.At(0, 0) != 0.3 || p.Grad.At(0, 1) != 0.4 {
		t.Fatal("gradients below max norm should not be rescaled")
	}
}

func TestAdamConvergesOnQuadratic(t *testing.T) {
	// minimize (p-3)² elementwise
	p := NewParam(mat.NewDense(1, 1, []float64{10}))
	params := []*Param{p}
	opt := NewAdam(params, 0.1)

	for range 2000 {
		ZeroGrad(params)
		p.Grad.Set(0, 0, 2*(p.Value.At(0, 0)-3))
		opt.Step(params)
	}

	if got := p.Value.At(0, 0); math.Abs(got-3) > 1e-3 {
		t.Fatalf("expected convergence to 3, got %v", got)
	}
}
