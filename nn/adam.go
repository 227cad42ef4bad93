package nn

import (
	"math"
)

// Adam implements the Adam update rule with bias correction:
//
//	m_t = beta1*m_{t-1} + (1-beta1)*g
//	v_t = beta2*v_{t-1} + (1-beta2)*g²
//	p  -= lr * (m_t/(1-beta1^t)) / (sqrt(v_t/(1-beta2^t)) + eps)
type Adam struct {
	LR    float64
	Beta1 float64
	Beta2 float64
	Eps   float64

	m [][]float64
	v [][]float64
	t int
}

func NewAdam(params []*Param, lr float64) *Adam {
	m := make([][]float64, len(params))
	v := make([][]float64, len(params))
	for i, p := range params {
		m[i] = make([]float64, p.NumElements())
		v[i] = make([]float64, p.NumElements())
	}

	return &Adam{
		LR:    lr,
		Beta1: 0.9,
		Beta2: 0.999,
		Eps:   1e-8,
		m:     m,
		v:     v,
	}
}

// Step applies one update using the gradients currently accumulated in
// params. The params slice must be the one the optimizer was created
// with.
func (a *Adam) Step(params []*Param) {
	a.t++

	bias1 := 1 - math.Pow(a.Beta1, float64(a.t))
	bias2 := 1 - math.Pow(a.Beta2, float64(a.t))

	for i, p := range params {
		value := p.Value.RawMatrix().Data
		grad := p.Grad.RawMatrix().Data
		for j, g := range grad {
			a.m[i][j] = a.Beta1*a.m[i][j] + (1-a.Beta1)*g
			a.v[i][j] = a.Beta2*a.v[i][j] + (1-a.Beta2)*g*g

			mHat := a.m[i][j] / bias1
			vHat := a.v[i][j] / bias2

			value[j] -= a.LR * mHat / (math.Sqrt(vHat) + a.Eps)
		}
	}
}
