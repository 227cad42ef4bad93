package flow

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/flowgen/flowgen/nn"
)

// Coupling is one invertible affine transform conditioned on the masked
// half of its input. The sub-network sees only mask⊙z and emits 2*dim
// outputs: the first dim become the log-scale (bounded with tanh for
// stability), the rest the translation. Coordinates with mask=1 pass
// through unchanged in both directions, which is what makes the inverse
// closed-form.
type Coupling struct {
	dim  int
	mask []float64
	net  *nn.MLP

	// caches from the last forward pass, consumed by Backward
	zin      *mat.Dense
	logScale *mat.Dense
}

func NewCoupling(dim int, mask []float64, hidden int, rng *rand.Rand) *Coupling {
	if len(mask) != dim {
		panic(fmt.Sprintf("flow: mask length %d does not match input dimension %d", len(mask), dim))
	}

	return &Coupling{
		dim:  dim,
		mask: mask,
		net:  nn.NewMLP(dim, hidden, 2*dim, rng),
	}
}

// Forward applies the coupling transform to the batch z, returning the
// transformed batch and updated log-determinant accumulator. In the
// forward direction ldj picks up sum((1-mask)*logScale) per example;
// the reverse direction leaves ldj untouched since sampling does not
// need the likelihood.
func (c *Coupling) Forward(z *mat.Dense, ldj []float64, reverse bool) (*mat.Dense, []float64) {
	rows, cols := z.Dims()

	masked := mat.NewDense(rows, cols, nil)
	md := masked.RawMatrix().Data
	zd := z.RawMatrix().Data
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			md[i*cols+j] = c.mask[j] * zd[i*cols+j]
		}
	}

	h := c.net.Forward(masked)
	hd := h.RawMatrix().Data

	logScale := mat.NewDense(rows, cols, nil)
	ls := logScale.RawMatrix().Data
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			ls[i*cols+j] = math.Tanh(hd[i*2*cols+j])
		}
	}

	out := mat.NewDense(rows, cols, nil)
	od := out.RawMatrix().Data
	outLdj := append([]float64(nil), ldj...)

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			k := i*cols + j
			m := c.mask[j]
			s := ls[k]
			t := hd[i*2*cols+cols+j]

			if !reverse {
				od[k] = m*zd[k] + (1-m)*(zd[k]*math.Exp(s)+t)
				outLdj[i] += (1 - m) * s
			} else {
				od[k] = m*zd[k] + (1-m)*((zd[k]-t)*math.Exp(-s))
			}
		}
	}

	if !reverse {
		c.zin = z
		c.logScale = logScale
	}

	return out, outLdj
}

// Backward propagates loss gradients through the transform of the last
// forward (non-reverse) pass. gz is dL/dz' and gl is dL/dldj per
// example; parameter gradients accumulate into the sub-network and the
// returned matrix is dL/dz. gl is unchanged because ldj accumulates
// additively.
func (c *Coupling) Backward(gz *mat.Dense, gl []float64) *mat.Dense {
	rows, cols := gz.Dims()

	gzd := gz.RawMatrix().Data
	zd := c.zin.RawMatrix().Data
	ls := c.logScale.RawMatrix().Data

	gh := mat.NewDense(rows, 2*cols, nil)
	ghd := gh.RawMatrix().Data
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			k := i*cols + j
			m := c.mask[j]
			s := ls[k]

			// dL/ds through z' and through the ldj sum, then through tanh
			ds := gzd[k]*(1-m)*zd[k]*math.Exp(s) + gl[i]*(1-m)
			ghd[i*2*cols+j] = ds * (1 - s*s)

			// dL/dt
			ghd[i*2*cols+cols+j] = gzd[k] * (1 - m)
		}
	}

	gmasked := c.net.Backward(gh)
	gmd := gmasked.RawMatrix().Data

	gin := mat.NewDense(rows, cols, nil)
	gind := gin.RawMatrix().Data
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			k := i*cols + j
			m := c.mask[j]
			gind[k] = gzd[k]*(m+(1-m)*math.Exp(ls[k])) + m*gmd[k]
		}
	}

	return gin
}

func (c *Coupling) Params() []*nn.Param {
	return c.net.Params()
}
