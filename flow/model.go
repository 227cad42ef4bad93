package flow

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/flowgen/flowgen/nn"
)

// alpha keeps normalized values strictly inside (0,1) so the logit
// never sees 0 or 1.
const alpha = 1e-5

type Config struct {
	// Rows and Cols describe the image grid; the model operates on the
	// flattened Rows*Cols vector.
	Rows int
	Cols int

	// Blocks is the number of coupling blocks; each block holds two
	// coupling layers with complementary checkerboard masks.
	Blocks int

	// Hidden is the width of the coupling sub-networks.
	Hidden int

	// Seed drives weight initialization, dequantization noise and
	// prior sampling. Fixed seed, fixed run.
	Seed uint64
}

func DefaultConfig() Config {
	return Config{
		Rows:   28,
		Cols:   28,
		Blocks: 4,
		Hidden: 1024,
		Seed:   42,
	}
}

// Model wraps the coupling stack with dequantization, logit-space
// normalization and the Gaussian prior to expose a per-example
// log-likelihood (forward) and sampling (reverse).
type Model struct {
	dim   int
	cfg   Config
	flow  *Flow
	prior *Prior
	noise distuv.Uniform

	// latent batch from the last LogProb call, consumed by Backward
	lastZ *mat.Dense
}

func New(cfg Config) *Model {
	dim := cfg.Rows * cfg.Cols
	mask := Checkerboard(cfg.Rows, cfg.Cols)
	rng := rand.New(rand.NewSource(cfg.Seed))

	return &Model{
		dim:   dim,
		cfg:   cfg,
		flow:  NewFlow(dim, cfg.Blocks, cfg.Hidden, mask, rng),
		prior: NewPrior(cfg.Seed + 1),
		noise: distuv.Uniform{Min: 0, Max: 1, Src: rand.NewSource(cfg.Seed + 2)},
	}
}

func (m *Model) Dim() int            { return m.dim }
func (m *Model) Config() Config      { return m.cfg }
func (m *Model) Params() []*nn.Param { return m.flow.Params() }
func (m *Model) Flow() *Flow         { return m.flow }
func (m *Model) Prior() *Prior       { return m.prior }

// Dequantize adds independent uniform [0,1) noise to every coordinate,
// turning discrete intensities into a continuous distribution. The map
// is volume preserving, so it contributes nothing to the
// log-determinant.
func (m *Model) Dequantize(x *mat.Dense) *mat.Dense {
	rows, cols := x.Dims()
	out := mat.NewDense(rows, cols, nil)

	xd := x.RawMatrix().Data
	od := out.RawMatrix().Data
	for i := range od {
		od[i] = xd[i] + m.noise.Rand()
	}

	return out
}

// Normalize maps [0,256) intensities into unbounded logit space
// (forward) and back (reverse), accumulating the Jacobian terms of the
// /256 scaling and the logit into ldj. The reverse direction applies
// the algebraic inverse with flipped signs; the small alpha debiasing
// is not undone symmetrically, mirroring the forward-only role of the
// offset.
func (m *Model) Normalize(z *mat.Dense, ldj []float64, reverse bool) (*mat.Dense, []float64) {
	rows, cols := z.Dims()
	out := mat.NewDense(rows, cols, nil)

	zd := z.RawMatrix().Data
	od := out.RawMatrix().Data
	outLdj := append([]float64(nil), ldj...)

	scaleLdj := float64(cols) * math.Log(256)

	for i := 0; i < rows; i++ {
		if !reverse {
			outLdj[i] -= scaleLdj
			for j := 0; j < cols; j++ {
				v := zd[i*cols+j] / 256
				v = v*(1-alpha) + alpha*0.5
				outLdj[i] += -math.Log(v) - math.Log(1-v)
				od[i*cols+j] = math.Log(v) - math.Log(1-v)
			}
		} else {
			for j := 0; j < cols; j++ {
				v := 1 / (1 + math.Exp(-zd[i*cols+j]))
				outLdj[i] += math.Log(v) + math.Log(1-v)
				od[i*cols+j] = v * 256
			}
			outLdj[i] += scaleLdj
		}
	}

	return out, outLdj
}

// LogProb returns the exact model log-likelihood per example,
// decomposed as log p(z) plus the accumulated log-determinant of the
// data-to-latent map.
func (m *Model) LogProb(x *mat.Dense) []float64 {
	rows, _ := x.Dims()
	ldj := make([]float64, rows)

	z := m.Dequantize(x)
	z, ldj = m.Normalize(z, ldj, false)
	z, ldj = m.flow.Forward(z, ldj, false)

	m.lastZ = z

	logpx := m.prior.LogDensity(z)
	for i := range logpx {
		logpx[i] += ldj[i]
	}

	return logpx
}

// Backward accumulates parameter gradients of loss = -mean(LogProb(x))
// using the caches of the last LogProb call. The normalization stage
// sits upstream of every parameter, so gradients only need to traverse
// the coupling stack: dL/dz at the latent is z/B and dL/dldj is -1/B
// per example.
func (m *Model) Backward() {
	rows, cols := m.lastZ.Dims()

	gz := mat.NewDense(rows, cols, nil)
	gzd := gz.RawMatrix().Data
	zd := m.lastZ.RawMatrix().Data
	for i := range gzd {
		gzd[i] = zd[i] / float64(rows)
	}

	gl := make([]float64, rows)
	for i := range gl {
		gl[i] = -1 / float64(rows)
	}

	m.flow.Backward(gz, gl)
}

// Sample draws n examples by inverting the flow on prior samples and
// undoing the logit normalization. Outputs lie in [0,256).
func (m *Model) Sample(n int) *mat.Dense {
	z := m.prior.Sample(n, m.dim)
	ldj := make([]float64, n)

	z, ldj = m.flow.Forward(z, ldj, true)
	z, _ = m.Normalize(z, ldj, true)

	return z
}
