// Package train drives gradient-based training of the flow model and
// reports the bits-per-dimension metric over batched epochs. Data
// iteration and image export stay behind small interfaces so the loop
// itself is testable with stubs.
package train

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/flowgen/flowgen/flow"
	"github.com/flowgen/flowgen/nn"
)

// Batcher is a finite, re-iterable sequence of input batches.
type Batcher interface {
	Batches() int
	Batch(i int) *mat.Dense
}

// EpochIter runs one pass over data. In training mode every batch
// zeroes gradients, backpropagates loss = -mean(logpx), clips the
// global gradient norm to maxNorm and applies one optimizer step; in
// evaluation mode the loss is computed only. The return value is the
// average bits per dimension:
//
//	totalLoss / (numBatches * ln(2) * D)
func EpochIter(model *flow.Model, data Batcher, opt *nn.Adam, maxNorm float64, training bool) float64 {
	params := model.Params()

	var total float64
	for i := 0; i < data.Batches(); i++ {
		x := data.Batch(i)

		if training {
			nn.ZeroGrad(params)
		}

		logpx := model.LogProb(x)
		loss := -floats.Sum(logpx) / float64(len(logpx))

		if training {
			model.Backward()
			nn.ClipGradNorm(params, maxNorm)
			opt.Step(params)
		}

		total += loss
	}

	return total / (float64(data.Batches()) * math.Ln2 * float64(model.Dim()))
}

// RunEpoch runs one training pass over train and one evaluation pass
// over val, returning both bpd metrics.
func RunEpoch(model *flow.Model, train, val Batcher, opt *nn.Adam, maxNorm float64) (trainBpd, valBpd float64) {
	trainBpd = EpochIter(model, train, opt, maxNorm, true)
	valBpd = EpochIter(model, val, opt, maxNorm, false)
	return trainBpd, valBpd
}
