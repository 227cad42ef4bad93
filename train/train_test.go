package train

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/flowgen/flowgen/flow"
	"github.com/flowgen/flowgen/nn"
)

// stubBatcher replays the same fixed batch a set number of times.
type stubBatcher struct {
	x *mat.Dense
	n int
}

func (s *stubBatcher) Batches() int         { return s.n }
func (s *stubBatcher) Batch(int) *mat.Dense { return s.x }

func toyModel(seed uint64) *flow.Model {
	return flow.New(flow.Config{Rows: 1, Cols: 2, Blocks: 2, Hidden: 8, Seed: seed})
}

// The bpd metric must be exactly totalLoss/(numBatches*ln2*D). A
// same-seed replica model replays the identical dequantization noise,
// giving an independent value for totalLoss.
func TestEpochIterBpdFormula(t *testing.T) {
	x := mat.NewDense(2, 2, []float64{5, 120, 250, 33})
	data := &stubBatcher{x: x, n: 2}

	model := toyModel(3)
	got := EpochIter(model, data, nil, 5, false)

	replica := toyModel(3)
	var total float64
	for i := 0; i < data.n; i++ {
		logpx := replica.LogProb(x)
		total += -floats.Sum(logpx) / float64(len(logpx))
	}
	want := total / (float64(data.n) * math.Ln2 * 2)

	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("bpd = %v, want %v", got, want)
	}
}

func TestEpochIterEvalDoesNotTouchParams(t *testing.T) {
	model := toyModel(4)
	params := model.Params()

	before := make([][]float64, len(params))
	for i, p := range params {
		before[i] = append([]float64(nil), p.Value.RawMatrix().Data...)
	}

	x := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	EpochIter(model, &stubBatcher{x: x, n: 3}, nil, 5, false)

	for i, p := range params {
		for j, v := range p.Value.RawMatrix().Data {
			if v != before[i][j] {
				t.Fatal("evaluation pass modified model parameters")
			}
		}
	}
}

func TestEpochIterTrainingUpdatesParams(t *testing.T) {
	model := toyModel(5)
	params := model.Params()
	opt := nn.NewAdam(params, 1e-3)

	before := append([]float64(nil), params[0].Value.RawMatrix().Data...)

	x := mat.NewDense(4, 2, []float64{9, 200, 15, 40, 77, 3, 128, 128})
	bpd := EpochIter(model, &stubBatcher{x: x, n: 2}, opt, 5, true)

	if math.IsNaN(bpd) || math.IsInf(bpd, 0) {
		t.Fatalf("training bpd is not finite: %v", bpd)
	}

	var changed bool
	for j, v := range params[0].Value.RawMatrix().Data {
		if v != before[j] {
			changed = true
			break
		}
	}
	if !changed {
		t.Fatal("training pass left parameters untouched")
	}
}

func TestRunEpoch(t *testing.T) {
	model := toyModel(6)
	opt := nn.NewAdam(model.Params(), 1e-3)

	x := mat.NewDense(2, 2, []float64{0, 255, 128, 64})
	data := &stubBatcher{x: x, n: 2}

	trainBpd, valBpd := RunEpoch(model, data, data, opt, 5)
	for _, bpd := range []float64{trainBpd, valBpd} {
		if math.IsNaN(bpd) || math.IsInf(bpd, 0) {
			t.Fatalf("bpd is not finite: %v", bpd)
		}
	}
}

func TestRunnerRun(t *testing.T) {
	dir := t.TempDir()

	model := toyModel(7)
	x := mat.NewDense(2, 2, []float64{10, 20, 30, 40})
	data := &stubBatcher{x: x, n: 2}

	var epochs int
	r := &Runner{
		Model: model,
		Train: data,
		Val:   data,
		Config: Config{
			Epochs:       2,
			BatchSize:    2,
			LearningRate: 1e-3,
			MaxNorm:      5,
			SampleCount:  4,
			OutDir:       dir,
		},
		OnEpoch: func(epoch int, trainBpd, valBpd float64) { epochs++ },
	}

	history, err := r.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if epochs != 2 || len(history.Train) != 2 || len(history.Val) != 2 {
		t.Fatalf("expected 2 recorded epochs, got callback=%d train=%d val=%d",
			epochs, len(history.Train), len(history.Val))
	}

	for _, name := range []string{"0.png", "1.png", "nfs_bpd.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected output artifact %s: %v", name, err)
		}
	}
}
