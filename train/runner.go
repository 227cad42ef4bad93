package train

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/flowgen/flowgen/flow"
	"github.com/flowgen/flowgen/format"
	"github.com/flowgen/flowgen/imggrid"
	"github.com/flowgen/flowgen/mnist"
	"github.com/flowgen/flowgen/nn"
)

type Config struct {
	Epochs       int
	BatchSize    int
	LearningRate float64

	// MaxNorm caps the global gradient norm each step. Gradient
	// explosion is the one expected instability here; clipping is the
	// stabilizer, not an error path.
	MaxNorm float64

	// SampleCount images are rendered to OutDir after every epoch.
	SampleCount int
	OutDir      string
}

func DefaultConfig() Config {
	return Config{
		Epochs:       40,
		BatchSize:    128,
		LearningRate: 1e-3,
		MaxNorm:      5,
		SampleCount:  25,
		OutDir:       filepath.Join("images", "nf"),
	}
}

// History records one bpd value per epoch for each pass.
type History struct {
	Train []float64
	Val   []float64
}

// Runner owns one training run: the optimizer, the per-epoch sample
// grids and the bpd history.
type Runner struct {
	Model  *flow.Model
	Train  Batcher
	Val    Batcher
	Config Config

	// OnEpoch, when set, observes each completed epoch.
	OnEpoch func(epoch int, trainBpd, valBpd float64)
}

// Run trains for the configured number of epochs and returns the bpd
// history. Sample grids and the bpd curve plot land in Config.OutDir.
func (r *Runner) Run(ctx context.Context) (*History, error) {
	cfg := r.Config

	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return nil, err
	}

	opt := nn.NewAdam(r.Model.Params(), cfg.LearningRate)
	history := &History{}

	slog.Info("training",
		"epochs", cfg.Epochs,
		"batch_size", cfg.BatchSize,
		"lr", cfg.LearningRate,
		"max_norm", cfg.MaxNorm,
		"parameters", format.HumanNumber(uint64(nn.NumParams(r.Model.Params()))))

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return history, err
		}

		if s, ok := r.Train.(interface{ Shuffle() }); ok {
			s.Shuffle()
		}

		started := time.Now()
		trainBpd, valBpd := RunEpoch(r.Model, r.Train, r.Val, opt, cfg.MaxNorm)

		history.Train = append(history.Train, trainBpd)
		history.Val = append(history.Val, valBpd)

		slog.Info("epoch complete",
			"epoch", epoch,
			"train_bpd", fmt.Sprintf("%.4f", trainBpd),
			"val_bpd", fmt.Sprintf("%.4f", valBpd),
			"duration", format.HumanDuration(time.Since(started)))

		if r.OnEpoch != nil {
			r.OnEpoch(epoch, trainBpd, valBpd)
		}

		if cfg.SampleCount > 0 {
			if err := r.saveSamples(epoch); err != nil {
				return history, err
			}
		}
	}

	if err := SaveCurves(filepath.Join(cfg.OutDir, "nfs_bpd.png"), history); err != nil {
		return history, err
	}

	return history, nil
}

func (r *Runner) saveSamples(epoch int) error {
	cfg := r.Model.Config()

	samples := r.Model.Sample(r.Config.SampleCount)
	grid, err := imggrid.Render(samples, 5, cfg.Rows, cfg.Cols)
	if err != nil {
		return err
	}

	name := filepath.Join(r.Config.OutDir, fmt.Sprintf("%d.png", epoch))
	return imggrid.SavePNG(name, grid)
}

// NewLoaders builds shuffled training and sequential validation
// loaders from the MNIST training set, holding out valN examples.
func NewLoaders(ds *mnist.Dataset, valN, batchSize int, seed uint64) (*mnist.Loader, *mnist.Loader) {
	trainDS, valDS := ds.Split(valN)
	return mnist.NewLoader(trainDS, batchSize, seed), mnist.NewLoader(valDS, batchSize, seed+1)
}
