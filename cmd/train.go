package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/flowgen/flowgen/envconfig"
	"github.com/flowgen/flowgen/flow"
	"github.com/flowgen/flowgen/mnist"
	"github.com/flowgen/flowgen/progress"
	"github.com/flowgen/flowgen/train"
)

// holdout is the tail of the MNIST training set reserved for
// validation bpd.
const holdout = 10000

func NewTrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the flow on MNIST",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, err := runTraining(cmd)
			return err
		},
	}

	addTrainFlags(cmd)
	return cmd
}

func addTrainFlags(cmd *cobra.Command) {
	model := flow.DefaultConfig()
	run := train.DefaultConfig()

	cmd.Flags().Int("epochs", run.Epochs, "Number of training epochs")
	cmd.Flags().Int("batch-size", run.BatchSize, "Examples per gradient step")
	cmd.Flags().Float64("lr", run.LearningRate, "Adam learning rate")
	cmd.Flags().Float64("max-norm", run.MaxNorm, "Global gradient norm cap")
	cmd.Flags().Int("samples", run.SampleCount, "Images to render after each epoch (0 disables)")
	cmd.Flags().Int("blocks", model.Blocks, "Number of coupling blocks")
	cmd.Flags().Int("hidden", model.Hidden, "Width of the coupling sub-networks")
	cmd.Flags().Uint64("seed", model.Seed, "Random seed")
	cmd.Flags().String("data", envconfig.DataDir, "Directory for the MNIST data files")
	cmd.Flags().String("out", envconfig.OutDir, "Directory for sample grids and the bpd plot")
	cmd.Flags().String("device", "cpu", "Compute device to request")
}

func runTraining(cmd *cobra.Command) (*flow.Model, *train.History, error) {
	flags := cmd.Flags()

	modelCfg := flow.DefaultConfig()
	modelCfg.Blocks, _ = flags.GetInt("blocks")
	modelCfg.Hidden, _ = flags.GetInt("hidden")
	modelCfg.Seed, _ = flags.GetUint64("seed")

	runCfg := train.DefaultConfig()
	runCfg.Epochs, _ = flags.GetInt("epochs")
	runCfg.BatchSize, _ = flags.GetInt("batch-size")
	runCfg.LearningRate, _ = flags.GetFloat64("lr")
	runCfg.MaxNorm, _ = flags.GetFloat64("max-norm")
	runCfg.SampleCount, _ = flags.GetInt("samples")
	runCfg.OutDir, _ = flags.GetString("out")

	if device, _ := flags.GetString("device"); device != "cpu" {
		slog.Warn("only cpu compute is available, ignoring device", "device", device)
	}

	dataDir, _ := flags.GetString("data")
	if err := downloadData(cmd.Context(), dataDir); err != nil {
		return nil, nil, err
	}

	ds, err := mnist.Load(dataDir)
	if err != nil {
		return nil, nil, err
	}

	trainLoader, valLoader := train.NewLoaders(ds, holdout, runCfg.BatchSize, modelCfg.Seed)

	model := flow.New(modelCfg)
	runner := &train.Runner{
		Model:  model,
		Train:  trainLoader,
		Val:    valLoader,
		Config: runCfg,
	}

	history, err := runner.Run(cmd.Context())
	return model, history, err
}

func downloadData(ctx context.Context, dir string) error {
	p := progress.NewProgress(os.Stderr)
	defer p.Stop()

	var mu sync.Mutex
	bars := make(map[string]*progress.Bar)

	err := mnist.Download(ctx, dir, func(name string, completed, total int64) {
		mu.Lock()
		defer mu.Unlock()

		bar, ok := bars[name]
		if !ok {
			bar = progress.NewBar(fmt.Sprintf("downloading %s:", name), total, completed)
			bars[name] = bar
			p.Add(name, bar)
		}
		bar.Set(completed)
	})

	p.Stop()
	return err
}
