package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/flowgen/flowgen/envconfig"
	"github.com/flowgen/flowgen/logutil"
	"github.com/flowgen/flowgen/version"
)

func NewCLI() *cobra.Command {
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:           "flowgen",
		Short:         "Normalizing flow image generator",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if envconfig.Debug {
				level = slog.LevelDebug
			}
			slog.SetDefault(logutil.NewLogger(os.Stderr, level))
		},
	}

	rootCmd.AddCommand(
		NewTrainCmd(),
		NewSampleCmd(),
		NewServeCmd(),
		NewInfoCmd(),
	)

	return rootCmd
}
