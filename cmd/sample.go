package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flowgen/flowgen/api"
	"github.com/flowgen/flowgen/envconfig"
)

func NewSampleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Request a grid of generated images from a running server",
		Args:  cobra.ExactArgs(0),
		RunE:  sampleHandler,
	}

	cmd.Flags().Int("count", 25, "Number of images to generate")
	cmd.Flags().Int("scale", 1, "Integer upscaling factor for the grid")
	cmd.Flags().StringP("output", "o", "samples.png", "File to write the PNG grid to")

	return cmd
}

func sampleHandler(cmd *cobra.Command, args []string) error {
	count, _ := cmd.Flags().GetInt("count")
	scale, _ := cmd.Flags().GetInt("scale")
	output, _ := cmd.Flags().GetString("output")

	client := api.NewClient(envconfig.Host)
	data, err := client.Sample(cmd.Context(), &api.SampleRequest{Count: count, Scale: scale})
	if err != nil {
		return err
	}

	if err := os.WriteFile(output, data, 0o644); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "wrote %s\n", output)
	return nil
}
