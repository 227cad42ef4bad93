package cmd

import (
	"net"

	"github.com/spf13/cobra"

	"github.com/flowgen/flowgen/envconfig"
	"github.com/flowgen/flowgen/server"
)

func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"start"},
		Short:   "Train the flow, then serve samples over HTTP",
		Args:    cobra.ExactArgs(0),
		RunE:    serveHandler,
	}

	addTrainFlags(cmd)
	return cmd
}

func serveHandler(cmd *cobra.Command, args []string) error {
	model, history, err := runTraining(cmd)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", envconfig.Host)
	if err != nil {
		return err
	}

	epochs, _ := cmd.Flags().GetInt("epochs")
	return server.New(model, history, epochs).Serve(ln)
}
