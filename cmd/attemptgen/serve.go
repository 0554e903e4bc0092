package main

import (
	"github.com/spf13/cobra"

	"github.com/TFMV/attemptgen/api"
)

func newServeCommand(a *app) *cobra.Command {
	var prefork bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve generated attempts, the schema and metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			_, collector, err := a.recorder()
			if err != nil {
				return err
			}
			s := api.NewServer(api.ServerOptions{
				Port:      a.cfg.API.Port,
				Prefork:   prefork,
				Factory:   a.factory(),
				Collector: collector,
				Logger:    a.log,
			})
			return s.Start(ctx)
		},
	}
	cmd.Flags().BoolVar(&prefork, "prefork", false, "Spawn one process per CPU")
	return cmd
}
