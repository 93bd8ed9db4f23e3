package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"habitualize/internal/server"
	"habitualize/internal/utils"
)

func newServeCmd(c *session) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Long: `Serve the habit and goal API over HTTP until interrupted.

When server.pull_interval is set and a remote is configured, the tables are
also pulled from the remote in the background.`,
		Example: `  habitualize serve
  habitualize serve --addr 0.0.0.0:8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.getApp()
			if err != nil {
				return err
			}

			serverCfg := a.Config().Server
			if cmd.Flags().Changed("addr") {
				serverCfg.Addr = addr
			}

			ctx := cmd.Context()
			a.StartBackgroundPull(ctx)

			srv := server.New(serverCfg, a.Store(), a.Stats(), a.Metrics())
			fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", serverCfg.Addr)
			if remote := a.RemoteName(); remote != "" {
				utils.Infof("Mirroring tables to %s", remote)
			}
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default server.addr)")

	return cmd
}
