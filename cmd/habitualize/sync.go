package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"habitualize/backend/mirror"
	"habitualize/internal/cli"
	"habitualize/internal/utils"
)

func newSyncCmd(c *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize the tables with the remote",
		Long: `Every command already pulls before reading and pushes after writing, but
ignores remote failures. These commands move all four tables at once and
report each failure.`,
	}

	cmd.AddCommand(newSyncTransferCmd(c, mirror.DirectionPull))
	cmd.AddCommand(newSyncTransferCmd(c, mirror.DirectionPush))
	cmd.AddCommand(newSyncStatusCmd(c))

	return cmd
}

func newSyncTransferCmd(c *session, direction mirror.Direction) *cobra.Command {
	short := "Replace the local tables with the remote copies"
	if direction == mirror.DirectionPush {
		short = "Upload the local tables to the remote"
	}

	return &cobra.Command{
		Use:   string(direction),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.getApp()
			if err != nil {
				return err
			}

			transfer := a.Pull
			if direction == mirror.DirectionPush {
				transfer = a.Push
			}
			results, err := transfer(cmd.Context())
			if err != nil {
				return err
			}

			report := make(map[string]string, len(results))
			failed := 0
			for tableID, err := range results {
				report[tableID] = "ok"
				if err != nil {
					report[tableID] = err.Error()
					failed++
				}
			}
			if c.output == utils.FormatText {
				return cli.ShowSyncResults(cmd.OutOrStdout(), direction, results)
			}
			if err := c.render(cmd, report, nil); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d tables failed to %s", failed, len(results), direction)
			}
			return nil
		},
	}
}

func newSyncStatusCmd(c *session) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the last sync of every table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.getApp()
			if err != nil {
				return err
			}
			status, err := a.SyncStatus()
			if err != nil {
				return err
			}
			return c.render(cmd, status, func(w io.Writer) error {
				return cli.ShowSyncStatus(w, a.RemoteName(), status)
			})
		},
	}
}
