package main

import (
	"github.com/spf13/cobra"

	"habitualize/internal/tui"
)

func newTUICmd(c *session) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Check off today's habits interactively",
		Long: `Open a full-screen checklist of today's habits.

Keys: up/down or k/j to move, space or enter to toggle, a to add a habit,
r to refresh, q to quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.getApp()
			if err != nil {
				return err
			}
			return tui.Run(cmd.Context(), tui.NewTracker(a.Store(), a.Stats()))
		},
	}
}
