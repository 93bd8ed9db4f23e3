package main

import (
	"io"

	"github.com/spf13/cobra"

	"habitualize/internal/cli"
	"habitualize/internal/utils"
)

func runToday(cmd *cobra.Command, c *session) error {
	a, err := c.getApp()
	if err != nil {
		return err
	}
	overview, err := a.Stats().DailyOverview(cmd.Context())
	if err != nil {
		return err
	}
	return c.render(cmd, overview, func(w io.Writer) error {
		return cli.ShowOverview(w, overview)
	})
}

func newTodayCmd(c *session) *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show today's habits and score",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToday(cmd, c)
		},
	}
}

func newProgressCmd(c *session) *cobra.Command {
	return &cobra.Command{
		Use:   "progress [date]",
		Short: "Show one day's score and the trailing week",
		Long: `Show the habits completed and pending on a day, with the week's total
over the seven days ending on it. The date defaults to today and accepts
YYYY-MM-DD, today or yesterday.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.getApp()
			if err != nil {
				return err
			}
			var date string
			if len(args) == 1 {
				date = args[0]
			}
			day, err := utils.ParseDateFlag(date, a.Store().Now())
			if err != nil {
				return err
			}

			progress, err := a.Stats().ProgressForDate(cmd.Context(), day)
			if err != nil {
				return err
			}
			return c.render(cmd, progress, func(w io.Writer) error {
				return cli.ShowProgress(w, progress)
			})
		},
	}
}
