package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"habitualize/backend"
	"habitualize/internal/cli"
	"habitualize/internal/utils"
)

func goalNames(c *session) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return cli.NameCompletion(func(cmd *cobra.Command) ([]string, error) {
		a, err := c.getApp()
		if err != nil {
			return nil, err
		}
		goals, err := a.Store().ListGoals(cmd.Context())
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(goals))
		for _, g := range goals {
			names = append(names, g.Name)
		}
		return names, nil
	})
}

func completeStatuses(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return utils.GoalStatuses, cobra.ShellCompDirectiveNoFileComp
}

func newGoalCmd(c *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "goal",
		Aliases: []string{"goals", "g"},
		Short:   "Manage long-term goals",
	}

	cmd.AddCommand(newGoalListCmd(c))
	cmd.AddCommand(newGoalAddCmd(c))
	cmd.AddCommand(newGoalUpdateCmd(c))
	cmd.AddCommand(newGoalDeleteCmd(c))

	return cmd
}

func newGoalListCmd(c *session) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List goals with points per status",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.getApp()
			if err != nil {
				return err
			}
			report, err := a.Stats().Goals(cmd.Context())
			if err != nil {
				return err
			}
			return c.render(cmd, report, func(w io.Writer) error {
				return cli.ShowGoals(w, report)
			})
		},
	}
}

// goalFlags are shared by add and update.
type goalFlags struct {
	name     string
	status   string
	deadline string
	points   int
}

func (f *goalFlags) validate() error {
	if err := utils.ValidateGoalStatus(f.status); err != nil {
		return err
	}
	if err := utils.ValidateDeadline(f.deadline); err != nil {
		return err
	}
	return utils.ValidatePoints(f.points)
}

func newGoalAddCmd(c *session) *cobra.Command {
	f := &goalFlags{}

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a goal",
		Example: `  habitualize goal add "Run a marathon" --deadline 2025-10-12 --points 100
  habitualize goal add "Learn Go" --status "In Progress"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := f.validate(); err != nil {
				return err
			}
			a, err := c.getApp()
			if err != nil {
				return err
			}

			goal, err := a.Store().AddGoal(cmd.Context(), backend.Goal{
				Name:     args[0],
				Status:   backend.GoalStatus(f.status),
				Deadline: f.deadline,
				Points:   f.points,
			})
			if err != nil {
				return friendly("goal", args[0], err)
			}
			return c.done(cmd, goal, "Added goal '%s' (%s)", goal.Name, goal.Status)
		},
	}

	cmd.Flags().StringVarP(&f.status, "status", "s", string(backend.GoalNotStarted), "Goal status")
	cmd.Flags().StringVarP(&f.deadline, "deadline", "d", "", "Deadline as YYYY-MM-DD")
	cmd.Flags().IntVarP(&f.points, "points", "p", 0, "Points awarded on completion")
	_ = cmd.RegisterFlagCompletionFunc("status", completeStatuses)

	return cmd
}

func newGoalUpdateCmd(c *session) *cobra.Command {
	f := &goalFlags{}

	cmd := &cobra.Command{
		Use:   "update <name>",
		Short: "Change a goal's name, status, deadline or points",
		Example: `  habitualize goal update "Learn Go" --status Completed
  habitualize goal update "Run a marathon" --deadline ""`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: goalNames(c),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			a, err := c.getApp()
			if err != nil {
				return err
			}

			goals, err := a.Store().ListGoals(cmd.Context())
			if err != nil {
				return err
			}
			var current *backend.Goal
			for i := range goals {
				if goals[i].Name == name {
					current = &goals[i]
					break
				}
			}
			if current == nil {
				return utils.ErrGoalNotFound(name)
			}

			// Unchanged flags keep the current values.
			flags := cmd.Flags()
			merged := goalFlags{
				name:     current.Name,
				status:   string(current.Status),
				deadline: current.Deadline,
				points:   current.Points,
			}
			if flags.Changed("name") {
				merged.name = f.name
			}
			if flags.Changed("status") {
				merged.status = f.status
				if err := utils.ValidateGoalStatus(merged.status); err != nil {
					return err
				}
			}
			if flags.Changed("deadline") {
				merged.deadline = f.deadline
				if err := utils.ValidateDeadline(merged.deadline); err != nil {
					return err
				}
			}
			if flags.Changed("points") {
				merged.points = f.points
				if err := utils.ValidatePoints(merged.points); err != nil {
					return err
				}
			}

			goal := backend.Goal{
				Name:     merged.name,
				Status:   backend.GoalStatus(merged.status),
				Deadline: merged.deadline,
				Points:   merged.points,
			}
			if err := a.Store().UpdateGoal(cmd.Context(), name, goal); err != nil {
				return friendly("goal", goal.Name, err)
			}
			return c.done(cmd, goal, "Updated goal '%s' (%s)", goal.Name, goal.Status)
		},
	}

	cmd.Flags().StringVarP(&f.name, "name", "n", "", "New name")
	cmd.Flags().StringVarP(&f.status, "status", "s", "", "New status")
	cmd.Flags().StringVarP(&f.deadline, "deadline", "d", "", "New deadline, empty to clear")
	cmd.Flags().IntVarP(&f.points, "points", "p", 0, "New points")
	_ = cmd.RegisterFlagCompletionFunc("status", completeStatuses)

	return cmd
}

func newGoalDeleteCmd(c *session) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:               "delete <name>",
		Aliases:           []string{"rm"},
		Short:             "Delete a goal",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: goalNames(c),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if !force && !utils.PromptYesNoFrom(cmd.InOrStdin(), cmd.OutOrStdout(),
				fmt.Sprintf("Delete goal '%s'?", name)) {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
				return nil
			}

			a, err := c.getApp()
			if err != nil {
				return err
			}
			if err := a.Store().DeleteGoal(cmd.Context(), name); err != nil {
				return friendly("goal", name, err)
			}
			return c.done(cmd, map[string]any{"name": name, "deleted": true}, "Deleted goal '%s'", name)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")

	return cmd
}
