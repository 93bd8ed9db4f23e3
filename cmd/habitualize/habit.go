package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"habitualize/backend"
	"habitualize/internal/cli"
	"habitualize/internal/utils"
)

func parsePoints(s string) (int, error) {
	points, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("points must be a whole number, got %q", s)
	}
	if err := utils.ValidatePoints(points); err != nil {
		return 0, err
	}
	return points, nil
}

// habitNames completes habit names from the store.
func habitNames(c *session) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return cli.NameCompletion(func(cmd *cobra.Command) ([]string, error) {
		a, err := c.getApp()
		if err != nil {
			return nil, err
		}
		habits, err := a.Store().ListHabits(cmd.Context(), nil)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(habits))
		for _, h := range habits {
			names = append(names, h.Name)
		}
		return names, nil
	})
}

func newHabitCmd(c *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "habit",
		Aliases: []string{"habits", "h"},
		Short:   "Manage daily habits",
	}

	cmd.AddCommand(newHabitListCmd(c))
	cmd.AddCommand(newHabitAddCmd(c))
	cmd.AddCommand(newHabitUpdateCmd(c))
	cmd.AddCommand(newHabitArchiveCmd(c, true))
	cmd.AddCommand(newHabitArchiveCmd(c, false))
	cmd.AddCommand(newHabitDeleteCmd(c))
	cmd.AddCommand(newHabitToggleCmd(c, true))
	cmd.AddCommand(newHabitToggleCmd(c, false))
	cmd.AddCommand(newHabitStreakCmd(c))

	return cmd
}

func newHabitListCmd(c *session) *cobra.Command {
	var all, archived bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List habits",
		Long: `List active habits. Use --archived for archived habits only, or --all
for both.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.getApp()
			if err != nil {
				return err
			}

			var filter *bool
			if !all {
				filter = &archived
			}
			habits, err := a.Store().ListHabits(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return c.render(cmd, habits, func(w io.Writer) error {
				return cli.ShowHabits(w, habits)
			})
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Show active and archived habits")
	cmd.Flags().BoolVar(&archived, "archived", false, "Show archived habits only")
	cmd.MarkFlagsMutuallyExclusive("all", "archived")

	return cmd
}

func newHabitAddCmd(c *session) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <points>",
		Short: "Add a habit worth points per day",
		Example: `  habitualize habit add "Read a chapter" 10
  habitualize habit add Stretch 3`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			points, err := parsePoints(args[1])
			if err != nil {
				return err
			}
			a, err := c.getApp()
			if err != nil {
				return err
			}

			habit, err := a.Store().AddHabit(cmd.Context(), args[0], points)
			if err != nil {
				return friendly("habit", args[0], err)
			}
			return c.done(cmd, habit, "Added habit '%s' (%d pts)", habit.Name, habit.Points)
		},
	}
}

func newHabitUpdateCmd(c *session) *cobra.Command {
	var newName string
	var points int

	cmd := &cobra.Command{
		Use:               "update <name>",
		Short:             "Rename a habit or change its points",
		Example:           `  habitualize habit update Read --name "Read books" --points 15`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: habitNames(c),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			a, err := c.getApp()
			if err != nil {
				return err
			}

			habits, err := a.Store().ListHabits(cmd.Context(), nil)
			if err != nil {
				return err
			}
			var current *backend.Habit
			for i := range habits {
				if habits[i].Name == name {
					current = &habits[i]
					break
				}
			}
			if current == nil {
				return utils.ErrHabitNotFound(name)
			}

			updated := *current
			if cmd.Flags().Changed("name") {
				updated.Name = newName
			}
			if cmd.Flags().Changed("points") {
				if err := utils.ValidatePoints(points); err != nil {
					return err
				}
				updated.Points = points
			}

			if err := a.Store().UpdateHabit(cmd.Context(), name, updated.Name, updated.Points); err != nil {
				return friendly("habit", updated.Name, err)
			}
			return c.done(cmd, updated, "Updated habit '%s' (%d pts)", updated.Name, updated.Points)
		},
	}

	cmd.Flags().StringVarP(&newName, "name", "n", "", "New name")
	cmd.Flags().IntVarP(&points, "points", "p", 0, "New points")

	return cmd
}

func newHabitArchiveCmd(c *session, archive bool) *cobra.Command {
	use, short, verb := "archive <name>", "Hide a habit from the daily list", "Archived"
	if !archive {
		use, short, verb = "unarchive <name>", "Bring an archived habit back", "Restored"
	}

	return &cobra.Command{
		Use:               use,
		Short:             short,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: habitNames(c),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.getApp()
			if err != nil {
				return err
			}
			if err := a.Store().SetHabitArchived(cmd.Context(), args[0], archive); err != nil {
				return friendly("habit", args[0], err)
			}
			return c.done(cmd, map[string]any{"name": args[0], "archived": archive}, "%s habit '%s'", verb, args[0])
		},
	}
}

func newHabitDeleteCmd(c *session) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:               "delete <name>",
		Aliases:           []string{"rm"},
		Short:             "Delete a habit and all of its completions",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: habitNames(c),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if !force && !utils.PromptYesNoFrom(cmd.InOrStdin(), cmd.OutOrStdout(),
				fmt.Sprintf("Delete habit '%s' and its history?", name)) {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
				return nil
			}

			a, err := c.getApp()
			if err != nil {
				return err
			}
			if err := a.Store().DeleteHabit(cmd.Context(), name); err != nil {
				return friendly("habit", name, err)
			}
			return c.done(cmd, map[string]any{"name": name, "deleted": true}, "Deleted habit '%s'", name)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")

	return cmd
}

func newHabitToggleCmd(c *session, completed bool) *cobra.Command {
	var date string
	use, short, verb := "done <name>", "Mark a habit done", "Marked '%s' done on %s"
	if !completed {
		use, short, verb = "undo <name>", "Clear a habit's completion", "Cleared '%s' on %s"
	}

	cmd := &cobra.Command{
		Use:               use,
		Short:             short,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: habitNames(c),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.getApp()
			if err != nil {
				return err
			}
			day, err := utils.ParseDateFlag(date, a.Store().Now())
			if err != nil {
				return err
			}
			if err := a.Stats().ToggleProgress(cmd.Context(), args[0], completed, day); err != nil {
				return friendly("habit", args[0], err)
			}
			return c.done(cmd, backend.Completion{Date: day, Name: args[0]}, verb, args[0], day)
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "Day as YYYY-MM-DD, today or yesterday (default today)")

	return cmd
}

func newHabitStreakCmd(c *session) *cobra.Command {
	return &cobra.Command{
		Use:               "streak <name>",
		Short:             "Show the last seven days of a habit",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: habitNames(c),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.getApp()
			if err != nil {
				return err
			}
			streak, err := a.Stats().WeeklyStreak(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.render(cmd, streak, func(w io.Writer) error {
				return cli.ShowStreak(w, args[0], streak)
			})
		},
	}
}
