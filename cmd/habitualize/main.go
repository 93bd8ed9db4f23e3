package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"habitualize/backend"
	"habitualize/internal/app"
	"habitualize/internal/config"
	"habitualize/internal/utils"
)

// session carries the global flags and the lazily built app.
type session struct {
	configPath string
	verbose    bool
	output     string

	cfg *config.Config
	app *app.App
}

func (c *session) loadConfig(cmd *cobra.Command, args []string) error {
	if err := utils.ValidateOutputFormat(c.output); err != nil {
		return err
	}
	if c.configPath != "" {
		config.SetCustomConfigPath(c.configPath)
	}
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}
	if err := utils.InitLogger(cfg.Log); err != nil {
		return err
	}
	utils.SetVerboseMode(c.verbose)
	c.cfg = cfg
	return nil
}

// getApp builds the app on first use so that commands such as credentials
// never contact the remote.
func (c *session) getApp() (*app.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	// Shell completion skips the persistent pre-run hook.
	if c.cfg == nil {
		if err := c.loadConfig(nil, nil); err != nil {
			return nil, err
		}
	}
	a, err := app.NewApp(c.cfg)
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

func (c *session) shutdown() {
	if c.app != nil {
		c.app.Shutdown()
	}
}

// render writes data in the --output format, using text for "text".
func (c *session) render(cmd *cobra.Command, data any, text func(io.Writer) error) error {
	return utils.Render(cmd.OutOrStdout(), c.output, data, text)
}

// done reports a completed mutation.
func (c *session) done(cmd *cobra.Command, data any, format string, args ...any) error {
	return c.render(cmd, data, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "✓ "+format+"\n", args...)
		return err
	})
}

// friendly turns store errors about name into errors with suggestions.
func friendly(kind, name string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, backend.ErrNotFound) && kind == "goal":
		return utils.ErrGoalNotFound(name)
	case errors.Is(err, backend.ErrNotFound):
		return utils.ErrHabitNotFound(name)
	case errors.Is(err, backend.ErrDuplicateName):
		return utils.ErrDuplicateName(kind, name)
	}
	return err
}

func newRootCmd(c *session) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "habitualize",
		Short: "Daily habit and goal tracker",
		Long: `Track daily habits and long-term goals in plain CSV tables.

The tables live in data_dir and can be mirrored to a GitHub repository or a
local git working copy. Every change is written locally first and then
pushed; every read pulls the latest copy when the remote is reachable.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.loadConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToday(cmd, c)
		},
	}

	rootCmd.PersistentFlags().StringVar(&c.configPath, "config", "", "Config file or directory (default $XDG_CONFIG_HOME/habitualize/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&c.output, "output", "o", utils.FormatText, "Output format: text, json or yaml")

	rootCmd.AddCommand(newHabitCmd(c))
	rootCmd.AddCommand(newGoalCmd(c))
	rootCmd.AddCommand(newTodayCmd(c))
	rootCmd.AddCommand(newProgressCmd(c))
	rootCmd.AddCommand(newSyncCmd(c))
	rootCmd.AddCommand(newServeCmd(c))
	rootCmd.AddCommand(newTUICmd(c))
	rootCmd.AddCommand(newCredentialsCmd(c))

	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &session{}
	err := newRootCmd(c).ExecuteContext(ctx)
	c.shutdown()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
