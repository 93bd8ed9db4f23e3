package main

import (
	"fmt"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"habitualize/backend"
	"habitualize/internal/credentials"
	"habitualize/internal/utils"
)

func newCredentialsCmd(c *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage remote tokens",
		Long: `Securely manage remote tokens using the system keyring.

Tokens are looked up in three places (in priority order):
  1. System keyring (most secure) - recommended
  2. Environment variables HABITUALIZE_<REMOTE>_TOKEN (good for CI/CD)
  3. remote.token in the config file (least secure)

Examples:
  # Store a GitHub token in the keyring (interactive prompt)
  habitualize credentials set github octocat --prompt

  # Check where the token comes from
  habitualize credentials get github

  # Remove the token from the keyring
  habitualize credentials delete github octocat`,
	}

	cmd.AddCommand(newCredentialsSetCmd(c))
	cmd.AddCommand(newCredentialsGetCmd(c))
	cmd.AddCommand(newCredentialsDeleteCmd(c))

	return cmd
}

// keyringUser picks the username from args, then remote.username, then
// remote.owner when the configured remote is the one named.
func keyringUser(c *session, remote string, args []string) string {
	if len(args) >= 2 {
		return args[1]
	}
	rc := c.cfg.Remote
	if rc.Type != remote {
		return ""
	}
	if rc.Username != "" {
		return rc.Username
	}
	return rc.Owner
}

func checkRemoteName(remote string) error {
	for _, name := range backend.RegisteredRemotes() {
		if name == remote {
			return nil
		}
	}
	return fmt.Errorf("unknown remote %q (available: %v)", remote, backend.RegisteredRemotes())
}

func newCredentialsSetCmd(c *session) *cobra.Command {
	var promptToken bool

	cmd := &cobra.Command{
		Use:   "set <remote> [username] [token]",
		Short: "Store a token in the system keyring",
		Long: `Store a remote token securely in the system keyring.

If username is not provided, remote.username (or remote.owner) is used.
If --prompt is specified, the token is read interactively (recommended).`,
		Example: `  habitualize credentials set github octocat --prompt
  habitualize credentials set github --prompt`,
		Args: cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote := args[0]
			if err := checkRemoteName(remote); err != nil {
				return err
			}

			username := keyringUser(c, remote, args)
			if username == "" {
				return fmt.Errorf("username is required (not found in config for remote %q)", remote)
			}

			var token string
			switch {
			case promptToken:
				fmt.Fprintf(cmd.OutOrStdout(), "Enter token for %s@%s: ", username, remote)
				tokenBytes, err := term.ReadPassword(int(syscall.Stdin))
				fmt.Fprintln(cmd.OutOrStdout())
				if err != nil {
					return fmt.Errorf("failed to read token: %w", err)
				}
				token = string(tokenBytes)
				if token == "" {
					return fmt.Errorf("token cannot be empty")
				}
			case len(args) >= 3:
				token = args[2]
			default:
				return fmt.Errorf("token is required (use --prompt for interactive input)")
			}

			if err := credentials.Set(remote, username, token); err != nil {
				if !credentials.IsAvailable() {
					return utils.WrapWithSuggestion(err,
						fmt.Sprintf("The system keyring is not available. Use the environment instead:\n  export %s=<token>",
							credentials.TokenEnvVar(remote)))
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Token stored for %s@%s\n", username, remote)
			if c.cfg.Remote.Token != "" {
				fmt.Fprintln(cmd.OutOrStdout(), "\nYou can now remove remote.token from your config file.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&promptToken, "prompt", false, "Prompt for the token interactively (recommended)")

	return cmd
}

func newCredentialsGetCmd(c *session) *cobra.Command {
	return &cobra.Command{
		Use:   "get <remote> [username]",
		Short: "Show where a remote's token comes from",
		Long: `Check which source provides the token for a remote.

The token itself is never printed.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote := args[0]
			if err := checkRemoteName(remote); err != nil {
				return err
			}
			username := keyringUser(c, remote, args)

			var configToken string
			if c.cfg.Remote.Type == remote {
				configToken = c.cfg.Remote.Token
			}
			creds, err := credentials.NewResolver().Resolve(remote, username, configToken)
			if err != nil {
				utils.Debugf("%v", err)
				return utils.ErrCredentialsNotFound(remote, username)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Token found for remote %q\n", remote)
			if creds.Username != "" {
				fmt.Fprintf(out, "  Username: %s\n", creds.Username)
			}
			fmt.Fprintf(out, "  Source: %s\n", creds.Source)
			return nil
		},
	}
}

func newCredentialsDeleteCmd(c *session) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <remote> [username]",
		Short: "Remove a token from the system keyring",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote := args[0]
			username := keyringUser(c, remote, args)
			if username == "" {
				return fmt.Errorf("username is required (not found in config for remote %q)", remote)
			}

			if !force && !utils.PromptYesNoFrom(cmd.InOrStdin(), cmd.OutOrStdout(),
				fmt.Sprintf("Delete token for %s@%s?", username, remote)) {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
				return nil
			}

			if err := credentials.Delete(remote, username); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Token deleted for %s@%s\n", username, remote)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")

	return cmd
}
