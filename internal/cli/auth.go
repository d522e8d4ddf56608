package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/LorenzoLeonardo/oauth2-http-client/internal/auth"
)

func newLoginCmd() *cobra.Command {
	var (
		noBrowser    bool
		force        bool
		machine      bool
		machineToken string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login with the device flow or client credentials",
		Long: `Authenticate against the configured authorization server.

Users log in with the OAuth device flow. For machine authentication use
--machine, which performs the client credentials grant with client_id and
client_secret from the config, or pass a pre-issued token with --token.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime()
			if err != nil {
				return err
			}
			defer rt.close()

			manager := rt.manager(&auth.LoginConfig{NoBrowser: noBrowser, Force: force})

			if machine || machineToken != "" {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "→ Logging in as machine")

				var creds *auth.Credentials
				if machineToken != "" {
					creds, err = manager.LoginMachineWithToken(machineToken)
				} else {
					if err := rt.cfg.RequireTokenURL(); err != nil {
						return err
					}
					creds, err = manager.LoginMachine(cmd.Context())
				}
				if err != nil {
					return fmt.Errorf("machine login failed: %w", err)
				}

				Success("Successfully logged in as machine")
				printCredentialSummary(creds)
				return nil
			}

			if err := rt.cfg.RequireDeviceFlow(); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "→ Logging in")
			_, _ = fmt.Fprintln(cmd.OutOrStdout())
			return runDeviceLogin(cmd.Context(), cmd.OutOrStdout(), rt, &auth.LoginConfig{
				NoBrowser: noBrowser,
				Force:     force,
			}, OutputFormatTable)
		},
	}

	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Don't open browser automatically")
	cmd.Flags().BoolVar(&force, "force", false, "Force re-authentication even if already logged in")
	cmd.Flags().BoolVar(&machine, "machine", false, "Login as machine using the client credentials grant")
	cmd.Flags().StringVar(&machineToken, "token", "", "Pre-issued machine token (implies --machine)")

	return cmd
}

func newTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Print the current access token",
		Long: `Print the stored access token, refreshing it first when it has expired.
The token is written without a trailing newline so it can be captured by scripts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime()
			if err != nil {
				return err
			}
			defer rt.close()

			token, err := rt.manager(nil).GetToken(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), token)
			return nil
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Logout and remove stored credentials",
		Long:  `Remove stored authentication credentials from the OS keyring.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime()
			if err != nil {
				return err
			}
			defer rt.close()

			manager := rt.manager(nil)
			if !manager.Status().LoggedIn {
				Warn("Not logged in")
				return nil
			}
			if err := manager.Logout(); err != nil {
				return fmt.Errorf("logout failed: %w", err)
			}

			Success("Successfully logged out")
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	var (
		showToken bool
		output    string
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		Long:  `Display current authentication status and token information.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := ParseOutputFormat(output)
			if err != nil {
				return err
			}

			rt, err := loadRuntime()
			if err != nil {
				return err
			}
			defer rt.close()

			status := rt.manager(nil).Status()
			if status.Error != nil {
				return fmt.Errorf("failed to read credentials: %w", status.Error)
			}

			// If --show-token is used, just output the token and nothing else
			if showToken {
				if !status.LoggedIn {
					return auth.ErrNotLoggedIn
				}
				_, _ = fmt.Fprint(cmd.OutOrStdout(), status.Credentials.AccessToken)
				return nil
			}

			if format != OutputFormatTable {
				return writeStatus(cmd, format, status)
			}

			if !status.LoggedIn {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "🔐 Not logged in")
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Run %s to authenticate\n", color.CyanString(cmd.Root().Name()+" login"))
				return nil
			}

			creds := status.Credentials
			Success("Logged in (as %s)", actorOrUser(status))
			if creds.User != "" {
				Info("User: %s", creds.User)
			}
			if creds.ExpiresAt != nil {
				if creds.IsExpired() {
					Warn("Access token expired")
					if creds.RefreshToken != "" {
						Info("Refresh token available, run %s to renew", cmd.Root().Name()+" token")
					}
				} else {
					duration := creds.TimeUntilExpiry()
					Info("Access token valid for %dh %dm", int(duration.Hours()), int(duration.Minutes())%60)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showToken, "show-token", false, "Print only the access token")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table, json, yaml)")

	return cmd
}

func actorOrUser(status *auth.AuthStatus) string {
	if status.ActorType != "" {
		return status.ActorType
	}
	return auth.ActorUser
}

func writeStatus(cmd *cobra.Command, format OutputFormat, status *auth.AuthStatus) error {
	kv := NewKeyValueBuilder("Authentication Status").
		Add("logged_in", status.LoggedIn)

	if creds := status.Credentials; creds != nil {
		kv.Add("actor", actorOrUser(status)).
			AddIf(creds.User != "", "user", creds.User).
			AddIf(creds.ClientID != "", "client_id", creds.ClientID).
			AddIf(creds.TokenURL != "", "token_url", creds.TokenURL).
			Add("expired", creds.IsExpired()).
			Add("has_refresh_token", creds.RefreshToken != "")
		if creds.ExpiresAt != nil {
			kv.Add("expires_at", creds.ExpiresAt.Format(time.RFC3339))
		}
	}

	if err := kv.Write(NewDataWriter(cmd.OutOrStdout(), format)); err != nil {
		return fmt.Errorf("failed to write status: %w", err)
	}
	return nil
}
