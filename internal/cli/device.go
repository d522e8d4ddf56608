package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/LorenzoLeonardo/oauth2-http-client/internal/auth"
)

func newDeviceCmd() *cobra.Command {
	var (
		noBrowser bool
		wait      bool
		force     bool
		output    string
	)

	cmd := &cobra.Command{
		Use:   "device",
		Short: "Request a device code from the authorization server",
		Long: `Send a device authorization request and print the device code, user code,
verification URI, expiry and polling interval.

With --wait the command keeps polling the token endpoint until the user
approves the request, then stores the token in the OS keyring.`,
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

			if err := rt.cfg.RequireDeviceFlow(); err != nil {
				return err
			}

			if wait {
				return runDeviceLogin(cmd.Context(), cmd.OutOrStdout(), rt, &auth.LoginConfig{
					NoBrowser: noBrowser,
					Force:     force,
				}, format)
			}

			da, err := rt.provider().StartDeviceFlow(cmd.Context())
			if err != nil {
				return err
			}
			return writeDeviceAuth(cmd.OutOrStdout(), format, da)
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "Poll for the token after printing the device code")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Don't open browser automatically (with --wait)")
	cmd.Flags().BoolVar(&force, "force", false, "Start a new flow even if already logged in (with --wait)")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table, json, yaml)")

	return cmd
}

func writeDeviceAuth(w io.Writer, format OutputFormat, da *oauth2.DeviceAuthResponse) error {
	return NewKeyValueBuilder("Device Authorization").
		Add("device_code", da.DeviceCode).
		Add("user_code", da.UserCode).
		Add("verification_uri", da.VerificationURI).
		AddIf(da.VerificationURIComplete != "", "verification_uri_complete", da.VerificationURIComplete).
		Add("expires_in", auth.ExpiresIn(da.Expiry)).
		Add("interval", da.Interval).
		Write(NewDataWriter(w, format))
}

// runDeviceLogin runs the full device flow and stores the credentials
func runDeviceLogin(ctx context.Context, w io.Writer, rt *runtime, login *auth.LoginConfig, format OutputFormat) error {
	manager := rt.manager(login)

	deviceAuth, err := manager.StartDeviceFlow(ctx)
	if errors.Is(err, auth.ErrAlreadyLoggedIn) {
		Success("Already logged in")
		Info("Use --force to start a new device flow")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to start authentication: %w", err)
	}

	if format == OutputFormatTable {
		_, _ = fmt.Fprintln(w, "🌐 To complete login, visit:")
		_, _ = fmt.Fprintln(w, color.CyanString("   %s", auth.VerificationURL(deviceAuth)))
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, "📋 Or manually enter code:")
		_, _ = fmt.Fprintln(w, color.YellowString("   %s", deviceAuth.UserCode))
		_, _ = fmt.Fprintln(w)
	} else if err := writeDeviceAuth(w, format, deviceAuth); err != nil {
		return err
	}

	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	sp.Suffix = " Waiting for authorization..."
	sp.Start()

	creds, err := manager.CompleteDeviceFlow(ctx, deviceAuth)
	sp.Stop()
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	Success("Successfully logged in!")
	printCredentialSummary(creds)
	return nil
}

func printCredentialSummary(creds *auth.Credentials) {
	if creds.User != "" {
		Info("Logged in as: %s", creds.User)
	}
	if creds.ExpiresAt != nil {
		duration := time.Until(*creds.ExpiresAt)
		Info("Access token valid for %dh %dm", int(duration.Hours()), int(duration.Minutes())%60)
	}
}
