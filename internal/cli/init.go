package cli

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/LorenzoLeonardo/oauth2-http-client/internal/config"
)

// askOne is swapped in tests
var askOne = survey.AskOne

// InitOptions holds options for the init command
type InitOptions struct {
	Path                   string
	ClientID               string
	ClientSecret           string
	DeviceAuthorizationURL string
	TokenURL               string
	Scopes                 string
	AuthStyle              string
	Transport              string
	Timeout                time.Duration
	NoInteractive          bool
	Force                  bool
}

// newInitCmd creates the init command
func newInitCmd() *cobra.Command {
	opts := &InitOptions{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a client configuration file",
		Long: `Write a configuration file with the client registration and the
authorization server endpoints. Values not given as flags are prompted for.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts)
		},
	}

	cmd.Flags().StringVar(&opts.Path, "path", "", "where to write the config (default is the user config dir)")
	cmd.Flags().StringVar(&opts.ClientID, "client-id", "", "OAuth client ID")
	cmd.Flags().StringVar(&opts.ClientSecret, "client-secret", "", "OAuth client secret")
	cmd.Flags().StringVar(&opts.DeviceAuthorizationURL, "device-url", "", "device authorization endpoint")
	cmd.Flags().StringVar(&opts.TokenURL, "token-url", "", "token endpoint")
	cmd.Flags().StringVar(&opts.Scopes, "scopes", "", "space separated scopes")
	cmd.Flags().StringVar(&opts.AuthStyle, "auth-style", "", "client authentication (auto, request-body, basic)")
	cmd.Flags().StringVar(&opts.Transport, "transport", "", "HTTP transport (http, h2c)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "timeout for a single HTTP exchange")
	cmd.Flags().BoolVar(&opts.NoInteractive, "no-interactive", false, "disable interactive prompts")
	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "overwrite an existing config file")

	return cmd
}

func runInit(opts *InitOptions) error {
	path := opts.Path
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return err
		}
	}

	if !opts.Force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	if !opts.NoInteractive {
		if err := promptForMissing(opts); err != nil {
			return err
		}
	}
	if opts.AuthStyle == "" {
		opts.AuthStyle = config.AuthStyleAuto
	}
	if opts.Transport == "" {
		opts.Transport = config.TransportHTTP
	}

	cfg := &config.Config{
		ClientID:               opts.ClientID,
		ClientSecret:           opts.ClientSecret,
		DeviceAuthorizationURL: opts.DeviceAuthorizationURL,
		TokenURL:               opts.TokenURL,
		Scopes:                 strings.Fields(opts.Scopes),
		AuthStyle:              opts.AuthStyle,
		Transport:              opts.Transport,
		Timeout:                opts.Timeout,
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.RequireDeviceFlow(); err != nil {
		return err
	}

	if err := config.Save(path, cfg); err != nil {
		return err
	}

	Success("Created %s", path)
	return nil
}

func promptForMissing(opts *InitOptions) error {
	inputs := []struct {
		value    *string
		prompt   survey.Prompt
		validate survey.Validator
	}{
		{&opts.ClientID, &survey.Input{Message: "Client ID:"}, survey.Required},
		{&opts.ClientSecret, &survey.Password{Message: "Client secret (leave empty for public clients):"}, nil},
		{&opts.DeviceAuthorizationURL, &survey.Input{Message: "Device authorization URL:"}, validateURL},
		{&opts.TokenURL, &survey.Input{Message: "Token URL:"}, validateURL},
		{&opts.Scopes, &survey.Input{Message: "Scopes (space separated):"}, nil},
		{&opts.AuthStyle, &survey.Select{
			Message: "Client authentication:",
			Options: []string{config.AuthStyleAuto, config.AuthStyleRequestBody, config.AuthStyleBasic},
			Default: config.AuthStyleAuto,
		}, nil},
		{&opts.Transport, &survey.Select{
			Message: "HTTP transport:",
			Options: []string{config.TransportHTTP, config.TransportH2C},
			Default: config.TransportHTTP,
		}, nil},
	}

	for _, in := range inputs {
		if *in.value != "" {
			continue
		}
		var askOpts []survey.AskOpt
		if in.validate != nil {
			askOpts = append(askOpts, survey.WithValidator(in.validate))
		}
		if err := askOne(in.prompt, in.value, askOpts...); err != nil {
			return err
		}
	}
	return nil
}

func validateURL(ans interface{}) error {
	s, _ := ans.(string)
	u, err := url.Parse(s)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%q is not an absolute URL", s)
	}
	return nil
}
