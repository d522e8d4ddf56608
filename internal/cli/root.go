package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/LorenzoLeonardo/oauth2-http-client/internal/auth"
	"github.com/LorenzoLeonardo/oauth2-http-client/internal/config"
	"github.com/LorenzoLeonardo/oauth2-http-client/internal/logging"
	"github.com/LorenzoLeonardo/oauth2-http-client/pkg/transport"
	"github.com/LorenzoLeonardo/oauth2-http-client/pkg/transport/h2c"
	"github.com/LorenzoLeonardo/oauth2-http-client/pkg/transport/nethttp"
)

var (
	// Version information
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"

	// Global flags
	cfgFile   string
	verbose   bool
	noColor   bool
	logLevel  string
	logFormat string

	// Viper instance for the running command
	v *viper.Viper

	// Colors
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	warnColor    = color.New(color.FgYellow)

	// For testing - allows redirecting output
	colorOutput io.Writer = os.Stdout
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   config.AppName,
		Short: "OAuth2 device flow client with pluggable HTTP transports",
		Long: `oauth2-http-client runs the OAuth 2.0 device authorization grant
(RFC 8628) and the client credentials grant against any authorization server.
Every HTTP exchange goes through a swappable transport: plain net/http or
HTTP/2 over cleartext.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if noColor {
				color.NoColor = true
			}
			return initConfig()
		},
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./"+config.AppName+".yaml)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output, logs every HTTP exchange")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (console, json)")

	cmd.AddCommand(
		newInitCmd(),
		newDeviceCmd(),
		newLoginCmd(),
		newTokenCmd(),
		newStatusCmd(),
		newLogoutCmd(),
	)
	return cmd
}

// Execute runs the root command
func Execute() error {
	return newRootCmd().Execute()
}

// SetVersion sets the version information
func SetVersion(ver, c, b string) {
	version = ver
	commit = c
	buildDate = b
}

// initConfig reads in config file and ENV variables if set
func initConfig() error {
	v = viper.New()
	config.Configure(v, cfgFile)
	if err := config.Read(v); err != nil {
		return err
	}
	if used := v.ConfigFileUsed(); used != "" {
		Debug("Using config file: %s", used)
	}
	return nil
}

// runtime bundles what a command needs to talk to the authorization server
type runtime struct {
	cfg    *config.Config
	logger *zap.Logger
	iface  transport.Interface
}

func loadRuntime() (*runtime, error) {
	if v == nil {
		if err := initConfig(); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}

	// Flags win over the file
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	logger, err := logging.Setup(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	return &runtime{
		cfg:    cfg,
		logger: logger,
		iface:  newTransport(cfg, logger),
	}, nil
}

// newTransport picks the HTTP backend named in cfg and wraps it in exchange
// logging.
func newTransport(cfg *config.Config, logger *zap.Logger) transport.Interface {
	var base transport.Interface
	switch cfg.Transport {
	case config.TransportH2C:
		client := h2c.NewClient()
		client.Timeout = cfg.Timeout
		base = h2c.New(client)
	default:
		base = nethttp.New(nethttp.NewClient(cfg.Timeout))
	}
	return transport.Chain(base, logging.Transport(logger))
}

func (r *runtime) provider() *auth.OAuthClient {
	return auth.NewOAuthClient(r.cfg, r.iface)
}

func (r *runtime) manager(login *auth.LoginConfig) *auth.Manager {
	if login == nil {
		login = &auth.LoginConfig{}
	}
	login.ClientID = r.cfg.ClientID
	login.TokenURL = r.cfg.TokenURL
	return auth.NewManager(auth.NewKeyringStore(r.cfg.KeyringService), r.provider(), login, r.logger)
}

func (r *runtime) close() {
	_ = r.logger.Sync()
}

// Helper functions for consistent output

// Success prints a success message
func Success(format string, args ...interface{}) {
	_, _ = fmt.Fprintln(colorOutput, successColor.Sprintf("✓ "+format, args...))
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	_, _ = fmt.Fprintln(os.Stderr, errorColor.Sprintf("✗ "+format, args...))
}

// Info prints an info message
func Info(format string, args ...interface{}) {
	_, _ = fmt.Fprintln(colorOutput, infoColor.Sprintf("ℹ "+format, args...))
}

// Warn prints a warning message
func Warn(format string, args ...interface{}) {
	_, _ = fmt.Fprintln(os.Stderr, warnColor.Sprintf("⚠ "+format, args...))
}

// Debug prints a debug message if verbose mode is enabled
func Debug(format string, args ...interface{}) {
	if verbose {
		_, _ = fmt.Fprintln(os.Stderr, color.New(color.FgMagenta).Sprintf("» "+format, args...))
	}
}
