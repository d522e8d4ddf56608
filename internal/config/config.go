// Package config loads the oauth2-http-client configuration
package config

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// AppName names the config directory, file and keyring service
	AppName = "oauth2-http-client"
	// EnvPrefix is prepended to environment overrides, e.g. OAUTH2HTTP_CLIENT_ID
	EnvPrefix = "OAUTH2HTTP"

	AuthStyleAuto        = "auto"
	AuthStyleRequestBody = "request-body"
	AuthStyleBasic       = "basic"

	TransportHTTP = "http"
	TransportH2C  = "h2c"
)

// Config is the CLI configuration
type Config struct {
	// OAuth client registration
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`

	// Authorization server endpoints
	DeviceAuthorizationURL string `mapstructure:"device_authorization_url"`
	TokenURL               string `mapstructure:"token_url"`

	Scopes []string `mapstructure:"scopes"`

	// AuthStyle selects how client credentials reach the token endpoint
	AuthStyle string `mapstructure:"auth_style"`

	// Transport selects the HTTP backend (http or h2c)
	Transport string `mapstructure:"transport"`

	// Timeout bounds a single HTTP exchange; zero disables it
	Timeout time.Duration `mapstructure:"timeout"`

	// KeyringService names the OS keyring entry holding credentials
	KeyringService string `mapstructure:"keyring_service"`

	Log LogConfig `mapstructure:"log"`
}

// LogConfig configures the zap logger
type LogConfig struct {
	Level       string         `mapstructure:"level" yaml:"level,omitempty"`
	Format      string         `mapstructure:"format" yaml:"format,omitempty"`
	Outputs     []string       `mapstructure:"outputs" yaml:"outputs,omitempty"`
	Development bool           `mapstructure:"development" yaml:"development,omitempty"`
	Rotation    RotationConfig `mapstructure:"rotation" yaml:"rotation,omitempty"`
}

// RotationConfig configures file output rotation
type RotationConfig struct {
	Enable     bool   `mapstructure:"enable" yaml:"enable,omitempty"`
	Filename   string `mapstructure:"filename" yaml:"filename,omitempty"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb,omitempty"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups,omitempty"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days,omitempty"`
	Compress   bool   `mapstructure:"compress" yaml:"compress,omitempty"`
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("auth_style", AuthStyleAuto)
	v.SetDefault("transport", TransportHTTP)
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("keyring_service", AppName)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.outputs", []string{"stderr"})
}

// Dir returns the directory searched for the config file
func Dir() (string, error) {
	// Check XDG_CONFIG_HOME first for testing and Linux compatibility
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, AppName), nil
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get config directory")
	}
	return filepath.Join(configDir, AppName), nil
}

// DefaultPath returns the path init writes to
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName+".yaml"), nil
}

// Configure points v at cfgFile, or at the default search path when cfgFile
// is empty, and enables environment overrides.
func Configure(v *viper.Viper, cfgFile string) {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		if dir, err := Dir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.SetConfigType("yaml")
		v.SetConfigName(AppName)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Unmarshal only sees keys viper knows about, so bind each one explicitly
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

var keys = []string{
	"client_id",
	"client_secret",
	"device_authorization_url",
	"token_url",
	"scopes",
	"auth_style",
	"transport",
	"timeout",
	"keyring_service",
	"log.level",
	"log.format",
	"log.outputs",
	"log.development",
}

// Read reads the config file v was configured with. A missing file is not an
// error when no explicit file was requested.
func Read(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return errors.Wrap(err, "failed to read config file")
	}
	return nil
}

// Load decodes v into a validated Config
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}
	cfg.Scopes = splitScopes(cfg.Scopes)

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}
	return &cfg, nil
}

// splitScopes accepts both lists and space or comma separated strings, the
// form environment variables arrive in.
func splitScopes(in []string) []string {
	var out []string
	for _, s := range in {
		for _, f := range strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' }) {
			out = append(out, f)
		}
	}
	return out
}

// Validate checks field values. Endpoints may be empty here; commands that
// need one check with RequireDeviceFlow or RequireTokenURL.
func (c *Config) Validate() error {
	if c.DeviceAuthorizationURL != "" {
		if err := validateURL(c.DeviceAuthorizationURL); err != nil {
			return errors.Wrap(err, "device_authorization_url")
		}
	}
	if c.TokenURL != "" {
		if err := validateURL(c.TokenURL); err != nil {
			return errors.Wrap(err, "token_url")
		}
	}

	switch c.AuthStyle {
	case "", AuthStyleAuto, AuthStyleRequestBody, AuthStyleBasic:
	default:
		return errors.Errorf("unknown auth_style %q (want %s, %s or %s)", c.AuthStyle, AuthStyleAuto, AuthStyleRequestBody, AuthStyleBasic)
	}

	switch c.Transport {
	case "", TransportHTTP, TransportH2C:
	default:
		return errors.Errorf("unknown transport %q (want %s or %s)", c.Transport, TransportHTTP, TransportH2C)
	}

	if c.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	return nil
}

// RequireDeviceFlow checks the fields the device authorization grant needs
func (c *Config) RequireDeviceFlow() error {
	if c.ClientID == "" {
		return errors.New("client_id is required")
	}
	if c.DeviceAuthorizationURL == "" {
		return errors.New("device_authorization_url is required")
	}
	return c.RequireTokenURL()
}

// RequireTokenURL checks the token endpoint is set
func (c *Config) RequireTokenURL() error {
	if c.TokenURL == "" {
		return errors.New("token_url is required")
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if !u.IsAbs() || u.Host == "" {
		return errors.Errorf("%q is not an absolute URL", raw)
	}
	return nil
}

// fileConfig is the on-disk layout written by Save
type fileConfig struct {
	ClientID               string    `yaml:"client_id"`
	ClientSecret           string    `yaml:"client_secret,omitempty"`
	DeviceAuthorizationURL string    `yaml:"device_authorization_url,omitempty"`
	TokenURL               string    `yaml:"token_url,omitempty"`
	Scopes                 []string  `yaml:"scopes,omitempty"`
	AuthStyle              string    `yaml:"auth_style,omitempty"`
	Transport              string    `yaml:"transport,omitempty"`
	Timeout                string    `yaml:"timeout,omitempty"`
	KeyringService         string    `yaml:"keyring_service,omitempty"`
	Log                    LogConfig `yaml:"log,omitempty"`
}

// Save writes c as YAML to path, creating the directory if needed
func Save(path string, c *Config) error {
	fc := fileConfig{
		ClientID:               c.ClientID,
		ClientSecret:           c.ClientSecret,
		DeviceAuthorizationURL: c.DeviceAuthorizationURL,
		TokenURL:               c.TokenURL,
		Scopes:                 c.Scopes,
		AuthStyle:              c.AuthStyle,
		Transport:              c.Transport,
		KeyringService:         c.KeyringService,
		Log:                    c.Log,
	}
	if c.Timeout > 0 {
		fc.Timeout = c.Timeout.String()
	}

	data, err := yaml.Marshal(&fc)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	// Write atomically by writing to temp file then renaming
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return errors.Wrapf(err, "failed to write config %s", path)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return errors.Wrapf(err, "failed to save config %s", path)
	}
	return nil
}
