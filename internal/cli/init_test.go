package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LorenzoLeonardo/oauth2-http-client/internal/config"
)

func TestInitCommand(t *testing.T) {
	cmd := newInitCmd()
	assert.Equal(t, "init", cmd.Use)
	assert.Contains(t, cmd.Short, "Initialize")
	assert.Equal(t, "30s", cmd.Flags().Lookup("timeout").DefValue)
}

func loadSaved(t *testing.T, path string) *config.Config {
	t.Helper()
	v := viper.New()
	config.Configure(v, path)
	require.NoError(t, config.Read(v))
	cfg, err := config.Load(v)
	require.NoError(t, err)
	return cfg
}

func TestRunInit_NoInteractive(t *testing.T) {
	setupCLI(t)
	path := filepath.Join(t.TempDir(), "client.yaml")

	ExecuteCommandTest(t, TestCommandExecution{
		Args: []string{"init", "--no-interactive", "--path", path,
			"--client-id", "test-client-id",
			"--device-url", "https://auth.example.com/device",
			"--token-url", "https://auth.example.com/token",
			"--scopes", "openid offline_access",
			"--transport", "h2c",
			"--timeout", "10s",
		},
		ExpectOutput: []string{"Created " + path},
	})

	cfg := loadSaved(t, path)
	assert.Equal(t, "test-client-id", cfg.ClientID)
	assert.Equal(t, []string{"openid", "offline_access"}, cfg.Scopes)
	assert.Equal(t, config.AuthStyleAuto, cfg.AuthStyle)
	assert.Equal(t, config.TransportH2C, cfg.Transport)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
}

func TestRunInit_Prompts(t *testing.T) {
	setupCLI(t)
	path := filepath.Join(t.TempDir(), "client.yaml")

	prev := askOne
	askOne = MockSurveyAskOne(t,
		"prompted-client",
		"prompted-secret",
		"https://auth.example.com/device",
		"https://auth.example.com/token",
		"scope1 scope2",
		config.AuthStyleRequestBody,
		config.TransportHTTP,
	)
	t.Cleanup(func() { askOne = prev })

	require.NoError(t, runInit(&InitOptions{Path: path, Timeout: time.Minute}))

	cfg := loadSaved(t, path)
	assert.Equal(t, "prompted-client", cfg.ClientID)
	assert.Equal(t, "prompted-secret", cfg.ClientSecret)
	assert.Equal(t, []string{"scope1", "scope2"}, cfg.Scopes)
	assert.Equal(t, config.AuthStyleRequestBody, cfg.AuthStyle)
}

func TestRunInit_SkipsPromptsForFlags(t *testing.T) {
	setupCLI(t)
	path := filepath.Join(t.TempDir(), "client.yaml")

	prev := askOne
	askOne = MockSurveyAskOne(t, "", "", "")
	t.Cleanup(func() { askOne = prev })

	require.NoError(t, runInit(&InitOptions{
		Path:                   path,
		ClientID:               "id",
		DeviceAuthorizationURL: "https://a.example/device",
		TokenURL:               "https://a.example/token",
		Scopes:                 "openid",
		AuthStyle:              config.AuthStyleBasic,
		Transport:              config.TransportHTTP,
	}))
	assert.FileExists(t, path)
}

func TestRunInit_Errors(t *testing.T) {
	setupCLI(t)

	t.Run("existing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "client.yaml")
		require.NoError(t, os.WriteFile(path, []byte("client_id: old\n"), 0600))

		err := runInit(&InitOptions{Path: path, NoInteractive: true})
		assert.ErrorContains(t, err, "already exists")
	})

	t.Run("missing client id", func(t *testing.T) {
		err := runInit(&InitOptions{Path: filepath.Join(t.TempDir(), "c.yaml"), NoInteractive: true})
		assert.EqualError(t, err, "client_id is required")
	})

	t.Run("relative url", func(t *testing.T) {
		err := runInit(&InitOptions{
			Path:                   filepath.Join(t.TempDir(), "c.yaml"),
			NoInteractive:          true,
			ClientID:               "id",
			DeviceAuthorizationURL: "/device",
		})
		assert.Error(t, err)
	})
}

func TestValidateURL(t *testing.T) {
	assert.NoError(t, validateURL("https://auth.example.com/token"))
	assert.Error(t, validateURL("/token"))
	assert.Error(t, validateURL(""))
}
