package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
	"golang.org/x/net/http2"
	xh2c "golang.org/x/net/http2/h2c"
)

// TestCommandExecution describes one run of the root command
type TestCommandExecution struct {
	Args         []string
	ExpectError  bool
	ExpectOutput []string
	Validate     func(t *testing.T, output string, err error)
}

// ExecuteCommandTest runs the root command with args and checks the result.
// Output includes both the command's writer and the status helpers.
func ExecuteCommandTest(t *testing.T, test TestCommandExecution) string {
	t.Helper()

	var out bytes.Buffer
	prev := colorOutput
	colorOutput = &out
	t.Cleanup(func() { colorOutput = prev })

	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(test.Args)

	err := cmd.Execute()
	if test.ExpectError {
		assert.Error(t, err)
	} else {
		assert.NoError(t, err)
	}

	output := out.String()
	for _, expected := range test.ExpectOutput {
		assert.Contains(t, output, expected)
	}
	if test.Validate != nil {
		test.Validate(t, output, err)
	}
	return output
}

// setupCLI isolates the keyring, config dir and colors for one test
func setupCLI(t *testing.T) {
	t.Helper()
	keyring.MockInit()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

// writeConfig writes a config pointing at serverURL and returns its path
func writeConfig(t *testing.T, serverURL, transport string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "client.yaml")
	content := fmt.Sprintf(`client_id: test-client-id
client_secret: Client-secret
device_authorization_url: %[1]s/device
token_url: %[1]s/token
scopes: [scope1, scope2]
auth_style: request-body
transport: %[2]s
timeout: 5s
keyring_service: %[3]s
`, serverURL, transport, "oauth2-http-client-"+t.Name())
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

const deviceResponse = `{"device_code":"test-device-code","user_code":"TEST-1234","verification_uri":"https://localhost:8080/verify","expires_in":1800,"interval":1}`

func authHandler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/device", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "test-client-id", r.PostForm.Get("client_id"))
		assert.Equal(t, "scope1 scope2", r.PostForm.Get("scope"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(deviceResponse))
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "Client-secret", r.PostForm.Get("client_secret"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "test-access-token:" + r.PostForm.Get("grant_type"),
			"refresh_token": "test-refresh-token",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	})
	return mux
}

func newAuthServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(authHandler(t))
	t.Cleanup(server.Close)
	return server
}

func newH2CAuthServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(xh2c.NewHandler(authHandler(t), &http2.Server{}))
	t.Cleanup(server.Close)
	return server
}

// MockSurveyAskOne answers prompts from a queue in order
func MockSurveyAskOne(t *testing.T, responses ...string) func(p survey.Prompt, response interface{}, opts ...survey.AskOpt) error {
	return func(p survey.Prompt, resp interface{}, opts ...survey.AskOpt) error {
		require.NotEmpty(t, responses, "unexpected prompt %T", p)
		v, ok := resp.(*string)
		require.True(t, ok)
		*v, responses = responses[0], responses[1:]
		return nil
	}
}
