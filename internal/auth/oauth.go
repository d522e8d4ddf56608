package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/LorenzoLeonardo/oauth2-http-client/internal/config"
	"github.com/LorenzoLeonardo/oauth2-http-client/pkg/oauth2http"
	"github.com/LorenzoLeonardo/oauth2-http-client/pkg/transport"
)

// OAuthClient drives the oauth2 engine over a pluggable transport
type OAuthClient struct {
	config *oauth2.Config
	http   *oauth2http.Client
}

// Ensure OAuthClient implements OAuthProvider
var _ OAuthProvider = (*OAuthClient)(nil)

// NewOAuthClient creates a client for the endpoints in cfg. Every request the
// engine makes goes through iface.
func NewOAuthClient(cfg *config.Config, iface transport.Interface) *OAuthClient {
	return &OAuthClient{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				DeviceAuthURL: cfg.DeviceAuthorizationURL,
				TokenURL:      cfg.TokenURL,
				AuthStyle:     ParseAuthStyle(cfg.AuthStyle),
			},
			Scopes: cfg.Scopes,
		},
		http: oauth2http.New(iface),
	}
}

// ParseAuthStyle maps a config auth_style value to the engine's setting
func ParseAuthStyle(s string) oauth2.AuthStyle {
	switch s {
	case config.AuthStyleRequestBody:
		return oauth2.AuthStyleInParams
	case config.AuthStyleBasic:
		return oauth2.AuthStyleInHeader
	default:
		return oauth2.AuthStyleAutoDetect
	}
}

// StartDeviceFlow initiates the OAuth device flow
func (c *OAuthClient) StartDeviceFlow(ctx context.Context) (*oauth2.DeviceAuthResponse, error) {
	da, err := c.config.DeviceAuth(c.http.Context(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to request device authorization: %w", err)
	}
	return da, nil
}

// PollForToken polls the token endpoint until authentication completes. The
// engine handles authorization_pending and slow_down and stops at the device
// code's expiry.
func (c *OAuthClient) PollForToken(ctx context.Context, da *oauth2.DeviceAuthResponse) (*oauth2.Token, error) {
	tok, err := c.config.DeviceAccessToken(c.http.Context(ctx), da)
	if err != nil {
		switch ErrorCode(err) {
		case ErrCodeExpiredToken:
			return nil, fmt.Errorf("device code expired, please try again: %w", err)
		case ErrCodeAccessDenied:
			return nil, fmt.Errorf("authorization denied: %w", err)
		}
		return nil, fmt.Errorf("failed to request token: %w", err)
	}
	return tok, nil
}

// RefreshToken refreshes an expired access token
func (c *OAuthClient) RefreshToken(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	ts := c.config.TokenSource(c.http.Context(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("refresh grant failed: %w", err)
	}
	return tok, nil
}

// ClientCredentialsToken exchanges the client id and secret for a token
func (c *OAuthClient) ClientCredentialsToken(ctx context.Context) (*oauth2.Token, error) {
	cc := &clientcredentials.Config{
		ClientID:     c.config.ClientID,
		ClientSecret: c.config.ClientSecret,
		TokenURL:     c.config.Endpoint.TokenURL,
		Scopes:       c.config.Scopes,
		AuthStyle:    c.config.Endpoint.AuthStyle,
	}
	tok, err := cc.Token(c.http.Context(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange credentials: %w", err)
	}
	return tok, nil
}
