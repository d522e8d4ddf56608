package auth

import (
	"context"

	"github.com/pkg/browser"
	"golang.org/x/oauth2"
)

// OAuthProvider defines the interface for OAuth operations
type OAuthProvider interface {
	// StartDeviceFlow requests a device and user code
	StartDeviceFlow(ctx context.Context) (*oauth2.DeviceAuthResponse, error)
	// PollForToken polls the token endpoint until the user completes authorization
	PollForToken(ctx context.Context, da *oauth2.DeviceAuthResponse) (*oauth2.Token, error)
	// RefreshToken exchanges a refresh token for a new access token
	RefreshToken(ctx context.Context, refreshToken string) (*oauth2.Token, error)
	// ClientCredentialsToken performs the client credentials grant
	ClientCredentialsToken(ctx context.Context) (*oauth2.Token, error)
}

// BrowserOpener defines the interface for opening URLs in a browser
type BrowserOpener interface {
	OpenURL(url string) error
}

type defaultBrowserOpener struct{}

func (defaultBrowserOpener) OpenURL(url string) error {
	return browser.OpenURL(url)
}
