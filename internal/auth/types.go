package auth

import (
	"errors"
	"time"

	"golang.org/x/oauth2"
)

// Credentials represents stored authentication credentials
type Credentials struct {
	// Token endpoint the credentials were issued by
	TokenURL string `json:"token_url,omitempty"`
	// OAuth access token
	AccessToken string `json:"access_token"`
	// Token type, usually Bearer
	TokenType string `json:"token_type,omitempty"`
	// OAuth refresh token for renewing access
	RefreshToken string `json:"refresh_token,omitempty"`
	// Token expiration time
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	// Client ID used for authentication
	ClientID string `json:"client_id,omitempty"`
	// Display name taken from the token claims, if any
	User string `json:"user,omitempty"`
}

// IsExpired checks if the access token has expired
func (c *Credentials) IsExpired() bool {
	if c.ExpiresAt == nil {
		return false // No expiry means token doesn't expire
	}
	return time.Now().After(*c.ExpiresAt)
}

// TimeUntilExpiry returns the duration until token expiry
func (c *Credentials) TimeUntilExpiry() time.Duration {
	if c.ExpiresAt == nil {
		return time.Duration(0)
	}
	return time.Until(*c.ExpiresAt)
}

// Token converts the credentials back into an engine token
func (c *Credentials) Token() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  c.AccessToken,
		TokenType:    c.TokenType,
		RefreshToken: c.RefreshToken,
	}
	if c.ExpiresAt != nil {
		tok.Expiry = *c.ExpiresAt
	}
	return tok
}

// AuthStatus represents the current authentication status
type AuthStatus struct {
	LoggedIn     bool
	Credentials  *Credentials
	ActorType    string
	Error        error
	NeedsRefresh bool
}

// LoginConfig contains configuration for the login process
type LoginConfig struct {
	// Don't open browser automatically
	NoBrowser bool
	// Force re-authentication even if already logged in
	Force bool
	// Recorded on stored credentials
	ClientID string
	TokenURL string
}

const (
	// Keyring username holding the credentials
	KeyringUsername = "default"

	ActorUser    = "user"
	ActorMachine = "machine"
)

var (
	// ErrNotLoggedIn is returned when no credentials are stored
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrAlreadyLoggedIn is returned by StartDeviceFlow when valid credentials exist
	ErrAlreadyLoggedIn = errors.New("already logged in")
)

// Device flow error codes from RFC 8628 section 3.5
const (
	ErrCodeAuthorizationPending = "authorization_pending"
	ErrCodeSlowDown             = "slow_down"
	ErrCodeAccessDenied         = "access_denied"
	ErrCodeExpiredToken         = "expired_token"
)

// ErrorCode returns the OAuth error code carried by err, or "" when err is not
// an authorization server error response.
func ErrorCode(err error) string {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		return re.ErrorCode
	}
	return ""
}
