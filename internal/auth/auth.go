// Package auth runs the device authorization and client credentials grants
// and keeps the resulting credentials in the OS keyring.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Manager handles authentication operations
type Manager struct {
	store         CredentialStore
	oauthProvider OAuthProvider
	browserOpener BrowserOpener
	config        *LoginConfig
	logger        *zap.Logger
}

// NewManager creates a new authentication manager. A nil logger disables
// logging.
func NewManager(store CredentialStore, provider OAuthProvider, config *LoginConfig, logger *zap.Logger) *Manager {
	if config == nil {
		config = &LoginConfig{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Manager{
		store:         store,
		oauthProvider: provider,
		browserOpener: defaultBrowserOpener{},
		config:        config,
		logger:        logger,
	}
}

// NewManagerWithMocks creates a manager with all dependencies supplied
// This is specifically for testing to prevent any external interactions
func NewManagerWithMocks(store CredentialStore, provider OAuthProvider, browser BrowserOpener, config *LoginConfig) *Manager {
	m := NewManager(store, provider, config, nil)
	m.browserOpener = browser
	return m
}

// StartDeviceFlow starts the OAuth device flow and returns device auth info
func (m *Manager) StartDeviceFlow(ctx context.Context) (*oauth2.DeviceAuthResponse, error) {
	// Check if already logged in (unless force is set)
	if !m.config.Force {
		if creds, err := m.store.Load(); err == nil && creds != nil {
			if !creds.IsExpired() {
				return nil, ErrAlreadyLoggedIn
			}
			if creds.RefreshToken != "" {
				if _, err := m.Refresh(ctx, creds); err == nil {
					return nil, fmt.Errorf("%w (token refreshed)", ErrAlreadyLoggedIn)
				}
				m.logger.Debug("refresh of expired credentials failed, starting device flow")
			}
		}
	}

	deviceAuth, err := m.oauthProvider.StartDeviceFlow(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start device flow: %w", err)
	}
	m.logger.Debug("device authorization granted",
		zap.String("user_code", deviceAuth.UserCode),
		zap.String("verification_uri", deviceAuth.VerificationURI),
		zap.Time("expiry", deviceAuth.Expiry),
	)

	if !m.config.NoBrowser && m.browserOpener != nil {
		if err := m.browserOpener.OpenURL(VerificationURL(deviceAuth)); err != nil {
			m.logger.Warn("failed to open browser", zap.Error(err))
		}
	}

	return deviceAuth, nil
}

// VerificationURL returns the URL the user should visit, preferring the one
// with the user code embedded.
func VerificationURL(da *oauth2.DeviceAuthResponse) string {
	if da.VerificationURIComplete != "" {
		return da.VerificationURIComplete
	}
	return da.VerificationURI
}

// CompleteDeviceFlow polls for the token and stores the credentials
func (m *Manager) CompleteDeviceFlow(ctx context.Context, deviceAuth *oauth2.DeviceAuthResponse) (*Credentials, error) {
	token, err := m.oauthProvider.PollForToken(ctx, deviceAuth)
	if err != nil {
		return nil, fmt.Errorf("failed to complete login: %w", err)
	}

	creds := m.credentialsFromToken(token)
	if err := m.store.Save(creds); err != nil {
		return nil, fmt.Errorf("failed to save credentials: %w", err)
	}

	if err := m.store.SetActorType(ActorUser); err != nil {
		m.logger.Warn("failed to store actor type", zap.Error(err))
	}

	return creds, nil
}

// Login performs the complete OAuth device flow login
func (m *Manager) Login(ctx context.Context) (*Credentials, error) {
	deviceAuth, err := m.StartDeviceFlow(ctx)
	if err != nil {
		return nil, err
	}
	return m.CompleteDeviceFlow(ctx, deviceAuth)
}

// Logout removes stored credentials
func (m *Manager) Logout() error {
	return m.store.Delete()
}

// Status returns the current authentication status
func (m *Manager) Status() *AuthStatus {
	creds, err := m.store.Load()
	if err != nil || creds == nil {
		if errors.Is(err, ErrNotLoggedIn) {
			err = nil
		}
		return &AuthStatus{
			LoggedIn: false,
			Error:    err,
		}
	}

	status := &AuthStatus{
		LoggedIn:     true,
		Credentials:  creds,
		NeedsRefresh: creds.IsExpired(),
	}
	if actorType, err := m.store.GetActorType(); err == nil {
		status.ActorType = actorType
	}

	return status
}

// GetToken returns the current access token, refreshing if necessary
func (m *Manager) GetToken(ctx context.Context) (string, error) {
	creds, err := m.store.Load()
	if err != nil || creds == nil {
		return "", ErrNotLoggedIn
	}

	if creds.IsExpired() {
		if creds.RefreshToken == "" {
			return "", fmt.Errorf("token expired and no refresh token available")
		}
		refreshed, err := m.Refresh(ctx, creds)
		if err != nil {
			return "", err
		}
		creds = refreshed
	}

	return creds.AccessToken, nil
}

// Refresh refreshes an expired access token
func (m *Manager) Refresh(ctx context.Context, creds *Credentials) (*Credentials, error) {
	if creds.RefreshToken == "" {
		return nil, fmt.Errorf("no refresh token available")
	}

	token, err := m.oauthProvider.RefreshToken(ctx, creds.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}

	newCreds := m.credentialsFromToken(token)
	newCreds.ClientID = creds.ClientID
	newCreds.TokenURL = creds.TokenURL
	if newCreds.RefreshToken == "" {
		// Keep the existing refresh token if the server did not rotate it
		newCreds.RefreshToken = creds.RefreshToken
	}
	if newCreds.User == "" {
		newCreds.User = creds.User
	}

	if err := m.store.Save(newCreds); err != nil {
		return nil, fmt.Errorf("failed to save refreshed credentials: %w", err)
	}

	return newCreds, nil
}

func (m *Manager) credentialsFromToken(token *oauth2.Token) *Credentials {
	creds := &Credentials{
		TokenURL:     m.config.TokenURL,
		AccessToken:  token.AccessToken,
		TokenType:    token.Type(),
		RefreshToken: token.RefreshToken,
		ClientID:     m.config.ClientID,
	}
	if !token.Expiry.IsZero() {
		expiresAt := token.Expiry
		creds.ExpiresAt = &expiresAt
	}

	// Opaque tokens are common, so missing claims are not an error
	if claims, err := ExtractTokenClaims(token); err == nil {
		creds.User = claims.DisplayName()
	} else {
		m.logger.Debug("token carries no readable claims", zap.Error(err))
	}
	return creds
}

// ExpiresIn is the remaining lifetime until t in whole seconds, zero when t
// is unset.
func ExpiresIn(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return int64(time.Until(t).Round(time.Second) / time.Second)
}
