package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// MockOAuthProvider is a mock implementation of OAuthProvider for testing
type MockOAuthProvider struct {
	mu sync.Mutex

	StartDeviceFlowFunc  func(ctx context.Context) (*oauth2.DeviceAuthResponse, error)
	StartDeviceFlowCalls int

	PollForTokenFunc  func(ctx context.Context, da *oauth2.DeviceAuthResponse) (*oauth2.Token, error)
	PollForTokenCalls []*oauth2.DeviceAuthResponse

	RefreshTokenFunc  func(ctx context.Context, refreshToken string) (*oauth2.Token, error)
	RefreshTokenCalls []string

	ClientCredentialsFunc  func(ctx context.Context) (*oauth2.Token, error)
	ClientCredentialsCalls int
}

var _ OAuthProvider = (*MockOAuthProvider)(nil)

func (m *MockOAuthProvider) StartDeviceFlow(ctx context.Context) (*oauth2.DeviceAuthResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.StartDeviceFlowCalls++
	if m.StartDeviceFlowFunc != nil {
		return m.StartDeviceFlowFunc(ctx)
	}
	return &oauth2.DeviceAuthResponse{
		DeviceCode:      "mock-device-code",
		UserCode:        "MOCK-CODE",
		VerificationURI: "https://mock.auth/device",
		Expiry:          time.Now().Add(10 * time.Minute),
		Interval:        5,
	}, nil
}

func (m *MockOAuthProvider) PollForToken(ctx context.Context, da *oauth2.DeviceAuthResponse) (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PollForTokenCalls = append(m.PollForTokenCalls, da)
	if m.PollForTokenFunc != nil {
		return m.PollForTokenFunc(ctx, da)
	}
	return &oauth2.Token{
		AccessToken:  "mock-access-token",
		RefreshToken: "mock-refresh-token",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour),
	}, nil
}

func (m *MockOAuthProvider) RefreshToken(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RefreshTokenCalls = append(m.RefreshTokenCalls, refreshToken)
	if m.RefreshTokenFunc != nil {
		return m.RefreshTokenFunc(ctx, refreshToken)
	}
	return &oauth2.Token{
		AccessToken:  "mock-refreshed-token",
		RefreshToken: "mock-new-refresh-token",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour),
	}, nil
}

func (m *MockOAuthProvider) ClientCredentialsToken(ctx context.Context) (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ClientCredentialsCalls++
	if m.ClientCredentialsFunc != nil {
		return m.ClientCredentialsFunc(ctx)
	}
	return &oauth2.Token{
		AccessToken: "mock-machine-token",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Hour),
	}, nil
}

// MockBrowserOpener records the URLs it was asked to open
type MockBrowserOpener struct {
	mu sync.Mutex

	OpenURLFunc  func(url string) error
	OpenURLCalls []string
}

func (m *MockBrowserOpener) OpenURL(url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.OpenURLCalls = append(m.OpenURLCalls, url)
	if m.OpenURLFunc != nil {
		return m.OpenURLFunc(url)
	}
	return nil
}

// MockStore implements CredentialStore in memory
type MockStore struct {
	mu        sync.Mutex
	creds     *Credentials
	actorType string
	err       error
}

var _ CredentialStore = (*MockStore)(nil)

func NewMockStore(creds *Credentials, err error) *MockStore {
	return &MockStore{creds: creds, err: err}
}

func (m *MockStore) Load() (*Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	if m.creds == nil {
		return nil, ErrNotLoggedIn
	}
	return m.creds, nil
}

func (m *MockStore) Save(creds *Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.creds = creds
	return nil
}

func (m *MockStore) Delete() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.creds = nil
	m.actorType = ""
	return nil
}

func (m *MockStore) Exists() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creds != nil
}

func (m *MockStore) SetActorType(actorType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.actorType = actorType
	return nil
}

func (m *MockStore) GetActorType() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return "", m.err
	}
	if m.actorType == "" {
		return "", errors.New("actor type not set")
	}
	return m.actorType, nil
}

// MockBuilder provides a fluent interface for building test scenarios
type MockBuilder struct {
	provider *MockOAuthProvider
	store    *MockStore
	browser  *MockBrowserOpener
	config   *LoginConfig
}

func NewMockBuilder() *MockBuilder {
	return &MockBuilder{
		provider: &MockOAuthProvider{},
		store:    NewMockStore(nil, nil),
		browser:  &MockBrowserOpener{},
		config:   &LoginConfig{NoBrowser: true, ClientID: "test-client-id", TokenURL: "https://auth.test/token"},
	}
}

func (b *MockBuilder) WithDeviceFlow(resp *oauth2.DeviceAuthResponse, err error) *MockBuilder {
	b.provider.StartDeviceFlowFunc = func(ctx context.Context) (*oauth2.DeviceAuthResponse, error) {
		return resp, err
	}
	return b
}

func (b *MockBuilder) WithPoll(tok *oauth2.Token, err error) *MockBuilder {
	b.provider.PollForTokenFunc = func(ctx context.Context, da *oauth2.DeviceAuthResponse) (*oauth2.Token, error) {
		return tok, err
	}
	return b
}

func (b *MockBuilder) WithRefreshToken(tok *oauth2.Token, err error) *MockBuilder {
	b.provider.RefreshTokenFunc = func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
		return tok, err
	}
	return b
}

func (b *MockBuilder) WithStoredCredentials(creds *Credentials) *MockBuilder {
	b.store = NewMockStore(creds, nil)
	return b
}

func (b *MockBuilder) WithStoreError(err error) *MockBuilder {
	b.store = NewMockStore(nil, err)
	return b
}

func (b *MockBuilder) WithBrowser() *MockBuilder {
	b.config.NoBrowser = false
	return b
}

func (b *MockBuilder) Build() (*Manager, *MockOAuthProvider, *MockStore, *MockBrowserOpener) {
	manager := NewManagerWithMocks(b.store, b.provider, b.browser, b.config)
	return manager, b.provider, b.store, b.browser
}

// TestHelpers provides fixtures for tests
type TestHelpers struct{}

func NewTestHelpers() *TestHelpers {
	return &TestHelpers{}
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func (h *TestHelpers) ExpiredCredentials() *Credentials {
	return &Credentials{
		TokenURL:     "https://auth.test/token",
		AccessToken:  "expired-token",
		RefreshToken: "refresh-token",
		ExpiresAt:    timePtr(time.Now().Add(-time.Hour)),
		ClientID:     "test-client-id",
		User:         "alice",
	}
}

func (h *TestHelpers) ValidCredentials() *Credentials {
	return &Credentials{
		TokenURL:     "https://auth.test/token",
		AccessToken:  "valid-token",
		RefreshToken: "refresh-token",
		ExpiresAt:    timePtr(time.Now().Add(time.Hour)),
		ClientID:     "test-client-id",
	}
}

func (h *TestHelpers) DeviceAuthResponse() *oauth2.DeviceAuthResponse {
	return &oauth2.DeviceAuthResponse{
		DeviceCode:              "device-123",
		UserCode:                "USER-123",
		VerificationURI:         "https://auth.example.com/device",
		VerificationURIComplete: "https://auth.example.com/device?code=USER-123",
		Expiry:                  time.Now().Add(10 * time.Minute),
		Interval:                5,
	}
}

func (h *TestHelpers) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour),
	}
}

// RetrieveError builds the error the engine returns for an OAuth error response
func (h *TestHelpers) RetrieveError(code string) *oauth2.RetrieveError {
	return &oauth2.RetrieveError{ErrorCode: code}
}
