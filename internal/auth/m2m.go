package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// LoginMachine performs machine login using client credentials
func (m *Manager) LoginMachine(ctx context.Context) (*Credentials, error) {
	token, err := m.oauthProvider.ClientCredentialsToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to log in machine: %w", err)
	}

	creds := m.credentialsFromToken(token)
	if err := m.store.Save(creds); err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}

	if err := m.store.SetActorType(ActorMachine); err != nil {
		m.logger.Warn("failed to store actor type", zap.Error(err))
	}

	return creds, nil
}

// LoginMachineWithToken stores a pre-issued machine token. The expiry comes
// from the token's exp claim, or defaults to one hour when absent.
func (m *Manager) LoginMachineWithToken(token string) (*Credentials, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("token cannot be empty")
	}

	claims, err := ExtractClaims(token)
	if err != nil {
		return nil, fmt.Errorf("invalid token format: %w", err)
	}

	expiresAt := claims.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(time.Hour)
	}

	creds := &Credentials{
		TokenURL:    m.config.TokenURL,
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   &expiresAt,
		ClientID:    m.config.ClientID,
		User:        claims.DisplayName(),
	}
	if err := m.store.Save(creds); err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}

	if err := m.store.SetActorType(ActorMachine); err != nil {
		m.logger.Warn("failed to store actor type", zap.Error(err))
	}

	return creds, nil
}

// GetActorType returns whether the current actor is a user or machine
func (m *Manager) GetActorType() string {
	actorType, err := m.store.GetActorType()
	if err == nil && actorType != "" {
		return actorType
	}
	return ActorUser
}
