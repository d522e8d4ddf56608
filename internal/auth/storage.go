package auth

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// CredentialStore provides secure storage for authentication credentials
type CredentialStore interface {
	// Load retrieves stored credentials
	Load() (*Credentials, error)
	// Save stores credentials securely
	Save(creds *Credentials) error
	// Delete removes stored credentials
	Delete() error
	// Exists checks if credentials are stored
	Exists() bool

	SetActorType(actorType string) error
	GetActorType() (string, error)
}

const actorTypeUser = "actor-type"

// KeyringStore implements CredentialStore using OS keyring
type KeyringStore struct {
	service string
}

// NewKeyringStore creates a keyring-backed store under service
func NewKeyringStore(service string) *KeyringStore {
	return &KeyringStore{service: service}
}

// Load retrieves stored credentials from the keyring
func (s *KeyringStore) Load() (*Credentials, error) {
	data, err := keyring.Get(s.service, KeyringUsername)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNotLoggedIn
		}
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal([]byte(data), &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}

	return &creds, nil
}

// Save stores credentials in the keyring
func (s *KeyringStore) Save(creds *Credentials) error {
	if creds == nil {
		return fmt.Errorf("cannot save nil credentials")
	}

	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	if err := keyring.Set(s.service, KeyringUsername, string(data)); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	return nil
}

// Delete removes stored credentials and the actor type
func (s *KeyringStore) Delete() error {
	for _, user := range []string{KeyringUsername, actorTypeUser} {
		if err := keyring.Delete(s.service, user); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("failed to delete credentials: %w", err)
		}
	}
	return nil
}

// Exists checks if credentials are stored
func (s *KeyringStore) Exists() bool {
	_, err := keyring.Get(s.service, KeyringUsername)
	return err == nil
}

// SetActorType stores whether the current actor is a user or machine
func (s *KeyringStore) SetActorType(actorType string) error {
	return keyring.Set(s.service, actorTypeUser, actorType)
}

// GetActorType retrieves the stored actor type
func (s *KeyringStore) GetActorType() (string, error) {
	actorType, err := keyring.Get(s.service, actorTypeUser)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("actor type not set")
		}
		return "", fmt.Errorf("failed to get actor type: %w", err)
	}
	return actorType, nil
}
