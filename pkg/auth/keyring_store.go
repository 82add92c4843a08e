package auth

import (
	"encoding/json"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "untappd-data"
	keyringPrefix  = "profile_"
)

// KeyringStore stores profiles in the system keyring
type KeyringStore struct{}

// NewKeyringStore creates a keyring-backed store. It probes the keyring
// with a throwaway entry and fails when the system has none available.
func NewKeyringStore() (*KeyringStore, error) {
	store := &KeyringStore{}
	if !store.isAvailable() {
		return nil, ErrStoreUnavailable
	}
	return store, nil
}

// isAvailable checks whether the system keyring can be used
func (k *KeyringStore) isAvailable() bool {
	probeKey := keyringPrefix + "availability_probe"
	if err := keyring.Set(keyringService, probeKey, "probe"); err != nil {
		return false
	}
	_ = keyring.Delete(keyringService, probeKey)
	return true
}

// Store saves a profile to the keyring as a JSON value
func (k *KeyringStore) Store(profile *Profile) error {
	if profile == nil || profile.Name == "" {
		return ErrInvalidProfile
	}

	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	if err := keyring.Set(keyringService, keyringPrefix+profile.Name, string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}

	return nil
}

// Retrieve gets a profile from the keyring
func (k *KeyringStore) Retrieve(name string) (*Profile, error) {
	if name == "" {
		return nil, ErrInvalidProfile
	}

	data, err := keyring.Get(keyringService, keyringPrefix+name)
	if err != nil {
		if err == keyring.ErrNotFound {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to read keyring: %w", err)
	}

	var profile Profile
	if err := json.Unmarshal([]byte(data), &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}

	return &profile, nil
}

// List returns stored profiles. The keyring library cannot enumerate
// entries, so the keyring never contributes to listings.
func (k *KeyringStore) List() ([]*Profile, error) {
	return []*Profile{}, nil
}

// Delete removes a profile from the keyring
func (k *KeyringStore) Delete(name string) error {
	if name == "" {
		return ErrInvalidProfile
	}

	if err := keyring.Delete(keyringService, keyringPrefix+name); err != nil {
		if err == keyring.ErrNotFound {
			return ErrProfileNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}

	return nil
}

// Exists checks whether the keyring holds a profile with this name
func (k *KeyringStore) Exists(name string) bool {
	_, err := keyring.Get(keyringService, keyringPrefix+name)
	return err == nil
}

// IsKeyringAvailable reports whether the system keyring can be used
func IsKeyringAvailable() bool {
	store := &KeyringStore{}
	return store.isAvailable()
}
