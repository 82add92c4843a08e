package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/dallangoldblatt/untappd-data/pkg/config"
)

// Profile is a named set of pipeline credentials: the object store key pair
// and the Foursquare API key pair. A profile may carry only one of the two
// pairs when the other service is configured elsewhere.
type Profile struct {
	Name                   string    `json:"name"`
	AccessKeyID            string    `json:"access_key_id,omitempty"`
	SecretAccessKey        string    `json:"secret_access_key,omitempty"`
	FoursquareClientID     string    `json:"foursquare_client_id,omitempty"`
	FoursquareClientSecret string    `json:"foursquare_client_secret,omitempty"`
	LastModified           time.Time `json:"last_modified"`
}

// HasStoreCredentials reports whether the profile carries an object store key pair.
func (p *Profile) HasStoreCredentials() bool {
	return p.AccessKeyID != "" && p.SecretAccessKey != ""
}

// HasFoursquareCredentials reports whether the profile carries a Foursquare key pair.
func (p *Profile) HasFoursquareCredentials() bool {
	return p.FoursquareClientID != "" && p.FoursquareClientSecret != ""
}

// Apply copies the profile's credentials into the configuration. Pairs the
// profile does not carry leave the configuration untouched.
func (p *Profile) Apply(cfg *config.Config) {
	if p.HasStoreCredentials() {
		cfg.Store.AccessKeyID = p.AccessKeyID
		cfg.Store.SecretAccessKey = p.SecretAccessKey
	}
	if p.HasFoursquareCredentials() {
		cfg.Foursquare.ClientID = p.FoursquareClientID
		cfg.Foursquare.ClientSecret = p.FoursquareClientSecret
	}
}

// Common errors returned by credential stores
var (
	ErrProfileNotFound  = errors.New("profile not found")
	ErrInvalidProfile   = errors.New("invalid profile")
	ErrStoreUnavailable = errors.New("credential store unavailable")
)

// CredentialStore is the interface for storing and retrieving profiles
type CredentialStore interface {
	// Store saves a profile
	Store(profile *Profile) error

	// Retrieve gets a profile by name
	Retrieve(name string) (*Profile, error)

	// List returns all stored profiles
	List() ([]*Profile, error)

	// Delete removes a profile by name
	Delete(name string) error

	// Exists checks if a profile exists
	Exists(name string) bool
}

// Manager handles profile storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a credential manager with the available storage backends
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	// Keyring first (system keychain)
	keyringStore, err := NewKeyringStore()
	if err == nil {
		stores = append(stores, keyringStore)
	}

	// Encrypted file store as fallback
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "profiles.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	// Environment variables as last resort
	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// Store saves a profile using the first store that accepts it
func (m *Manager) Store(profile *Profile) error {
	if profile == nil || profile.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProfile)
	}
	if !profile.HasStoreCredentials() && !profile.HasFoursquareCredentials() {
		return fmt.Errorf("%w: profile %q carries no credentials", ErrInvalidProfile, profile.Name)
	}

	profile.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(profile); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store profile: %w", lastErr)
	}
	return ErrStoreUnavailable
}

// Retrieve gets a profile from the first store that has it
func (m *Manager) Retrieve(name string) (*Profile, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidProfile)
	}

	for _, store := range m.stores {
		if profile, err := store.Retrieve(name); err == nil && profile != nil {
			return profile, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
}

// RetrieveDefault gets the profile to use when none was named. Environment
// credentials are preferred, otherwise the most recently modified profile.
func (m *Manager) RetrieveDefault() (*Profile, error) {
	if envStore, ok := m.stores[len(m.stores)-1].(*EnvironmentStore); ok {
		if profile, err := envStore.Retrieve("environment"); err == nil && profile != nil {
			return profile, nil
		}
	}

	profiles, err := m.List()
	if err != nil || len(profiles) == 0 {
		return nil, ErrProfileNotFound
	}

	latest := profiles[0]
	for _, profile := range profiles[1:] {
		if profile.LastModified.After(latest.LastModified) {
			latest = profile
		}
	}
	return latest, nil
}

// List returns all stored profiles from all stores, sorted by name. When a
// name appears in more than one store the most recently modified copy wins.
func (m *Manager) List() ([]*Profile, error) {
	profileMap := make(map[string]*Profile)

	for _, store := range m.stores {
		profiles, err := store.List()
		if err != nil {
			continue
		}
		for _, profile := range profiles {
			if existing, ok := profileMap[profile.Name]; !ok || profile.LastModified.After(existing.LastModified) {
				profileMap[profile.Name] = profile
			}
		}
	}

	result := make([]*Profile, 0, len(profileMap))
	for _, profile := range profileMap {
		result = append(result, profile)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	return result, nil
}

// Delete removes a profile from all stores
func (m *Manager) Delete(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProfile)
	}

	var deleted bool
	var lastErr error
	for _, store := range m.stores {
		if err := store.Delete(name); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete profile: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}

	return nil
}

// DeleteAll removes every stored profile
func (m *Manager) DeleteAll() error {
	profiles, err := m.List()
	if err != nil {
		return err
	}

	for _, profile := range profiles {
		_ = m.Delete(profile.Name)
	}

	return nil
}

// getConfigDir returns the configuration directory path
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "untappd-data")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "untappd-data")
	default: // Linux and others
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "untappd-data")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "untappd-data")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// SanitizeProfile creates a copy of the profile with secrets masked
func SanitizeProfile(profile *Profile) *Profile {
	if profile == nil {
		return nil
	}

	sanitized := *profile
	sanitized.SecretAccessKey = maskString(profile.SecretAccessKey)
	sanitized.FoursquareClientSecret = maskString(profile.FoursquareClientSecret)
	return &sanitized
}

// maskString hides all but the last four characters of a secret
func maskString(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}
