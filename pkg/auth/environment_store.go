package auth

import "os"

// environmentProfileName identifies the synthetic profile built from
// environment variables.
const environmentProfileName = "environment"

// EnvironmentStore reads credentials from environment variables. It is read
// only; Store and Delete report ErrStoreUnavailable.
type EnvironmentStore struct{}

// NewEnvironmentStore creates an environment-backed store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Retrieve builds a profile from the environment. The variable names match
// what the deployment has always used, so an environment that drives the
// pipeline directly also satisfies the credential manager.
func (e *EnvironmentStore) Retrieve(name string) (*Profile, error) {
	if name != "" && name != environmentProfileName {
		return nil, ErrProfileNotFound
	}

	profile := &Profile{
		Name:                   environmentProfileName,
		AccessKeyID:            os.Getenv("untappd_access_key_id"),
		SecretAccessKey:        os.Getenv("untappd_secret_access_key"),
		FoursquareClientID:     os.Getenv("foursquare_client_id"),
		FoursquareClientSecret: os.Getenv("foursquare_client_secret"),
	}

	if !profile.HasStoreCredentials() && !profile.HasFoursquareCredentials() {
		return nil, ErrProfileNotFound
	}

	return profile, nil
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(profile *Profile) error {
	return ErrStoreUnavailable
}

// List returns the environment profile when the environment carries credentials
func (e *EnvironmentStore) List() ([]*Profile, error) {
	profile, err := e.Retrieve(environmentProfileName)
	if err != nil {
		return []*Profile{}, nil
	}
	return []*Profile{profile}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists checks whether the environment carries credentials
func (e *EnvironmentStore) Exists(name string) bool {
	_, err := e.Retrieve(name)
	return err == nil
}
