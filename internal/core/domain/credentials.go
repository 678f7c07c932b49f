package domain

// Credentials is the payload published while remote access is possible.
// It is passed to the object store per request; nothing is stored globally.
type Credentials struct {
	// AccessKeyID is the object store access key.
	AccessKeyID string `toml:"access_key_id"`

	// SecretAccessKey is the secret paired with AccessKeyID.
	SecretAccessKey string `toml:"secret_access_key"`

	// SessionToken is set for temporary credentials.
	SessionToken string `toml:"session_token,omitempty"`

	// UserID identifies the signed-in user, substituted into area names.
	// Empty when the credentials are not user scoped.
	UserID string `toml:"user_id,omitempty"`
}

// HasKeys returns true if both halves of the key pair are present.
func (c Credentials) HasKeys() bool {
	return c.AccessKeyID != "" && c.SecretAccessKey != ""
}

// CredentialsState is the availability signal published by a credentials source.
// Credentials is meaningful only while Available is true.
type CredentialsState struct {
	Available   bool
	Credentials Credentials
}

// Unavailable is the state published after sign-out or invalidation.
var Unavailable = CredentialsState{}

// AvailableWith returns an available state carrying creds.
func AvailableWith(creds Credentials) CredentialsState {
	return CredentialsState{Available: true, Credentials: creds}
}
