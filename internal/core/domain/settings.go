package domain

import (
	"fmt"
	"time"
)

// Defaults for SyncSettings.
const (
	DefaultRegion            = "eu-west-1"
	DefaultPollInterval      = 5 * time.Minute
	DefaultRequestsPerSecond = 10.0
	DefaultRequestBurst      = 20
)

// Credential sources selectable in SyncSettings.
const (
	// CredentialsFromFile reads a key pair from the credentials file.
	CredentialsFromFile = "file"

	// CredentialsFromAWS uses the default AWS credential chain.
	CredentialsFromAWS = "aws"
)

// RemoteSettings configures the object store connection.
type RemoteSettings struct {
	// Bucket holds every update object.
	Bucket string

	// Region is the object store region.
	Region string

	// Endpoint overrides the service endpoint (MinIO and other S3-compatible stores).
	Endpoint string

	// UsePathStyle selects path-style bucket addressing.
	UsePathStyle bool

	// RequestsPerSecond limits object store calls. Zero disables limiting.
	RequestsPerSecond float64

	// RequestBurst is the limiter burst size.
	RequestBurst int
}

// SyncSettings is the typed view of the configuration file.
type SyncSettings struct {
	// Remote is the object store connection.
	Remote RemoteSettings

	// Namespace scopes reads and writes.
	Namespace Namespace

	// PollInterval is how often the scheduler checks for remote updates.
	// Zero disables polling.
	PollInterval time.Duration

	// DataDir holds the local log database. Empty means ~/.updatesync/data.
	DataDir string

	// CredentialsSource is CredentialsFromFile or CredentialsFromAWS.
	CredentialsSource string

	// CredentialsFile is watched for key pairs. Empty means
	// ~/.updatesync/credentials.toml.
	CredentialsFile string

	// UserID names the user when credentials come from the AWS chain.
	UserID string
}

// DefaultSyncSettings returns settings with defaults applied.
func DefaultSyncSettings() SyncSettings {
	return SyncSettings{
		Remote: RemoteSettings{
			Region:            DefaultRegion,
			RequestsPerSecond: DefaultRequestsPerSecond,
			RequestBurst:      DefaultRequestBurst,
		},
		Namespace: Namespace{
			WriteArea: "updates",
			ReadAreas: []string{"updates"},
		},
		PollInterval:      DefaultPollInterval,
		CredentialsSource: CredentialsFromFile,
	}
}

// Validate checks the settings are usable.
func (s SyncSettings) Validate() error {
	if s.Remote.Bucket == "" {
		return fmt.Errorf("%w: bucket is required", ErrInvalidInput)
	}
	if s.Remote.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: requests per second must not be negative", ErrInvalidInput)
	}
	if s.PollInterval < 0 {
		return fmt.Errorf("%w: poll interval must not be negative", ErrInvalidInput)
	}
	switch s.CredentialsSource {
	case CredentialsFromFile, CredentialsFromAWS:
	default:
		return fmt.Errorf("%w: unknown credentials source %q", ErrInvalidInput, s.CredentialsSource)
	}
	return s.Namespace.Validate()
}
