package credentials

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/updatesync/internal/signal"
)

type stubProvider struct {
	creds aws.Credentials
	err   error
}

func (p *stubProvider) Retrieve(context.Context) (aws.Credentials, error) {
	return p.creds, p.err
}

func TestProviderSource_Refresh(t *testing.T) {
	provider := &stubProvider{creds: aws.Credentials{
		AccessKeyID:     "AKID",
		SecretAccessKey: "secret",
		SessionToken:    "token",
		Source:          "stub",
	}}
	s := NewProviderSource(provider, "alice")
	assert.False(t, s.Availability().Get().Available)

	require.NoError(t, s.Refresh(context.Background()))

	state := s.Availability().Get()
	require.True(t, state.Available)
	assert.Equal(t, "AKID", state.Credentials.AccessKeyID)
	assert.Equal(t, "token", state.Credentials.SessionToken)
	assert.Equal(t, "alice", state.Credentials.UserID)
}

func TestProviderSource_FailureInvalidates(t *testing.T) {
	provider := &stubProvider{creds: aws.Credentials{AccessKeyID: "AKID", SecretAccessKey: "secret"}}
	s := NewProviderSource(provider, "")
	invalidations, cancel := signal.Collect(s.Invalidated())
	defer cancel()

	require.NoError(t, s.Refresh(context.Background()))

	provider.err = errors.New("sso session expired")
	require.Error(t, s.Refresh(context.Background()))
	assert.False(t, s.Availability().Get().Available)
	assert.Len(t, invalidations(), 1)

	// Already unavailable, so no second invalidation
	require.Error(t, s.Refresh(context.Background()))
	assert.Len(t, invalidations(), 1)
}

func TestProviderSource_ExpiredCredentials(t *testing.T) {
	provider := &stubProvider{creds: aws.Credentials{
		AccessKeyID:     "AKID",
		SecretAccessKey: "secret",
		CanExpire:       true,
		Expires:         time.Now().Add(-time.Minute),
	}}
	s := NewProviderSource(provider, "")

	err := s.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
	assert.False(t, s.Availability().Get().Available)
}

func TestProviderSource_NoKeys(t *testing.T) {
	s := NewProviderSource(&stubProvider{}, "")

	require.Error(t, s.Refresh(context.Background()))
	assert.False(t, s.Availability().Get().Available)
}
