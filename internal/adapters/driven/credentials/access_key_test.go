package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/updatesync/internal/core/domain"
	"github.com/custodia-labs/updatesync/internal/signal"
)

var testCreds = domain.Credentials{AccessKeyID: "AKID", SecretAccessKey: "secret", UserID: "alice"}

func TestNewAccessKeySource(t *testing.T) {
	t.Run("available immediately", func(t *testing.T) {
		s, err := NewAccessKeySource(testCreds)
		require.NoError(t, err)
		assert.Equal(t, domain.AvailableWith(testCreds), s.Availability().Get())
	})

	t.Run("rejects missing secret", func(t *testing.T) {
		_, err := NewAccessKeySource(domain.Credentials{AccessKeyID: "AKID"})
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestAccessKeySource_SignOut(t *testing.T) {
	s, err := NewAccessKeySource(testCreds)
	require.NoError(t, err)
	invalidations, cancel := signal.Collect(s.Invalidated())
	defer cancel()

	s.SignOut()

	assert.False(t, s.Availability().Get().Available)
	assert.Len(t, invalidations(), 1)

	// Signing out twice still notifies
	s.SignOut()
	assert.Len(t, invalidations(), 2)
}

func TestAccessKeySource_SignIn(t *testing.T) {
	s := NewSignedOutSource()
	assert.False(t, s.Availability().Get().Available)

	require.NoError(t, s.SignIn(testCreds))
	assert.True(t, s.Availability().Get().Available)

	err := s.SignIn(domain.Credentials{})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, testCreds, s.Availability().Get().Credentials)
}
