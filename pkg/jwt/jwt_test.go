package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RoundTrip(t *testing.T) {
	m := NewManager("test-key", "estatehub-bff", time.Hour)
	userID := uuid.New()

	token, err := m.GenerateAdminToken(userID)
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, TokenTypeAdmin, claims.TokenType)
}

func TestManager_RejectsForeignTokens(t *testing.T) {
	token, err := NewManager("other-key", "estatehub-bff", time.Hour).GenerateAdminToken(uuid.New())
	require.NoError(t, err)
	_, err = NewManager("test-key", "estatehub-bff", time.Hour).Validate(token)
	assert.Error(t, err)

	token, err = NewManager("test-key", "someone-else", time.Hour).GenerateAdminToken(uuid.New())
	require.NoError(t, err)
	_, err = NewManager("test-key", "estatehub-bff", time.Hour).Validate(token)
	assert.Error(t, err)
}

func TestManager_Expired(t *testing.T) {
	m := NewManager("test-key", "estatehub-bff", time.Minute)
	issued := time.Now().Add(-time.Hour)
	m.now = func() time.Time { return issued }
	token, err := m.GenerateAdminToken(uuid.New())
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Validate(token)
	assert.Error(t, err)
}

func TestManager_DisabledWithoutKey(t *testing.T) {
	m := NewManager("", "estatehub-bff", time.Hour)
	assert.False(t, m.Enabled())
	_, err := m.GenerateAdminToken(uuid.New())
	assert.ErrorIs(t, err, ErrSigningKeyMissing)
	_, err = m.Validate("x.y.z")
	assert.ErrorIs(t, err, ErrSigningKeyMissing)
}
